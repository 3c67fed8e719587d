// Copyright © 2025 The Homeport Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package chainverify

import (
	"github.com/orbitpki/x509path/pkg/certparse"
	"github.com/orbitpki/x509path/pkg/errset"
)

// policyID identifies a policy OID by its raw DER content bytes, used as a
// map key throughout the policy graph.
type policyID string

// anyPolicyID is the well-known anyPolicy OID (2.5.29.32.0), represented as
// a node like any other so that reachability propagation treats it
// uniformly with named policies.
var anyPolicyID = policyID(string(certparse.OidAnyPolicy))

func policyIDOf(oid []byte) policyID { return policyID(string(oid)) }

// policyNode is one node of one level of the valid_policy_tree.
type policyNode struct {
	policy policyID
	// parents lists the previous level's node IDs this node descends
	// from. An empty list means "parented by anyPolicy".
	parents []policyID
	// expected is the node's expected-policy set: the set of policies a
	// subordinate certificate may assert to continue through this node.
	// Populated by policy mappings as they arrive, and finalized with the
	// node's own policy at StartLevel if no mapping touched it.
	expected map[policyID]bool
	mapped   bool
}

// policyLevel is one level ("LevelDetails" in the spec) of the tree.
type policyLevel struct {
	nodes map[policyID]*policyNode
}

func newPolicyLevel() *policyLevel {
	return &policyLevel{nodes: make(map[policyID]*policyNode)}
}

func (l *policyLevel) hasAnyPolicy() bool {
	_, ok := l.nodes[anyPolicyID]
	return ok
}

// expectedPolicyMap inverts each node's expected set: for every policy p
// (other than anyPolicy) appearing in some node's expected set, the IDs of
// the nodes whose expected set contains p.
func (l *policyLevel) expectedPolicyMap() map[policyID][]policyID {
	out := make(map[policyID][]policyID)
	for id, n := range l.nodes {
		if id == anyPolicyID {
			continue
		}
		for p := range n.expected {
			out[p] = append(out[p], id)
		}
	}
	return out
}

// PolicyGraph is the arena representation of RFC 5280's valid_policy_tree:
// a vector of levels, each a map from policy to node, with nodes
// referencing previous-level parents by ID rather than by pointer.
type PolicyGraph struct {
	levels []*policyLevel
	null   bool
}

// Init creates level 0 with a single anyPolicy root node.
func (g *PolicyGraph) Init() {
	g.levels = nil
	g.null = false
	root := newPolicyLevel()
	root.nodes[anyPolicyID] = &policyNode{policy: anyPolicyID, expected: map[policyID]bool{anyPolicyID: true}}
	g.levels = append(g.levels, root)
}

// IsNull reports whether the tree has collapsed to the null state.
func (g *PolicyGraph) IsNull() bool { return g.null }

// SetNull collapses the tree: no policy is valid from this point on.
func (g *PolicyGraph) SetNull() { g.null = true }

func (g *PolicyGraph) currentLevel() *policyLevel {
	if len(g.levels) == 0 {
		return nil
	}
	return g.levels[len(g.levels)-1]
}

// StartLevel finalizes the current level (every still-unmapped node gets
// its own policy added to its own expected-policy set) and pushes a new,
// empty level.
func (g *PolicyGraph) StartLevel() {
	if cur := g.currentLevel(); cur != nil {
		for _, n := range cur.nodes {
			if !n.mapped {
				n.expected[n.policy] = true
			}
		}
	}
	g.levels = append(g.levels, newPolicyLevel())
}

// AddNode adds a node for policy with the given previous-level parent IDs.
// An empty parents slice means "parented by anyPolicy".
func (g *PolicyGraph) AddNode(policy policyID, parents []policyID) {
	cur := g.currentLevel()
	if cur == nil {
		return
	}
	if _, exists := cur.nodes[policy]; exists {
		return
	}
	cur.nodes[policy] = &policyNode{policy: policy, parents: append([]policyID(nil), parents...), expected: make(map[policyID]bool)}
}

// AddNodeWithParentAnyPolicy adds a node parented solely by anyPolicy.
func (g *PolicyGraph) AddNodeWithParentAnyPolicy(policy policyID) {
	g.AddNode(policy, nil)
}

// AddAnyPolicyNode adds (or keeps) the anyPolicy node at the current
// level, parented by the previous level's anyPolicy node if any.
func (g *PolicyGraph) AddAnyPolicyNode() {
	cur := g.currentLevel()
	if cur == nil {
		return
	}
	if _, exists := cur.nodes[anyPolicyID]; exists {
		return
	}
	cur.nodes[anyPolicyID] = &policyNode{policy: anyPolicyID, expected: make(map[policyID]bool)}
}

// AddPolicyMapping applies one (issuerDomainPolicy, subjectDomainPolicy)
// pair to the current level, per RFC 5280 §6.1.4(b).
func (g *PolicyGraph) AddPolicyMapping(issuerPolicy, subjectPolicy policyID) {
	cur := g.currentLevel()
	if cur == nil {
		return
	}
	if n, exists := cur.nodes[issuerPolicy]; exists {
		n.mapped = true
		n.expected[subjectPolicy] = true
		return
	}
	if cur.hasAnyPolicy() {
		cur.nodes[issuerPolicy] = &policyNode{
			policy:   issuerPolicy,
			expected: map[policyID]bool{subjectPolicy: true},
			mapped:   true,
		}
	}
}

// DeleteNode removes a node from the current level.
func (g *PolicyGraph) DeleteNode(policy policyID) {
	cur := g.currentLevel()
	if cur == nil {
		return
	}
	delete(cur.nodes, policy)
}

// VerifyPolicies applies RFC 5280 §6.1.3 steps (d)-(f) for one
// certificate's certificatePolicies extension.
func (g *PolicyGraph) VerifyPolicies(cert *certparse.ParsedCertificate, isTarget, isSelfIssued bool, inhibitAnyPolicyCounter int, errs *errset.Set) {
	if g.null {
		return
	}

	if cert.CertificatePolicies == nil {
		g.SetNull()
		return
	}

	prev := g.currentLevel()
	g.StartLevel()
	cur := g.currentLevel()

	prevExpected := prev.expectedPolicyMap()
	anyAsserted := false

	for _, oidBytes := range cert.CertificatePolicies.OIDs {
		id := policyIDOf(oidBytes)
		if id == anyPolicyID {
			anyAsserted = true
			continue
		}
		if parents, ok := prevExpected[id]; ok && len(parents) > 0 {
			g.AddNode(id, parents)
		} else if prev.hasAnyPolicy() {
			g.AddNodeWithParentAnyPolicy(id)
		}
	}

	if anyAsserted && (inhibitAnyPolicyCounter > 0 || (!isTarget && isSelfIssued)) {
		for id, parents := range prevExpected {
			if _, exists := cur.nodes[id]; exists {
				continue
			}
			g.AddNode(id, parents)
		}
		if prev.hasAnyPolicy() {
			g.AddAnyPolicyNode()
		}
	}
}

// VerifyPolicyMappings applies RFC 5280 §6.1.4(a)-(b) for one
// certificate's policyMappings extension.
func (g *PolicyGraph) VerifyPolicyMappings(mappings []certparse.PolicyMapping, policyMappingCounter int, errs *errset.Set) {
	if g.null {
		return
	}
	for _, m := range mappings {
		issuer := policyIDOf(m.IssuerDomainPolicy)
		subject := policyIDOf(m.SubjectDomainPolicy)
		if issuer == anyPolicyID || subject == anyPolicyID {
			g.SetNull()
			errs.Add(errset.High, errset.PolicyMappingAnyPolicy, nil)
			return
		}
		if policyMappingCounter > 0 {
			g.AddPolicyMapping(issuer, subject)
		} else {
			g.DeleteNode(issuer)
		}
	}
}

// GetUserConstrainedPolicySet computes the final user-constrained policy
// set (RFC 5280 §6.1.5(g)) by propagating reachability from the deepest
// (target) level up to the root and intersecting with userInitialSet.
// userInitialSet and the return value use the same policyID keying as the
// rest of this package (callers translate to/from raw OID bytes). A nil
// userInitialSet is treated as an empty set, so the result is then empty.
func (g *PolicyGraph) GetUserConstrainedPolicySet(userInitialSet map[policyID]bool) map[policyID]bool {
	result := make(map[policyID]bool)
	if g.null || len(g.levels) == 0 {
		return result
	}

	last := g.levels[len(g.levels)-1]

	reachable := make([]map[policyID]bool, len(g.levels))
	for i := range reachable {
		reachable[i] = make(map[policyID]bool)
	}
	for id := range last.nodes {
		reachable[len(g.levels)-1][id] = true
	}
	for lvl := len(g.levels) - 1; lvl > 0; lvl-- {
		for id := range reachable[lvl] {
			node := g.levels[lvl].nodes[id]
			if node == nil {
				continue
			}
			if len(node.parents) == 0 {
				if _, ok := g.levels[lvl-1].nodes[anyPolicyID]; ok {
					reachable[lvl-1][anyPolicyID] = true
				}
				continue
			}
			for _, p := range node.parents {
				reachable[lvl-1][p] = true
			}
		}
	}

	if last.hasAnyPolicy() {
		if userInitialSet[anyPolicyID] {
			result[anyPolicyID] = true
			return result
		}
		for id := range userInitialSet {
			result[id] = true
		}
		return result
	}

	lastIdx := len(g.levels) - 1
	for id := range last.nodes {
		if id == anyPolicyID {
			continue
		}
		if !reachable[lastIdx][id] {
			continue
		}
		if userInitialSet[id] {
			result[id] = true
		}
	}
	return result
}
