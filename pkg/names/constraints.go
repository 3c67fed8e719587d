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

package names

import (
	"fmt"
	"strings"

	"github.com/orbitpki/x509path/pkg/ber"
	"github.com/orbitpki/x509path/pkg/errset"
	"github.com/orbitpki/x509path/pkg/gennames"
)

// nameConstraintCheckLimit mitigates quadratic blowup when a certificate
// carries many SAN entries against many accumulated constraint subtrees.
const nameConstraintCheckLimit = 1 << 20

// NameConstraints is one certificate's parsed NameConstraints extension.
type NameConstraints struct {
	PermittedSubtrees *gennames.GeneralNames
	ExcludedSubtrees  *gennames.GeneralNames
	// ConstrainedNameTypes records which GeneralName variants this
	// extension constrains. If the extension is critical, every
	// encountered name type contributes; if non-critical, only the four
	// types this engine actually enforces (DNS, RFC822, directoryName,
	// IP) contribute.
	ConstrainedNameTypes gennames.NameType
	IsCritical           bool
}

const (
	tagPermittedSubtrees = 0
	tagExcludedSubtrees  = 1
	tagSubtreeMinimum    = 0
	tagSubtreeMaximum    = 1
)

const enforcedNameTypes = gennames.DNSName | gennames.RFC822Name | gennames.DirectoryName | gennames.IPAddress

// CreateNameConstraints parses a NameConstraints extension value. At least
// one of permittedSubtrees/excludedSubtrees must be present; each
// GeneralSubtree must have minimum = 0 and no maximum, both of which DER
// requires to be omitted since minimum's value is its ASN.1 DEFAULT — any
// other encoding fails.
func CreateNameConstraints(extensionValue ber.ByteRange, isCritical bool) (*NameConstraints, error) {
	r := ber.NewReader(extensionValue)
	seq, err := r.ReadSequence()
	if err != nil {
		return nil, fmt.Errorf("names: NameConstraints: %w", err)
	}

	nc := &NameConstraints{IsCritical: isCritical}
	sawAny := false

	if inner, ok, err := seq.ReadOptionalExplicit(tagPermittedSubtrees); err != nil {
		return nil, fmt.Errorf("names: NameConstraints permittedSubtrees: %w", err)
	} else if ok {
		gn, types, err := parseSubtreeList(inner)
		if err != nil {
			return nil, fmt.Errorf("names: NameConstraints permittedSubtrees: %w", err)
		}
		nc.PermittedSubtrees = gn
		nc.ConstrainedNameTypes |= types
		sawAny = true
	}

	if inner, ok, err := seq.ReadOptionalExplicit(tagExcludedSubtrees); err != nil {
		return nil, fmt.Errorf("names: NameConstraints excludedSubtrees: %w", err)
	} else if ok {
		gn, types, err := parseSubtreeList(inner)
		if err != nil {
			return nil, fmt.Errorf("names: NameConstraints excludedSubtrees: %w", err)
		}
		nc.ExcludedSubtrees = gn
		nc.ConstrainedNameTypes |= types
		sawAny = true
	}

	if !sawAny {
		return nil, fmt.Errorf("names: NameConstraints has neither permittedSubtrees nor excludedSubtrees")
	}
	if !seq.Done() {
		return nil, fmt.Errorf("names: NameConstraints has unconsumed trailing bytes")
	}

	if !isCritical {
		nc.ConstrainedNameTypes &= enforcedNameTypes
	}

	return nc, nil
}

// parseSubtreeList reads the GeneralSubtree elements inside r's content
// (the already-unwrapped implicit [0]/[1] SEQUENCE OF GeneralSubtree).
// readOptionalExplicit above peels the implicit tag but leaves the content
// as a plain SEQUENCE OF GeneralSubtree body, so r is already positioned
// at the first GeneralSubtree.
func parseSubtreeList(r *ber.Reader) (*gennames.GeneralNames, gennames.NameType, error) {
	agg := &gennames.GeneralNames{}
	count := 0
	for !r.Done() {
		subtree, err := r.ReadSequence()
		if err != nil {
			return nil, 0, fmt.Errorf("GeneralSubtree: %w", err)
		}
		base, err := gennames.ParseOne(subtree, gennames.ModeNameConstraint)
		if err != nil {
			return nil, 0, fmt.Errorf("GeneralSubtree base: %w", err)
		}
		if !subtree.Done() {
			return nil, 0, fmt.Errorf("GeneralSubtree must omit minimum and maximum")
		}
		agg.MergeFrom(base)
		count++
	}
	if count == 0 {
		return nil, 0, fmt.Errorf("subtree list is empty")
	}
	return agg, agg.PresentNameTypes, nil
}

// IsPermittedCert evaluates this engine's constraints (conceptually this
// method may be called across an accumulated list of NameConstraints from
// multiple certificates; here it evaluates a single NameConstraints
// instance, and callers fold results across the accumulated list) against
// a candidate certificate's subject RDN sequence and SANs, appending any
// violation to errs.
func IsPermittedCert(nc *NameConstraints, subject *Name, sans *gennames.GeneralNames, errs *errset.Set) {
	numNames := 0
	if sans != nil {
		numNames += len(sans.RFC822Name) + len(sans.DNSName) + len(sans.DirectoryName) + len(sans.IPAddress)
	}
	numConstraints := subtreeCount(nc.PermittedSubtrees) + subtreeCount(nc.ExcludedSubtrees)
	if numNames > 0 && numConstraints > 0 && numNames*numConstraints > nameConstraintCheckLimit {
		errs.Add(errset.High, errset.TooManyNameConstraintChecks, nil)
		return
	}

	if sans != nil && !sans.IsEmpty() {
		if critical := nc.IsCritical; critical {
			unsupported := nc.ConstrainedNameTypes &^ enforcedNameTypes
			if sans.PresentNameTypes&unsupported != 0 {
				errs.Add(errset.High, errset.NotPermittedByNameConstraints, nil)
				return
			}
		}

		for _, email := range sans.RFC822Name {
			if !checkRFC822(nc, email) {
				errs.Add(errset.High, errset.NotPermittedByNameConstraints, map[string]string{"rfc822Name": email})
			}
		}
		for _, dns := range sans.DNSName {
			if !checkDNS(nc, dns) {
				errs.Add(errset.High, errset.NotPermittedByNameConstraints, map[string]string{"dNSName": dns})
			}
		}
		for _, dirBytes := range sans.DirectoryName {
			dn, err := ParseName(dirBytes)
			if err != nil {
				errs.Add(errset.High, errset.NotPermittedByNameConstraints, map[string]string{"directoryName": "unparsable"})
				continue
			}
			if !checkDirectoryName(nc, dn) {
				errs.Add(errset.High, errset.NotPermittedByNameConstraints, nil)
			}
		}
		for _, ip := range sans.IPAddress {
			if !checkIP(nc, ip.Bytes()) {
				errs.Add(errset.High, errset.NotPermittedByNameConstraints, nil)
			}
		}
		return
	}

	if nc.ConstrainedNameTypes&gennames.RFC822Name != 0 {
		for _, email := range FindEmailAddressesInName(subject) {
			if !checkRFC822(nc, email) {
				errs.Add(errset.High, errset.NotPermittedByNameConstraints, map[string]string{"rfc822Name": email})
			}
		}
		return
	}

	if !subject.IsEmpty() {
		if !checkDirectoryName(nc, subject) {
			errs.Add(errset.High, errset.NotPermittedByNameConstraints, nil)
		}
	}
}

func subtreeCount(gn *gennames.GeneralNames) int {
	if gn == nil {
		return 0
	}
	return len(gn.RFC822Name) + len(gn.DNSName) + len(gn.DirectoryName) + len(gn.IPAddress)
}

func checkDirectoryName(nc *NameConstraints, name *Name) bool {
	excluded := false
	if nc.ExcludedSubtrees != nil {
		for _, raw := range nc.ExcludedSubtrees.DirectoryName {
			subtree, err := ParseName(raw)
			if err != nil {
				continue
			}
			if VerifyNameInSubtree(name, subtree) {
				excluded = true
				break
			}
		}
	}
	if excluded {
		return false
	}
	if nc.ConstrainedNameTypes&gennames.DirectoryName == 0 || nc.PermittedSubtrees == nil || len(nc.PermittedSubtrees.DirectoryName) == 0 {
		return true
	}
	for _, raw := range nc.PermittedSubtrees.DirectoryName {
		subtree, err := ParseName(raw)
		if err != nil {
			continue
		}
		if VerifyNameInSubtree(name, subtree) {
			return true
		}
	}
	return false
}

func checkIP(nc *NameConstraints, addr []byte) bool {
	excluded := false
	if nc.ExcludedSubtrees != nil {
		for _, c := range nc.ExcludedSubtrees.IPAddress {
			if ipMatches(addr, c.Bytes()) {
				excluded = true
				break
			}
		}
	}
	if excluded {
		return false
	}
	if nc.PermittedSubtrees == nil || len(nc.PermittedSubtrees.IPAddress) == 0 {
		return true
	}
	for _, c := range nc.PermittedSubtrees.IPAddress {
		if ipMatches(addr, c.Bytes()) {
			return true
		}
	}
	return false
}

// ipMatches reports whether addr (a plain 4/16 byte SAN address) satisfies
// an 8/32 byte constraint (address half + mask half). Address families are
// never implicitly mapped: lengths must agree.
func ipMatches(addr, constraint []byte) bool {
	half := len(constraint) / 2
	if half != len(addr) {
		return false
	}
	caddr, mask := constraint[:half], constraint[half:]
	for i := 0; i < half; i++ {
		if addr[i]&mask[i] != caddr[i]&mask[i] {
			return false
		}
	}
	return true
}

// checkDNS normalizes a single trailing dot from both sides and applies
// exact, subdomain, or suffix matching per §4.E's "DNS matching" rules.
// Wildcard handling is conservative: an excluded-subtree wildcard name
// matches if any expansion could match; a permitted-subtree wildcard name
// matches only if every expansion would.
func checkDNS(nc *NameConstraints, name string) bool {
	excluded := false
	if nc.ExcludedSubtrees != nil {
		for _, c := range nc.ExcludedSubtrees.DNSName {
			if dnsNameMatchesConstraint(name, c, true) {
				excluded = true
				break
			}
		}
	}
	if excluded {
		return false
	}
	if nc.ConstrainedNameTypes&gennames.DNSName == 0 || nc.PermittedSubtrees == nil || len(nc.PermittedSubtrees.DNSName) == 0 {
		return true
	}
	for _, c := range nc.PermittedSubtrees.DNSName {
		if dnsNameMatchesConstraint(name, c, false) {
			return true
		}
	}
	return false
}

func trimTrailingDot(s string) string {
	return strings.TrimSuffix(s, ".")
}

func dnsNameMatchesConstraint(name, constraint string, conservativeWildcard bool) bool {
	name = trimTrailingDot(name)
	constraint = trimTrailingDot(constraint)
	if constraint == "" {
		return true
	}

	isWildcard := strings.HasPrefix(name, "*.")
	suffix := name
	if isWildcard {
		suffix = name[1:] // ".X", the part after the '*'
	}

	if isWildcard {
		if conservativeWildcard {
			// Excluded subtree: the wildcard matches if *any* expansion
			// could satisfy the constraint: the constraint is the
			// wildcard's suffix or a parent of it, the suffix already lies
			// inside the constraint, or the constraint is a single label
			// followed by the suffix (the expansion that substitutes that
			// label for '*').
			if dnsSuffixSatisfies(suffix, constraint) || dnsExactOrSubdomain(suffix, constraint) {
				return true
			}
			label := strings.TrimSuffix(strings.ToLower(constraint), strings.ToLower(suffix))
			return len(label) < len(constraint) && label != "" && !strings.Contains(label, ".")
		}
		// Permitted subtree: every expansion must satisfy the
		// constraint, which holds iff the wildcard's suffix alone is
		// already inside the permitted subtree.
		return dnsExactOrSubdomain(suffix, constraint)
	}

	return dnsExactOrSubdomain(name, constraint)
}

func dnsExactOrSubdomain(name, constraint string) bool {
	if strings.EqualFold(name, constraint) {
		return true
	}
	if strings.HasPrefix(constraint, ".") {
		return strings.HasSuffix(strings.ToLower(name), strings.ToLower(constraint))
	}
	suffix := "." + constraint
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(suffix))
}

// dnsSuffixSatisfies reports whether suffix (e.g. ".example.com"), with its
// leading dot removed, equals constraint or lies beneath it — i.e. the
// constraint is the suffix itself or a parent of it.
func dnsSuffixSatisfies(suffix, constraint string) bool {
	trimmedSuffix := strings.TrimPrefix(suffix, ".")
	return dnsExactOrSubdomain(trimmedSuffix, constraint)
}

// checkRFC822 parses name as local@domain using the conservative character
// set from §4.E and checks it against permitted/excluded constraints.
// Excluded-subtree matching is always case-insensitive on the local part,
// whether name came from a SAN or was extracted from the subject DN.
func checkRFC822(nc *NameConstraints, name string) bool {
	local, domain, ok := splitRFC822(name)
	if !ok {
		// Unparseable / quoted-local form: per spec, deliberately treated
		// as matching nothing, so it can never be excepted by a
		// permitted subtree, and is rejected by any excluded subtree
		// only if the excluded subtree is unconditional (none defined
		// here are), matching the "rejects" guidance for quoted forms.
		return nc.ConstrainedNameTypes&gennames.RFC822Name == 0 || nc.PermittedSubtrees == nil
	}

	excluded := false
	if nc.ExcludedSubtrees != nil {
		for _, c := range nc.ExcludedSubtrees.RFC822Name {
			if rfc822Matches(local, domain, c, true) {
				excluded = true
				break
			}
		}
	}
	if excluded {
		return false
	}
	if nc.ConstrainedNameTypes&gennames.RFC822Name == 0 || nc.PermittedSubtrees == nil || len(nc.PermittedSubtrees.RFC822Name) == 0 {
		return true
	}
	for _, c := range nc.PermittedSubtrees.RFC822Name {
		if rfc822Matches(local, domain, c, false) {
			return true
		}
	}
	return false
}

const rfc822LocalChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!#$%&'*+-/=?^_{|}~."
const rfc822DomainChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-."

func splitRFC822(name string) (local, domain string, ok bool) {
	at := strings.LastIndexByte(name, '@')
	if at < 0 {
		return "", "", false
	}
	local, domain = name[:at], name[at+1:]
	if local == "" || domain == "" {
		return "", "", false
	}
	if strings.HasPrefix(local, `"`) {
		return "", "", false
	}
	for _, c := range local {
		if !strings.ContainsRune(rfc822LocalChars, c) {
			return "", "", false
		}
	}
	for _, c := range domain {
		if !strings.ContainsRune(rfc822DomainChars, c) {
			return "", "", false
		}
	}
	return local, domain, true
}

func rfc822Matches(local, domain, constraint string, exclude bool) bool {
	if strings.HasPrefix(constraint, ".") {
		return strings.HasSuffix(strings.ToLower(domain), strings.ToLower(constraint))
	}
	if strings.ContainsRune(constraint, '@') {
		cLocal, cDomain, ok := splitRFC822(constraint)
		if !ok {
			return false
		}
		localMatch := local == cLocal
		if exclude {
			localMatch = strings.EqualFold(local, cLocal)
		}
		return localMatch && strings.EqualFold(domain, cDomain)
	}
	return strings.EqualFold(domain, constraint)
}
