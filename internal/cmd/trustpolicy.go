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

package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/gonvenience/ytbx"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/orbitpki/x509path/pkg/chainverify"
)

// trustPolicy is the YAML shape accepted by --trust-policy: the trust
// disposition for the last element of a chain, plus the initial policy
// processing knobs chainverify.VerifyCertificateChain takes.
type trustPolicy struct {
	TrustKind                     string   `yaml:"trustKind" mapstructure:"trustKind"`
	EnforceAnchorExpiry           bool     `yaml:"enforceAnchorExpiry" mapstructure:"enforceAnchorExpiry"`
	EnforceAnchorConstraints      bool     `yaml:"enforceAnchorConstraints" mapstructure:"enforceAnchorConstraints"`
	RequireAnchorBasicConstraints bool     `yaml:"requireAnchorBasicConstraints" mapstructure:"requireAnchorBasicConstraints"`
	RequireLeafSelfsigned         bool     `yaml:"requireLeafSelfsigned" mapstructure:"requireLeafSelfsigned"`
	KeyPurpose                    string   `yaml:"keyPurpose" mapstructure:"keyPurpose"`
	InitialExplicitPolicy         bool     `yaml:"initialExplicitPolicy" mapstructure:"initialExplicitPolicy"`
	InitialPolicyMappingInhibit   bool     `yaml:"initialPolicyMappingInhibit" mapstructure:"initialPolicyMappingInhibit"`
	InitialAnyPolicyInhibit       bool     `yaml:"initialAnyPolicyInhibit" mapstructure:"initialAnyPolicyInhibit"`
	InitialPolicySet              []string `yaml:"initialPolicySet" mapstructure:"initialPolicySet"`
}

func defaultTrustPolicy() trustPolicy {
	return trustPolicy{
		TrustKind:                     "anchor",
		EnforceAnchorExpiry:           true,
		EnforceAnchorConstraints:      true,
		RequireAnchorBasicConstraints: true,
		KeyPurpose:                    "serverAuth",
	}
}

// loadTrustPolicy layers defaults, the bound CLI flags/environment (via
// viper), and an optional YAML file (loaded through ytbx.LoadFile, which
// accepts a local path, "-" for stdin, or an http(s):// URL) into one
// trustPolicy.
func loadTrustPolicy(location string) (trustPolicy, error) {
	policy := defaultTrustPolicy()
	if err := viper.Unmarshal(&policy); err != nil {
		return policy, fmt.Errorf("cmd: binding trust policy flags: %w", err)
	}

	if location == "" {
		return policy, nil
	}

	input, err := ytbx.LoadFile(location)
	if err != nil {
		return policy, fmt.Errorf("cmd: loading trust policy %s: %w", location, err)
	}
	if len(input.Documents) == 0 {
		return policy, fmt.Errorf("cmd: trust policy %s has no documents", location)
	}

	raw, err := yaml.Marshal(input.Documents[0])
	if err != nil {
		return policy, fmt.Errorf("cmd: re-marshaling trust policy %s: %w", location, err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return policy, fmt.Errorf("cmd: parsing trust policy %s: %w", location, err)
	}

	return policy, nil
}

func (p trustPolicy) trustDecision() (chainverify.TrustDecision, error) {
	kind, err := trustKindFromString(p.TrustKind)
	if err != nil {
		return chainverify.TrustDecision{}, err
	}
	return chainverify.TrustDecision{
		Kind:                          kind,
		EnforceAnchorExpiry:           p.EnforceAnchorExpiry,
		EnforceAnchorConstraints:      p.EnforceAnchorConstraints,
		RequireAnchorBasicConstraints: p.RequireAnchorBasicConstraints,
		RequireLeafSelfsigned:         p.RequireLeafSelfsigned,
	}, nil
}

func (p trustPolicy) policySet() (chainverify.PolicySet, error) {
	oids := make([][]byte, 0, len(p.InitialPolicySet))
	for _, s := range p.InitialPolicySet {
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("cmd: initialPolicySet entry %q is not hex-encoded OID bytes: %w", s, err)
		}
		oids = append(oids, raw)
	}
	return chainverify.NewPolicySet(oids...), nil
}

func trustKindFromString(s string) (chainverify.TrustKind, error) {
	switch s {
	case "distrusted":
		return chainverify.Distrusted, nil
	case "anchor":
		return chainverify.TrustedAnchor, nil
	case "leaf":
		return chainverify.TrustedLeaf, nil
	case "anchorOrLeaf":
		return chainverify.TrustedAnchorOrLeaf, nil
	default:
		return chainverify.Unspecified, fmt.Errorf("cmd: unknown trust kind %q", s)
	}
}

func keyPurposeFromString(s string) (chainverify.KeyPurpose, error) {
	switch s {
	case "", "any":
		return chainverify.AnyEku, nil
	case "serverAuth":
		return chainverify.ServerAuth, nil
	case "serverAuthStrict":
		return chainverify.ServerAuthStrict, nil
	case "serverAuthStrictLeaf":
		return chainverify.ServerAuthStrictLeaf, nil
	case "clientAuth":
		return chainverify.ClientAuth, nil
	case "clientAuthStrict":
		return chainverify.ClientAuthStrict, nil
	case "clientAuthStrictLeaf":
		return chainverify.ClientAuthStrictLeaf, nil
	case "rcsMlsClientAuth":
		return chainverify.RcsMlsClientAuth, nil
	default:
		return chainverify.AnyEku, fmt.Errorf("cmd: unknown key purpose %q", s)
	}
}
