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

// Package report turns the core's parse and verification results into
// human, YAML, and JSON text, colorized the way the rest of this module's
// ancestry renders structured output.
package report

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/orbitpki/x509path/pkg/ber"
	"github.com/orbitpki/x509path/pkg/certparse"
	"github.com/orbitpki/x509path/pkg/names"
)

// formatTime renders a ber.Time as an RFC 3339-shaped UTC timestamp.
func formatTime(t ber.Time) string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}

// Well-known X.520 attribute-type OIDs, used only to render a readable
// distinguished name; unrecognized types fall back to their raw OID bytes.
var attributeTypeNames = map[string]string{
	string([]byte{0x55, 0x04, 0x03}): "CN",
	string([]byte{0x55, 0x04, 0x06}): "C",
	string([]byte{0x55, 0x04, 0x07}): "L",
	string([]byte{0x55, 0x04, 0x08}): "ST",
	string([]byte{0x55, 0x04, 0x0A}): "O",
	string([]byte{0x55, 0x04, 0x0B}): "OU",
	string([]byte{0x55, 0x04, 0x05}): "serialNumber",
}

// DistinguishedNameString renders a Name the way a human reading a
// certificate summary expects: "CN=foo,O=bar,C=US", least-significant RDN
// first (the reverse of the encoded order), matching the conventional
// left-to-right reading order.
func DistinguishedNameString(n *names.Name) string {
	if n == nil || n.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, len(n.RDNs))
	for i := len(n.RDNs) - 1; i >= 0; i-- {
		for _, ava := range n.RDNs[i] {
			label, ok := attributeTypeNames[string(ava.OID)]
			if !ok {
				label = hex.EncodeToString(ava.OID)
			}
			parts = append(parts, fmt.Sprintf("%s=%s", label, ava.Raw))
		}
	}
	return strings.Join(parts, ",")
}

// CertificateSummary is a marshalable projection of a ParsedCertificate,
// used by the inspect and diff CLI commands.
type CertificateSummary struct {
	Subject  string `yaml:"subject" json:"subject"`
	Issuer   string `yaml:"issuer" json:"issuer"`
	Serial   string `yaml:"serial" json:"serial"`
	Version  int    `yaml:"version" json:"version"`
	NotValid struct {
		Before string `yaml:"before" json:"before"`
		After  string `yaml:"after" json:"after"`
	} `yaml:"notValid" json:"notValid"`

	IsCA              bool     `yaml:"isCA" json:"isCA"`
	HasPathLen        bool     `yaml:"hasPathLenConstraint" json:"hasPathLenConstraint"`
	PathLenConstraint int      `yaml:"pathLenConstraint,omitempty" json:"pathLenConstraint,omitempty"`
	DNSNames          []string `yaml:"dnsNames,omitempty" json:"dnsNames,omitempty"`
	IPAddresses       []string `yaml:"ipAddresses,omitempty" json:"ipAddresses,omitempty"`
	EmailAddresses    []string `yaml:"emailAddresses,omitempty" json:"emailAddresses,omitempty"`
	URIs              []string `yaml:"uris,omitempty" json:"uris,omitempty"`
	ExtendedKeyUsages []string `yaml:"extendedKeyUsages,omitempty" json:"extendedKeyUsages,omitempty"`
	PolicyOIDs        []string `yaml:"policyOIDs,omitempty" json:"policyOIDs,omitempty"`
}

// NewCertificateSummary projects pc into a CertificateSummary.
func NewCertificateSummary(pc *certparse.ParsedCertificate) CertificateSummary {
	s := CertificateSummary{
		Subject: DistinguishedNameString(pc.SubjectName),
		Issuer:  DistinguishedNameString(pc.IssuerName),
		Serial:  hex.EncodeToString(pc.TBS.Serial.Bytes()),
		Version: int(pc.TBS.Version) + 1,
	}
	s.NotValid.Before = formatTime(pc.TBS.NotBefore)
	s.NotValid.After = formatTime(pc.TBS.NotAfter)

	if pc.BasicConstraints != nil {
		s.IsCA = pc.BasicConstraints.IsCA
		s.HasPathLen = pc.BasicConstraints.HasPathLen
		s.PathLenConstraint = pc.BasicConstraints.PathLenConstraint
	}

	if pc.SubjectAltName != nil {
		s.DNSNames = append(s.DNSNames, pc.SubjectAltName.DNSName...)
		s.EmailAddresses = append(s.EmailAddresses, pc.SubjectAltName.RFC822Name...)
		s.URIs = append(s.URIs, pc.SubjectAltName.UniformResourceIdentifier...)
		for _, raw := range pc.SubjectAltName.IPAddress {
			s.IPAddresses = append(s.IPAddresses, hex.EncodeToString(raw.Bytes()))
		}
	}

	if pc.ExtendedKeyUsage != nil {
		for _, oid := range pc.ExtendedKeyUsage.OIDs {
			s.ExtendedKeyUsages = append(s.ExtendedKeyUsages, hex.EncodeToString(oid))
		}
	}
	if pc.CertificatePolicies != nil {
		for _, oid := range pc.CertificatePolicies.OIDs {
			s.PolicyOIDs = append(s.PolicyOIDs, hex.EncodeToString(oid))
		}
	}

	return s
}
