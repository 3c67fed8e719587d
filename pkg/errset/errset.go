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

// Package errset accumulates per-certificate diagnostics keyed by stable
// error identities and severities, mirroring the way the path verifier and
// parsers across this module report problems without aborting a whole parse
// or verification run on the first failure.
package errset

import "fmt"

// Severity distinguishes diagnostics that must cause rejection of a chain
// from diagnostics that are advisory only.
type Severity int

const (
	// Warning entries are preserved for display but never cause rejection.
	Warning Severity = iota
	// High entries are fatal to trust of the chain or certificate.
	High
)

func (s Severity) String() string {
	if s == High {
		return "high"
	}
	return "warning"
}

// ID is a closed enumeration of stable short identifiers. Values are
// compared by integer identity, not by the text of Name(), so callers can
// query a PathErrors programmatically without string matching.
type ID int

// The identifiers named in spec §6 ("External Interfaces"), plus the
// internal-error catch-all. New identifiers are only ever appended.
const (
	Unknown ID = iota

	ChainIsEmpty
	CertIsNotTrustAnchor
	DistrustedByTrustStore
	ValidityFailedNotBefore
	ValidityFailedNotAfter
	SubjectDoesNotMatchIssuer
	VerifySignedDataFailed
	UnacceptableSignatureAlgorithm
	UnacceptablePublicKey
	SignatureAlgorithmMismatch
	SignatureAlgorithmsDifferentEncoding
	MissingBasicConstraints
	BasicConstraintsIndicatesNotCa
	TargetCertShouldNotBeCa
	MaxPathLengthViolated
	KeyCertSignBitNotSet
	NotPermittedByNameConstraints
	TooManyNameConstraintChecks
	NoValidPolicy
	PolicyMappingAnyPolicy
	UnconsumedCriticalExtension
	EkuLacksServerAuth
	EkuLacksClientAuth
	EkuLacksServerAuthButHasAnyEKU
	EkuLacksClientAuthButHasAnyEKU
	EkuHasProhibitedCodeSigning
	EkuHasProhibitedOCSPSigning
	EkuHasProhibitedTimeStamping
	EkuNotPresent
	EkuIncorrectForRcsMlsClient
	KeyUsageIncorrectForRcsMlsClient
	FailedParsingSpki
	InternalError

	// Additional identifiers used by the parser layer (pkg/certparse,
	// pkg/ber) that spec §6 groups under "a closed enumeration" without
	// naming every member explicitly.
	MalformedDer
	DuplicateExtension
	InvalidSerialNumber
	InvalidVersion
	InvalidExtensionEncoding
	UnparseableName
)

var names = map[ID]string{
	Unknown:                              "Unknown",
	ChainIsEmpty:                         "ChainIsEmpty",
	CertIsNotTrustAnchor:                 "CertIsNotTrustAnchor",
	DistrustedByTrustStore:               "DistrustedByTrustStore",
	ValidityFailedNotBefore:              "ValidityFailedNotBefore",
	ValidityFailedNotAfter:               "ValidityFailedNotAfter",
	SubjectDoesNotMatchIssuer:            "SubjectDoesNotMatchIssuer",
	VerifySignedDataFailed:               "VerifySignedDataFailed",
	UnacceptableSignatureAlgorithm:       "UnacceptableSignatureAlgorithm",
	UnacceptablePublicKey:                "UnacceptablePublicKey",
	SignatureAlgorithmMismatch:           "SignatureAlgorithmMismatch",
	SignatureAlgorithmsDifferentEncoding: "SignatureAlgorithmsDifferentEncoding",
	MissingBasicConstraints:              "MissingBasicConstraints",
	BasicConstraintsIndicatesNotCa:       "BasicConstraintsIndicatesNotCa",
	TargetCertShouldNotBeCa:              "TargetCertShouldNotBeCa",
	MaxPathLengthViolated:                "MaxPathLengthViolated",
	KeyCertSignBitNotSet:                 "KeyCertSignBitNotSet",
	NotPermittedByNameConstraints:        "NotPermittedByNameConstraints",
	TooManyNameConstraintChecks:          "TooManyNameConstraintChecks",
	NoValidPolicy:                        "NoValidPolicy",
	PolicyMappingAnyPolicy:               "PolicyMappingAnyPolicy",
	UnconsumedCriticalExtension:          "UnconsumedCriticalExtension",
	EkuLacksServerAuth:                   "EkuLacksServerAuth",
	EkuLacksClientAuth:                   "EkuLacksClientAuth",
	EkuLacksServerAuthButHasAnyEKU:       "EkuLacksServerAuthButHasAnyEKU",
	EkuLacksClientAuthButHasAnyEKU:       "EkuLacksClientAuthButHasAnyEKU",
	EkuHasProhibitedCodeSigning:          "EkuHasProhibitedCodeSigning",
	EkuHasProhibitedOCSPSigning:          "EkuHasProhibitedOCSPSigning",
	EkuHasProhibitedTimeStamping:         "EkuHasProhibitedTimeStamping",
	EkuNotPresent:                        "EkuNotPresent",
	EkuIncorrectForRcsMlsClient:          "EkuIncorrectForRcsMlsClient",
	KeyUsageIncorrectForRcsMlsClient:     "KeyUsageIncorrectForRcsMlsClient",
	FailedParsingSpki:                    "FailedParsingSpki",
	InternalError:                        "InternalError",
	MalformedDer:                         "MalformedDer",
	DuplicateExtension:                   "DuplicateExtension",
	InvalidSerialNumber:                  "InvalidSerialNumber",
	InvalidVersion:                       "InvalidVersion",
	InvalidExtensionEncoding:             "InvalidExtensionEncoding",
	UnparseableName:                      "UnparseableName",
}

// Name returns the human-readable, stable name for the identifier.
func (id ID) Name() string {
	if n, ok := names[id]; ok {
		return n
	}
	return "Unknown"
}

func (id ID) String() string { return id.Name() }

// Entry is one diagnostic: a severity, a stable identity, and optional
// free-form parameters for human display (e.g. the rejected DNS name).
type Entry struct {
	Severity Severity
	ID       ID
	Params   map[string]string
}

func (e Entry) String() string {
	if len(e.Params) == 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.ID)
	}
	return fmt.Sprintf("[%s] %s %v", e.Severity, e.ID, e.Params)
}

// Set is an ordered list of diagnostics accumulated during one parse or one
// certificate's worth of path-verification work.
type Set struct {
	entries []Entry
}

// Add appends a diagnostic. Params may be nil.
func (s *Set) Add(severity Severity, id ID, params map[string]string) {
	s.entries = append(s.entries, Entry{Severity: severity, ID: id, Params: params})
}

// Addf is a convenience wrapper around Add for the common case of a single
// named parameter.
func (s *Set) Addf(severity Severity, id ID, key, value string) {
	s.Add(severity, id, map[string]string{key: value})
}

// Entries returns the accumulated diagnostics in insertion order.
func (s *Set) Entries() []Entry {
	return s.entries
}

// Empty reports whether no diagnostics have been recorded.
func (s *Set) Empty() bool {
	return len(s.entries) == 0
}

// ContainsAnyErrorWithSeverity reports whether any entry has exactly the
// given severity: a High entry does not satisfy a Warning query. Callers
// that want "any diagnostic at all" should use Empty() instead.
func (s *Set) ContainsAnyErrorWithSeverity(severity Severity) bool {
	for _, e := range s.entries {
		if e.Severity == severity {
			return true
		}
	}
	return false
}

// Merge appends another set's entries to this one, preserving order.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	s.entries = append(s.entries, other.entries...)
}

// PathErrors groups error sets by chain index (0 = target) plus a bucket for
// chain-level errors that are not attributable to one certificate.
type PathErrors struct {
	byIndex map[int]*Set
	other   Set
}

// NewPathErrors returns an empty PathErrors accumulator.
func NewPathErrors() *PathErrors {
	return &PathErrors{byIndex: make(map[int]*Set)}
}

// ForCert returns the mutable error set for the certificate at the given
// chain index, creating it on first use.
func (p *PathErrors) ForCert(index int) *Set {
	if s, ok := p.byIndex[index]; ok {
		return s
	}
	s := &Set{}
	p.byIndex[index] = s
	return s
}

// GetOtherErrors returns the chain-level bucket (errors not attributable to
// a single certificate, e.g. ChainIsEmpty).
func (p *PathErrors) GetOtherErrors() *Set {
	return &p.other
}

// ContainsAnyErrorWithSeverity scans every per-certificate bucket and the
// chain-level bucket.
func (p *PathErrors) ContainsAnyErrorWithSeverity(severity Severity) bool {
	if p.other.ContainsAnyErrorWithSeverity(severity) {
		return true
	}
	for _, s := range p.byIndex {
		if s.ContainsAnyErrorWithSeverity(severity) {
			return true
		}
	}
	return false
}

// Indices returns the chain indices that have at least one recorded entry,
// in ascending order.
func (p *PathErrors) Indices() []int {
	indices := make([]int, 0, len(p.byIndex))
	for idx, s := range p.byIndex {
		if !s.Empty() {
			indices = append(indices, idx)
		}
	}
	for i := 1; i < len(indices); i++ {
		for j := i; j > 0 && indices[j-1] > indices[j]; j-- {
			indices[j-1], indices[j] = indices[j], indices[j-1]
		}
	}
	return indices
}
