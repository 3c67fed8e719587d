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

package certparse

import (
	"errors"

	"github.com/orbitpki/x509path/pkg/ber"
	"github.com/orbitpki/x509path/pkg/errset"
	"github.com/orbitpki/x509path/pkg/gennames"
	"github.com/orbitpki/x509path/pkg/names"
)

var (
	errOversizedSerial   = errors.New("certparse: serial number exceeds 20 octets")
	errNonPositiveSerial = errors.New("certparse: serial number is not positive")
)

// RawExtension is the {critical, value} pair for an extension OID that
// this parser did not interpret further, kept for lookup by callers that
// need access to extensions outside this module's scope.
type RawExtension struct {
	Critical bool
	Value    ber.ByteRange
}

// Options configures lenient behavior of ParsedCertificate construction.
type Options struct {
	// AllowInvalidSerialNumbers downgrades otherwise-fatal serial-number
	// problems (length > 20 octets, non-positive, non-minimal encoding)
	// to warnings instead of rejecting the certificate outright.
	AllowInvalidSerialNumbers bool
}

// ParsedCertificate eagerly parses every field and extension the path
// verifier consults, from one certificate's backing DER bytes. It is
// immutable after construction and owns the backing buffer that every
// ByteRange within it borrows from.
type ParsedCertificate struct {
	backing []byte

	Certificate *Certificate
	TBS         *ParsedTBSCertificate

	IssuerName  *names.Name
	SubjectName *names.Name

	BasicConstraints          *BasicConstraints
	KeyUsage                  *int
	ExtendedKeyUsage          *ExtendedKeyUsage
	SubjectAltName            *gennames.GeneralNames
	NameConstraints           *names.NameConstraints
	CertificatePolicies       *CertificatePolicies
	PolicyMappings            []PolicyMapping
	PolicyConstraints         *PolicyConstraints
	InhibitAnyPolicySkipCount *uint64
	AuthorityInfoAccess       *AuthorityInfoAccess
	CRLDistributionPoints     []DistributionPoint
	AuthorityKeyIdentifier    *AuthorityKeyIdentifier
	SubjectKeyIdentifier      *ber.ByteRange

	// ExtensionsByOID indexes every extension (including the ones parsed
	// above) by its raw OID bytes, for lookup by callers that need an
	// extension this parser does not interpret.
	ExtensionsByOID map[string]RawExtension
}

// Create parses backing_bytes as a DER-encoded Certificate and
// pre-computes every field and extension the verifier needs. On any
// parse failure it returns (nil, errs) with errs populated; no partial
// object is ever returned.
func Create(backingBytes []byte, options Options) (*ParsedCertificate, *errset.Set) {
	errs := &errset.Set{}

	cert, err := ParseCertificate(ber.NewByteRange(backingBytes))
	if err != nil {
		errs.Add(errset.High, errset.MalformedDer, map[string]string{"stage": "Certificate", "detail": err.Error()})
		return nil, errs
	}

	tbsValue, err := tbsTLVValue(cert.TBSTLV)
	if err != nil {
		errs.Add(errset.High, errset.MalformedDer, map[string]string{"stage": "TBSCertificate", "detail": err.Error()})
		return nil, errs
	}
	tbs, err := ParseTBSCertificate(tbsValue)
	if err != nil {
		errs.Add(errset.High, errset.MalformedDer, map[string]string{"stage": "TBSCertificate", "detail": err.Error()})
		return nil, errs
	}

	pc := &ParsedCertificate{
		backing:         backingBytes,
		Certificate:     cert,
		TBS:             tbs,
		ExtensionsByOID: make(map[string]RawExtension),
	}

	if err := validateSerialNumber(tbs.Serial, options.AllowInvalidSerialNumbers, errs); err != nil {
		errs.Add(errset.High, errset.InvalidSerialNumber, map[string]string{"detail": err.Error()})
		return nil, errs
	}

	issuerName, err := names.ParseName(tbs.IssuerRDNSequence)
	if err != nil {
		errs.Add(errset.High, errset.UnparseableName, map[string]string{"field": "issuer", "detail": err.Error()})
		return nil, errs
	}
	pc.IssuerName = issuerName

	subjectName, err := names.ParseName(tbs.SubjectRDNSequence)
	if err != nil {
		errs.Add(errset.High, errset.UnparseableName, map[string]string{"field": "subject", "detail": err.Error()})
		return nil, errs
	}
	pc.SubjectName = subjectName

	for _, ext := range tbs.Extensions {
		oidKey := string(ext.OID.Bytes())
		pc.ExtensionsByOID[oidKey] = RawExtension{Critical: ext.Critical, Value: ext.Value}

		var parseErr error
		switch {
		case oidEqual(ext.OID.Bytes(), oidExtBasicConstraints):
			pc.BasicConstraints, parseErr = ParseBasicConstraints(ext.Value)

		case oidEqual(ext.OID.Bytes(), oidExtKeyUsage):
			var ku int
			ku, parseErr = ParseKeyUsage(ext.Value)
			if parseErr == nil {
				pc.KeyUsage = &ku
			}

		case oidEqual(ext.OID.Bytes(), oidExtExtKeyUsage):
			pc.ExtendedKeyUsage, parseErr = ParseExtendedKeyUsage(ext.Value)

		case oidEqual(ext.OID.Bytes(), oidExtSubjectAltName):
			pc.SubjectAltName, parseErr = ParseSubjectAltName(ext.Value)

		case oidEqual(ext.OID.Bytes(), oidExtNameConstraints):
			pc.NameConstraints, parseErr = names.CreateNameConstraints(ext.Value, ext.Critical)

		case oidEqual(ext.OID.Bytes(), oidExtCertificatePolicies):
			pc.CertificatePolicies, parseErr = ParseCertificatePolicies(ext.Value, ext.Critical)

		case oidEqual(ext.OID.Bytes(), oidExtPolicyMappings):
			pc.PolicyMappings, parseErr = ParsePolicyMappings(ext.Value)

		case oidEqual(ext.OID.Bytes(), oidExtPolicyConstraints):
			pc.PolicyConstraints, parseErr = ParsePolicyConstraints(ext.Value)

		case oidEqual(ext.OID.Bytes(), oidExtInhibitAnyPolicy):
			var skip uint64
			skip, parseErr = ParseInhibitAnyPolicy(ext.Value)
			if parseErr == nil {
				pc.InhibitAnyPolicySkipCount = &skip
			}

		case oidEqual(ext.OID.Bytes(), oidExtAuthorityInfoAccess):
			pc.AuthorityInfoAccess, parseErr = ParseAuthorityInfoAccess(ext.Value)

		case oidEqual(ext.OID.Bytes(), oidExtCRLDistributionPoints):
			pc.CRLDistributionPoints, parseErr = ParseCRLDistributionPoints(ext.Value)

		case oidEqual(ext.OID.Bytes(), oidExtAuthorityKeyIdentifier):
			pc.AuthorityKeyIdentifier, parseErr = ParseAuthorityKeyIdentifier(ext.Value)

		case oidEqual(ext.OID.Bytes(), oidExtSubjectKeyIdentifier):
			var ski ber.ByteRange
			ski, parseErr = ParseSubjectKeyIdentifier(ext.Value)
			if parseErr == nil {
				pc.SubjectKeyIdentifier = &ski
			}
		}

		if parseErr != nil {
			errs.Add(errset.High, errset.InvalidExtensionEncoding, map[string]string{"detail": parseErr.Error()})
			return nil, errs
		}
	}

	return pc, errs
}

// IsExtensionCritical reports whether the extension with the given raw OID
// bytes is present and marked critical.
func (pc *ParsedCertificate) IsExtensionCritical(oid []byte) bool {
	raw, ok := pc.ExtensionsByOID[string(oid)]
	return ok && raw.Critical
}

// HasExtension reports whether an extension with the given raw OID bytes
// is present on the certificate.
func (pc *ParsedCertificate) HasExtension(oid []byte) bool {
	_, ok := pc.ExtensionsByOID[string(oid)]
	return ok
}

// tbsTLVValue recovers the tbsCertificate SEQUENCE's content bytes from its
// raw (header+value) form, which Certificate.TBSTLV keeps intact because
// the path verifier needs the original encoding to re-verify the signature.
func tbsTLVValue(raw ber.ByteRange) (ber.ByteRange, error) {
	r := ber.NewReader(raw)
	tlv, err := r.ReadTLVExpect(ber.Universal(ber.TagSequence, true))
	if err != nil {
		return ber.ByteRange{}, err
	}
	return tlv.Value, nil
}

func validateSerialNumber(serial ber.ByteRange, allowInvalid bool, errs *errset.Set) error {
	b := serial.Bytes()
	severity := errset.High
	if allowInvalid {
		severity = errset.Warning
	}

	if len(b) > 20 {
		if !allowInvalid {
			return errOversizedSerial
		}
		errs.Add(severity, errset.InvalidSerialNumber, map[string]string{"reason": "length exceeds 20 octets"})
	}
	if len(b) > 0 && (b[0]&0x80 != 0 || isAllZero(b)) {
		if !allowInvalid {
			return errNonPositiveSerial
		}
		errs.Add(severity, errset.InvalidSerialNumber, map[string]string{"reason": "non-positive"})
	}
	if err := ber.CheckMinimalInteger(b); err != nil {
		if !allowInvalid {
			return err
		}
		errs.Add(severity, errset.InvalidSerialNumber, map[string]string{"reason": "non-minimal encoding"})
	}
	return nil
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
