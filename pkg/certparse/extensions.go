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
	"fmt"

	"github.com/orbitpki/x509path/pkg/ber"
	"github.com/orbitpki/x509path/pkg/gennames"
)

// BasicConstraints is the decoded BasicConstraints extension.
type BasicConstraints struct {
	IsCA        bool
	HasPathLen  bool
	PathLenConstraint int
}

// ParseBasicConstraints decodes {cA BOOLEAN DEFAULT FALSE, pathLenConstraint
// INTEGER OPTIONAL}. A pathLenConstraint without cA=true is accepted,
// applied as is_ca=false with has_path_len=true.
func ParseBasicConstraints(value ber.ByteRange) (*BasicConstraints, error) {
	r := ber.NewReader(value)
	seq, err := r.ReadSequence()
	if err != nil {
		return nil, fmt.Errorf("BasicConstraints: %w", err)
	}
	bc := &BasicConstraints{}
	if tag, ok := seq.PeekTag(); ok && tag.Equal(ber.Universal(ber.TagBoolean, false)) {
		bc.IsCA, err = seq.ReadBoolean()
		if err != nil {
			return nil, fmt.Errorf("BasicConstraints.cA: %w", err)
		}
		if !bc.IsCA {
			return nil, fmt.Errorf("BasicConstraints.cA: DER default value FALSE must be omitted")
		}
	}
	if !seq.Done() {
		pathLen, err := seq.ReadUnsignedIntBounded(255)
		if err != nil {
			return nil, fmt.Errorf("BasicConstraints.pathLenConstraint: %w", err)
		}
		bc.HasPathLen = true
		bc.PathLenConstraint = int(pathLen)
	}
	if !seq.Done() {
		return nil, fmt.Errorf("BasicConstraints: unconsumed trailing bytes")
	}
	return bc, nil
}

// KeyUsage bit positions, matching RFC 5280 (digitalSignature = bit 0).
const (
	KeyUsageDigitalSignature = 1 << iota
	KeyUsageNonRepudiation
	KeyUsageKeyEncipherment
	KeyUsageDataEncipherment
	KeyUsageKeyAgreement
	KeyUsageKeyCertSign
	KeyUsageCRLSign
	KeyUsageEncipherOnly
	KeyUsageDecipherOnly
)

// ParseKeyUsage decodes the KeyUsage BIT STRING into a bitmask, requiring
// at least one asserted bit.
func ParseKeyUsage(value ber.ByteRange) (int, error) {
	r := ber.NewReader(value)
	bs, err := r.ReadBitString()
	if err != nil {
		return 0, fmt.Errorf("KeyUsage: %w", err)
	}
	if !r.Done() {
		return 0, fmt.Errorf("KeyUsage: unconsumed trailing bytes")
	}
	if bs.BitLen() == 0 {
		return 0, fmt.Errorf("KeyUsage: no bits set")
	}
	mask := 0
	for i := 0; i < bs.BitLen() && i < 9; i++ {
		if bs.At(i) {
			mask |= 1 << uint(i)
		}
	}
	if mask == 0 {
		return 0, fmt.Errorf("KeyUsage: no recognized bits set")
	}
	return mask, nil
}

// ExtendedKeyUsage is the raw-OID-identity list of asserted key purposes.
type ExtendedKeyUsage struct {
	OIDs [][]byte
}

// Has reports whether oid is present in the EKU list.
func (e *ExtendedKeyUsage) Has(oid []byte) bool {
	for _, o := range e.OIDs {
		if oidEqual(o, oid) {
			return true
		}
	}
	return false
}

// ParseExtendedKeyUsage decodes a non-empty SEQUENCE OF KeyPurposeId.
func ParseExtendedKeyUsage(value ber.ByteRange) (*ExtendedKeyUsage, error) {
	r := ber.NewReader(value)
	seq, err := r.ReadSequence()
	if err != nil {
		return nil, fmt.Errorf("ExtendedKeyUsage: %w", err)
	}
	eku := &ExtendedKeyUsage{}
	for !seq.Done() {
		oid, err := seq.ReadObjectIdentifier()
		if err != nil {
			return nil, fmt.Errorf("ExtendedKeyUsage: %w", err)
		}
		eku.OIDs = append(eku.OIDs, oid.Bytes())
	}
	if len(eku.OIDs) == 0 {
		return nil, fmt.Errorf("ExtendedKeyUsage: empty")
	}
	return eku, nil
}

// ParseSubjectAltName decodes the SubjectAltName GeneralNames value.
func ParseSubjectAltName(value ber.ByteRange) (*gennames.GeneralNames, error) {
	r := ber.NewReader(value)
	gn, err := gennames.Parse(r, gennames.ModeSubjectAltName)
	if err != nil {
		return nil, fmt.Errorf("SubjectAltName: %w", err)
	}
	if !r.Done() {
		return nil, fmt.Errorf("SubjectAltName: unconsumed trailing bytes")
	}
	return gn, nil
}

// CertificatePolicies is the OID list extracted from a CertificatePolicies
// extension. Policy qualifiers are not interpreted beyond the critical-only
// CPS-Pointer/User-Notice whitelist check.
type CertificatePolicies struct {
	OIDs [][]byte
}

// ParseCertificatePolicies decodes SEQUENCE OF PolicyInformation. If
// critical is true, every policy's qualifier set (if present) must contain
// only CPS-Pointer or User-Notice OIDs.
func ParseCertificatePolicies(value ber.ByteRange, critical bool) (*CertificatePolicies, error) {
	r := ber.NewReader(value)
	seq, err := r.ReadSequence()
	if err != nil {
		return nil, fmt.Errorf("CertificatePolicies: %w", err)
	}
	cp := &CertificatePolicies{}
	for !seq.Done() {
		policyInfo, err := seq.ReadSequence()
		if err != nil {
			return nil, fmt.Errorf("PolicyInformation: %w", err)
		}
		oid, err := policyInfo.ReadObjectIdentifier()
		if err != nil {
			return nil, fmt.Errorf("PolicyInformation.policyIdentifier: %w", err)
		}
		cp.OIDs = append(cp.OIDs, oid.Bytes())

		if !policyInfo.Done() {
			qualifiers, err := policyInfo.ReadSequence()
			if err != nil {
				return nil, fmt.Errorf("PolicyInformation.policyQualifiers: %w", err)
			}
			for !qualifiers.Done() {
				qualifier, err := qualifiers.ReadSequence()
				if err != nil {
					return nil, fmt.Errorf("PolicyQualifierInfo: %w", err)
				}
				qoid, err := qualifier.ReadObjectIdentifier()
				if err != nil {
					return nil, fmt.Errorf("PolicyQualifierInfo.policyQualifierId: %w", err)
				}
				if critical && !oidEqual(qoid.Bytes(), oidCPSPointer) && !oidEqual(qoid.Bytes(), oidUserNotice) {
					return nil, fmt.Errorf("critical CertificatePolicies has disallowed qualifier OID")
				}
			}
		}
		if !policyInfo.Done() {
			return nil, fmt.Errorf("PolicyInformation: unconsumed trailing bytes")
		}
	}
	if len(cp.OIDs) == 0 {
		return nil, fmt.Errorf("CertificatePolicies: empty")
	}
	return cp, nil
}

// PolicyMapping is one (issuerDomainPolicy, subjectDomainPolicy) pair.
type PolicyMapping struct {
	IssuerDomainPolicy  []byte
	SubjectDomainPolicy []byte
}

// ParsePolicyMappings decodes a non-empty SEQUENCE OF PolicyMappings.Item.
// anyPolicy on either side is rejected later, during policy processing.
func ParsePolicyMappings(value ber.ByteRange) ([]PolicyMapping, error) {
	r := ber.NewReader(value)
	seq, err := r.ReadSequence()
	if err != nil {
		return nil, fmt.Errorf("PolicyMappings: %w", err)
	}
	var mappings []PolicyMapping
	for !seq.Done() {
		item, err := seq.ReadSequence()
		if err != nil {
			return nil, fmt.Errorf("PolicyMappings item: %w", err)
		}
		issuer, err := item.ReadObjectIdentifier()
		if err != nil {
			return nil, fmt.Errorf("PolicyMappings.issuerDomainPolicy: %w", err)
		}
		subject, err := item.ReadObjectIdentifier()
		if err != nil {
			return nil, fmt.Errorf("PolicyMappings.subjectDomainPolicy: %w", err)
		}
		if !item.Done() {
			return nil, fmt.Errorf("PolicyMappings item: unconsumed trailing bytes")
		}
		mappings = append(mappings, PolicyMapping{IssuerDomainPolicy: issuer.Bytes(), SubjectDomainPolicy: subject.Bytes()})
	}
	if len(mappings) == 0 {
		return nil, fmt.Errorf("PolicyMappings: empty")
	}
	return mappings, nil
}

// PolicyConstraints is the decoded PolicyConstraints extension.
type PolicyConstraints struct {
	RequireExplicitPolicy *uint64
	InhibitPolicyMapping  *uint64
}

// ParsePolicyConstraints decodes the two optional IMPLICIT INTEGER fields;
// at least one must be present.
func ParsePolicyConstraints(value ber.ByteRange) (*PolicyConstraints, error) {
	r := ber.NewReader(value)
	seq, err := r.ReadSequence()
	if err != nil {
		return nil, fmt.Errorf("PolicyConstraints: %w", err)
	}
	pc := &PolicyConstraints{}
	if v, ok, err := readOptionalImplicitUint(seq, 0); err != nil {
		return nil, fmt.Errorf("PolicyConstraints.requireExplicitPolicy: %w", err)
	} else if ok {
		pc.RequireExplicitPolicy = &v
	}
	if v, ok, err := readOptionalImplicitUint(seq, 1); err != nil {
		return nil, fmt.Errorf("PolicyConstraints.inhibitPolicyMapping: %w", err)
	} else if ok {
		pc.InhibitPolicyMapping = &v
	}
	if !seq.Done() {
		return nil, fmt.Errorf("PolicyConstraints: unconsumed trailing bytes")
	}
	if pc.RequireExplicitPolicy == nil && pc.InhibitPolicyMapping == nil {
		return nil, fmt.Errorf("PolicyConstraints: neither field present")
	}
	return pc, nil
}

func readOptionalImplicitUint(r *ber.Reader, tagNumber uint32) (uint64, bool, error) {
	value, ok, err := r.ReadOptionalImplicit(tagNumber, false)
	if err != nil || !ok {
		return 0, false, err
	}
	if err := ber.CheckMinimalInteger(value.Bytes()); err != nil {
		return 0, false, err
	}
	b := value.Bytes()
	if len(b) > 0 && b[0]&0x80 != 0 {
		return 0, false, fmt.Errorf("expected non-negative integer")
	}
	var v uint64
	for _, byt := range b {
		v = v<<8 | uint64(byt)
	}
	return v, true, nil
}

// ParseInhibitAnyPolicy decodes the single INTEGER skip count.
func ParseInhibitAnyPolicy(value ber.ByteRange) (uint64, error) {
	r := ber.NewReader(value)
	v, err := r.ReadUnsignedInt()
	if err != nil {
		return 0, fmt.Errorf("InhibitAnyPolicy: %w", err)
	}
	if !r.Done() {
		return 0, fmt.Errorf("InhibitAnyPolicy: unconsumed trailing bytes")
	}
	return v, nil
}

// AuthorityInfoAccess holds the URIs extracted for the two access methods
// this module consults.
type AuthorityInfoAccess struct {
	CAIssuers []string
	OCSP      []string
}

// ParseAuthorityInfoAccess decodes SEQUENCE OF AccessDescription, keeping
// only id-ad-caIssuers/id-ad-ocsp URIs.
func ParseAuthorityInfoAccess(value ber.ByteRange) (*AuthorityInfoAccess, error) {
	r := ber.NewReader(value)
	seq, err := r.ReadSequence()
	if err != nil {
		return nil, fmt.Errorf("AuthorityInfoAccess: %w", err)
	}
	aia := &AuthorityInfoAccess{}
	for !seq.Done() {
		desc, err := seq.ReadSequence()
		if err != nil {
			return nil, fmt.Errorf("AccessDescription: %w", err)
		}
		method, err := desc.ReadObjectIdentifier()
		if err != nil {
			return nil, fmt.Errorf("AccessDescription.accessMethod: %w", err)
		}
		gn, err := gennames.ParseOne(desc, gennames.ModeSubjectAltName)
		if err != nil {
			return nil, fmt.Errorf("AccessDescription.accessLocation: %w", err)
		}
		if !desc.Done() {
			return nil, fmt.Errorf("AccessDescription: unconsumed trailing bytes")
		}
		if len(gn.UniformResourceIdentifier) == 0 {
			continue
		}
		switch {
		case oidEqual(method.Bytes(), oidCAIssuers):
			aia.CAIssuers = append(aia.CAIssuers, gn.UniformResourceIdentifier...)
		case oidEqual(method.Bytes(), oidOCSP):
			aia.OCSP = append(aia.OCSP, gn.UniformResourceIdentifier...)
		}
	}
	return aia, nil
}

// DistributionPoint is one CRLDistributionPoints entry.
type DistributionPoint struct {
	FullName                *gennames.GeneralNames
	NameRelativeToCRLIssuer *ber.ByteRange
	Reasons                 *ber.BitString
	CRLIssuer               *gennames.GeneralNames
}

const (
	tagDPName                = 0
	tagDPFullName            = 0
	tagDPRelativeName        = 1
	tagDPReasons             = 1
	tagDPCRLIssuer           = 2
)

// ParseCRLDistributionPoints decodes SEQUENCE OF DistributionPoint.
func ParseCRLDistributionPoints(value ber.ByteRange) ([]DistributionPoint, error) {
	r := ber.NewReader(value)
	seq, err := r.ReadSequence()
	if err != nil {
		return nil, fmt.Errorf("CRLDistributionPoints: %w", err)
	}
	var points []DistributionPoint
	for !seq.Done() {
		point, err := seq.ReadSequence()
		if err != nil {
			return nil, fmt.Errorf("DistributionPoint: %w", err)
		}
		dp := DistributionPoint{}
		hasDPName := false

		if inner, ok, err := point.ReadOptionalExplicit(tagDPName); err != nil {
			return nil, fmt.Errorf("DistributionPoint.distributionPoint: %w", err)
		} else if ok {
			hasDPName = true
			if fullNameTag, ok := inner.PeekTag(); ok && fullNameTag.Equal(ber.ContextSpecific(tagDPFullName, true)) {
				tlv, err := inner.ReadTLV()
				if err != nil {
					return nil, fmt.Errorf("DistributionPoint.fullName: %w", err)
				}
				gn, err := gennames.ParseInner(ber.NewReader(tlv.Value), gennames.ModeSubjectAltName)
				if err != nil {
					return nil, fmt.Errorf("DistributionPoint.fullName: %w", err)
				}
				dp.FullName = gn
			} else if relTag, ok := inner.PeekTag(); ok && relTag.Equal(ber.ContextSpecific(tagDPRelativeName, true)) {
				tlv, err := inner.ReadTLV()
				if err != nil {
					return nil, fmt.Errorf("DistributionPoint.nameRelativeToCRLIssuer: %w", err)
				}
				v := tlv.Value
				dp.NameRelativeToCRLIssuer = &v
			} else {
				return nil, fmt.Errorf("DistributionPoint.distributionPoint: unrecognized CHOICE")
			}
		}

		if value, ok, err := point.ReadOptionalImplicit(tagDPReasons, false); err != nil {
			return nil, fmt.Errorf("DistributionPoint.reasons: %w", err)
		} else if ok {
			bs, err := ber.ParseBitStringContent(value.Bytes())
			if err != nil {
				return nil, fmt.Errorf("DistributionPoint.reasons: %w", err)
			}
			dp.Reasons = &bs
		}

		hasCRLIssuer := false
		if value, ok, err := point.ReadOptionalImplicit(tagDPCRLIssuer, true); err != nil {
			return nil, fmt.Errorf("DistributionPoint.cRLIssuer: %w", err)
		} else if ok {
			hasCRLIssuer = true
			gn, err := gennames.ParseInner(ber.NewReader(value), gennames.ModeSubjectAltName)
			if err != nil {
				return nil, fmt.Errorf("DistributionPoint.cRLIssuer: %w", err)
			}
			dp.CRLIssuer = gn
		}

		if !point.Done() {
			return nil, fmt.Errorf("DistributionPoint: unconsumed trailing bytes")
		}
		if !hasDPName && !hasCRLIssuer {
			return nil, fmt.Errorf("DistributionPoint: neither distributionPoint nor cRLIssuer present")
		}

		points = append(points, dp)
	}
	return points, nil
}

// AuthorityKeyIdentifier is the decoded AuthorityKeyIdentifier extension.
type AuthorityKeyIdentifier struct {
	KeyIdentifier             *ber.ByteRange
	AuthorityCertIssuer       *gennames.GeneralNames
	AuthorityCertSerialNumber *ber.ByteRange
}

const (
	tagAKIKeyIdentifier = 0
	tagAKICertIssuer    = 1
	tagAKICertSerial    = 2
)

// ParseAuthorityKeyIdentifier decodes the three optional IMPLICIT fields;
// authorityCertIssuer and authorityCertSerialNumber must be present
// together or not at all.
func ParseAuthorityKeyIdentifier(value ber.ByteRange) (*AuthorityKeyIdentifier, error) {
	r := ber.NewReader(value)
	seq, err := r.ReadSequence()
	if err != nil {
		return nil, fmt.Errorf("AuthorityKeyIdentifier: %w", err)
	}
	aki := &AuthorityKeyIdentifier{}

	if v, ok, err := seq.ReadOptionalImplicit(tagAKIKeyIdentifier, false); err != nil {
		return nil, fmt.Errorf("AuthorityKeyIdentifier.keyIdentifier: %w", err)
	} else if ok {
		aki.KeyIdentifier = &v
	}

	var issuerTLV *ber.ByteRange
	if tag, ok := seq.PeekTag(); ok && tag.Equal(ber.ContextSpecific(tagAKICertIssuer, true)) {
		tlv, err := seq.ReadTLV()
		if err != nil {
			return nil, fmt.Errorf("AuthorityKeyIdentifier.authorityCertIssuer: %w", err)
		}
		gn, err := gennames.ParseInner(ber.NewReader(tlv.Value), gennames.ModeSubjectAltName)
		if err != nil {
			return nil, fmt.Errorf("AuthorityKeyIdentifier.authorityCertIssuer: %w", err)
		}
		aki.AuthorityCertIssuer = gn
		v := tlv.Value
		issuerTLV = &v
	}

	if v, ok, err := seq.ReadOptionalImplicit(tagAKICertSerial, false); err != nil {
		return nil, fmt.Errorf("AuthorityKeyIdentifier.authorityCertSerialNumber: %w", err)
	} else if ok {
		aki.AuthorityCertSerialNumber = &v
	}

	if (issuerTLV != nil) != (aki.AuthorityCertSerialNumber != nil) {
		return nil, fmt.Errorf("AuthorityKeyIdentifier: authorityCertIssuer and authorityCertSerialNumber must be present together")
	}

	if !seq.Done() {
		return nil, fmt.Errorf("AuthorityKeyIdentifier: unconsumed trailing bytes")
	}
	return aki, nil
}

// ParseSubjectKeyIdentifier decodes the OCTET STRING key identifier.
func ParseSubjectKeyIdentifier(value ber.ByteRange) (ber.ByteRange, error) {
	r := ber.NewReader(value)
	octets, err := r.ReadOctetString()
	if err != nil {
		return ber.ByteRange{}, fmt.Errorf("SubjectKeyIdentifier: %w", err)
	}
	if !r.Done() {
		return ber.ByteRange{}, fmt.Errorf("SubjectKeyIdentifier: unconsumed trailing bytes")
	}
	return octets, nil
}
