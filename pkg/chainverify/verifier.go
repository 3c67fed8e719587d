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
	"bytes"

	"github.com/orbitpki/x509path/pkg/ber"
	"github.com/orbitpki/x509path/pkg/certparse"
	"github.com/orbitpki/x509path/pkg/errset"
	"github.com/orbitpki/x509path/pkg/names"
)

// PolicySet is a caller-facing set of policy OIDs (the user-initial policy
// set going in, and the user-constrained policy set coming out), keyed by
// raw OID bytes converted to string for comparison.
type PolicySet map[string]bool

// NewPolicySet builds a PolicySet from raw policy OID byte slices.
func NewPolicySet(oids ...[]byte) PolicySet {
	s := make(PolicySet, len(oids))
	for _, oid := range oids {
		s[string(oid)] = true
	}
	return s
}

func (s PolicySet) toInternal() map[policyID]bool {
	out := make(map[policyID]bool, len(s))
	for k, v := range s {
		out[policyID(k)] = v
	}
	return out
}

func fromInternal(m map[policyID]bool) PolicySet {
	out := make(PolicySet, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// VerifyCertificateChain is the PathVerifier entry point (§4.H). certs is
// ordered target-first, anchor-last. It returns the user-constrained
// policy set and the accumulated PathErrors; a verifier call always
// returns a non-nil PathErrors, even on a short-circuit path.
func VerifyCertificateChain(
	certs []*certparse.ParsedCertificate,
	lastCertTrust TrustDecision,
	delegate Delegate,
	verificationTime ber.Time,
	requiredKeyPurpose KeyPurpose,
	initialExplicitPolicy bool,
	userInitialPolicySet PolicySet,
	initialPolicyMappingInhibit bool,
	initialAnyPolicyInhibit bool,
) (PolicySet, *errset.PathErrors) {
	pathErrors := errset.NewPathErrors()

	if len(certs) == 0 {
		pathErrors.GetOtherErrors().Add(errset.High, errset.ChainIsEmpty, nil)
		return nil, pathErrors
	}

	if len(certs) == 1 {
		return verifySingleCertificatePath(certs[0], lastCertTrust, delegate, verificationTime, requiredKeyPurpose, pathErrors)
	}

	n := len(certs) - 1
	v := &verifierState{
		explicitPolicy:    boolToCounter(initialExplicitPolicy, n),
		inhibitAnyPolicy:  boolToCounter(initialAnyPolicyInhibit, n),
		policyMapping:     boolToCounter(initialPolicyMappingInhibit, n),
		maxPathLength:     n,
		nameConstraints:   nil,
		pathErrors:        pathErrors,
		delegate:          delegate,
		verificationTime:  verificationTime,
		requiredKeyPurpose: requiredKeyPurpose,
	}
	v.policyGraph.Init()

	if !v.runAnchorStep(certs[n], n, lastCertTrust) {
		return nil, pathErrors
	}

	for index := n - 1; index >= 0; index-- {
		if !v.runNonAnchorStep(certs, index) {
			return nil, pathErrors
		}
	}

	return fromInternal(v.policyGraph.GetUserConstrainedPolicySet(userInitialPolicySet.toInternal())), pathErrors
}

// verifySingleCertificatePath handles the degenerate one-certificate chain:
// the certificate is simultaneously anchor and target. It applies the
// trust-kind gate, optional self-signature verification, public-key
// acceptability, validity, EKU-as-constraint (against itself, as target and
// issuer), and unrecognized-critical-extension rejection, per §4.H.4.
func verifySingleCertificatePath(
	cert *certparse.ParsedCertificate,
	trust TrustDecision,
	delegate Delegate,
	verificationTime ber.Time,
	requiredKeyPurpose KeyPurpose,
	pathErrors *errset.PathErrors,
) (PolicySet, *errset.PathErrors) {
	bucket := pathErrors.ForCert(0)

	switch trust.Kind {
	case TrustedLeaf, TrustedAnchorOrLeaf:
		// proceed
	case TrustedAnchor:
		bucket.Add(errset.High, errset.CertIsNotTrustAnchor, nil)
		return nil, pathErrors
	case Distrusted:
		bucket.Add(errset.High, errset.DistrustedByTrustStore, nil)
		return nil, pathErrors
	default:
		bucket.Add(errset.High, errset.CertIsNotTrustAnchor, nil)
		return nil, pathErrors
	}

	if trust.RequireLeafSelfsigned {
		outer := cert.Certificate.SignatureAlgorithmTLV
		inner := cert.TBS.InnerSignatureAlgorithmTLV
		if !outer.Equal(inner) {
			if algorithmOIDsEqual(outer, inner) {
				bucket.Add(errset.Warning, errset.SignatureAlgorithmsDifferentEncoding, nil)
			} else {
				bucket.Add(errset.High, errset.SignatureAlgorithmMismatch, nil)
				return nil, pathErrors
			}
		}
		if ok, reason := delegate.IsSignatureAlgorithmAcceptable(outer); !ok {
			bucket.Addf(errset.High, errset.UnacceptableSignatureAlgorithm, "reason", reason)
			return nil, pathErrors
		}
		if !delegate.VerifySignedData(outer, cert.Certificate.TBSTLV.Bytes(), cert.Certificate.SignatureValue, cert.TBS.SPKITLV) {
			bucket.Add(errset.High, errset.VerifySignedDataFailed, nil)
			return nil, pathErrors
		}
	}

	if ok, reason := delegate.IsPublicKeyAcceptable(cert.TBS.SPKITLV); !ok {
		bucket.Addf(errset.High, errset.UnacceptablePublicKey, "reason", reason)
	}

	checkValidity(cert, verificationTime, bucket)

	evaluateEKU(cert, true, true, requiredKeyPurpose, bucket)

	rejectUnrecognizedCriticalExtensions(cert, delegate, bucket)

	var policyOIDs [][]byte
	if cert.CertificatePolicies != nil {
		policyOIDs = cert.CertificatePolicies.OIDs
	}
	return NewPolicySet(policyOIDs...), pathErrors
}

func boolToCounter(initial bool, n int) int {
	if initial {
		return 0
	}
	return n + 1
}

type verifierState struct {
	explicitPolicy   int
	inhibitAnyPolicy int
	policyMapping    int
	maxPathLength    int

	workingPublicKey  ber.ByteRange
	workingIssuerName *names.Name
	nameConstraints   []*names.NameConstraints

	policyGraph PolicyGraph

	pathErrors         *errset.PathErrors
	delegate           Delegate
	verificationTime   ber.Time
	requiredKeyPurpose KeyPurpose
}

// runAnchorStep processes the anchor (index n). Returns false if
// processing must stop (short-circuit).
func (v *verifierState) runAnchorStep(anchor *certparse.ParsedCertificate, index int, trust TrustDecision) bool {
	bucket := v.pathErrors.ForCert(index)

	switch trust.Kind {
	case Unspecified, TrustedLeaf:
		bucket.Add(errset.High, errset.CertIsNotTrustAnchor, nil)
		return false
	case Distrusted:
		bucket.Add(errset.High, errset.DistrustedByTrustStore, nil)
		return false
	case TrustedAnchor, TrustedAnchorOrLeaf:
		// proceed
	default:
		bucket.Add(errset.High, errset.CertIsNotTrustAnchor, nil)
		return false
	}

	if trust.EnforceAnchorExpiry {
		checkValidity(anchor, v.verificationTime, bucket)
	}

	if trust.EnforceAnchorConstraints {
		v.applyAnchorConstraints(anchor, bucket)
	}

	if trust.RequireAnchorBasicConstraints && anchor.TBS.Version == certparse.V3 && anchor.BasicConstraints == nil {
		bucket.Add(errset.High, errset.MissingBasicConstraints, nil)
	}

	ok, reason := v.delegate.IsPublicKeyAcceptable(anchor.TBS.SPKITLV)
	if !ok {
		bucket.Addf(errset.High, errset.UnacceptablePublicKey, "reason", reason)
		return false
	}

	v.workingPublicKey = anchor.TBS.SPKITLV
	v.workingIssuerName = anchor.SubjectName
	return true
}

// applyAnchorConstraints implements RFC 5937-style trust-anchor
// constraint processing: the anchor's own extensions seed the verifier's
// state instead of being checked against a parent.
func (v *verifierState) applyAnchorConstraints(anchor *certparse.ParsedCertificate, bucket *errset.Set) {
	isSelfIssued := anchor.IssuerName != nil && anchor.SubjectName != nil && anchor.IssuerName.Equal(anchor.SubjectName)

	v.policyGraph.VerifyPolicies(anchor, false, isSelfIssued, v.inhibitAnyPolicy, bucket)
	v.policyGraph.VerifyPolicyMappings(anchor.PolicyMappings, v.policyMapping, bucket)

	if anchor.PolicyConstraints != nil {
		if anchor.PolicyConstraints.RequireExplicitPolicy != nil && int(*anchor.PolicyConstraints.RequireExplicitPolicy) < v.explicitPolicy {
			v.explicitPolicy = int(*anchor.PolicyConstraints.RequireExplicitPolicy)
		}
		if anchor.PolicyConstraints.InhibitPolicyMapping != nil && int(*anchor.PolicyConstraints.InhibitPolicyMapping) < v.policyMapping {
			v.policyMapping = int(*anchor.PolicyConstraints.InhibitPolicyMapping)
		}
	}
	if anchor.InhibitAnyPolicySkipCount != nil && int(*anchor.InhibitAnyPolicySkipCount) < v.inhibitAnyPolicy {
		v.inhibitAnyPolicy = int(*anchor.InhibitAnyPolicySkipCount)
	}

	if anchor.KeyUsage != nil && *anchor.KeyUsage&certparse.KeyUsageKeyCertSign == 0 {
		bucket.Add(errset.High, errset.KeyCertSignBitNotSet, nil)
	}

	if anchor.BasicConstraints != nil {
		if !anchor.BasicConstraints.IsCA {
			bucket.Add(errset.High, errset.BasicConstraintsIndicatesNotCa, nil)
		}
		if anchor.BasicConstraints.HasPathLen && anchor.BasicConstraints.PathLenConstraint < v.maxPathLength {
			v.maxPathLength = anchor.BasicConstraints.PathLenConstraint
		}
	}

	if anchor.NameConstraints != nil {
		v.nameConstraints = append(v.nameConstraints, anchor.NameConstraints)
	}

	rejectUnrecognizedCriticalExtensions(anchor, v.delegate, bucket)
}

// runNonAnchorStep processes one non-anchor certificate. Returns false if
// a short-circuit condition was hit and processing must stop.
func (v *verifierState) runNonAnchorStep(certs []*certparse.ParsedCertificate, index int) bool {
	cert := certs[index]
	bucket := v.pathErrors.ForCert(index)
	isTarget := index == 0
	isTargetIssuer := index == 1
	isSelfIssued := cert.IssuerName != nil && cert.SubjectName != nil && cert.IssuerName.Equal(cert.SubjectName)

	// 1. Signature-algorithm cross-check.
	outer := cert.Certificate.SignatureAlgorithmTLV
	inner := cert.TBS.InnerSignatureAlgorithmTLV
	if !outer.Equal(inner) {
		if algorithmOIDsEqual(outer, inner) {
			bucket.Add(errset.Warning, errset.SignatureAlgorithmsDifferentEncoding, nil)
		} else {
			bucket.Add(errset.High, errset.SignatureAlgorithmMismatch, nil)
			return false
		}
	}

	// 2. Algorithm acceptability.
	if ok, reason := v.delegate.IsSignatureAlgorithmAcceptable(outer); !ok {
		bucket.Addf(errset.High, errset.UnacceptableSignatureAlgorithm, "reason", reason)
		return false
	}

	// 3. Signature verification.
	if !v.delegate.VerifySignedData(outer, cert.Certificate.TBSTLV.Bytes(), cert.Certificate.SignatureValue, v.workingPublicKey) {
		bucket.Add(errset.High, errset.VerifySignedDataFailed, nil)
		return false
	}

	// 4. Time validity.
	checkValidity(cert, v.verificationTime, bucket)

	// 5. Name binding.
	if v.workingIssuerName == nil || !cert.IssuerName.Equal(v.workingIssuerName) {
		bucket.Add(errset.High, errset.SubjectDoesNotMatchIssuer, nil)
	}

	// 6. Name constraints.
	if len(v.nameConstraints) > 0 && (!isSelfIssued || isTarget) {
		for _, nc := range v.nameConstraints {
			names.IsPermittedCert(nc, cert.SubjectName, cert.SubjectAltName, bucket)
		}
	}

	// 7. Policy processing.
	v.policyGraph.VerifyPolicies(cert, isTarget, isSelfIssued, v.inhibitAnyPolicy, bucket)
	if v.explicitPolicy == 0 && v.policyGraph.IsNull() {
		bucket.Add(errset.High, errset.NoValidPolicy, nil)
	}

	// 8. EKU-as-constraint.
	evaluateEKU(cert, isTarget, isTargetIssuer, v.requiredKeyPurpose, bucket)

	if !isTarget {
		v.prepareForNextCertificate(cert, isSelfIssued, bucket)
		return true
	}

	v.wrapUp(cert, bucket)
	return true
}

// prepareForNextCertificate applies RFC 5280 §6.1.4 after processing a
// non-target certificate, advancing state for the certificate one step
// closer to the target.
func (v *verifierState) prepareForNextCertificate(cert *certparse.ParsedCertificate, isSelfIssued bool, bucket *errset.Set) {
	v.policyGraph.VerifyPolicyMappings(cert.PolicyMappings, v.policyMapping, bucket)

	v.workingIssuerName = cert.SubjectName
	v.workingPublicKey = cert.TBS.SPKITLV

	if cert.NameConstraints != nil {
		v.nameConstraints = append(v.nameConstraints, cert.NameConstraints)
	}

	if !isSelfIssued {
		v.explicitPolicy = saturatingDecrement(v.explicitPolicy)
		v.inhibitAnyPolicy = saturatingDecrement(v.inhibitAnyPolicy)
		v.policyMapping = saturatingDecrement(v.policyMapping)
	}

	if cert.PolicyConstraints != nil {
		if cert.PolicyConstraints.RequireExplicitPolicy != nil && int(*cert.PolicyConstraints.RequireExplicitPolicy) < v.explicitPolicy {
			v.explicitPolicy = int(*cert.PolicyConstraints.RequireExplicitPolicy)
		}
		if cert.PolicyConstraints.InhibitPolicyMapping != nil && int(*cert.PolicyConstraints.InhibitPolicyMapping) < v.policyMapping {
			v.policyMapping = int(*cert.PolicyConstraints.InhibitPolicyMapping)
		}
	}
	if cert.InhibitAnyPolicySkipCount != nil && int(*cert.InhibitAnyPolicySkipCount) < v.inhibitAnyPolicy {
		v.inhibitAnyPolicy = int(*cert.InhibitAnyPolicySkipCount)
	}

	if cert.BasicConstraints == nil {
		bucket.Add(errset.High, errset.MissingBasicConstraints, nil)
	} else if !cert.BasicConstraints.IsCA {
		bucket.Add(errset.High, errset.BasicConstraintsIndicatesNotCa, nil)
	}

	if !isSelfIssued {
		if v.maxPathLength <= 0 {
			bucket.Add(errset.High, errset.MaxPathLengthViolated, nil)
		} else {
			v.maxPathLength--
		}
	}
	if cert.BasicConstraints != nil && cert.BasicConstraints.HasPathLen && cert.BasicConstraints.PathLenConstraint < v.maxPathLength {
		v.maxPathLength = cert.BasicConstraints.PathLenConstraint
	}

	if cert.KeyUsage != nil && *cert.KeyUsage&certparse.KeyUsageKeyCertSign == 0 {
		bucket.Add(errset.High, errset.KeyCertSignBitNotSet, nil)
	}

	rejectUnrecognizedCriticalExtensions(cert, v.delegate, bucket)
}

// wrapUp applies RFC 5280 §6.1.5 for the target certificate.
func (v *verifierState) wrapUp(cert *certparse.ParsedCertificate, bucket *errset.Set) {
	v.explicitPolicy = saturatingDecrement(v.explicitPolicy)
	if cert.PolicyConstraints != nil && cert.PolicyConstraints.RequireExplicitPolicy != nil && *cert.PolicyConstraints.RequireExplicitPolicy == 0 {
		v.explicitPolicy = 0
	}

	if cert.BasicConstraints != nil && cert.BasicConstraints.IsCA {
		severity := errset.Warning
		if isStrictPurpose(v.requiredKeyPurpose) {
			severity = errset.High
		}
		bucket.Add(severity, errset.TargetCertShouldNotBeCa, nil)
	}

	if ok, reason := v.delegate.IsPublicKeyAcceptable(cert.TBS.SPKITLV); !ok {
		bucket.Addf(errset.High, errset.UnacceptablePublicKey, "reason", reason)
	}

	rejectUnrecognizedCriticalExtensions(cert, v.delegate, bucket)
}

func isStrictPurpose(p KeyPurpose) bool {
	switch p {
	case ServerAuthStrict, ServerAuthStrictLeaf, ClientAuthStrict, ClientAuthStrictLeaf:
		return true
	default:
		return false
	}
}

func saturatingDecrement(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}

func checkValidity(cert *certparse.ParsedCertificate, verificationTime ber.Time, bucket *errset.Set) {
	if verificationTime.Before(cert.TBS.NotBefore) {
		bucket.Add(errset.High, errset.ValidityFailedNotBefore, nil)
	}
	if verificationTime.After(cert.TBS.NotAfter) {
		bucket.Add(errset.High, errset.ValidityFailedNotAfter, nil)
	}
}

// algorithmOIDsEqual compares just the algorithm OID prefix of two
// AlgorithmIdentifier SEQUENCE TLVs, tolerating differing parameter
// encodings (e.g. an explicit NULL parameter vs. an omitted one).
func algorithmOIDsEqual(a, b ber.ByteRange) bool {
	aOID, aOK := readLeadingOID(a)
	bOID, bOK := readLeadingOID(b)
	return aOK && bOK && aOID.Equal(bOID)
}

func readLeadingOID(tlv ber.ByteRange) (ber.ByteRange, bool) {
	r := ber.NewReader(tlv)
	seq, err := r.ReadTLVExpect(ber.Universal(ber.TagSequence, true))
	if err != nil {
		return ber.ByteRange{}, false
	}
	inner := ber.NewReader(seq.Value)
	oid, err := inner.ReadObjectIdentifier()
	if err != nil {
		return ber.ByteRange{}, false
	}
	return oid, true
}

// rejectUnrecognizedCriticalExtensions implements the tail of §4.H.3 step
// 9 (and the equivalent anchor-step and single-certificate-path rules):
// any critical extension this parser does not interpret is fatal, with
// two allowances for CT Poison and the Microsoft application-policies
// extension.
func rejectUnrecognizedCriticalExtensions(cert *certparse.ParsedCertificate, delegate Delegate, bucket *errset.Set) {
	for oidKey, raw := range cert.ExtensionsByOID {
		if !raw.Critical {
			continue
		}
		oid := []byte(oidKey)
		if certparse.IsKnownExtensionOID(oid) {
			continue
		}
		if bytes.Equal(oid, certparse.OidCTPoison) && delegate.AcceptPreCertificates() {
			continue
		}
		if bytes.Equal(oid, certparse.OidMicrosoftApplicationPolicies) && cert.ExtendedKeyUsage != nil {
			continue
		}
		bucket.Add(errset.High, errset.UnconsumedCriticalExtension, nil)
	}
}
