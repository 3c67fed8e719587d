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

// evaluateEKU applies §4.H.5's key-purpose/EKU-as-constraint rules for one
// certificate at the given chain position.
func evaluateEKU(cert *certparse.ParsedCertificate, isTarget, isTargetIssuer bool, purpose KeyPurpose, bucket *errset.Set) {
	if purpose == AnyEku {
		return
	}
	if purpose == RcsMlsClientAuth {
		evaluateRcsMlsClientAuth(cert, isTarget, bucket)
		return
	}

	strict := purpose == ServerAuthStrict || purpose == ClientAuthStrict
	if purpose == ServerAuthStrictLeaf || purpose == ClientAuthStrictLeaf {
		strict = isTarget
	}

	requiredOID := certparse.OidServerAuth
	if purpose == ClientAuth || purpose == ClientAuthStrict || purpose == ClientAuthStrictLeaf {
		requiredOID = certparse.OidClientAuth
	}
	lacksID := errset.EkuLacksServerAuth
	lacksWithAnyID := errset.EkuLacksServerAuthButHasAnyEKU
	if purpose == ClientAuth || purpose == ClientAuthStrict || purpose == ClientAuthStrictLeaf {
		lacksID = errset.EkuLacksClientAuth
		lacksWithAnyID = errset.EkuLacksClientAuthButHasAnyEKU
	}

	if isTarget || isTargetIssuer {
		evaluateProhibitedPurposes(cert, strict, bucket)
	}

	eku := cert.ExtendedKeyUsage
	if eku == nil {
		switch {
		case isTargetIssuer:
			// Legacy allowance: an issuer without EKU is treated as
			// server/client-auth-capable.
		case isTarget:
			bucket.Add(errset.Warning, errset.EkuNotPresent, nil)
			if strict {
				bucket.Add(errset.High, lacksID, nil)
			}
		}
		return
	}

	hasRequired := eku.Has(requiredOID)
	hasAny := eku.Has(certparse.OidAnyExtendedKeyUsage)

	if hasRequired {
		return
	}

	if hasAny {
		if isTarget || isTargetIssuer {
			bucket.Add(errset.Warning, lacksWithAnyID, nil)
			if strict {
				bucket.Add(errset.High, lacksID, nil)
			}
			return
		}
		// Deeper ancestors: anyExtendedKeyUsage substitutes for the
		// required purpose.
		return
	}

	if strict {
		bucket.Add(errset.High, lacksID, nil)
	} else if isTarget {
		bucket.Add(errset.Warning, lacksID, nil)
	}
}

// evaluateProhibitedPurposes rejects (strict: error, non-strict: warning)
// the presence of codeSigning, OCSPSigning, or timeStamping on the target
// or target-issuer.
func evaluateProhibitedPurposes(cert *certparse.ParsedCertificate, strict bool, bucket *errset.Set) {
	eku := cert.ExtendedKeyUsage
	if eku == nil {
		return
	}
	severity := errset.Warning
	if strict {
		severity = errset.High
	}
	if eku.Has(certparse.OidCodeSigning) {
		bucket.Add(severity, errset.EkuHasProhibitedCodeSigning, nil)
	}
	if eku.Has(certparse.OidOCSPSigning) {
		bucket.Add(severity, errset.EkuHasProhibitedOCSPSigning, nil)
	}
	if eku.Has(certparse.OidTimeStamping) {
		bucket.Add(severity, errset.EkuHasProhibitedTimeStamping, nil)
	}
}

// evaluateRcsMlsClientAuth implements the RcsMlsClientAuth key purpose:
// every certificate needs an EKU extension with exactly one entry equal to
// rcsMlsClient, and the target additionally needs a KeyUsage extension
// whose only asserted bit is digitalSignature.
func evaluateRcsMlsClientAuth(cert *certparse.ParsedCertificate, isTarget bool, bucket *errset.Set) {
	eku := cert.ExtendedKeyUsage
	if eku == nil || len(eku.OIDs) != 1 || !eku.Has(certparse.OidRcsMlsClient) {
		bucket.Add(errset.High, errset.EkuIncorrectForRcsMlsClient, nil)
	}
	if !isTarget {
		return
	}
	if cert.KeyUsage == nil || *cert.KeyUsage != certparse.KeyUsageDigitalSignature {
		bucket.Add(errset.High, errset.KeyUsageIncorrectForRcsMlsClient, nil)
	}
}
