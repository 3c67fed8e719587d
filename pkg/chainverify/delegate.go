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

// Package chainverify implements the RFC 5280 §6.1/§6.2 certification-path
// state machine: PathVerifier walks an ordered chain from trust anchor to
// target, maintaining the working public key, working issuer name, name
// constraints, and policy graph, and reports accumulated diagnostics
// through errset.PathErrors. Cryptographic operations are delegated to a
// Delegate supplied by the caller; this package has no crypto dependency
// of its own.
package chainverify

import "github.com/orbitpki/x509path/pkg/ber"

// TrustKind classifies how the caller trusts the last element of a chain.
type TrustKind int

// The trust dispositions a caller may assign to a chain's last element.
const (
	Unspecified TrustKind = iota
	Distrusted
	TrustedAnchor
	TrustedLeaf
	TrustedAnchorOrLeaf
)

// TrustDecision is the caller's trust disposition for the last element of
// a certificate chain, plus modifier bits controlling how strictly the
// anchor itself is checked.
type TrustDecision struct {
	Kind TrustKind

	EnforceAnchorExpiry           bool
	EnforceAnchorConstraints      bool
	RequireAnchorBasicConstraints bool
	RequireLeafSelfsigned         bool
}

// KeyPurpose selects which EKU-as-constraint policy PathVerifier applies.
type KeyPurpose int

// The key-purpose policies named in §4.H.5.
const (
	AnyEku KeyPurpose = iota
	ServerAuth
	ServerAuthStrict
	ServerAuthStrictLeaf
	ClientAuth
	ClientAuthStrict
	ClientAuthStrictLeaf
	RcsMlsClientAuth
)

// Delegate is the external collaborator that supplies every cryptographic
// primitive PathVerifier needs: signature-algorithm and public-key
// acceptability policy, signature verification itself, pre-certificate
// handling policy, and an opaque verify-cache handle whose population and
// thread-safety are entirely the implementer's responsibility.
type Delegate interface {
	// IsSignatureAlgorithmAcceptable reports whether algorithmTLV (the raw
	// AlgorithmIdentifier SEQUENCE TLV) names an algorithm this delegate
	// will use to verify signatures. The returned string is an optional
	// human-readable reason, used only for diagnostics.
	IsSignatureAlgorithmAcceptable(algorithmTLV ber.ByteRange) (ok bool, reason string)

	// IsPublicKeyAcceptable reports whether spkiTLV (the raw
	// SubjectPublicKeyInfo SEQUENCE TLV) names a key this delegate
	// considers strong enough to trust.
	IsPublicKeyAcceptable(spkiTLV ber.ByteRange) (ok bool, reason string)

	// VerifySignedData verifies that signature, over signedBytes, was
	// produced by the private key corresponding to spkiTLV under
	// algorithmTLV. signedBytes is the raw tbsCertificate TLV bytes.
	VerifySignedData(algorithmTLV ber.ByteRange, signedBytes []byte, signature ber.BitString, spkiTLV ber.ByteRange) bool

	// AcceptPreCertificates reports whether the CT Poison critical
	// extension should be tolerated instead of treated as an
	// unrecognized critical extension.
	AcceptPreCertificates() bool

	// GetVerifyCache returns an opaque handle the delegate may use to
	// memoize VerifySignedData results; PathVerifier never inspects it.
	GetVerifyCache() interface{}
}
