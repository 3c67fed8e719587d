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

// Package refdelegate is a crypto/x509-backed implementation of
// chainverify.Delegate: the cryptographic collaborator PathVerifier needs
// but does not itself depend on. It exists so the CLI and test suites have
// something to verify signatures with, without the core ever importing a
// crypto package.
package refdelegate

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"hash"
	"sync"

	"github.com/mitchellh/hashstructure"

	"github.com/orbitpki/x509path/pkg/ber"
)

// Option configures a RefDelegate at construction time.
type Option func(*RefDelegate)

// WithLegacyAlgorithms allows MD5/SHA-1-keyed signature algorithms, for
// verifying historical test chains that would otherwise be rejected.
func WithLegacyAlgorithms() Option {
	return func(d *RefDelegate) { d.allowLegacyAlgorithms = true }
}

// WithPreCertificateAcceptance makes AcceptPreCertificates return true.
func WithPreCertificateAcceptance() Option {
	return func(d *RefDelegate) { d.acceptPreCertificates = true }
}

// WithMinimumRSAKeyBits overrides the default 2048-bit RSA key floor.
func WithMinimumRSAKeyBits(bits int) Option {
	return func(d *RefDelegate) { d.minimumRSAKeyBits = bits }
}

// RefDelegate implements chainverify.Delegate on top of the standard
// library's crypto/x509 and asymmetric-signature packages.
type RefDelegate struct {
	allowLegacyAlgorithms bool
	acceptPreCertificates bool
	minimumRSAKeyBits     int

	cache sync.Map // cacheKey hash (uint64) -> bool
}

// New builds a RefDelegate with the given options applied.
func New(opts ...Option) *RefDelegate {
	d := &RefDelegate{minimumRSAKeyBits: 2048}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Well-known AlgorithmIdentifier OIDs this delegate recognizes.
var (
	oidSHA256WithRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	oidSHA384WithRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	oidSHA512WithRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}
	oidRSASSAPSS              = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
	oidECDSAWithSHA256        = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	oidECDSAWithSHA384        = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}
	oidECDSAWithSHA512        = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}
	oidEd25519                = asn1.ObjectIdentifier{1, 3, 101, 112}

	oidMD5WithRSAEncryption  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 4}
	oidSHA1WithRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}
	oidECDSAWithSHA1         = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 1}
)

type algorithmSpec struct {
	hashFunc func() hash.Hash
	cryptoID crypto.Hash
	legacy   bool
}

var acceptedAlgorithms = map[string]algorithmSpec{
	oidSHA256WithRSAEncryption.String(): {hashFunc: sha256.New, cryptoID: crypto.SHA256},
	oidSHA384WithRSAEncryption.String(): {hashFunc: sha512.New384, cryptoID: crypto.SHA384},
	oidSHA512WithRSAEncryption.String(): {hashFunc: sha512.New, cryptoID: crypto.SHA512},
	oidRSASSAPSS.String():              {hashFunc: sha256.New, cryptoID: crypto.SHA256},
	oidECDSAWithSHA256.String():        {hashFunc: sha256.New, cryptoID: crypto.SHA256},
	oidECDSAWithSHA384.String():        {hashFunc: sha512.New384, cryptoID: crypto.SHA384},
	oidECDSAWithSHA512.String():        {hashFunc: sha512.New, cryptoID: crypto.SHA512},
	oidEd25519.String():                {},

	oidMD5WithRSAEncryption.String():  {legacy: true},
	oidSHA1WithRSAEncryption.String(): {legacy: true},
	oidECDSAWithSHA1.String():         {legacy: true},
}

func parseAlgorithmOID(algorithmTLV ber.ByteRange) (asn1.ObjectIdentifier, error) {
	var ident pkix.AlgorithmIdentifier
	if _, err := asn1.Unmarshal(algorithmTLV.Bytes(), &ident); err != nil {
		return nil, fmt.Errorf("refdelegate: AlgorithmIdentifier: %w", err)
	}
	return ident.Algorithm, nil
}

// IsSignatureAlgorithmAcceptable implements chainverify.Delegate.
func (d *RefDelegate) IsSignatureAlgorithmAcceptable(algorithmTLV ber.ByteRange) (bool, string) {
	oid, err := parseAlgorithmOID(algorithmTLV)
	if err != nil {
		return false, err.Error()
	}
	spec, known := acceptedAlgorithms[oid.String()]
	if !known {
		return false, fmt.Sprintf("unrecognized signature algorithm %s", oid)
	}
	if spec.legacy && !d.allowLegacyAlgorithms {
		return false, fmt.Sprintf("legacy signature algorithm %s disallowed", oid)
	}
	return true, ""
}

// IsPublicKeyAcceptable implements chainverify.Delegate. It hands the raw
// SubjectPublicKeyInfo TLV bytes to crypto/x509.ParsePKIXPublicKey
// unchanged, since they are already in the SubjectPublicKeyInfo DER form
// that function expects.
func (d *RefDelegate) IsPublicKeyAcceptable(spkiTLV ber.ByteRange) (bool, string) {
	pub, err := x509.ParsePKIXPublicKey(spkiTLV.Bytes())
	if err != nil {
		return false, err.Error()
	}
	switch key := pub.(type) {
	case *rsa.PublicKey:
		if key.N.BitLen() < d.minimumRSAKeyBits {
			return false, fmt.Sprintf("RSA key is %d bits, below the %d-bit floor", key.N.BitLen(), d.minimumRSAKeyBits)
		}
		return true, ""
	case *ecdsa.PublicKey:
		switch key.Curve {
		case elliptic.P256(), elliptic.P384(), elliptic.P521():
			return true, ""
		default:
			return false, "unsupported elliptic curve"
		}
	case ed25519.PublicKey:
		return true, ""
	default:
		return false, fmt.Sprintf("unsupported public key type %T", pub)
	}
}

// VerifySignedData implements chainverify.Delegate, consulting the verify
// cache before performing the cryptographic check.
func (d *RefDelegate) VerifySignedData(algorithmTLV ber.ByteRange, signedBytes []byte, signature ber.BitString, spkiTLV ber.ByteRange) bool {
	key, cacheable := d.buildCacheKey(algorithmTLV, signedBytes, signature, spkiTLV)
	if cacheable {
		if v, ok := d.cache.Load(key); ok {
			return v.(bool)
		}
	}

	result := d.verifySignedDataUncached(algorithmTLV, signedBytes, signature, spkiTLV)
	if cacheable {
		d.cache.Store(key, result)
	}
	return result
}

// cacheKey is the (algorithm, spki, signature) triple buildCacheKey hashes;
// the verify cache's key combines that hash with a hash of the signed
// bytes (see SPEC_FULL.md §3.1).
type cacheKey struct {
	Algorithm []byte
	SPKI      []byte
	Signature []byte
}

func (d *RefDelegate) buildCacheKey(algorithmTLV ber.ByteRange, signedBytes []byte, signature ber.BitString, spkiTLV ber.ByteRange) (uint64, bool) {
	h, err := hashstructure.Hash(cacheKey{
		Algorithm: algorithmTLV.Bytes(),
		SPKI:      spkiTLV.Bytes(),
		Signature: signature.Bytes,
	}, nil)
	if err != nil {
		return 0, false
	}
	// Fold in signedBytes separately to avoid hashing the (usually large)
	// tbsCertificate through hashstructure's reflection-based walk twice
	// per verification.
	sh, err := hashstructure.Hash(signedBytes, nil)
	if err != nil {
		return 0, false
	}
	return h ^ sh, true
}

func (d *RefDelegate) verifySignedDataUncached(algorithmTLV ber.ByteRange, signedBytes []byte, signature ber.BitString, spkiTLV ber.ByteRange) bool {
	oid, err := parseAlgorithmOID(algorithmTLV)
	if err != nil {
		return false
	}
	spec, known := acceptedAlgorithms[oid.String()]
	if !known {
		return false
	}

	pub, err := x509.ParsePKIXPublicKey(spkiTLV.Bytes())
	if err != nil {
		return false
	}

	sig := signature.Bytes

	switch key := pub.(type) {
	case *rsa.PublicKey:
		if spec.hashFunc == nil {
			return false
		}
		h := spec.hashFunc()
		h.Write(signedBytes)
		digest := h.Sum(nil)
		if oid.Equal(oidRSASSAPSS) {
			return rsa.VerifyPSS(key, spec.cryptoID, digest, sig, nil) == nil
		}
		return rsa.VerifyPKCS1v15(key, spec.cryptoID, digest, sig) == nil
	case *ecdsa.PublicKey:
		if spec.hashFunc == nil {
			return false
		}
		h := spec.hashFunc()
		h.Write(signedBytes)
		return ecdsa.VerifyASN1(key, h.Sum(nil), sig)
	case ed25519.PublicKey:
		return ed25519.Verify(key, signedBytes, sig)
	default:
		return false
	}
}

// AcceptPreCertificates implements chainverify.Delegate.
func (d *RefDelegate) AcceptPreCertificates() bool { return d.acceptPreCertificates }

// GetVerifyCache implements chainverify.Delegate, exposing the sync.Map
// backing VerifySignedData's memoization so callers (e.g. a batch-verify
// test harness) can inspect cache hit/miss behavior.
func (d *RefDelegate) GetVerifyCache() interface{} { return &d.cache }
