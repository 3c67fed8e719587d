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

// Package testcert synthesizes minimal, self-consistent DER certificates
// for the test suites of pkg/certparse, pkg/chainverify and
// pkg/refdelegate, which otherwise would each need to hand-build a full
// TBSCertificate inline. Every field this module's parser and verifier
// consult is built by hand, TLV by TLV, the same way pkg/ber's and
// pkg/names' own test files do; only the SubjectPublicKeyInfo bytes and
// the signature itself are produced via crypto/rsa and crypto/x509,
// since RefDelegate hands spkiTLV straight to x509.ParsePKIXPublicKey
// and the signature must actually verify for chainverify/refdelegate
// round-trip tests to mean anything.
package testcert

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"math/big"
	"time"
)

// Extension is a raw {oid, critical, value} triple, for extensions this
// builder does not otherwise expose a typed field for.
type Extension struct {
	OID      []byte
	Critical bool
	Value    []byte
}

// Builder assembles one Certificate's DER encoding. Zero-valued fields are
// omitted where the ASN.1 structure allows it (e.g. no SubjectAltName is
// encoded unless DNSNames is non-empty); Version must be set explicitly to
// 2 for any extension field to take effect, since extensions are a v3-only
// construct.
type Builder struct {
	Version int // 0 = v1, 1 = v2, 2 = v3

	SerialNumber int64
	Issuer       string
	Subject      string
	NotBefore    time.Time
	NotAfter     time.Time

	// SignerKey signs the tbsCertificate. A fresh 2048-bit RSA key is
	// generated if nil.
	SignerKey *rsa.PrivateKey
	// SubjectKey is embedded as the certificate's SubjectPublicKeyInfo.
	// Defaults to SignerKey's public key, producing a self-signed
	// certificate, which is what most single-certificate parser tests
	// want; chain-building tests set this to the child's own key.
	SubjectKey *rsa.PublicKey

	HasBasicConstraints bool
	IsCA                bool
	HasPathLen          bool
	PathLenConstraint   int
	BasicConstraintsCritical bool

	KeyUsage         int // 0 omits the extension
	KeyUsageCritical bool

	ExtKeyUsageOIDs [][]byte

	DNSNames []string

	PermittedDNS []string
	ExcludedDNS  []string

	AuthorityKeyID []byte
	SubjectKeyID   []byte

	ExtraExtensions []Extension

	// CorruptSignature inverts the first byte of the signature, for tests that
	// need a certificate whose signature fails to verify.
	CorruptSignature bool
}

// Build returns the certificate's DER encoding and the private key that
// signed it (generated on the fly if SignerKey was left nil, so callers
// building a chain can reuse it as the next certificate's SignerKey).
func (b *Builder) Build() ([]byte, *rsa.PrivateKey, error) {
	signer := b.SignerKey
	if signer == nil {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, nil, fmt.Errorf("testcert: generate signer key: %w", err)
		}
		signer = key
	}
	subjectKey := b.SubjectKey
	if subjectKey == nil {
		subjectKey = &signer.PublicKey
	}

	spki, err := x509.MarshalPKIXPublicKey(subjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("testcert: marshal SubjectPublicKeyInfo: %w", err)
	}

	tbs, err := b.buildTBS(spki)
	if err != nil {
		return nil, nil, err
	}

	sigAlg := rsaSHA256AlgorithmIdentifier()

	digest := sha256.Sum256(tbs)
	sig, err := rsa.SignPKCS1v15(rand.Reader, signer, crypto.SHA256, digest[:])
	if err != nil {
		return nil, nil, fmt.Errorf("testcert: sign tbsCertificate: %w", err)
	}
	if b.CorruptSignature {
		sig[0] ^= 0xFF
	}

	cert := sequence(tbs, sigAlg, bitString(sig))
	return cert, signer, nil
}

func (b *Builder) buildTBS(spki []byte) ([]byte, error) {
	var fields [][]byte

	if b.Version != 0 {
		fields = append(fields, explicit(0, smallInteger(int64(b.Version))))
	}

	fields = append(fields, integer(big.NewInt(b.SerialNumber)))
	fields = append(fields, rsaSHA256AlgorithmIdentifier())
	fields = append(fields, name(b.Issuer))
	fields = append(fields, sequence(timeValue(b.NotBefore), timeValue(b.NotAfter)))
	fields = append(fields, name(b.Subject))
	fields = append(fields, spki)

	if b.Version == 2 {
		exts := b.buildExtensions()
		if len(exts) > 0 {
			fields = append(fields, explicit(3, sequence(exts...)))
		}
	}

	return sequence(fields...), nil
}

func (b *Builder) buildExtensions() [][]byte {
	var exts [][]byte

	if b.HasBasicConstraints {
		var content []byte
		if b.IsCA {
			content = append(content, boolean(true)...)
		}
		if b.HasPathLen {
			content = append(content, smallInteger(int64(b.PathLenConstraint))...)
		}
		exts = append(exts, extension(oidBasicConstraints, b.BasicConstraintsCritical, sequence(content)))
	}

	if b.KeyUsage != 0 {
		exts = append(exts, extension(oidKeyUsage, b.KeyUsageCritical, keyUsageBitString(b.KeyUsage)))
	}

	if len(b.ExtKeyUsageOIDs) > 0 {
		var content []byte
		for _, o := range b.ExtKeyUsageOIDs {
			content = append(content, oid(o)...)
		}
		exts = append(exts, extension(oidExtKeyUsage, false, sequence(content)))
	}

	if len(b.DNSNames) > 0 {
		var content []byte
		for _, dns := range b.DNSNames {
			content = append(content, tagged(0x82, []byte(dns))...)
		}
		exts = append(exts, extension(oidSubjectAltName, false, sequence(content)))
	}

	if len(b.PermittedDNS) > 0 || len(b.ExcludedDNS) > 0 {
		var content []byte
		if len(b.PermittedDNS) > 0 {
			content = append(content, tagged(0xA0, generalSubtrees(b.PermittedDNS))...)
		}
		if len(b.ExcludedDNS) > 0 {
			content = append(content, tagged(0xA1, generalSubtrees(b.ExcludedDNS))...)
		}
		exts = append(exts, extension(oidNameConstraints, false, sequence(content)))
	}

	if len(b.AuthorityKeyID) > 0 {
		exts = append(exts, extension(oidAuthorityKeyIdentifier, false, sequence(tagged(0x80, b.AuthorityKeyID))))
	}

	if len(b.SubjectKeyID) > 0 {
		exts = append(exts, extension(oidSubjectKeyIdentifier, false, octetString(b.SubjectKeyID)))
	}

	for _, e := range b.ExtraExtensions {
		exts = append(exts, extension(e.OID, e.Critical, e.Value))
	}

	return exts
}

func generalSubtrees(dnsNames []string) []byte {
	var out []byte
	for _, dns := range dnsNames {
		out = append(out, sequence(tagged(0x82, []byte(dns)))...)
	}
	return out
}

// --- low-level DER construction shared with no other package; the
// hand-rolled TLV style mirrors pkg/ber's own test helpers rather than
// pulling in an ASN.1 marshaling library none of this module's code uses.

func derLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte(n & 0xff)}, b...)
		n >>= 8
	}
	return append([]byte{0x80 | byte(len(b))}, b...)
}

func tlv(tagByte byte, content []byte) []byte {
	out := []byte{tagByte}
	out = append(out, derLength(len(content))...)
	return append(out, content...)
}

// tagged builds a context-specific [n] element whose tag byte is
// passed in directly (e.g. 0x82 for [2] primitive, 0xA0 for [0]
// constructed), matching how callers already spell out GeneralName and
// explicit-tag bytes elsewhere in this module's tests.
func tagged(tagByte byte, content []byte) []byte { return tlv(tagByte, content) }

func sequence(parts ...[]byte) []byte {
	var content []byte
	for _, p := range parts {
		content = append(content, p...)
	}
	return tlv(0x30, content)
}

func explicit(number int, inner []byte) []byte {
	return tlv(byte(0xA0+number), inner)
}

func boolean(v bool) []byte {
	b := byte(0x00)
	if v {
		b = 0xFF
	}
	return tlv(0x01, []byte{b})
}

func integerBytes(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0x00}
	}
	b := n.Bytes()
	if b[0]&0x80 != 0 {
		b = append([]byte{0x00}, b...)
	}
	return b
}

func integer(n *big.Int) []byte  { return tlv(0x02, integerBytes(n)) }
func smallInteger(n int64) []byte { return integer(big.NewInt(n)) }

func oid(bytes []byte) []byte { return tlv(0x06, bytes) }

func null() []byte { return tlv(0x05, nil) }

func octetString(content []byte) []byte { return tlv(0x04, content) }

func bitString(content []byte) []byte {
	return tlv(0x03, append([]byte{0x00}, content...))
}

func keyUsageBitString(mask int) []byte {
	highest := 0
	for i := 0; i < 9; i++ {
		if mask&(1<<uint(i)) != 0 {
			highest = i
		}
	}
	numBytes := highest/8 + 1
	bits := make([]byte, numBytes)
	for i := 0; i <= highest; i++ {
		if mask&(1<<uint(i)) != 0 {
			bits[i/8] |= 1 << uint(7-i%8)
		}
	}
	unused := byte(numBytes*8 - (highest + 1))
	return tlv(0x03, append([]byte{unused}, bits...))
}

// extension builds an Extension ::= SEQUENCE { extnID, critical DEFAULT
// FALSE, extnValue OCTET STRING }, omitting the critical BOOLEAN when
// false per DER's default-omission rule.
func extension(oidBytes []byte, critical bool, value []byte) []byte {
	parts := [][]byte{oid(oidBytes)}
	if critical {
		parts = append(parts, boolean(true))
	}
	parts = append(parts, octetString(value))
	return sequence(parts...)
}

// name builds a Name (rdnSequence) containing a single commonName RDN, the
// same shape pkg/names' own tests build by hand.
func name(commonName string) []byte {
	const oidCommonName = "\x55\x04\x03"
	ava := sequence(oid([]byte(oidCommonName)), tlv(0x13, []byte(commonName)))
	rdn := tlv(0x31, ava)
	return sequence(rdn)
}

// timeValue encodes t as UTCTime for years representable in that form
// (1950-2049, the RFC 5280 §4.1.2.5 rule), GeneralizedTime otherwise.
func timeValue(t time.Time) []byte {
	u := t.UTC()
	if u.Year() >= 1950 && u.Year() <= 2049 {
		yy := u.Year() % 100
		s := fmt.Sprintf("%02d%02d%02d%02d%02d%02dZ", yy, int(u.Month()), u.Day(), u.Hour(), u.Minute(), u.Second())
		return tlv(0x17, []byte(s))
	}
	s := fmt.Sprintf("%04d%02d%02d%02d%02d%02dZ", u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute(), u.Second())
	return tlv(0x18, []byte(s))
}

// rsaSHA256AlgorithmIdentifier builds the AlgorithmIdentifier SEQUENCE for
// sha256WithRSAEncryption (1.2.840.113549.1.1.11), the one algorithm this
// builder signs with; RefDelegate's parseAlgorithmOID reads it back with
// encoding/asn1, so its shape (OID plus explicit NULL parameters) matches
// what real RSA certificates carry.
func rsaSHA256AlgorithmIdentifier() []byte {
	oidSHA256WithRSA := []byte{0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x01, 0x0B}
	return sequence(oid(oidSHA256WithRSA), null())
}

// Extension OIDs this builder knows how to encode. These mirror
// pkg/certparse's unexported oids.go table; duplicated here (rather than
// imported, since that package does not export them) to keep this helper
// decoupled from certparse's internals.
var (
	oidBasicConstraints       = []byte{0x55, 0x1D, 0x13}
	oidKeyUsage               = []byte{0x55, 0x1D, 0x0F}
	oidExtKeyUsage            = []byte{0x55, 0x1D, 0x25}
	oidSubjectAltName         = []byte{0x55, 0x1D, 0x11}
	oidNameConstraints        = []byte{0x55, 0x1D, 0x1E}
	oidAuthorityKeyIdentifier = []byte{0x55, 0x1D, 0x23}
	oidSubjectKeyIdentifier   = []byte{0x55, 0x1D, 0x0E}
)
