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

// Package names implements X.500-flavored distinguished-name normalization
// and matching (NameMatching), and the RFC 5280 §6.1.3(b,c) name-constraints
// engine (NameConstraintsEngine) built on top of it.
package names

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/orbitpki/x509path/pkg/ber"
)

const (
	tagPrintableString = 19
	tagTeletexString   = 20
	tagUTF8String      = 12
	tagIA5String       = 22
	tagUniversalString = 28
	tagBMPString       = 30
)

// printableStringAlphabet is the restricted character set DER permits in a
// PrintableString: letters, digits, space, and the punctuation below.
const printableStringAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 '()+,-./:=?"

// AVA is one normalized attribute-type-and-value pair within an RDN.
type AVA struct {
	// OID is the raw DER-encoded attribute type.
	OID []byte
	// Canonical is the case-folded, whitespace-compressed UTF-8 value used
	// for comparison.
	Canonical string
	// Raw is the value as decoded, before case-folding, used when callers
	// need the literal string (e.g. extracting email addresses).
	Raw string
}

// RDN is one RelativeDistinguishedName: one or more AVAs (a SET, so order
// is whatever the DER encoding presented it in; DER's canonical SET
// ordering means two semantically-equal RDNs already encode their AVAs in
// the same order).
type RDN []AVA

// Name is a parsed, normalized X.501 Name (rdnSequence form).
type Name struct {
	RDNs []RDN
}

// ParseName decodes an rdnSequence (SEQUENCE OF RelativeDistinguishedName)
// from the given byte range and normalizes every string attribute value
// per the rules in NameMatching: case-folding, internal-whitespace
// compression, and a restricted PrintableString alphabet.
func ParseName(raw ber.ByteRange) (*Name, error) {
	r := ber.NewReader(raw)
	name := &Name{}
	for !r.Done() {
		rdnTLV, err := r.ReadTLVExpect(ber.Universal(ber.TagSet, true))
		if err != nil {
			return nil, fmt.Errorf("names: %w", err)
		}
		rdnReader := ber.NewReader(rdnTLV.Value)
		var rdn RDN
		for !rdnReader.Done() {
			avaSeq, err := rdnReader.ReadSequence()
			if err != nil {
				return nil, fmt.Errorf("names: attribute-type-and-value: %w", err)
			}
			oid, err := avaSeq.ReadObjectIdentifier()
			if err != nil {
				return nil, fmt.Errorf("names: attribute type: %w", err)
			}
			valueTLV, err := avaSeq.ReadTLV()
			if err != nil {
				return nil, fmt.Errorf("names: attribute value: %w", err)
			}
			raw, canonical, err := decodeDirectoryString(valueTLV.Tag.Number, valueTLV.Value.Bytes())
			if err != nil {
				return nil, fmt.Errorf("names: attribute value: %w", err)
			}
			rdn = append(rdn, AVA{OID: oid.Bytes(), Canonical: canonical, Raw: raw})
		}
		if len(rdn) == 0 {
			return nil, fmt.Errorf("names: relative distinguished name has no attributes")
		}
		name.RDNs = append(name.RDNs, rdn)
	}
	return name, nil
}

// decodeDirectoryString converts a DirectoryString-family value (any of
// PrintableString/UTF8String/BMPString/UniversalString/TeletexString/
// IA5String) to UTF-8, returning both the raw decoded string and its
// canonicalized (case-folded, whitespace-compressed) form.
func decodeDirectoryString(tagNumber uint32, content []byte) (raw, canonical string, err error) {
	switch tagNumber {
	case tagPrintableString:
		for _, c := range content {
			if !strings.ContainsRune(printableStringAlphabet, rune(c)) {
				return "", "", fmt.Errorf("character %q not in PrintableString alphabet", c)
			}
		}
		raw = string(content)

	case tagUTF8String:
		raw = string(content)

	case tagIA5String:
		for _, c := range content {
			if c >= 0x80 {
				return "", "", fmt.Errorf("non-ASCII byte 0x%02x in IA5String", c)
			}
		}
		raw = string(content)

	case tagBMPString:
		raw, err = decodeBMPString(content)
		if err != nil {
			return "", "", err
		}

	case tagUniversalString:
		raw, err = decodeUniversalString(content)
		if err != nil {
			return "", "", err
		}

	case tagTeletexString:
		// TeletexString is nominally T.61; in practice certificates that
		// use it almost always stay within the Latin-1 repertoire, so we
		// treat the octets as Latin-1 code points.
		var b strings.Builder
		for _, c := range content {
			b.WriteRune(rune(c))
		}
		raw = b.String()

	default:
		return "", "", fmt.Errorf("unsupported directory string tag %d", tagNumber)
	}

	return raw, canonicalize(raw), nil
}

func decodeBMPString(content []byte) (string, error) {
	if len(content)%2 != 0 {
		return "", fmt.Errorf("BMPString has odd byte length %d", len(content))
	}
	var b strings.Builder
	for i := 0; i < len(content); i += 2 {
		b.WriteRune(rune(content[i])<<8 | rune(content[i+1]))
	}
	return b.String(), nil
}

func decodeUniversalString(content []byte) (string, error) {
	if len(content)%4 != 0 {
		return "", fmt.Errorf("UniversalString has byte length %d not a multiple of 4", len(content))
	}
	var b strings.Builder
	for i := 0; i < len(content); i += 4 {
		r := rune(content[i])<<24 | rune(content[i+1])<<16 | rune(content[i+2])<<8 | rune(content[i+3])
		b.WriteRune(r)
	}
	return b.String(), nil
}

// canonicalize applies simple Unicode case-folding and compresses internal
// whitespace runs to a single space, trimming leading and trailing
// whitespace.
func canonicalize(s string) string {
	folded := strings.Map(unicode.ToLower, s)
	fields := strings.Fields(folded)
	return strings.Join(fields, " ")
}

// Equal reports whether two normalized Names are byte-for-byte equal RDN
// sequences.
func (n *Name) Equal(other *Name) bool {
	if len(n.RDNs) != len(other.RDNs) {
		return false
	}
	for i := range n.RDNs {
		if !rdnEqual(n.RDNs[i], other.RDNs[i]) {
			return false
		}
	}
	return true
}

func rdnEqual(a, b RDN) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !oidEqual(a[i].OID, b[i].OID) || a[i].Canonical != b[i].Canonical {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the name has no RDNs (the empty subject used by,
// e.g., some CA certificates whose identity lives entirely in SANs).
func (n *Name) IsEmpty() bool { return len(n.RDNs) == 0 }

// VerifyNameInSubtree reports whether name's first k RDNs equal subtree's
// RDNs and name has at least k RDNs, i.e. whether name falls within the
// directoryName subtree rooted at subtree.
func VerifyNameInSubtree(name, subtree *Name) bool {
	if len(name.RDNs) < len(subtree.RDNs) {
		return false
	}
	for i := range subtree.RDNs {
		if !rdnEqual(name.RDNs[i], subtree.RDNs[i]) {
			return false
		}
	}
	return true
}

// FindEmailAddressesInName walks the RDN sequence searching for attributes
// with OID emailAddress (1.2.840.113549.1.9.1) and returns their raw
// (non-canonicalized) values in encounter order.
func FindEmailAddressesInName(name *Name) []string {
	var out []string
	for _, rdn := range name.RDNs {
		for _, ava := range rdn {
			if oidEqual(ava.OID, oidEmailAddress) {
				out = append(out, ava.Raw)
			}
		}
	}
	return out
}

// Bytes returns a canonical serialization of the normalized name, suitable
// for use as a map key or for byte-wise storage; it is not a DER
// re-encoding.
func (n *Name) Bytes() []byte {
	var buf bytes.Buffer
	for _, rdn := range n.RDNs {
		for _, ava := range rdn {
			buf.Write(ava.OID)
			buf.WriteByte(0)
			buf.WriteString(ava.Canonical)
			buf.WriteByte(0)
		}
		buf.WriteByte(0xFF)
	}
	return buf.Bytes()
}
