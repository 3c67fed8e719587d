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

// Package gennames parses the GeneralNames/GeneralName CHOICE type shared by
// SubjectAltName and NameConstraints. It sits below both pkg/names and
// pkg/certparse so that neither needs to import the other just to share this
// value type.
package gennames

import (
	"fmt"

	"github.com/orbitpki/x509path/pkg/ber"
)

// NameType identifies one of the nine GeneralName CHOICE alternatives, used
// both as an index and as a bitmask component.
type NameType uint16

// The GeneralName CHOICE alternatives, tagged [0]..[8].
const (
	OtherName NameType = 1 << iota
	RFC822Name
	DNSName
	X400Address
	DirectoryName
	EDIPartyName
	UniformResourceIdentifier
	IPAddress
	RegisteredID
)

const (
	tagOtherName      = 0
	tagRFC822Name     = 1
	tagDNSName        = 2
	tagX400Address    = 3
	tagDirectoryName  = 4
	tagEDIPartyName   = 5
	tagURI            = 6
	tagIPAddress      = 7
	tagRegisteredID   = 8
)

// GeneralNames holds every GeneralName entry from a SEQUENCE OF GeneralName,
// grouped by CHOICE alternative. Entries that carry raw TLV content
// (otherName, x400Address, ediPartyName) are kept as their full encoding;
// directoryName is kept as the inner RDNSequence value with the outer
// SEQUENCE tag stripped.
type GeneralNames struct {
	OtherName                 []ber.ByteRange
	RFC822Name                []string
	DNSName                   []string
	X400Address               []ber.ByteRange
	DirectoryName             []ber.ByteRange
	EDIPartyName              []ber.ByteRange
	UniformResourceIdentifier []string
	IPAddress                 []ber.ByteRange
	RegisteredID              []ber.ByteRange

	PresentNameTypes NameType
}

// IsEmpty reports whether no GeneralName entries of any type were parsed.
func (g *GeneralNames) IsEmpty() bool {
	return g.PresentNameTypes == 0
}

// MergeFrom folds the entries of other into g, such as when accumulating a
// NameConstraints GeneralSubtree list one base GeneralName at a time.
func (g *GeneralNames) MergeFrom(other *GeneralNames) {
	g.OtherName = append(g.OtherName, other.OtherName...)
	g.RFC822Name = append(g.RFC822Name, other.RFC822Name...)
	g.DNSName = append(g.DNSName, other.DNSName...)
	g.X400Address = append(g.X400Address, other.X400Address...)
	g.DirectoryName = append(g.DirectoryName, other.DirectoryName...)
	g.EDIPartyName = append(g.EDIPartyName, other.EDIPartyName...)
	g.UniformResourceIdentifier = append(g.UniformResourceIdentifier, other.UniformResourceIdentifier...)
	g.IPAddress = append(g.IPAddress, other.IPAddress...)
	g.RegisteredID = append(g.RegisteredID, other.RegisteredID...)
	g.PresentNameTypes |= other.PresentNameTypes
}

// Mode selects how an iPAddress entry is interpreted: as a plain SAN
// address, or as a name-constraint address+mask pair.
type Mode int

const (
	// ModeSubjectAltName expects 4 or 16 octet IP addresses.
	ModeSubjectAltName Mode = iota
	// ModeNameConstraint expects 8 or 32 octet address+mask pairs with a
	// contiguous 1-bits-then-0-bits mask.
	ModeNameConstraint
)

// Parse decodes a GeneralNames value. r must be positioned at the outer
// SEQUENCE (ModeSubjectAltName via a SubjectAltName extension, or the inner
// SEQUENCE of a GeneralSubtree's "base" is handled by callers directly since
// only a single GeneralName, not a GeneralNames, appears there).
func Parse(r *ber.Reader, mode Mode) (*GeneralNames, error) {
	inner, err := r.ReadSequence()
	if err != nil {
		return nil, fmt.Errorf("gennames: %w", err)
	}
	return ParseInner(inner, mode)
}

// ParseInner decodes a GeneralNames value whose outer SEQUENCE has already
// been consumed by the caller, leaving r positioned at the first
// GeneralName element (or exhausted).
func ParseInner(r *ber.Reader, mode Mode) (*GeneralNames, error) {
	gn := &GeneralNames{}
	count := 0
	for !r.Done() {
		if err := parseOneInto(r, mode, gn); err != nil {
			return nil, err
		}
		count++
	}
	if count == 0 {
		return nil, fmt.Errorf("gennames: GeneralNames sequence is empty")
	}
	return gn, nil
}

// ParseOne decodes exactly one GeneralName (not a SEQUENCE OF GeneralName)
// from r, such as the "base" field of a NameConstraints GeneralSubtree.
func ParseOne(r *ber.Reader, mode Mode) (*GeneralNames, error) {
	gn := &GeneralNames{}
	if err := parseOneInto(r, mode, gn); err != nil {
		return nil, err
	}
	return gn, nil
}

func parseOneInto(r *ber.Reader, mode Mode, gn *GeneralNames) error {
	tag, ok := r.PeekTag()
	if !ok {
		return fmt.Errorf("gennames: malformed GeneralName header")
	}
	if tag.Class != ber.ClassContextSpecific {
		return fmt.Errorf("gennames: unexpected tag %s in GeneralName", tag)
	}
	tlv, err := r.ReadTLV()
	if err != nil {
		return fmt.Errorf("gennames: %w", err)
	}

	switch tlv.Tag.Number {
	case tagOtherName:
		gn.OtherName = append(gn.OtherName, tlv.Raw())
		gn.PresentNameTypes |= OtherName

	case tagRFC822Name:
		s, err := asciiIA5(tlv.Value.Bytes())
		if err != nil {
			return fmt.Errorf("gennames: rfc822Name: %w", err)
		}
		gn.RFC822Name = append(gn.RFC822Name, s)
		gn.PresentNameTypes |= RFC822Name

	case tagDNSName:
		s, err := asciiIA5(tlv.Value.Bytes())
		if err != nil {
			return fmt.Errorf("gennames: dNSName: %w", err)
		}
		gn.DNSName = append(gn.DNSName, s)
		gn.PresentNameTypes |= DNSName

	case tagX400Address:
		gn.X400Address = append(gn.X400Address, tlv.Raw())
		gn.PresentNameTypes |= X400Address

	case tagDirectoryName:
		inner := ber.NewReader(tlv.Value)
		if _, err := inner.ReadSequence(); err != nil {
			return fmt.Errorf("gennames: directoryName: %w", err)
		}
		gn.DirectoryName = append(gn.DirectoryName, innerOf(tlv.Value))
		gn.PresentNameTypes |= DirectoryName

	case tagEDIPartyName:
		gn.EDIPartyName = append(gn.EDIPartyName, tlv.Raw())
		gn.PresentNameTypes |= EDIPartyName

	case tagURI:
		s, err := asciiIA5(tlv.Value.Bytes())
		if err != nil {
			return fmt.Errorf("gennames: uniformResourceIdentifier: %w", err)
		}
		gn.UniformResourceIdentifier = append(gn.UniformResourceIdentifier, s)
		gn.PresentNameTypes |= UniformResourceIdentifier

	case tagIPAddress:
		b := tlv.Value.Bytes()
		if err := validateIPAddressBytes(b, mode); err != nil {
			return err
		}
		gn.IPAddress = append(gn.IPAddress, tlv.Value)
		gn.PresentNameTypes |= IPAddress

	case tagRegisteredID:
		if tlv.Value.IsEmpty() {
			return fmt.Errorf("gennames: registeredID has empty content")
		}
		gn.RegisteredID = append(gn.RegisteredID, tlv.Value)
		gn.PresentNameTypes |= RegisteredID

	default:
		return fmt.Errorf("gennames: unrecognized GeneralName tag %s", tlv.Tag)
	}
	return nil
}

// innerOf strips the outer SEQUENCE header from a directoryName's Name
// value, per §4.F: "strip outer SEQUENCE tag; keep inner RDN-sequence
// value". The content of a directoryName GeneralName IS the Name CHOICE,
// which for rdnSequence is itself a SEQUENCE OF RelativeDistinguishedName;
// here we re-read it to get at the inner bytes without the header.
func innerOf(outer ber.ByteRange) ber.ByteRange {
	r := ber.NewReader(outer)
	tlv, err := r.ReadTLV()
	if err != nil {
		// Already validated by the caller's ReadSequence call above; this
		// path is unreachable in practice.
		return outer
	}
	return tlv.Value
}

func asciiIA5(b []byte) (string, error) {
	for _, c := range b {
		if c >= 0x80 {
			return "", fmt.Errorf("contains non-ASCII byte 0x%02x", c)
		}
	}
	return string(b), nil
}

func validateIPAddressBytes(b []byte, mode Mode) error {
	switch mode {
	case ModeSubjectAltName:
		if len(b) != 4 && len(b) != 16 {
			return fmt.Errorf("gennames: SAN iPAddress must be 4 or 16 octets, got %d", len(b))
		}
		return nil
	case ModeNameConstraint:
		if len(b) != 8 && len(b) != 32 {
			return fmt.Errorf("gennames: name-constraint iPAddress must be 8 or 32 octets, got %d", len(b))
		}
		mask := b[len(b)/2:]
		if !isContiguousMask(mask) {
			return fmt.Errorf("gennames: name-constraint IP mask is not contiguous 1-bits then 0-bits")
		}
		return nil
	default:
		return fmt.Errorf("gennames: unknown iPAddress parse mode")
	}
}

func isContiguousMask(mask []byte) bool {
	seenZero := false
	for _, byt := range mask {
		for bit := 7; bit >= 0; bit-- {
			set := byt&(1<<uint(bit)) != 0
			if set && seenZero {
				return false
			}
			if !set {
				seenZero = true
			}
		}
	}
	return true
}
