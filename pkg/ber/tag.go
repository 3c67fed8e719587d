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

package ber

import "fmt"

// Class identifies the ASN.1 tag class.
type Class uint8

// The four tag classes defined by X.690.
const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

// Tag identifies a DER element by class, constructed bit, and number.
// Multi-byte (high tag number) forms are supported; Number holds the full
// unsigned tag number regardless of encoding width.
type Tag struct {
	Class       Class
	Constructed bool
	Number      uint32
}

// Universal tag numbers used throughout this module.
const (
	TagBoolean         = 1
	TagInteger         = 2
	TagBitString       = 3
	TagOctetString     = 4
	TagNull            = 5
	TagOID             = 6
	TagUTF8String      = 12
	TagSequence        = 16
	TagSet             = 17
	TagPrintableString = 19
	TagTeletexString   = 20
	TagIA5String       = 22
	TagUTCTime         = 23
	TagGeneralizedTime = 24
	TagUniversalString = 28
	TagBMPString       = 30
)

// Universal returns the universal-class tag with the given number. The
// constructed bit is set explicitly since callers need both primitive
// (e.g. INTEGER) and constructed (e.g. SEQUENCE) universal tags.
func Universal(number uint32, constructed bool) Tag {
	return Tag{Class: ClassUniversal, Constructed: constructed, Number: number}
}

// ContextSpecific returns the context-specific tag for an implicit or
// explicit [n] element.
func ContextSpecific(number uint32, constructed bool) Tag {
	return Tag{Class: ClassContextSpecific, Constructed: constructed, Number: number}
}

func (t Tag) String() string {
	ctor := "primitive"
	if t.Constructed {
		ctor = "constructed"
	}
	switch t.Class {
	case ClassContextSpecific:
		return fmt.Sprintf("[%d] (%s, context-specific)", t.Number, ctor)
	case ClassApplication:
		return fmt.Sprintf("[APPLICATION %d] (%s)", t.Number, ctor)
	case ClassPrivate:
		return fmt.Sprintf("[PRIVATE %d] (%s)", t.Number, ctor)
	default:
		return fmt.Sprintf("universal %d (%s)", t.Number, ctor)
	}
}

// Equal reports whether two tags denote the same class, number, and
// constructed bit.
func (t Tag) Equal(other Tag) bool {
	return t.Class == other.Class && t.Constructed == other.Constructed && t.Number == other.Number
}
