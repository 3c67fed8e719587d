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

import (
	"fmt"
	"time"
)

// Time holds a GeneralizedTime-shaped value: year/month/day/hour/minute/
// second, with no subsecond component. Both UTCTime and GeneralizedTime
// normalize into this representation. Ordering is lexicographic on fields.
type Time struct {
	Year, Month, Day      int
	Hour, Minute, Second int
}

// FromStdTime converts a standard library time.Time (in UTC) into a Time,
// for callers that need to verify against "now" rather than a parsed
// certificate field.
func FromStdTime(t time.Time) Time {
	u := t.UTC()
	return Time{
		Year:   u.Year(),
		Month:  int(u.Month()),
		Day:    u.Day(),
		Hour:   u.Hour(),
		Minute: u.Minute(),
		Second: u.Second(),
	}
}

// Compare returns -1, 0, or 1 following the usual field-by-field ordering.
func (t Time) Compare(other Time) int {
	for _, pair := range [][2]int{
		{t.Year, other.Year},
		{t.Month, other.Month},
		{t.Day, other.Day},
		{t.Hour, other.Hour},
		{t.Minute, other.Minute},
		{t.Second, other.Second},
	} {
		if pair[0] < pair[1] {
			return -1
		}
		if pair[0] > pair[1] {
			return 1
		}
	}
	return 0
}

// Before reports whether t sorts strictly before other.
func (t Time) Before(other Time) bool { return t.Compare(other) < 0 }

// After reports whether t sorts strictly after other.
func (t Time) After(other Time) bool { return t.Compare(other) > 0 }

func digits2(s string) (int, bool) {
	if len(s) != 2 {
		return 0, false
	}
	v := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	return v, true
}

// ParseUTCTime decodes a UTCTime (YYMMDDHHMMSSZ). Two-digit years 00-49 map
// to 20YY, 50-99 map to 19YY, per RFC 5280 §4.1.2.5.1.
func ParseUTCTime(s string) (Time, error) {
	if len(s) != 13 || s[12] != 'Z' {
		return Time{}, fmt.Errorf("ber: malformed UTCTime %q", s)
	}
	yy, ok1 := digits2(s[0:2])
	mo, ok2 := digits2(s[2:4])
	dd, ok3 := digits2(s[4:6])
	hh, ok4 := digits2(s[6:8])
	mi, ok5 := digits2(s[8:10])
	se, ok6 := digits2(s[10:12])
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return Time{}, fmt.Errorf("ber: malformed UTCTime %q", s)
	}
	year := yy + 1900
	if yy < 50 {
		year = yy + 2000
	}
	t := Time{Year: year, Month: mo, Day: dd, Hour: hh, Minute: mi, Second: se}
	if err := t.validate(); err != nil {
		return Time{}, err
	}
	return t, nil
}

// ParseGeneralizedTime decodes a GeneralizedTime in the restricted
// YYYYMMDDHHMMSSZ form used by certificates (no fractional seconds, no
// local-time offsets).
func ParseGeneralizedTime(s string) (Time, error) {
	if len(s) != 15 || s[14] != 'Z' {
		return Time{}, fmt.Errorf("ber: malformed GeneralizedTime %q", s)
	}
	yyyy, ok0 := digits4(s[0:4])
	mo, ok1 := digits2(s[4:6])
	dd, ok2 := digits2(s[6:8])
	hh, ok3 := digits2(s[8:10])
	mi, ok4 := digits2(s[10:12])
	se, ok5 := digits2(s[12:14])
	if !(ok0 && ok1 && ok2 && ok3 && ok4 && ok5) {
		return Time{}, fmt.Errorf("ber: malformed GeneralizedTime %q", s)
	}
	t := Time{Year: yyyy, Month: mo, Day: dd, Hour: hh, Minute: mi, Second: se}
	if err := t.validate(); err != nil {
		return Time{}, err
	}
	return t, nil
}

func digits4(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	hi, ok1 := digits2(s[0:2])
	lo, ok2 := digits2(s[2:4])
	if !ok1 || !ok2 {
		return 0, false
	}
	return hi*100 + lo, true
}

func (t Time) validate() error {
	if t.Month < 1 || t.Month > 12 {
		return fmt.Errorf("ber: time has out-of-range month %d", t.Month)
	}
	if t.Day < 1 || t.Day > 31 {
		return fmt.Errorf("ber: time has out-of-range day %d", t.Day)
	}
	if t.Hour > 23 || t.Minute > 59 || t.Second > 60 {
		return fmt.Errorf("ber: time has out-of-range time-of-day %02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return nil
}
