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

package ber_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/orbitpki/x509path/pkg/ber"
)

var _ = Describe("Time", func() {
	Describe("ParseUTCTime", func() {
		It("maps two-digit years 00-49 to 20YY", func() {
			tm, err := ParseUTCTime("250102030405Z")
			Expect(err).NotTo(HaveOccurred())
			Expect(tm.Year).To(Equal(2025))
		})

		It("maps two-digit years 50-99 to 19YY", func() {
			tm, err := ParseUTCTime("990102030405Z")
			Expect(err).NotTo(HaveOccurred())
			Expect(tm.Year).To(Equal(1999))
		})

		It("rejects a missing trailing Z", func() {
			_, err := ParseUTCTime("250102030405")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ParseGeneralizedTime", func() {
		It("parses a four-digit year", func() {
			tm, err := ParseGeneralizedTime("20310102030405Z")
			Expect(err).NotTo(HaveOccurred())
			Expect(tm.Year).To(Equal(2031))
		})

		It("rejects an out-of-range month", func() {
			_, err := ParseGeneralizedTime("20311302030405Z")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ordering", func() {
		It("compares chronologically across fields", func() {
			earlier, _ := ParseGeneralizedTime("20240101000000Z")
			later, _ := ParseGeneralizedTime("20250101000000Z")
			Expect(earlier.Before(later)).To(BeTrue())
			Expect(later.After(earlier)).To(BeTrue())
			Expect(earlier.Compare(earlier)).To(Equal(0))
		})
	})

	Describe("FromStdTime", func() {
		It("normalizes to UTC fields", func() {
			t := time.Date(2026, time.July, 30, 12, 0, 0, 0, time.FixedZone("X", 3600))
			tm := FromStdTime(t)
			Expect(tm.Year).To(Equal(2026))
			Expect(tm.Hour).To(Equal(11))
		})
	})
})
