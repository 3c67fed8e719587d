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

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gonvenience/bunt"
	"github.com/gonvenience/neat"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/orbitpki/x509path/pkg/certparse"
	"github.com/orbitpki/x509path/pkg/errset"
)

// Severity mirrors errset.Severity for rendering purposes: High colors
// red, Warning colors yellow.
type Severity = errset.Severity

// HumanOptions controls Human's output.
type HumanOptions struct {
	// ShowBanner prepends the report with a short summary line.
	ShowBanner bool
}

// Human renders pathErrors as one line per accumulated diagnostic,
// grouped by chain index, colored red for High severity and yellow for
// Warning, in the banner-then-per-item structure the rest of this
// module's rendering carries forward.
func Human(pathErrors *errset.PathErrors, opts HumanOptions) string {
	var out bytes.Buffer

	indices := pathErrors.Indices()
	sort.Ints(indices)

	total := 0
	for _, idx := range indices {
		total += len(pathErrors.ForCert(idx).Entries())
	}
	total += len(pathErrors.GetOtherErrors().Entries())

	if opts.ShowBanner {
		out.WriteString(bunt.Style(fmt.Sprintf("found %s\n\n", plural(total, "diagnostic")), bunt.EachLine(), bunt.Bold()))
	}

	for _, idx := range indices {
		writeCertSection(&out, fmt.Sprintf("certificate[%d]", idx), pathErrors.ForCert(idx))
	}
	if other := pathErrors.GetOtherErrors(); !other.Empty() {
		writeCertSection(&out, "chain", other)
	}

	return out.String()
}

func writeCertSection(out *bytes.Buffer, label string, set *errset.Set) {
	if set.Empty() {
		return
	}
	out.WriteString(bunt.Style(label, bunt.EachLine(), bunt.Bold()))
	out.WriteString("\n")
	for _, entry := range set.Entries() {
		glyph, color := "!", bunt.FireBrick
		if entry.Severity == errset.Warning {
			glyph, color = "~", bunt.Gold
		}
		line := fmt.Sprintf("  %s %s", glyph, entry.ID.Name())
		if len(entry.Params) > 0 {
			keys := make([]string, 0, len(entry.Params))
			for k := range entry.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				line += fmt.Sprintf(" (%s=%s)", k, entry.Params[k])
			}
		}
		out.WriteString(bunt.Style(line, bunt.EachLine(), bunt.Foreground(color)))
		out.WriteString("\n")
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// YAML renders a certificate's summary as colorized YAML via neat, the
// same output processor the rest of this module uses for structured dumps.
func YAML(pc *certparse.ParsedCertificate) (string, error) {
	return neat.NewOutputProcessor(true, true, nil).ToYAML(NewCertificateSummary(pc))
}

// JSON renders a certificate's summary as indented JSON. Unlike YAML
// rendering, this has no ecosystem precedent in this module's ancestry to
// follow, so it is built directly on encoding/json.
func JSON(pc *certparse.ParsedCertificate) (string, error) {
	data, err := json.MarshalIndent(NewCertificateSummary(pc), "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: JSON: %w", err)
	}
	return string(data), nil
}

// DiffCertificates renders both certificates as neat YAML text and diffs
// them line by line with diffmatchpatch, the engine the teacher's YAML
// multi-line value diffs use.
func DiffCertificates(a, b *certparse.ParsedCertificate) (string, error) {
	aYAML, err := neat.NewOutputProcessor(false, false, nil).ToYAML(NewCertificateSummary(a))
	if err != nil {
		return "", fmt.Errorf("report: DiffCertificates: %w", err)
	}
	bYAML, err := neat.NewOutputProcessor(false, false, nil).ToYAML(NewCertificateSummary(b))
	if err != nil {
		return "", fmt.Errorf("report: DiffCertificates: %w", err)
	}

	dmp := diffmatchpatch.New()
	lineText1, lineText2, lineArray := dmp.DiffLinesToChars(aYAML, bYAML)
	diffs := dmp.DiffMain(lineText1, lineText2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	return dmp.DiffPrettyText(diffs), nil
}

// SuggestPermittedDNSName finds the permitted-subtree label with the
// smallest Levenshtein distance to rejected, for a "did you mean" hint in
// the human report. Purely diagnostic: it never changes acceptance.
func SuggestPermittedDNSName(rejected string, permitted []string) string {
	if len(permitted) == 0 {
		return ""
	}
	best := permitted[0]
	bestDistance := levenshtein.DistanceForStrings([]rune(rejected), []rune(best), levenshtein.DefaultOptions)
	for _, candidate := range permitted[1:] {
		d := levenshtein.DistanceForStrings([]rune(rejected), []rune(candidate), levenshtein.DefaultOptions)
		if d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	return best
}
