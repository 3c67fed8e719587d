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

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/gonvenience/bunt"
	"github.com/gonvenience/term"
	"github.com/gonvenience/text"
	"github.com/gonvenience/ytbx"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/orbitpki/x509path/internal/pemload"
	"github.com/orbitpki/x509path/pkg/ber"
	"github.com/orbitpki/x509path/pkg/certparse"
	"github.com/orbitpki/x509path/pkg/chainverify"
	"github.com/orbitpki/x509path/pkg/errset"
	"github.com/orbitpki/x509path/pkg/refdelegate"
)

var batchManifestFile string
var batchConcurrency int

// batchChainSpec is one entry of a batch-verify manifest: a named
// certificate chain (leaf-first) and the trust policy to validate it
// under.
type batchChainSpec struct {
	Name   string      `yaml:"name"`
	Certs  []string    `yaml:"certs"`
	Policy trustPolicy `yaml:"trustPolicy"`
}

type batchManifest struct {
	Chains []batchChainSpec `yaml:"chains"`
}

type batchResult struct {
	Name   string
	Failed bool
	Err    error
}

var batchVerifyCmd = &cobra.Command{
	Use:   "batch-verify",
	Short: "Verify every chain named in a YAML manifest concurrently",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if batchManifestFile == "" {
			exitWithError("batch-verify requires --manifest", nil)
		}

		input, err := ytbx.LoadFile(batchManifestFile)
		if err != nil {
			exitWithError("failed to load manifest", err)
		}
		if len(input.Documents) == 0 {
			exitWithError("manifest has no documents", nil)
		}

		raw, err := yaml.Marshal(input.Documents[0])
		if err != nil {
			exitWithError("failed to re-marshal manifest", err)
		}
		var manifest batchManifest
		if err := yaml.Unmarshal(raw, &manifest); err != nil {
			exitWithError("failed to parse manifest", err)
		}

		delegate := refdelegate.New()
		verificationTime := ber.FromStdTime(time.Now())

		if batchConcurrency < 1 {
			exitWithError("invalid --concurrency", fmt.Errorf("must be at least 1, got %d", batchConcurrency))
		}

		results := make([]batchResult, len(manifest.Chains))
		group := new(errgroup.Group)
		group.SetLimit(batchConcurrency)

		for i, spec := range manifest.Chains {
			i, spec := i, spec
			group.Go(func() error {
				results[i] = runBatchChain(spec, delegate, verificationTime)
				return nil
			})
		}
		_ = group.Wait()

		failures := renderBatchTable(results)

		fmt.Println(text.Plural(len(results), "chain"), "checked,", text.Plural(failures, "failure"))

		if failures > 0 {
			os.Exit(1)
		}
		os.Exit(0)
	},
}

// renderBatchTable prints one line per result, status glyph first, the
// chain name second, and any error detail truncated to whatever is left
// of the terminal width so long error strings do not wrap the table.
// Returns the number of failed chains.
func renderBatchTable(results []batchResult) int {
	width := term.GetTerminalWidth()
	const statusColumn = 7 // "FAIL   " / "ok     "

	nameColumn := 0
	for _, r := range results {
		if len(r.Name) > nameColumn {
			nameColumn = len(r.Name)
		}
	}
	if max := width - statusColumn - 3; nameColumn > max && max > 0 {
		nameColumn = max
	}

	failures := 0
	for _, r := range results {
		glyph, color := "ok", bunt.Green
		if r.Failed {
			failures++
			glyph, color = "FAIL", bunt.FireBrick
		}

		name := r.Name
		if len(name) > nameColumn {
			name = name[:nameColumn]
		}

		line := fmt.Sprintf("%-6s %-*s", glyph, nameColumn, name)
		if r.Err != nil {
			detail := fmt.Sprintf("  (%s)", r.Err)
			if room := width - len(line); room > 0 && len(detail) > room {
				detail = detail[:room-1] + "…"
			}
			line += detail
		}

		fmt.Println(bunt.Style(line, bunt.Foreground(color)))
	}
	return failures
}

func runBatchChain(spec batchChainSpec, delegate *refdelegate.RefDelegate, verificationTime ber.Time) batchResult {
	certs := make([]*certparse.ParsedCertificate, 0, len(spec.Certs))
	for _, location := range spec.Certs {
		pc, err := pemload.Certificate(location, certparse.Options{})
		if err != nil {
			return batchResult{Name: spec.Name, Failed: true, Err: err}
		}
		certs = append(certs, pc)
	}

	trust, err := spec.Policy.trustDecision()
	if err != nil {
		return batchResult{Name: spec.Name, Failed: true, Err: err}
	}
	purpose, err := keyPurposeFromString(spec.Policy.KeyPurpose)
	if err != nil {
		return batchResult{Name: spec.Name, Failed: true, Err: err}
	}
	initialPolicySet, err := spec.Policy.policySet()
	if err != nil {
		return batchResult{Name: spec.Name, Failed: true, Err: err}
	}

	_, pathErrors := chainverify.VerifyCertificateChain(
		certs,
		trust,
		delegate,
		verificationTime,
		purpose,
		spec.Policy.InitialExplicitPolicy,
		initialPolicySet,
		spec.Policy.InitialPolicyMappingInhibit,
		spec.Policy.InitialAnyPolicyInhibit,
	)

	return batchResult{Name: spec.Name, Failed: pathErrors.ContainsAnyErrorWithSeverity(errset.High)}
}

func init() {
	rootCmd.AddCommand(batchVerifyCmd)

	batchVerifyCmd.Flags().SortFlags = false
	batchVerifyCmd.Flags().StringVar(&batchManifestFile, "manifest", "", "path (or - or http(s):// URL) to a YAML chain manifest")
	batchVerifyCmd.Flags().IntVar(&batchConcurrency, "concurrency", 8, "maximum number of chains verified concurrently")
}
