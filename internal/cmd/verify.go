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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orbitpki/x509path/internal/pemload"
	"github.com/orbitpki/x509path/pkg/ber"
	"github.com/orbitpki/x509path/pkg/certparse"
	"github.com/orbitpki/x509path/pkg/chainverify"
	"github.com/orbitpki/x509path/pkg/errset"
	"github.com/orbitpki/x509path/pkg/refdelegate"
	"github.com/orbitpki/x509path/pkg/report"
)

var verifyTrustPolicyFile string
var verifyKeyPurpose string
var verifyShowBanner bool

var verifyCmd = &cobra.Command{
	Use:   "verify <leaf.pem> [intermediate.pem...] <anchor.pem>",
	Short: "Validate a certification path from leaf to trust anchor",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		certs := make([]*certparse.ParsedCertificate, 0, len(args))
		for _, location := range args {
			pc, err := pemload.Certificate(location, certparse.Options{})
			if err != nil {
				exitWithError(fmt.Sprintf("failed to parse %s", location), err)
			}
			certs = append(certs, pc)
		}

		policy, err := loadTrustPolicy(verifyTrustPolicyFile)
		if err != nil {
			exitWithError("failed to load trust policy", err)
		}
		if verifyKeyPurpose != "" {
			policy.KeyPurpose = verifyKeyPurpose
		}

		trust, err := policy.trustDecision()
		if err != nil {
			exitWithError("invalid trust policy", err)
		}
		purpose, err := keyPurposeFromString(policy.KeyPurpose)
		if err != nil {
			exitWithError("invalid trust policy", err)
		}
		initialPolicySet, err := policy.policySet()
		if err != nil {
			exitWithError("invalid trust policy", err)
		}

		delegate := refdelegate.New()
		_, pathErrors := chainverify.VerifyCertificateChain(
			certs,
			trust,
			delegate,
			ber.FromStdTime(time.Now()),
			purpose,
			policy.InitialExplicitPolicy,
			initialPolicySet,
			policy.InitialPolicyMappingInhibit,
			policy.InitialAnyPolicyInhibit,
		)

		fmt.Print(report.Human(pathErrors, report.HumanOptions{ShowBanner: verifyShowBanner}))

		if pathErrors.ContainsAnyErrorWithSeverity(errset.High) {
			os.Exit(1)
		}
		os.Exit(0)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().SortFlags = false
	verifyCmd.Flags().StringVar(&verifyTrustPolicyFile, "trust-policy", "", "path (or - or http(s):// URL) to a YAML trust policy file")
	verifyCmd.Flags().StringVar(&verifyKeyPurpose, "key-purpose", "", "required key purpose: any, serverAuth, serverAuthStrict, serverAuthStrictLeaf, clientAuth, clientAuthStrict, clientAuthStrictLeaf, rcsMlsClientAuth")
	verifyCmd.Flags().BoolVar(&verifyShowBanner, "banner", true, "print a summary banner before the diagnostics")

	_ = viper.BindPFlag("keyPurpose", verifyCmd.Flags().Lookup("key-purpose"))
}
