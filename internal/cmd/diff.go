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

	"github.com/spf13/cobra"

	"github.com/orbitpki/x509path/internal/pemload"
	"github.com/orbitpki/x509path/pkg/certparse"
	"github.com/orbitpki/x509path/pkg/report"
)

var diffCmd = &cobra.Command{
	Use:   "diff <a.pem> <b.pem>",
	Short: "Compare two certificates field by field",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := pemload.Certificate(args[0], certparse.Options{})
		if err != nil {
			exitWithError(fmt.Sprintf("failed to parse %s", args[0]), err)
		}
		b, err := pemload.Certificate(args[1], certparse.Options{})
		if err != nil {
			exitWithError(fmt.Sprintf("failed to parse %s", args[1]), err)
		}

		output, err := report.DiffCertificates(a, b)
		if err != nil {
			exitWithError("failed to diff certificates", err)
		}
		fmt.Println(output)
		os.Exit(0)
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
