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

var inspectStyle string
var inspectAllowInvalidSerial bool

var inspectCmd = &cobra.Command{
	Use:     "inspect <cert.pem>",
	Short:   "Parse one certificate and print its fields",
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"show"},
	Run: func(cmd *cobra.Command, args []string) {
		pc, err := pemload.Certificate(args[0], certparse.Options{
			AllowInvalidSerialNumbers: inspectAllowInvalidSerial,
		})
		if err != nil {
			exitWithError("failed to parse certificate", err)
		}

		switch inspectStyle {
		case "json":
			output, err := report.JSON(pc)
			if err != nil {
				exitWithError("failed to render certificate", err)
			}
			fmt.Println(output)

		case "yaml":
			fallthrough
		default:
			output, err := report.YAML(pc)
			if err != nil {
				exitWithError("failed to render certificate", err)
			}
			fmt.Println(output)
		}

		os.Exit(0)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().SortFlags = false
	inspectCmd.Flags().StringVarP(&inspectStyle, "output", "o", "yaml", "output style: yaml or json")
	inspectCmd.Flags().BoolVar(&inspectAllowInvalidSerial, "allow-invalid-serial", false, "downgrade serial number problems to warnings")
}
