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

// Package cmd implements the x509path command line: inspect, verify, diff,
// and batch-verify, wired through cobra for command dispatch and viper for
// layered configuration.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/gonvenience/bunt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// colormode is used by the CLI parser to store the user's color preference
// for further processing into bunt.ColorSetting.
var colormode string

// truecolormode mirrors colormode for bunt.TrueColorSetting.
var truecolormode string

// debugMode holds the --debug flag. Nothing reads it, so the flag has no
// effect; this module produces no debug logging.
var debugMode bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "x509path",
	Short: "Parse and verify X.509 certification paths",
	Long: `
x509path parses X.509 v3 certificates and validates certification paths
against RFC 5280, applying RFC 5937-style trust anchor constraints and
CA/Browser Forum baseline requirements.
`,
}

// Execute runs rootCmd. The child commands and their flags are registered
// by each command file's own init(), not here. This is called by
// main.main(); it only needs to happen once to rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError("unable to execute command", err)
	}
}

func init() {
	cobra.OnInitialize(initSettings)

	rootCmd.Flags().SortFlags = false
	rootCmd.PersistentFlags().SortFlags = false

	rootCmd.PersistentFlags().StringVarP(&colormode, "color", "c", "auto", "specify color usage: on, off, or auto")
	rootCmd.PersistentFlags().StringVarP(&truecolormode, "truecolor", "t", "auto", "specify true color usage: on, off, or auto")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "accepted but has no effect (no debug logging exists)")

	viper.SetEnvPrefix("x509path")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

func initSettings() {
	var err error

	bunt.ColorSetting, err = bunt.ParseSetting(colormode)
	if err != nil {
		exitWithError("invalid color setting", err)
	}

	bunt.TrueColorSetting, err = bunt.ParseSetting(truecolormode)
	if err != nil {
		exitWithError("invalid true color setting", err)
	}
}

// exitWithError prints text and the error, colorized red when color is on,
// and terminates the process with a non-zero status.
func exitWithError(text string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", text, bunt.Style(err.Error(), bunt.Foreground(bunt.FireBrick)))
	} else {
		fmt.Fprintln(os.Stderr, text)
	}
	os.Exit(1)
}
