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

// Package pemload reads certificate files from local paths, stdin ("-"),
// or http(s) URLs the way the CLI's input handling needs to, and turns
// each PEM block (or bare DER file) into a certparse.ParsedCertificate.
package pemload

import (
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/orbitpki/x509path/pkg/certparse"
	"github.com/orbitpki/x509path/pkg/errset"
)

// readLocation returns the raw bytes behind a local path, "-" for stdin, or
// an http(s):// URL, mirroring the input-location handling the rest of
// this module's ancestry applies to YAML/JSON input files.
func readLocation(location string) ([]byte, error) {
	switch {
	case location == "-":
		return io.ReadAll(os.Stdin)

	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Get(location)
		if err != nil {
			return nil, fmt.Errorf("pemload: fetching %s: %w", location, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("pemload: fetching %s: unexpected status %s", location, resp.Status)
		}
		return io.ReadAll(resp.Body)

	default:
		return os.ReadFile(location)
	}
}

// Certificates parses every certificate in location: one or more
// concatenated "CERTIFICATE" PEM blocks, or, failing that, the whole file
// as bare DER.
func Certificates(location string, options certparse.Options) ([]*certparse.ParsedCertificate, error) {
	raw, err := readLocation(location)
	if err != nil {
		return nil, err
	}

	var ders [][]byte
	rest := raw
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			ders = append(ders, block.Bytes)
		}
	}
	if len(ders) == 0 {
		ders = [][]byte{raw}
	}

	certs := make([]*certparse.ParsedCertificate, 0, len(ders))
	for i, der := range ders {
		pc, errs := certparse.Create(der, options)
		if pc == nil {
			return nil, fmt.Errorf("pemload: %s: certificate %d: %s", location, i, firstErrorString(errs))
		}
		certs = append(certs, pc)
	}
	return certs, nil
}

// Certificate parses exactly one certificate out of location, failing if
// more or fewer than one PEM/DER certificate is present.
func Certificate(location string, options certparse.Options) (*certparse.ParsedCertificate, error) {
	certs, err := Certificates(location, options)
	if err != nil {
		return nil, err
	}
	if len(certs) != 1 {
		return nil, fmt.Errorf("pemload: %s: expected exactly one certificate, found %d", location, len(certs))
	}
	return certs[0], nil
}

func firstErrorString(errs *errset.Set) string {
	if errs == nil || len(errs.Entries()) == 0 {
		return "unknown parse error"
	}
	e := errs.Entries()[0]
	return e.ID.Name()
}
