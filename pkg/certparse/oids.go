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

package certparse

// Extension OIDs (id-ce-*, all under 2.5.29).
var (
	oidExtKeyUsage                 = []byte{0x55, 0x1D, 0x0F}
	oidExtSubjectAltName           = []byte{0x55, 0x1D, 0x11}
	oidExtBasicConstraints         = []byte{0x55, 0x1D, 0x13}
	oidExtNameConstraints          = []byte{0x55, 0x1D, 0x1E}
	oidExtCertificatePolicies      = []byte{0x55, 0x1D, 0x20}
	oidExtPolicyMappings           = []byte{0x55, 0x1D, 0x21}
	oidExtAuthorityKeyIdentifier   = []byte{0x55, 0x1D, 0x23}
	oidExtSubjectKeyIdentifier     = []byte{0x55, 0x1D, 0x0E}
	oidExtExtKeyUsage              = []byte{0x55, 0x1D, 0x25}
	oidExtCRLDistributionPoints    = []byte{0x55, 0x1D, 0x1F}
	oidExtInhibitAnyPolicy         = []byte{0x55, 0x1D, 0x36}
	oidExtPolicyConstraints        = []byte{0x55, 0x1D, 0x24}
	oidExtAuthorityInfoAccess      = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x01, 0x01}
)

// OidCTPoison (1.3.6.1.4.1.11129.2.4.3) marks a precertificate; it is the
// one critical extension PathVerifier may tolerate when the delegate's
// AcceptPreCertificates policy permits it.
var OidCTPoison = []byte{0x2B, 0x06, 0x01, 0x04, 0x01, 0xD6, 0x79, 0x02, 0x04, 0x03}

// OidMicrosoftApplicationPolicies may be tolerated as critical when an
// ExtendedKeyUsage extension is also present.
var OidMicrosoftApplicationPolicies = []byte{0x2B, 0x06, 0x01, 0x04, 0x01, 0x82, 0x37, 0x15, 0x0A, 0x02}

// AIA access-method OIDs.
var (
	oidCAIssuers = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x30, 0x02}
	oidOCSP      = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x30, 0x01}
)

// Well-known EKU key-purpose OIDs.
var (
	OidAnyExtendedKeyUsage = []byte{0x55, 0x1D, 0x25, 0x00}
	OidServerAuth          = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x03, 0x01}
	OidClientAuth          = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x03, 0x02}
	OidCodeSigning         = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x03, 0x03}
	OidEmailProtection     = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x03, 0x04}
	OidTimeStamping        = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x03, 0x08}
	OidOCSPSigning         = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x03, 0x09}
	// OidRcsMlsClient is 2.23.146.2.1.3.
	OidRcsMlsClient = []byte{0x67, 0x81, 0x12, 0x02, 0x01, 0x03}
	// OidAnyPolicy is 2.5.29.32.0, the anyPolicy OID used throughout
	// certificate-policy and policy-graph processing.
	OidAnyPolicy = []byte{0x55, 0x1D, 0x20, 0x00}
)

// RCS MLS OIDs beyond the client EKU (2.23.146.2.1.4 and .5), reserved for
// server and mediator roles respectively; the verifier only consults
// OidRcsMlsClient today, but both are named here since they are normative
// inputs baked into the implementation.
var (
	OidRcsMlsServer   = []byte{0x67, 0x81, 0x12, 0x02, 0x01, 0x04}
	OidRcsMlsMediator = []byte{0x67, 0x81, 0x12, 0x02, 0x01, 0x05}
)

// Policy-qualifier OIDs permitted in a critical CertificatePolicies
// extension: id-qt-cps and id-qt-unotice.
var (
	oidCPSPointer = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x02, 0x01}
	oidUserNotice = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x02, 0x02}
)

var knownExtensionOIDs = [][]byte{
	oidExtKeyUsage,
	oidExtSubjectAltName,
	oidExtBasicConstraints,
	oidExtNameConstraints,
	oidExtCertificatePolicies,
	oidExtPolicyMappings,
	oidExtAuthorityKeyIdentifier,
	oidExtSubjectKeyIdentifier,
	oidExtExtKeyUsage,
	oidExtCRLDistributionPoints,
	oidExtInhibitAnyPolicy,
	oidExtPolicyConstraints,
	oidExtAuthorityInfoAccess,
}

// IsKnownExtensionOID reports whether oid names one of the extensions this
// package interprets. The path verifier uses this to decide whether a
// critical extension it does not otherwise recognize must be rejected.
func IsKnownExtensionOID(oid []byte) bool {
	for _, known := range knownExtensionOIDs {
		if oidEqual(oid, known) {
			return true
		}
	}
	return false
}

func oidEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
