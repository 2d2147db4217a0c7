package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	"github.com/khanhnv2901/sitescan/internal/logger"
	consts "github.com/khanhnv2901/sitescan/internal/shared/constants"
	sharederrors "github.com/khanhnv2901/sitescan/internal/shared/errors"
	"go.uber.org/zap"
)

// TLSChecker retrieves the leaf certificate with a verified handshake.
type TLSChecker struct {
	Timeout time.Duration
	// RootCAs overrides the system pool when set.
	RootCAs *x509.CertPool
}

// NewTLSChecker returns a checker with the default handshake timeout.
func NewTLSChecker() *TLSChecker {
	return &TLSChecker{Timeout: consts.DefaultTLSTimeout}
}

func (c *TLSChecker) Name() string { return scan.CollectorTLS }

// Check dials host:443 (or the URL's explicit port) and reads the peer
// certificate. Plain http targets fail immediately without dialing.
func (c *TLSChecker) Check(ctx context.Context, target scan.Target, now time.Time) scan.Outcome[scan.TLSRecord] {
	if !target.IsSecure() {
		return scan.Failed[scan.TLSRecord](sharederrors.ErrNonSecureScheme.Error())
	}

	port := target.Port()
	if port == "" {
		port = consts.DefaultSecurePort
	}
	address := net.JoinHostPort(target.Hostname(), port)

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = consts.DefaultTLSTimeout
	}
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config: &tls.Config{
			ServerName: target.Hostname(),
			RootCAs:    c.RootCAs,
			MinVersion: tls.VersionTLS10,
		},
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		logger.Debug(ctx, "tls handshake failed", zap.String("address", address), zap.Error(err))
		return scan.Failed[scan.TLSRecord](failure(classifyTLSError(err), err))
	}
	defer conn.Close()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return scan.Failed[scan.TLSRecord](failure(sharederrors.ErrProtocol, errors.New("not a TLS connection")))
	}
	certs := tlsConn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return scan.Failed[scan.TLSRecord](failure(sharederrors.ErrProtocol, errors.New("no peer certificate")))
	}

	return scan.Succeeded(scan.NewTLSRecord(CertificateFromX509(certs[0]), now))
}

// CertificateFromX509 extracts the fields a TLS record carries.
func CertificateFromX509(cert *x509.Certificate) scan.Certificate {
	return scan.Certificate{
		Subject:            nameComponents(cert.Subject),
		Issuer:             nameComponents(cert.Issuer),
		Version:            cert.Version,
		SerialNumber:       serialHex(cert),
		NotBefore:          cert.NotBefore.UTC(),
		NotAfter:           cert.NotAfter.UTC(),
		SignatureAlgorithm: SignatureAlgorithmName(cert.SignatureAlgorithm),
	}
}

func classifyTLSError(err error) error {
	var (
		verifyErr  *tls.CertificateVerificationError
		recordErr  tls.RecordHeaderError
		alertErr   tls.AlertError
		unknownCA  x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &alertErr),
		errors.As(err, &unknownCA),
		errors.As(err, &hostErr),
		errors.As(err, &invalidErr):
		return sharederrors.ErrProtocol
	default:
		return sharederrors.ErrNetwork
	}
}

var attributeNames = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.5":                    "serialNumber",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.9":                    "street",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"2.5.4.15":                   "businessCategory",
	"2.5.4.17":                   "postalCode",
	"0.9.2342.19200300.100.1.25": "DC",
	"1.2.840.113549.1.9.1":       "emailAddress",
	"1.3.6.1.4.1.311.60.2.1.2":   "jurisdictionST",
	"1.3.6.1.4.1.311.60.2.1.3":   "jurisdictionC",
}

func attributeName(oid asn1.ObjectIdentifier) string {
	if name, ok := attributeNames[oid.String()]; ok {
		return name
	}
	return oid.String()
}

// nameComponents flattens a distinguished name. Repeated attributes keep the
// last value.
func nameComponents(name pkix.Name) map[string]string {
	out := make(map[string]string, len(name.Names))
	for _, atv := range name.Names {
		out[attributeName(atv.Type)] = fmt.Sprint(atv.Value)
	}
	return out
}

func serialHex(cert *x509.Certificate) string {
	if cert.SerialNumber == nil {
		return ""
	}
	b := cert.SerialNumber.Bytes()
	if len(b) == 0 {
		return "00"
	}
	return strings.ToUpper(hex.EncodeToString(b))
}

var signatureNames = map[x509.SignatureAlgorithm]string{
	x509.MD2WithRSA:       "md2WithRSAEncryption",
	x509.MD5WithRSA:       "md5WithRSAEncryption",
	x509.SHA1WithRSA:      "sha1WithRSAEncryption",
	x509.SHA256WithRSA:    "sha256WithRSAEncryption",
	x509.SHA384WithRSA:    "sha384WithRSAEncryption",
	x509.SHA512WithRSA:    "sha512WithRSAEncryption",
	x509.DSAWithSHA1:      "dsaWithSHA1",
	x509.DSAWithSHA256:    "dsa_with_SHA256",
	x509.ECDSAWithSHA1:    "ecdsa-with-SHA1",
	x509.ECDSAWithSHA256:  "ecdsa-with-SHA256",
	x509.ECDSAWithSHA384:  "ecdsa-with-SHA384",
	x509.ECDSAWithSHA512:  "ecdsa-with-SHA512",
	x509.SHA256WithRSAPSS: "rsassaPss",
	x509.SHA384WithRSAPSS: "rsassaPss",
	x509.SHA512WithRSAPSS: "rsassaPss",
	x509.PureEd25519:      "ED25519",
}

// SignatureAlgorithmName returns the conventional OpenSSL name for algo,
// falling back to Go's own name.
func SignatureAlgorithmName(algo x509.SignatureAlgorithm) string {
	if name, ok := signatureNames[algo]; ok {
		return name
	}
	return algo.String()
}
