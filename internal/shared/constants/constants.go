package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultHTTPTimeout bounds the whole GET including redirects.
	DefaultHTTPTimeout = 10 * time.Second
	// DefaultTLSTimeout bounds the TLS dial and handshake.
	DefaultTLSTimeout = 5 * time.Second
	// DefaultWhoisTimeout bounds the WHOIS query, referral included.
	DefaultWhoisTimeout = 10 * time.Second
	// DefaultUserAgent identifies the scanner to the probed site.
	DefaultUserAgent = "Mozilla/5.0 sitescan/1.0"
	// DefaultSecurePort is dialed by the TLS collector when the URL has no port.
	DefaultSecurePort = "443"
	// MaxRedirects caps the HTTP collector's redirect following.
	MaxRedirects = 30
	// MaxBodyParseBytes caps how much of the body is kept for HTML parsing. The
	// remainder is still counted towards the body size.
	MaxBodyParseBytes = 8 << 20
)

const (
	// ReportTimestampLayout is used in derived output base names.
	ReportTimestampLayout = "20060102_150405"
	// DefaultResultsDir holds reports and the history database.
	DefaultResultsDir = "./results"
	// DefaultHistoryFile is the SQLite file name inside the results directory.
	DefaultHistoryFile = "history.db"
)
