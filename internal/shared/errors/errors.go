package errors

import "errors"

// Collector failure taxonomy
var (
	// ErrNetwork covers connect, DNS and transport timeouts.
	ErrNetwork = errors.New("network failure")
	// ErrProtocol covers TLS handshakes and certificate decoding.
	ErrProtocol = errors.New("protocol failure")
	// ErrLookup covers WHOIS resolution and registry parsing.
	ErrLookup = errors.New("lookup failure")
	// ErrParse is tolerated: HTML parse errors degrade structure fields to defaults.
	ErrParse = errors.New("parse failure")
	// ErrTimeout marks a collector that did not finish before the scan deadline.
	ErrTimeout = errors.New("timeout")
	// ErrNonSecureScheme is recorded by the TLS collector for plain http targets.
	ErrNonSecureScheme = errors.New("non-secure scheme")
)

// Target errors
var (
	ErrEmptyTarget   = errors.New("target cannot be empty")
	ErrInvalidTarget = errors.New("invalid target")
)

// Repository errors
var (
	ErrRepositoryOperation   = errors.New("repository operation failed")
	ErrScanNotFound          = errors.New("scan not found")
	ErrSerializationFailed   = errors.New("serialization failed")
	ErrDeserializationFailed = errors.New("deserialization failed")
)
