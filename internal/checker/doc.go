// Package checker implements the collectors that gather facts about a scan
// target.
//
//   - HTTPChecker issues one GET, follows redirects and summarizes the HTML.
//   - TLSChecker performs a verified handshake and reads the leaf certificate.
//   - WhoisChecker queries the registry for the registrable domain.
//
// Every collector returns a scan.Outcome: a record on success or a failure
// reason such as "network failure: ...". Runner fans the collectors out,
// enforces the optional overall deadline and hands back one Collection.
package checker
