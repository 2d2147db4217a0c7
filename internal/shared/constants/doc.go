// Package constants centralizes defaults shared across the CLI.
//
// Collector timeouts, the scanner's User-Agent, file permissions and output
// naming live here so cmd/ and internal/ reference one value without
// introducing import cycles.
package constants
