// Package analysis turns a scan's collected data into anomalies and a risk
// assessment.
//
// Every rule is a pure function of a Snapshot and returns the anomalies it
// found; Evaluate runs them in a fixed order (certificate, redirection, HTML
// size, security headers, domain age) and concatenates the results, so the
// anomaly order is stable across runs. Aggregate reduces that list to a
// score and level. Thresholds are fixed policy.
package analysis
