package scan

import "time"

// Severity grades an anomaly; the same scale names the overall risk level.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Weight is the score contribution of one anomaly of this severity.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 100
	case SeverityHigh:
		return 50
	case SeverityMedium:
		return 20
	case SeverityLow:
		return 5
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// Anomaly is one deviation from a secure, healthy configuration.
type Anomaly struct {
	Severity    Severity
	Title       string
	Description string
}

// Assessment is the reduction of a scan's anomalies to a score and level.
type Assessment struct {
	Score          int
	Level          Severity
	AnomaliesCount int
}

// Report is the complete outcome of scanning one target.
type Report struct {
	// ID identifies the scan in history; it is not part of the JSON document.
	ID         string
	Target     Target
	ScanDate   time.Time
	Collection Collection
	Anomalies  []Anomaly
	Assessment Assessment
}
