package analysis

import "github.com/khanhnv2901/sitescan/internal/domain/scan"

// Aggregate sums severity weights and classifies the total. It is a pure
// function of the list: the same anomalies always give the same assessment.
func Aggregate(anomalies []scan.Anomaly) scan.Assessment {
	score := 0
	for _, a := range anomalies {
		score += a.Severity.Weight()
	}
	return scan.Assessment{
		Score:          score,
		Level:          LevelForScore(score),
		AnomaliesCount: len(anomalies),
	}
}

// LevelForScore maps a score onto the severity scale.
func LevelForScore(score int) scan.Severity {
	switch {
	case score >= scan.SeverityCritical.Weight():
		return scan.SeverityCritical
	case score >= scan.SeverityHigh.Weight():
		return scan.SeverityHigh
	case score >= scan.SeverityMedium.Weight():
		return scan.SeverityMedium
	default:
		return scan.SeverityLow
	}
}
