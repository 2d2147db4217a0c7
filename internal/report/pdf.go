package report

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	consts "github.com/khanhnv2901/sitescan/internal/shared/constants"
)

var severityFill = map[scan.Severity][3]int{
	scan.SeverityCritical: {220, 53, 69},
	scan.SeverityHigh:     {253, 126, 20},
	scan.SeverityMedium:   {255, 193, 7},
	scan.SeverityLow:      {40, 167, 69},
}

// PDF renders the report as an A4 document.
func PDF(r *scan.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("External Scan Report"), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("URL: %s", r.Target.URL())), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Domain: %s", r.Target.Domain())), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Date: %s", r.ScanDate.Format(time.RFC3339)), "", 1, "", false, 0, "")
	pdf.Ln(4)

	// Risk banner
	fill := severityFill[r.Assessment.Level]
	pdf.SetFillColor(fill[0], fill[1], fill[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 9, fmt.Sprintf("Risk level: %s   Score: %d", r.Assessment.Level, r.Assessment.Score), "", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Anomalies (%d)", len(r.Anomalies)), "", 1, "", false, 0, "")
	if len(r.Anomalies) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, "No major anomalies detected", "", 1, "", false, 0, "")
	}
	for i, a := range r.Anomalies {
		if pdf.GetY() > 260 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%d. [%s] %s", i+1, a.Severity, a.Title)), "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr("   "+a.Description), "", "", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Collected data", "", 1, "", false, 0, "")

	section := func(title string, lines []string) {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(0, 7, title, "", 1, "", true, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, l := range lines {
			pdf.MultiCell(0, 5, tr("  "+l), "", "", false)
		}
		pdf.Ln(2)
	}

	if rec, ok := r.Collection.HTTP.Record(); ok {
		section("HTTP/HTTPS", []string{
			fmt.Sprintf("Status: %d", rec.StatusCode),
			numbers.Sprintf("HTML size: %d bytes", rec.HTMLSize),
			fmt.Sprintf("Redirects: %d", len(rec.Redirects)),
		})
	} else {
		reason, _ := r.Collection.HTTP.Failure()
		section("HTTP/HTTPS", []string{"Unavailable: " + reason})
	}

	if rec, ok := r.Collection.TLS.Record(); ok {
		section("TLS certificate", []string{
			"Issuer: " + orNA(rec.Issuer["O"]),
			fmt.Sprintf("Expires in: %d days", rec.DaysUntilExpiry),
			"Algorithm: " + rec.SignatureAlgorithm,
		})
	} else {
		reason, _ := r.Collection.TLS.Failure()
		section("TLS certificate", []string{"Unavailable: " + reason})
	}

	if rec, ok := r.Collection.Whois.Record(); ok {
		section("WHOIS", []string{
			"Registrar: " + orNA(deref(rec.Registrar)),
			fmt.Sprintf("Age: %s days", optionalInt(rec.AgeDays)),
			fmt.Sprintf("Expires in: %s days", optionalInt(rec.DaysUntilExpiry)),
		})
	} else {
		reason, _ := r.Collection.Whois.Failure()
		section("WHOIS", []string{"Unavailable: " + reason})
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePDF renders the report and writes it to path.
func WritePDF(path string, r *scan.Report) error {
	data, err := PDF(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, consts.DefaultFilePerm); err != nil {
		return fmt.Errorf("failed to write PDF report: %w", err)
	}
	return nil
}
