package web

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"sitereports/internal/model"
)

const pdfFont = "Helvetica"

// reportPDF lays out one report on Letter pages.
type reportPDF struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	width float64 // usable width between the margins
}

// writeReportPDF renders the printable version of a report: header table,
// executive summary, status overview, issues and closing sections.
func writeReportPDF(w io.Writer, r *model.Report) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(15, 13, 15)
	pdf.SetAutoPageBreak(true, 13)
	pdf.SetTitle("Site report: "+r.SiteName, true)
	pdf.SetCreator("sitereports", true)
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	doc := &reportPDF{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		width: pageWidth - left - right,
	}

	pdf.SetFont(pdfFont, "B", 18)
	pdf.SetTextColor(26, 44, 71)
	pdf.CellFormat(doc.width, 10, "SITE REPORT DETAIL", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	doc.keyValues([][2]string{
		{"Site Name:", r.SiteName},
		{"Location:", r.Location},
		{"Report Type:", r.ReportType},
		{"Period Start:", r.PeriodStart},
		{"Period End:", r.PeriodEnd},
		{"Prepared By:", r.PreparedBy},
		{"Prepared By Title:", r.PreparedByTitle},
		{"Department:", r.Department},
		{"Office Manager:", r.OfficeManager},
		{"Director of IT Department:", r.DirectorIT},
		{"Date Submitted:", r.DateSubmitted},
		{"Overall Status:", r.OverallStatus},
	})

	doc.heading("EXECUTIVE SUMMARY")
	doc.paragraph(r.ExecutiveSummary)

	doc.heading("STATUS OVERVIEW")
	doc.table([]float64{0.45, 0.55}, []string{"Category", "Status"}, [][]string{
		{"Network", r.NetworkStatus},
		{"Power", r.PowerStatus},
		{"Hardware", r.HardwareStatus},
		{"Biomedical", r.BiomedicalStatus},
		{"Cameras", fmt.Sprintf("%d live / %d down", r.CamerasLive, r.CamerasDown)},
		{"Biometrics", fmt.Sprintf("%d live / %d down", r.BiometricsLive, r.BiometricsDown)},
		{"Software", r.SoftwareStatus},
		{"Security", r.SecurityStatus},
	})

	if len(r.Issues) > 0 {
		doc.heading("ISSUES LOGGED")
		rows := make([][]string, 0, len(r.Issues))
		for _, is := range r.Issues {
			rows = append(rows, []string{is.Title, is.Area, is.Impact, is.Status, is.Priority, is.Owner})
		}
		doc.table([]float64{0.26, 0.16, 0.16, 0.14, 0.13, 0.15},
			[]string{"Issue Title", "Area", "Impact", "Status", "Priority", "Owner"}, rows)
	}

	if len(r.Devices) > 0 {
		doc.heading("DEVICES")
		rows := make([][]string, 0, len(r.Devices))
		for _, d := range r.Devices {
			rows = append(rows, []string{d.Name, d.Hostname, d.SerialNumber, d.Status})
		}
		doc.table([]float64{0.3, 0.25, 0.25, 0.2}, []string{"Device", "Hostname", "Serial Number", "Status"}, rows)
	}

	doc.heading("RECOMMENDATIONS")
	doc.paragraph(r.Recommendations)
	doc.heading("RISKS & CONSTRAINTS")
	doc.paragraph(r.RisksConstraints)
	doc.heading("CONCLUSION")
	doc.paragraph(r.Conclusion)

	return pdf.Output(w)
}

func (d *reportPDF) heading(text string) {
	d.pdf.Ln(4)
	d.pdf.SetFont(pdfFont, "B", 12)
	d.pdf.SetTextColor(31, 71, 136)
	d.pdf.CellFormat(d.width, 8, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *reportPDF) paragraph(text string) {
	d.pdf.SetFont(pdfFont, "", 10)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.MultiCell(d.width, 5, d.tr(orDash(text)), "", "L", false)
}

// keyValues draws a two column table with shaded labels.
func (d *reportPDF) keyValues(rows [][2]string) {
	labelWidth := 55.0
	d.pdf.SetDrawColor(128, 128, 128)
	d.pdf.SetTextColor(0, 0, 0)
	for _, row := range rows {
		d.pdf.SetFont(pdfFont, "B", 10)
		d.pdf.SetFillColor(232, 240, 248)
		d.pdf.CellFormat(labelWidth, 7, d.tr(row[0]), "1", 0, "L", true, 0, "")
		d.pdf.SetFont(pdfFont, "", 10)
		d.pdf.CellFormat(d.width-labelWidth, 7, d.fit(orDash(row[1]), d.width-labelWidth), "1", 1, "L", false, 0, "")
	}
}

// table draws a header row followed by striped body rows. widths are
// fractions of the usable page width.
func (d *reportPDF) table(widths []float64, header []string, rows [][]string) {
	d.pdf.SetDrawColor(128, 128, 128)
	d.pdf.SetFont(pdfFont, "B", 10)
	d.pdf.SetFillColor(31, 71, 136)
	d.pdf.SetTextColor(245, 245, 245)
	for i, h := range header {
		ln := 0
		if i == len(header)-1 {
			ln = 1
		}
		d.pdf.CellFormat(widths[i]*d.width, 7, d.tr(h), "1", ln, "L", true, 0, "")
	}

	d.pdf.SetFont(pdfFont, "", 9)
	d.pdf.SetTextColor(0, 0, 0)
	for n, row := range rows {
		fill := n%2 == 1
		d.pdf.SetFillColor(245, 245, 245)
		for i, cell := range row {
			ln := 0
			if i == len(row)-1 {
				ln = 1
			}
			w := widths[i] * d.width
			d.pdf.CellFormat(w, 6, d.fit(orDash(cell), w), "1", ln, "L", fill, 0, "")
		}
	}
}

// fit translates text for the core fonts and shortens it with an ellipsis
// until it fits in a cell of width w.
func (d *reportPDF) fit(text string, w float64) string {
	s := d.tr(strings.Join(strings.Fields(text), " "))
	limit := w - 2
	if d.pdf.GetStringWidth(s) <= limit {
		return s
	}
	// Translated text is single-byte, so any byte offset is a cut point.
	// Find the longest prefix that fits with the ellipsis.
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if d.pdf.GetStringWidth(s[:mid]+"...") <= limit {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return s[:lo] + "..."
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// pdfFileName is the download name, e.g. "North Clinic_Report_3.pdf".
func pdfFileName(r *model.Report) string {
	site := strings.Map(func(c rune) rune {
		switch c {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return c
	}, strings.TrimSpace(r.SiteName))
	if site == "" {
		site = "site"
	}
	return fmt.Sprintf("%s_Report_%d.pdf", site, r.ID)
}
