// Package certpdf renders participation certificates as A4 landscape PDFs.
package certpdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Template selects the visual layout
type Template string

const (
	TemplateClassic Template = "classic"
	TemplateModern  Template = "modern"
)

// ParseTemplate maps a query value to a template, falling back to classic
func ParseTemplate(s string) Template {
	if Template(strings.ToLower(strings.TrimSpace(s))) == TemplateModern {
		return TemplateModern
	}
	return TemplateClassic
}

// Data is everything printed on a certificate
type Data struct {
	RecipientName     string
	EventTitle        string
	EventDate         time.Time
	Venue             string
	CertificateNumber string
	IssueDate         time.Time
	VolunteerHours    int
	Issuer            string
}

type palette struct {
	primary [3]int
	accent  [3]int
	text    [3]int
}

var palettes = map[Template]palette{
	TemplateClassic: {primary: [3]int{26, 54, 93}, accent: [3]int{184, 134, 11}, text: [3]int{40, 40, 40}},
	TemplateModern:  {primary: [3]int{13, 148, 136}, accent: [3]int{99, 102, 241}, text: [3]int{30, 41, 59}},
}

var titleCaser = cases.Title(language.Und)

// Render draws the certificate and returns the PDF bytes
func Render(tpl Template, d Data) ([]byte, error) {
	p, ok := palettes[tpl]
	if !ok {
		p = palettes[TemplateClassic]
	}
	if d.Issuer == "" {
		d.Issuer = "UniEvents"
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w, h := pdf.GetPageSize()

	switch tpl {
	case TemplateModern:
		pdf.SetFillColor(p.primary[0], p.primary[1], p.primary[2])
		pdf.Rect(0, 0, 18, h, "F")
		pdf.SetFillColor(p.accent[0], p.accent[1], p.accent[2])
		pdf.Rect(18, 0, 4, h, "F")
	default:
		pdf.SetDrawColor(p.primary[0], p.primary[1], p.primary[2])
		pdf.SetLineWidth(2.5)
		pdf.Rect(8, 8, w-16, h-16, "D")
		pdf.SetDrawColor(p.accent[0], p.accent[1], p.accent[2])
		pdf.SetLineWidth(0.8)
		pdf.Rect(13, 13, w-26, h-26, "D")
	}

	center := func(y, height float64, style string, size float64, color [3]int, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(color[0], color[1], color[2])
		pdf.SetXY(0, y)
		pdf.CellFormat(w, height, tr(text), "", 0, "C", false, 0, "")
	}

	center(30, 16, "B", 34, p.primary, "CERTIFICATE OF PARTICIPATION")
	center(52, 8, "", 14, p.text, "This certificate is proudly presented to")
	center(66, 16, "B", 30, p.accent, titleCaser.String(strings.ToLower(d.RecipientName)))

	pdf.SetDrawColor(p.accent[0], p.accent[1], p.accent[2])
	pdf.SetLineWidth(0.5)
	pdf.Line(w/2-70, 85, w/2+70, 85)

	center(92, 8, "", 14, p.text, "for participating in")
	center(102, 12, "B", 20, p.primary, d.EventTitle)

	held := "held on " + d.EventDate.Format("January 2, 2006")
	if d.Venue != "" {
		held += " at " + d.Venue
	}
	center(116, 8, "I", 12, p.text, held)

	if d.VolunteerHours > 0 {
		center(128, 8, "B", 13, p.primary, fmt.Sprintf("Volunteer hours credited: %d", d.VolunteerHours))
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(p.text[0], p.text[1], p.text[2])
	pdf.SetXY(30, h-40)
	pdf.CellFormat(100, 6, tr("Certificate No: "+d.CertificateNumber), "", 0, "L", false, 0, "")
	pdf.SetXY(w-130, h-40)
	pdf.CellFormat(100, 6, tr("Issued: "+d.IssueDate.Format("2006-01-02")), "", 0, "R", false, 0, "")

	center(h-28, 6, "I", 9, p.text, "Issued by "+d.Issuer+". Verify this certificate with its number.")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
