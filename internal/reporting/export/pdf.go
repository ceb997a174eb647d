// Package export renders reports and invoices as PDF (through Gotenberg) and
// XLSX documents.
package export

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/kedai-dimesem/storefront/internal/reporting"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("export").Funcs(template.FuncMap{
	"rupiah":     Rupiah,
	"tanggal":    Tanggal,
	"tanggalPtr": tanggalPtr,
	"timestamp":  timestamp,
	"upper":      func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
}).ParseFS(templateFS, "templates/*.html"))

// HTMLConverter turns an HTML document into PDF bytes.
type HTMLConverter interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// Renderer implements reporting.Documents.
type Renderer struct {
	converter HTMLConverter
}

// NewRenderer builds a Renderer on top of converter.
func NewRenderer(converter HTMLConverter) *Renderer {
	return &Renderer{converter: converter}
}

// ReportHTML renders the report page.
func ReportHTML(r reporting.Report) ([]byte, error) {
	return execute("report.html", r)
}

// InvoiceHTML renders the invoice page.
func InvoiceHTML(inv reporting.Invoice) ([]byte, error) {
	return execute("invoice.html", inv)
}

// ReportPDF renders r to PDF.
func (x *Renderer) ReportPDF(ctx context.Context, r reporting.Report) ([]byte, error) {
	html, err := ReportHTML(r)
	if err != nil {
		return nil, err
	}
	return x.convert(ctx, html)
}

// InvoicePDF renders inv to PDF.
func (x *Renderer) InvoicePDF(ctx context.Context, inv reporting.Invoice) ([]byte, error) {
	html, err := InvoiceHTML(inv)
	if err != nil {
		return nil, err
	}
	return x.convert(ctx, html)
}

func (x *Renderer) convert(ctx context.Context, html []byte) ([]byte, error) {
	if x == nil || x.converter == nil {
		return nil, fmt.Errorf("pdf renderer not initialised")
	}
	pdf, err := x.converter.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

var _ reporting.Documents = (*Renderer)(nil)
