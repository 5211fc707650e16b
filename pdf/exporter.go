package pdf

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"customereye/database"
	"customereye/models"

	"github.com/apex/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// A4 paper size and margins, in inches (CDP speaks inches; 96px = 1in).
const (
	paperWidthA4  = 8.27
	paperHeightA4 = 11.69
	marginNarrow  = 20.0 / 96.0
	marginWide    = 60.0 / 96.0
)

// Session is one headless-browser connection. It is created per export and
// must be closed on every path, success or failure.
type Session interface {
	PrintURL(ctx context.Context, url string, opts *proto.PagePrintToPDF, settle time.Duration) ([]byte, error)
	PrintHTML(ctx context.Context, html string, opts *proto.PagePrintToPDF) ([]byte, error)
	Close() error
}

// SessionFactory opens a browser session. Tests substitute a spy factory.
type SessionFactory func(ctx context.Context) (Session, error)

// Exporter turns a company's report page into PDF bytes, either by
// rendering markup server-side and printing it, or by navigating a headless
// browser to the live report URL.
type Exporter struct {
	service    *database.ReportService
	baseURL    string
	navTimeout time.Duration
	settle     time.Duration
	newSession SessionFactory
}

// NewExporter creates an exporter backed by a real headless browser.
func NewExporter(service *database.ReportService, baseURL string, navTimeout, settle time.Duration) *Exporter {
	return &Exporter{
		service:    service,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		navTimeout: navTimeout,
		settle:     settle,
		newSession: newRodSession,
	}
}

// ExportNavigate prints the live report page for a company (strategy:
// navigate + print). Headers and footers carry the product name, company,
// page numbers and generation date.
func (e *Exporter) ExportNavigate(ctx context.Context, companyName string) ([]byte, error) {
	if strings.TrimSpace(companyName) == "" {
		return nil, &models.ValidationError{Field: "companyName", Message: "company name is required"}
	}

	report, err := e.service.GetReportByCompany(ctx, companyName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.navTimeout)
	defer cancel()

	session, err := e.newSession(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	url := fmt.Sprintf("%s/reports/%s", e.baseURL, report.Slug)
	log.WithField("url", url).Info("Printing report page to PDF")

	opts := &proto.PagePrintToPDF{
		PaperWidth:          f64(paperWidthA4),
		PaperHeight:         f64(paperHeightA4),
		MarginTop:           f64(marginWide),
		MarginBottom:        f64(marginWide),
		MarginLeft:          f64(marginNarrow),
		MarginRight:         f64(marginNarrow),
		PrintBackground:     true,
		DisplayHeaderFooter: true,
		HeaderTemplate:      headerTemplate(report.CompanyName),
		FooterTemplate:      footerTemplate,
	}
	return session.PrintURL(ctx, url, opts, e.settle)
}

// ExportRendered renders the report detail to markup server-side, loads it
// into a blank page and prints it (strategy: SSR + print).
func (e *Exporter) ExportRendered(ctx context.Context, companyName string) ([]byte, error) {
	if strings.TrimSpace(companyName) == "" {
		return nil, &models.ValidationError{Field: "companyName", Message: "company name is required"}
	}

	report, err := e.service.GetReportByCompany(ctx, companyName)
	if err != nil {
		return nil, err
	}
	detail, err := e.service.GetReport(ctx, strconv.Itoa(report.ID))
	if err != nil {
		return nil, err
	}

	html, err := RenderReportHTML(detail, e.baseURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.navTimeout)
	defer cancel()

	session, err := e.newSession(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	opts := &proto.PagePrintToPDF{
		PaperWidth:      f64(paperWidthA4),
		PaperHeight:     f64(paperHeightA4),
		MarginTop:       f64(marginNarrow),
		MarginBottom:    f64(marginNarrow),
		MarginLeft:      f64(marginNarrow),
		MarginRight:     f64(marginNarrow),
		PrintBackground: true,
	}
	return session.PrintHTML(ctx, html, opts)
}

func headerTemplate(companyName string) string {
	return fmt.Sprintf(`<div style="font-size:9px; width:100%%; padding:0 20px; display:flex; justify-content:space-between;">
		<span>CustomerEye</span><span>%s</span></div>`, companyName)
}

const footerTemplate = `<div style="font-size:9px; width:100%; padding:0 20px; display:flex; justify-content:space-between;">
	<span class="date"></span>
	<span>Page <span class="pageNumber"></span> of <span class="totalPages"></span></span></div>`

func f64(v float64) *float64 { return &v }

// rodSession drives one launched Chrome instance.
type rodSession struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func newRodSession(ctx context.Context) (Session, error) {
	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &rodSession{browser: browser, launcher: l}, nil
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}

func (s *rodSession) PrintURL(ctx context.Context, url string, opts *proto.PagePrintToPDF, settle time.Duration) ([]byte, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("failed to open page %s: %w", url, err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", url, err)
	}
	// Let network activity settle, then give client-side rendering a fixed
	// extra delay before printing.
	page.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(settle):
	}

	return printPage(page, opts)
}

func (s *rodSession) PrintHTML(ctx context.Context, html string, opts *proto.PagePrintToPDF) ([]byte, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open blank page: %w", err)
	}
	defer page.Close()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("failed to set page content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to render page content: %w", err)
	}

	return printPage(page, opts)
}

func printPage(page *rod.Page, opts *proto.PagePrintToPDF) ([]byte, error) {
	reader, err := page.PDF(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to print page to PDF: %w", err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF stream: %w", err)
	}
	return data, nil
}
