package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"customereye/models"
)

// sectionView pairs a derived section with the image files that back it.
type sectionView struct {
	models.ReportSection
	ImageURLs []string
}

type reportView struct {
	models.Report
	Sections []sectionView
}

// RenderReportHTML renders the report detail into a self-contained HTML
// shell suitable for print-to-PDF: styles are embedded, images referenced
// by absolute file URLs.
func RenderReportHTML(detail *models.ReportDetail, baseURL string) (string, error) {
	imagesBySection := make(map[string][]string)
	for _, f := range detail.Files {
		if f.FileKind == models.FileKindImage {
			url := fmt.Sprintf("%s/files/%d", strings.TrimSuffix(baseURL, "/"), f.ID)
			imagesBySection[f.SectionType] = append(imagesBySection[f.SectionType], url)
		}
	}

	view := reportView{Report: detail.Report}
	for _, sec := range detail.Sections {
		view.Sections = append(view.Sections, sectionView{
			ReportSection: sec,
			ImageURLs:     imagesBySection[sec.SectionType],
		})
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render report markup: %w", err)
	}
	return buf.String(), nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #1a202c; margin: 0; padding: 24px; }
  .header { border-bottom: 2px solid #2b6cb0; padding-bottom: 12px; margin-bottom: 20px; }
  .header h1 { margin: 0 0 4px 0; font-size: 24px; }
  .meta { color: #4a5568; font-size: 13px; }
  .meta span + span::before { content: " · "; }
  .rating { font-size: 18px; font-weight: bold; color: #2b6cb0; }
  .summary { background: #f7fafc; border-left: 4px solid #2b6cb0; padding: 12px 16px; margin: 16px 0; font-size: 14px; }
  .tags { margin: 8px 0; }
  .tag { display: inline-block; background: #edf2f7; border-radius: 10px; padding: 2px 10px; font-size: 11px; margin-right: 6px; }
  .section { page-break-inside: avoid; margin-bottom: 24px; }
  .section h2 { font-size: 17px; border-bottom: 1px solid #e2e8f0; padding-bottom: 4px; }
  .section p { font-size: 13px; line-height: 1.5; white-space: pre-wrap; }
  .section img { max-width: 100%; margin: 8px 0; }
</style>
</head>
<body>
  <div class="header">
    <h1>{{.CompanyName}}</h1>
    <div class="meta">
      <span>{{.Industry}}</span>{{if .Country}}<span>{{.Country}}</span>{{end}}<span>{{.ReportType}}</span>
    </div>
    <div class="rating">{{printf "%.1f" .Rating}} / 5 ({{.ReviewCount}} reviews)</div>
    {{if .Tags}}<div class="tags">{{range .Tags}}<span class="tag">{{.}}</span>{{end}}</div>{{end}}
  </div>
  {{if .Summary}}<div class="summary">{{.Summary}}</div>{{end}}
  {{range .Sections}}
  <div class="section">
    <h2>{{.Title}}</h2>
    {{if .TextContent}}<p>{{.TextContent}}</p>{{end}}
    {{range .ImageURLs}}<img src="{{.}}" alt="">{{end}}
  </div>
  {{end}}
</body>
</html>`))
