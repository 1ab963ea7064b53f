// Package render turns a resume document into a complete, fixed-size
// visual document. Preview, rasterization and print all consume the same
// VisualDocument, so what the user sees is what gets exported.
package render

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"

	"resumekit/internal/resume"
	"resumekit/internal/template"
)

// US Letter at 96 DPI. The exporter relies on these dimensions when
// sizing the capture viewport and the artifact page.
const (
	PageWidthPx  = 816
	PageHeightPx = 1056
)

// pageShellHTML wraps a strategy fragment in a standalone page with the
// fixed print geometry. It must stay free of any external asset fetches
// so rendering works inside the headless capture browser.
const pageShellHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  html, body { margin: 0; padding: 0; background: #ffffff; }
  #resume-page {
    width: {{.WidthPx}}px;
    min-height: {{.HeightPx}}px;
    background: #ffffff;
    margin: 0;
    box-sizing: border-box;
    overflow: hidden;
  }
  @page { size: 8.5in 11in; margin: 0; }
  @media print {
    * { -webkit-print-color-adjust: exact !important; print-color-adjust: exact !important; }
  }
</style>
</head>
<body>
<div id="resume-page">{{.Body}}</div>
</body>
</html>
`

// VisualDocument is the fully laid-out page: one conventional print page
// of styled HTML plus the geometry the export pipeline needs. HTML is the
// renderer's root node; exporters attach to it without re-rendering.
type VisualDocument struct {
	HTML     string
	WidthPx  int
	HeightPx int
	Title    string
	Template resume.Template
}

// Renderer resolves a document's template strategy and produces the
// visual document. One Renderer serves owned and shared reads alike.
type Renderer struct {
	registry *template.Registry
	shell    *htmltemplate.Template
}

// NewRenderer builds a renderer over the given registry.
func NewRenderer(registry *template.Registry) *Renderer {
	return &Renderer{
		registry: registry,
		shell:    htmltemplate.Must(htmltemplate.New("page").Parse(pageShellHTML)),
	}
}

type shellData struct {
	Title    string
	WidthPx  int
	HeightPx int
	Body     htmltemplate.HTML
}

// Render lays out the document with its selected strategy. Content is
// never mutated; missing optional fields drop their rows silently.
func (r *Renderer) Render(doc resume.Document) (*VisualDocument, error) {
	kind := doc.Template.Normalize()
	strategy := r.registry.Resolve(kind)

	body, err := strategy.Render(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("render %s strategy: %w", kind, err)
	}

	var buf bytes.Buffer
	if err := r.shell.Execute(&buf, shellData{
		Title:    doc.Title,
		WidthPx:  PageWidthPx,
		HeightPx: PageHeightPx,
		Body:     body,
	}); err != nil {
		return nil, fmt.Errorf("render page shell: %w", err)
	}

	return &VisualDocument{
		HTML:     buf.String(),
		WidthPx:  PageWidthPx,
		HeightPx: PageHeightPx,
		Title:    doc.Title,
		Template: kind,
	}, nil
}
