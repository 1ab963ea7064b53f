// Package export converts a rendered visual document into a consumable
// artifact: a raster-backed PDF download or a print-subsystem job.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"

	"resumekit/internal/render"
)

// CaptureScale is the documented upscaling factor applied during
// rasterization so exported text stays legible.
const CaptureScale = 2

// ErrNoRenderSource is returned when an export is invoked without a
// rendered visual document. The operation aborts with no artifact.
var ErrNoRenderSource = errors.New("export: no rendered document available")

// Rasterizer captures a visual document as pixels or hands it to the
// host print subsystem. Implemented by the headless browser in this
// package; tests use a fake.
type Rasterizer interface {
	// CaptureImage renders html in a widthPx x heightPx viewport and
	// returns a PNG screenshot upscaled by scale.
	CaptureImage(ctx context.Context, html string, widthPx, heightPx, scale int) ([]byte, error)
	// PrintToPDF submits html as a single print job and returns the
	// print stream produced by the subsystem.
	PrintToPDF(ctx context.Context, html string) ([]byte, error)
}

// Result is a finished export artifact.
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Pipeline drives the two export paths over one Rasterizer.
type Pipeline struct {
	rasterizer Rasterizer
}

// NewPipeline builds a pipeline over the given rasterizer.
func NewPipeline(rasterizer Rasterizer) *Pipeline {
	return &Pipeline{rasterizer: rasterizer}
}

// ExportPDF rasterizes the visual document and packages the image as the
// sole page of a PDF sized exactly to the image's pixel dimensions.
// Any failure aborts with no partial artifact.
func (p *Pipeline) ExportPDF(ctx context.Context, doc *render.VisualDocument) (Result, error) {
	if doc == nil || strings.TrimSpace(doc.HTML) == "" {
		return Result{}, ErrNoRenderSource
	}

	imageBytes, err := p.rasterizer.CaptureImage(ctx, doc.HTML, doc.WidthPx, doc.HeightPx, CaptureScale)
	if err != nil {
		return Result{}, fmt.Errorf("capture document image: %w", err)
	}

	data, err := packageImagePDF(imageBytes)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Filename:    Filename(doc.Title),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// Print hands the visual document to the print subsystem as one job.
// The outcome is reported exactly once through the returned error.
func (p *Pipeline) Print(ctx context.Context, doc *render.VisualDocument) (Result, error) {
	if doc == nil || strings.TrimSpace(doc.HTML) == "" {
		return Result{}, ErrNoRenderSource
	}

	data, err := p.rasterizer.PrintToPDF(ctx, doc.HTML)
	if err != nil {
		return Result{}, fmt.Errorf("print document: %w", err)
	}

	return Result{
		Filename:    Filename(doc.Title),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// packageImagePDF wraps one PNG as a single PDF page whose point size
// equals the image pixel size, mirroring the on-screen geometry 1:1.
func packageImagePDF(imageBytes []byte) ([]byte, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("decode captured image: %w", err)
	}

	width := float64(cfg.Width)
	height := float64(cfg.Height)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("resume", opts, bytes.NewReader(imageBytes))
	pdf.ImageOptions("resume", 0, 0, width, height, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf artifact: %w", err)
	}
	if buf.Len() == 0 {
		return nil, errors.New("write pdf artifact: empty output")
	}
	return buf.Bytes(), nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename derives the artifact name from the resume title: whitespace
// runs collapse to single underscores, suffixed "_resume.pdf".
// "Senior Engineer" becomes "Senior_Engineer_resume.pdf".
func Filename(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "resume.pdf"
	}
	return whitespaceRun.ReplaceAllString(title, "_") + "_resume.pdf"
}
