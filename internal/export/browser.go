package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// settleDelay gives pending layout and paint a bounded window to finish
// before capture or print, so output matches the on-screen preview.
const settleDelay = 500 * time.Millisecond

const pageTimeout = 30 * time.Second

// BrowserRasterizer renders visual documents in a headless Chromium
// instance. One browser is launched per operation; Chromium reuse is a
// worker-pool concern that does not exist here (one export in flight per
// document).
type BrowserRasterizer struct{}

// NewBrowserRasterizer constructs the headless-browser rasterizer.
func NewBrowserRasterizer() *BrowserRasterizer {
	return &BrowserRasterizer{}
}

// CaptureImage loads the document into a viewport of the page geometry,
// waits for layout to settle, and screenshots it as PNG at the given
// device scale factor.
func (r *BrowserRasterizer) CaptureImage(ctx context.Context, html string, widthPx, heightPx, scale int) ([]byte, error) {
	page, cleanup, err := openDocumentPage(ctx, html)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             widthPx,
		Height:            heightPx,
		DeviceScaleFactor: float64(scale),
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set capture viewport: %w", err)
	}

	time.Sleep(settleDelay)

	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return data, nil
}

// PrintToPDF hands the document to Chromium's print subsystem as one
// zero-margin US-Letter job.
func (r *BrowserRasterizer) PrintToPDF(ctx context.Context, html string) ([]byte, error) {
	page, cleanup, err := openDocumentPage(ctx, html)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := (proto.EmulationSetEmulatedMedia{Media: "print"}).Call(page); err != nil {
		return nil, fmt.Errorf("set emulated media to print: %w", err)
	}

	time.Sleep(settleDelay)

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PaperWidth:        float64Ptr(8.5),
		PaperHeight:       float64Ptr(11),
		MarginTop:         float64Ptr(0),
		MarginBottom:      float64Ptr(0),
		MarginLeft:        float64Ptr(0),
		MarginRight:       float64Ptr(0),
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read print stream: %w", err)
	}
	return data, nil
}

// openDocumentPage launches a headless browser, loads the HTML document
// and returns the page with a cleanup func that tears everything down.
func openDocumentPage(ctx context.Context, html string) (_ *rod.Page, cleanup func(), err error) {
	cleanup = func() {}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, cleanup, fmt.Errorf("launch chromium: %w", err)
	}
	cleanup = launch.Cleanup

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, cleanup, fmt.Errorf("connect browser: %w", err)
	}
	cleanup = func() {
		_ = browser.Close()
		launch.Cleanup()
	}

	page, err := browser.Timeout(pageTimeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, cleanup, fmt.Errorf("create page: %w", err)
	}
	cleanup = func() {
		_ = page.Close()
		_ = browser.Close()
		launch.Cleanup()
	}

	page = page.Timeout(pageTimeout)
	if err := page.SetDocumentContent(html); err != nil {
		return nil, cleanup, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, cleanup, fmt.Errorf("wait load: %w", err)
	}

	return page, cleanup, nil
}

func float64Ptr(value float64) *float64 {
	return &value
}
