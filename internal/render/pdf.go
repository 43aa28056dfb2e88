package render

import (
	"context"
	"fmt"
	"io"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// A4 paper size in inches.
const (
	paperWidthIn  = 8.27
	paperHeightIn = 11.69
	marginIn      = 0.4
)

// PDFPrinter prints rendered HTML snapshots to fixed-page-size PDF through
// a headless Chrome instance. One printer (and one browser) serves a whole
// run; pages are opened and closed per document.
type PDFPrinter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewPDFPrinter launches headless Chrome and connects to it.
func NewPDFPrinter() (*PDFPrinter, error) {
	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("render: launch browser: %w", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("render: connect browser: %w", err)
	}
	return &PDFPrinter{browser: browser, launcher: l}, nil
}

// Convert prints one HTML document to PDF. A conversion failure means the
// snapshot was not produced; the caller must not mark the message rendered.
func (p *PDFPrinter) Convert(ctx context.Context, htmlDoc []byte) ([]byte, error) {
	page, err := p.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("render: open page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.SetDocumentContent(string(htmlDoc)); err != nil {
		return nil, fmt.Errorf("render: set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("render: wait load: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      float64Ptr(paperWidthIn),
		PaperHeight:     float64Ptr(paperHeightIn),
		MarginTop:       float64Ptr(marginIn),
		MarginBottom:    float64Ptr(marginIn),
		MarginLeft:      float64Ptr(marginIn),
		MarginRight:     float64Ptr(marginIn),
	})
	if err != nil {
		return nil, fmt.Errorf("render: print pdf: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("render: read pdf stream: %w", err)
	}
	return data, nil
}

// Close shuts down the browser and cleans up the launcher's user data dir.
func (p *PDFPrinter) Close() error {
	err := p.browser.Close()
	p.launcher.Cleanup()
	return err
}

func float64Ptr(v float64) *float64 { return &v }
