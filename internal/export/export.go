// Package export assembles rendered regions into a paginated PDF, one region
// per page.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"

	"goaltrack/internal/render"
)

const (
	DefaultScale       = 1.5
	DefaultJPEGQuality = 75
	DefaultPageSize    = "A4"
	DefaultName        = "goal"
	DefaultFileSuffix  = "-tracker.pdf"
)

var ErrNothingToExport = errors.New("nothing to export: no header and no month regions")

type Exporter struct {
	Scale    float64
	Quality  int
	PageSize string
	Title    string
	Logger   *slog.Logger
	Now      func() time.Time
}

type Result struct {
	Pages int   `json:"pages"`
	Bytes int64 `json:"bytes"`
}

func New() Exporter {
	return Exporter{
		Scale:    DefaultScale,
		Quality:  DefaultJPEGQuality,
		PageSize: DefaultPageSize,
		Now:      time.Now,
	}
}

func (e Exporter) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// ExportReport rasterizes header (skipped when nil) and then every month
// region in order, one page each, and writes the compressed document to w.
// Nothing is written to w unless the whole document assembled.
func (e Exporter) ExportReport(ctx context.Context, header render.Region, months []render.Region, w io.Writer) (Result, error) {
	if header == nil && len(months) == 0 {
		return Result{}, ErrNothingToExport
	}
	scale := e.Scale
	if scale == 0 {
		scale = DefaultScale
	}
	if scale < 0 || scale > render.MaxScale {
		return Result{}, fmt.Errorf("scale %v out of range (0, %d]", scale, render.MaxScale)
	}
	quality := e.Quality
	if quality == 0 {
		quality = DefaultJPEGQuality
	}
	if quality < 1 || quality > 100 {
		return Result{}, fmt.Errorf("jpeg quality %d out of range 1-100", quality)
	}
	size := e.PageSize
	if size == "" {
		size = DefaultPageSize
	}

	pdf := fpdf.New("P", "mm", size, "")
	if err := pdf.Error(); err != nil {
		return Result{}, fmt.Errorf("new document: %w", err)
	}
	pdf.SetCompression(true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("goaltrack", true)
	if e.Title != "" {
		pdf.SetTitle(e.Title, true)
	}
	if e.Now != nil {
		ts := e.Now()
		pdf.SetCreationDate(ts)
		pdf.SetModificationDate(ts)
	}

	regions := months
	if header != nil {
		regions = append([]render.Region{header}, months...)
	}
	for i, region := range regions {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		img, err := region.Rasterize(scale)
		if err != nil {
			return Result{}, fmt.Errorf("rasterize %s: %w", region.Name(), err)
		}
		if err := placePage(pdf, fmt.Sprintf("page-%d", i+1), img, quality); err != nil {
			return Result{}, fmt.Errorf("page %d (%s): %w", i+1, region.Name(), err)
		}
		e.logger().Debug("export page added", "page", i+1, "region", region.Name(), "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Result{}, fmt.Errorf("serialize document: %w", err)
	}
	pages := pdf.PageCount()
	n, err := buf.WriteTo(w)
	if err != nil {
		return Result{}, err
	}
	return Result{Pages: pages, Bytes: n}, nil
}

// placePage adds a page holding img scaled to the page width. Anything taller
// than the page is clipped at the bottom edge.
func placePage(pdf *fpdf.Fpdf, name string, img image.Image, quality int) error {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return errors.New("empty raster")
	}
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader(name, opts, &enc)
	h := float64(b.Dy()) * pageW / float64(b.Dx())
	pdf.ClipRect(0, 0, pageW, pageH, false)
	pdf.ImageOptions(name, 0, 0, pageW, h, false, opts, 0, "")
	pdf.ClipEnd()
	return pdf.Error()
}

// FileName derives the download name from the goal name.
func FileName(goalName, suffix string) string {
	if suffix == "" {
		suffix = DefaultFileSuffix
	}
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '"' || r == '*' || r == '?' || r == '<' || r == '>' || r == '|':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(goalName))
	if name == "" {
		name = DefaultName
	}
	return name + suffix
}
