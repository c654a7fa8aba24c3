package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"goaltrack/internal/domain"
	"goaltrack/internal/planner"
	"goaltrack/internal/render"
)

type fakeRegion struct {
	name  string
	w, h  int
	err   error
	calls *[]string
}

func (f fakeRegion) Name() string { return f.name }

func (f fakeRegion) Rasterize(scale float64) (image.Image, error) {
	if f.calls != nil {
		*f.calls = append(*f.calls, f.name)
	}
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, int(float64(f.w)*scale), int(float64(f.h)*scale)))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetRGBA(1, 1, color.RGBA{R: 0xd3, A: 0xff})
	return img, nil
}

func fixedExporter() Exporter {
	e := New()
	e.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestExportHeaderAndMonthsInOrder(t *testing.T) {
	var calls []string
	header := fakeRegion{name: "header", w: 400, h: 200, calls: &calls}
	months := []render.Region{
		fakeRegion{name: "December 2023", w: 400, h: 300, calls: &calls},
		fakeRegion{name: "January 2024", w: 400, h: 300, calls: &calls},
	}
	var out bytes.Buffer
	res, err := fixedExporter().ExportReport(context.Background(), header, months, &out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Pages != 3 {
		t.Fatalf("pages %d want 3", res.Pages)
	}
	if res.Bytes != int64(out.Len()) {
		t.Fatalf("reported %d bytes, wrote %d", res.Bytes, out.Len())
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out.Bytes()[:8])
	}
	want := []string{"header", "December 2023", "January 2024"}
	if len(calls) != len(want) {
		t.Fatalf("calls %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("rasterize order %v want %v", calls, want)
		}
	}
}

func TestExportWithoutHeader(t *testing.T) {
	months := []render.Region{fakeRegion{name: "m", w: 100, h: 100}}
	var out bytes.Buffer
	res, err := fixedExporter().ExportReport(context.Background(), nil, months, &out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Pages != 1 {
		t.Fatalf("pages %d want 1", res.Pages)
	}
}

func TestExportTallRegionIsClipped(t *testing.T) {
	months := []render.Region{fakeRegion{name: "tall", w: 100, h: 1000}}
	var out bytes.Buffer
	res, err := fixedExporter().ExportReport(context.Background(), nil, months, &out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Pages != 1 {
		t.Fatalf("tall region spilled onto %d pages", res.Pages)
	}
}

func TestExportFailureWritesNothing(t *testing.T) {
	boom := errors.New("boom")
	months := []render.Region{
		fakeRegion{name: "ok", w: 100, h: 100},
		fakeRegion{name: "broken", err: boom},
	}
	var out bytes.Buffer
	_, err := fixedExporter().ExportReport(context.Background(), fakeRegion{name: "header", w: 10, h: 10}, months, &out)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("partial document written: %d bytes", out.Len())
	}
}

func TestExportCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	_, err := fixedExporter().ExportReport(ctx, fakeRegion{name: "header", w: 10, h: 10}, nil, &out)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatal("canceled export wrote output")
	}
}

func TestExportNothing(t *testing.T) {
	var out bytes.Buffer
	if _, err := fixedExporter().ExportReport(context.Background(), nil, nil, &out); !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("expected ErrNothingToExport, got %v", err)
	}
}

func TestExportRejectsBadSettings(t *testing.T) {
	months := []render.Region{fakeRegion{name: "m", w: 10, h: 10}}
	e := fixedExporter()
	e.Quality = 101
	if _, err := e.ExportReport(context.Background(), nil, months, &bytes.Buffer{}); err == nil {
		t.Fatal("expected quality error")
	}
	for _, scale := range []float64{-1, render.MaxScale + 1} {
		e = fixedExporter()
		e.Scale = scale
		if _, err := e.ExportReport(context.Background(), nil, months, &bytes.Buffer{}); err == nil {
			t.Fatalf("expected scale error for %v", scale)
		}
	}
	e = fixedExporter()
	e.PageSize = "napkin"
	if _, err := e.ExportReport(context.Background(), nil, months, &bytes.Buffer{}); err == nil {
		t.Fatal("expected page size error")
	}
}

func TestExportRenderedReport(t *testing.T) {
	p := planner.Planner{Now: func() time.Time { return time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC) }}
	rep, err := p.BuildCalendarReport(domain.GoalPlan{
		Name:  "Learn Piano",
		Start: time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	header, months := render.Regions(rep)
	var out bytes.Buffer
	res, err := fixedExporter().ExportReport(context.Background(), header, months, &out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Pages != 3 {
		t.Fatalf("pages %d want 3", res.Pages)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		goal, suffix, want string
	}{
		{"Learn Piano", "", "Learn Piano-tracker.pdf"},
		{"", "", "goal-tracker.pdf"},
		{"   ", "", "goal-tracker.pdf"},
		{"a/b\\c", "", "a_b_c-tracker.pdf"},
		{"Run", ".pdf", "Run.pdf"},
	}
	for _, tt := range tests {
		if got := FileName(tt.goal, tt.suffix); got != tt.want {
			t.Errorf("FileName(%q,%q)=%q want %q", tt.goal, tt.suffix, got, tt.want)
		}
	}
}
