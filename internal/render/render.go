// Package render materializes a calendar report into raster regions: one
// header region and one region per month.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"goaltrack/internal/domain"
)

// Region is a rendered area destined for one page of an exported document.
type Region interface {
	Name() string
	Rasterize(scale float64) (image.Image, error)
}

const (
	pageWidth   = 810.0
	pagePadding = 20.0
	cellWidth   = 110.0
	cellHeight  = 80.0
	weekRowH    = 30.0
	titleH      = 50.0
)

var weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Regions returns the header region and the month regions of a report in
// chronological order.
func Regions(r domain.CalendarReport) (Region, []Region) {
	months := make([]Region, 0, len(r.Months))
	for _, m := range r.Months {
		months = append(months, MonthRegion{Month: m})
	}
	return HeaderRegion{Report: r}, months
}

// MaxScale keeps rasterized coordinates inside the int16 range of the
// display interface and buffers at a few tens of megabytes.
const MaxScale = 4

func checkScale(scale float64) error {
	if scale <= 0 || scale > MaxScale || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return fmt.Errorf("invalid raster scale %v (want >0 and <=%d)", scale, MaxScale)
	}
	return nil
}

type HeaderRegion struct {
	Report domain.CalendarReport
}

func (h HeaderRegion) Name() string { return "header" }

func (h HeaderRegion) Rasterize(scale float64) (image.Image, error) {
	if err := checkScale(scale); err != nil {
		return nil, err
	}
	const (
		top      = 40.0
		lineH    = 30.0
		legendH  = 110.0
		boxSize  = 80.0
		bottomPd = 30.0
	)
	height := top + titleH + 4*lineH + 20 + legendH + bottomPd
	c := newCanvas(pageWidth, height, scale)
	c.fill(0, 0, pageWidth, height, colorHeaderBG)

	rep := h.Report
	title := c.font(true, 24)
	c.textCentered(title, pageWidth/2, top+24, "TARGET: "+strings.ToUpper(rep.Plan.Name), colorText)

	label := c.font(true, 12)
	value := c.font(false, 12)
	lines := [][2]string{
		{"START DATE:", rep.Plan.Start.Format("January 2, 2006")},
		{"END DATE:", rep.Plan.End.Format("January 2, 2006")},
		{"TOTAL DAYS:", strconv.Itoa(rep.TotalDays) + " DAYS"},
		{"REMAINING DAYS:", strconv.Itoa(rep.DaysRemaining) + " DAYS"},
	}
	y := top + titleH + 12
	for _, l := range lines {
		c.text(label, 2*pagePadding, y, l[0], colorText)
		c.text(value, 2*pagePadding+c.textWidth(label, l[0])+8, y, l[1], colorText)
		y += lineH
	}

	// legend: a sample cell and what each corner means
	ly := y + 10
	lx := 2 * pagePadding
	c.fill(lx, ly, boxSize, boxSize, colorBG)
	c.stroke(lx, ly, boxSize, boxSize, 1, colorBorder)
	drawCellNumbers(c, lx, ly, boxSize, boxSize, 1, 23, 69)

	small := c.font(false, 12)
	items := []struct {
		label string
		col   color.RGBA
	}{
		{"Day number (top-left)", colorDayNumber},
		{"Calendar date (center)", colorText},
		{"Days remaining (bottom-right)", colorRemaining},
	}
	ex := lx + boxSize + 30
	ey := ly + 8
	for _, it := range items {
		c.fill(ex, ey, 16, 16, it.col)
		c.text(small, ex+26, ey+13, it.label, colorText)
		ey += 26
	}
	return c.img, nil
}

type MonthRegion struct {
	Month domain.MonthGrid
}

func (m MonthRegion) Name() string {
	return fmt.Sprintf("%s %d", m.Month.MonthName, m.Month.Year)
}

func (m MonthRegion) rows() int {
	return (m.Month.FirstWeekdayOffset + m.Month.DayCount + 6) / 7
}

func (m MonthRegion) Rasterize(scale float64) (image.Image, error) {
	if err := checkScale(scale); err != nil {
		return nil, err
	}
	g := m.Month
	if g.DayCount != len(g.Cells) {
		return nil, fmt.Errorf("month %s: %d cells for %d days", m.Name(), len(g.Cells), g.DayCount)
	}
	gridTop := pagePadding + titleH + weekRowH
	height := gridTop + float64(m.rows())*cellHeight + pagePadding
	c := newCanvas(pageWidth, height, scale)

	c.textCentered(c.font(true, 24), pageWidth/2, pagePadding+30, m.Name(), colorText)

	head := c.font(true, 12)
	for i, wd := range weekdays {
		x := pagePadding + float64(i)*cellWidth
		c.fill(x, pagePadding+titleH, cellWidth, weekRowH, colorHeaderBG)
		c.textCentered(head, x+cellWidth/2, pagePadding+titleH+20, wd, colorDim)
	}

	for i := 0; i < g.FirstWeekdayOffset; i++ {
		x := pagePadding + float64(i)*cellWidth
		c.fill(x, gridTop, cellWidth, cellHeight, colorEmptyBG)
		c.stroke(x, gridTop, cellWidth, cellHeight, 1, colorBorder)
	}
	for i, cell := range g.Cells {
		pos := g.FirstWeekdayOffset + i
		x := pagePadding + float64(pos%7)*cellWidth
		y := gridTop + float64(pos/7)*cellHeight
		if cell == nil {
			// outside the plan: keep the slot so weekdays stay aligned
			c.fill(x, y, cellWidth, cellHeight, colorEmptyBG)
			c.stroke(x, y, cellWidth, cellHeight, 1, colorBorder)
			continue
		}
		c.stroke(x, y, cellWidth, cellHeight, 1, colorBorder)
		drawCellNumbers(c, x, y, cellWidth, cellHeight, cell.SequenceIndex, cell.CalendarDay, cell.DaysRemaining)
	}
	return c.img, nil
}

func drawCellNumbers(c *canvas, x, y, w, h float64, seq, day, remaining int) {
	small := c.font(true, 9)
	c.text(small, x+6, y+14, strconv.Itoa(seq), colorDayNumber)
	c.textCentered(c.font(true, 18), x+w/2, y+h/2+8, strconv.Itoa(day), colorText)
	c.textRight(small, x+w-6, y+h-8, strconv.Itoa(remaining), colorRemaining)
}
