package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"goaltrack/internal/domain"
	"goaltrack/internal/events"
)

// styles colors the three numbers of a day cell the same way the PDF does.
type styles struct {
	enabled   bool
	compact   bool
	title     lipgloss.Style
	label     lipgloss.Style
	sequence  lipgloss.Style
	remaining lipgloss.Style
	day       lipgloss.Style
}

func newStyles(f *os.File) styles {
	fd := int(f.Fd())
	s := styles{enabled: term.IsTerminal(fd)}
	if w, _, err := term.GetSize(fd); err == nil && w < 100 {
		s.compact = true
	}
	if !s.enabled {
		return s
	}
	r := lipgloss.NewRenderer(f)
	s.title = r.NewStyle().Bold(true).Foreground(lipgloss.Color("#87CEEB"))
	s.label = r.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	s.sequence = r.NewStyle().Foreground(lipgloss.Color("#D32F2F"))
	s.remaining = r.NewStyle().Foreground(lipgloss.Color("#2E7D32"))
	s.day = r.NewStyle().Bold(true)
	return s
}

func (s styles) render(st lipgloss.Style, v string) string {
	if !s.enabled {
		return v
	}
	return st.Render(v)
}

func printReport(w io.Writer, rep domain.CalendarReport, s styles) {
	fmt.Fprintln(w, s.render(s.title, "TARGET: "+strings.ToUpper(rep.Plan.Name)))
	info := [][2]string{
		{"START DATE:", rep.Plan.Start.Format("January 2, 2006")},
		{"END DATE:", rep.Plan.End.Format("January 2, 2006")},
		{"TOTAL DAYS:", strconv.Itoa(rep.TotalDays) + " DAYS"},
		{"REMAINING DAYS:", strconv.Itoa(rep.DaysRemaining) + " DAYS"},
	}
	for _, l := range info {
		fmt.Fprintf(w, "%s %s\n", s.render(s.label, fmt.Sprintf("%-15s", l[0])), l[1])
	}
	fmt.Fprintf(w, "legend: %s day number  %s calendar date  %s days remaining\n\n",
		s.render(s.sequence, "#n"), s.render(s.day, "d"), s.render(s.remaining, "-n"))

	for _, m := range rep.Months {
		printMonth(w, m, s)
		fmt.Fprintln(w)
	}
}

func printMonth(w io.Writer, m domain.MonthGrid, s styles) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(fmt.Sprintf("%s %d", m.MonthName, m.Year))
	header := table.Row{}
	for _, d := range []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"} {
		if s.compact {
			d = d[:3]
		}
		header = append(header, d)
	}
	tw.AppendHeader(header)

	row := table.Row{}
	for i := 0; i < m.FirstWeekdayOffset; i++ {
		row = append(row, "")
	}
	for _, c := range m.Cells {
		row = append(row, cellText(c, s))
		if len(row) == 7 {
			tw.AppendRow(row)
			row = table.Row{}
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, "")
		}
		tw.AppendRow(row)
	}
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.SeparateRows = true
	tw.Render()
}

// cellText renders a day as "#seq" above the date and the remaining count.
// Days outside the goal stay blank.
func cellText(c *domain.DayCell, s styles) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n%s",
		s.render(s.sequence, "#"+strconv.Itoa(c.SequenceIndex)),
		s.render(s.day, strconv.Itoa(c.CalendarDay)),
		s.render(s.remaining, "-"+strconv.Itoa(c.DaysRemaining)),
	)
}

func printEntry(w io.Writer, e domain.JournalEntry) {
	fmt.Fprintf(w, "id:        %d\n", e.ID)
	fmt.Fprintf(w, "time:      %s\n", e.TS)
	fmt.Fprintf(w, "type:      %s\n", e.Type)
	fmt.Fprintf(w, "report:    %s\n", e.ReportID)
	fmt.Fprintf(w, "goal:      %s\n", e.Goal)
	fmt.Fprintf(w, "actor:     %s\n", e.ActorID)
	fmt.Fprintf(w, "details:   %s\n", e.Payload)
}

// printStats lists the known entry types first, even at zero, then any others.
func printStats(w io.Writer, counts map[string]int) {
	known := []string{events.TypeReportGenerated, events.TypeReportExported}
	var other []string
	for typ := range counts {
		if typ != known[0] && typ != known[1] {
			other = append(other, typ)
		}
	}
	sort.Strings(other)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Type", "Entries"})
	total := 0
	for _, typ := range append(known, other...) {
		tw.AppendRow(table.Row{typ, counts[typ]})
		total += counts[typ]
	}
	tw.AppendFooter(table.Row{"Total", total})
	tw.Render()
}
