package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"prisched/internal/sched"
	"prisched/internal/ui"
)

// Options controls Render.
type Options struct {
	Format string // table | json | csv
	Gantt  bool   // table format only
	Title  string
}

// Render writes res in the requested format.
func Render(w io.Writer, res *sched.Result, opts Options) error {
	switch opts.Format {
	case "", "table":
		if opts.Title != "" {
			Title(w, opts.Title)
		}
		if opts.Gantt {
			Gantt(w, res)
		}
		Table(w, res)
		Summary(w, res)
		return nil
	case "json":
		return JSON(w, res)
	case "csv":
		return CSV(w, res)
	default:
		return fmt.Errorf("unknown report format %q", opts.Format)
	}
}

func Title(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w, strings.Repeat("-", len(title)*2))
	_, _ = fmt.Fprintln(w, strings.Repeat(" ", len(title)/2), ui.Bold(title))
	_, _ = fmt.Fprintln(w, strings.Repeat("-", len(title)*2))
}

// Gantt draws the CPU timeline, one cell per slice, with the slice start
// ticks underneath.
func Gantt(w io.Writer, res *sched.Result) {
	_, _ = fmt.Fprintln(w, "Gantt schedule")
	_, _ = fmt.Fprint(w, "|")
	for _, s := range res.Timeline {
		label := "idle"
		if !s.Idle() {
			label = "P" + strconv.Itoa(s.PID)
		}
		pad := max(0, 8-len(label))
		left := strings.Repeat(" ", pad/2)
		right := strings.Repeat(" ", pad-pad/2)
		_, _ = fmt.Fprint(w, left, ui.PIDLabel(s.PID), right, "|")
	}
	_, _ = fmt.Fprintln(w)
	for i, s := range res.Timeline {
		_, _ = fmt.Fprintf(w, "%-9d", s.Start)
		if i == len(res.Timeline)-1 {
			_, _ = fmt.Fprint(w, s.Stop)
		}
	}
	_, _ = fmt.Fprintf(w, "\n\n")
}

// Table writes the per-process schedule table with averages in the footer.
func Table(w io.Writer, res *sched.Result) {
	_, _ = fmt.Fprintln(w, "Schedule table")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Priority", "Arrival", "Start", "CPU", "I/O", "Wait", "Turnaround", "Response", "Exit"})
	table.AppendBulk(rows(res))
	table.SetFooter([]string{"", "", "", "", "", "",
		fmt.Sprintf("Average\n%.2f", res.AvgWaiting),
		fmt.Sprintf("Average\n%.2f", res.AvgTurnaround),
		fmt.Sprintf("Average\n%.2f", res.AvgResponse),
		fmt.Sprintf("Throughput\n%.2f/t", res.Throughput)})
	table.Render()
}

func rows(res *sched.Result) [][]string {
	out := make([][]string, 0, len(res.Processes))
	for _, s := range res.Processes {
		out = append(out, []string{
			strconv.Itoa(s.PID),
			strconv.Itoa(s.Priority),
			strconv.FormatInt(s.Arrival, 10),
			strconv.FormatInt(s.Start, 10),
			strconv.FormatInt(s.CPUTime, 10),
			strconv.FormatInt(s.IOTime, 10),
			strconv.FormatInt(s.Waiting, 10),
			strconv.FormatInt(s.Turnaround, 10),
			strconv.FormatInt(s.Response, 10),
			strconv.FormatInt(s.Completion, 10),
		})
	}
	return out
}

// Summary writes a one-line aggregate.
func Summary(w io.Writer, res *sched.Result) {
	_, _ = fmt.Fprintf(w, "%s %d processes, makespan %s, CPU %s busy, avg wait %s\n",
		ui.BoldCyan("▶"),
		len(res.Processes),
		ui.Bold(res.Makespan),
		ui.Green(fmt.Sprintf("%.1f%%", res.Utilization*100)),
		ui.Yellow(fmt.Sprintf("%.2f", res.AvgWaiting)))
}

// JSON writes res as indented JSON.
func JSON(w io.Writer, res *sched.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// CSV writes one row per process plus a header.
func CSV(w io.Writer, res *sched.Result) error {
	cw := csv.NewWriter(w)
	header := []string{"pid", "priority", "arrival", "start", "cpu_time", "io_time", "waiting", "turnaround", "response", "completion"}
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows(res)); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}
	return nil
}

// Events writes a status-event trace, one line per event.
func Events(w io.Writer, events []sched.StatusEvent) {
	for _, ev := range events {
		_, _ = fmt.Fprintf(w, "%s %-10s %s remaining=%d\n",
			ui.Dim(fmt.Sprintf("t=%06d", ev.Tick)),
			ui.EventKind(ev.Kind.String()),
			ui.PIDLabel(ev.PID),
			ev.Remaining)
	}
}
