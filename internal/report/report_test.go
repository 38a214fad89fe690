package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"prisched/internal/job"
	"prisched/internal/sched"
	"prisched/internal/ui"
)

func simulate(t *testing.T) *sched.Result {
	t.Helper()
	ui.SetEnabled(false)
	procs := []job.Description{
		{PID: 1, Arrival: 0, Priority: 2, CPUBursts: []int64{10}},
		{PID: 2, Arrival: 2, Priority: 1, CPUBursts: []int64{4}},
	}
	res, err := sched.Simulate(context.Background(), sched.DefaultConfig(), procs, nil)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	return res
}

func TestRender_Table(t *testing.T) {
	res := simulate(t)
	var buf bytes.Buffer
	if err := Render(&buf, res, Options{Format: "table", Gantt: true, Title: "Priority"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"Gantt schedule", "Schedule table", "TURNAROUND", "P1", "P2", "14", "2.00", "makespan 14"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestGantt_IdleSlices(t *testing.T) {
	ui.SetEnabled(false)
	res := &sched.Result{Timeline: []sched.Slice{
		{PID: sched.IdlePID, Start: 0, Stop: 3},
		{PID: 4, Start: 3, Stop: 5},
	}}
	var buf bytes.Buffer
	Gantt(&buf, res)

	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("unexpected output: %q", buf.String())
	}
	if !strings.Contains(lines[1], "idle") || !strings.Contains(lines[1], "P4") {
		t.Errorf("expected idle and P4 cells, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "0") || !strings.HasSuffix(lines[2], "5") {
		t.Errorf("expected ticks 0..5, got %q", lines[2])
	}
}

func TestRender_JSON(t *testing.T) {
	res := simulate(t)
	var buf bytes.Buffer
	if err := Render(&buf, res, Options{Format: "json"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := buf.String()

	if !gjson.Valid(body) {
		t.Fatalf("invalid JSON: %s", body)
	}
	if got := gjson.Get(body, "strategy").String(); got != "event" {
		t.Errorf("expected strategy event, got %q", got)
	}
	if got := gjson.Get(body, "processes.#").Int(); got != 2 {
		t.Errorf("expected 2 processes, got %d", got)
	}
	if got := gjson.Get(body, `processes.#(pid==1).waiting`).Int(); got != 4 {
		t.Errorf("expected P1 waiting 4, got %d", got)
	}
	if got := gjson.Get(body, "timeline.1.pid").Int(); got != 2 {
		t.Errorf("expected P2 in second slice, got %d", got)
	}
	if got := gjson.Get(body, "avg_waiting").Float(); got != 2 {
		t.Errorf("expected avg waiting 2, got %v", got)
	}
}

func TestRender_CSV(t *testing.T) {
	res := simulate(t)
	var buf bytes.Buffer
	if err := Render(&buf, res, Options{Format: "csv"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[2][0] != "2" || rows[2][9] != "6" {
		t.Errorf("expected P2 completing at 6, got %v", rows[2])
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	if err := Render(&bytes.Buffer{}, simulate(t), Options{Format: "pdf"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestEvents(t *testing.T) {
	ui.SetEnabled(false)
	var buf bytes.Buffer
	Events(&buf, []sched.StatusEvent{
		{Tick: 2, Kind: sched.StatusPreempt, PID: 1, Remaining: 8},
		{Tick: 5, Kind: sched.StatusIdle, PID: sched.IdlePID},
	})
	out := buf.String()
	if !strings.Contains(out, "t=000002 Preempt") || !strings.Contains(out, "P1 remaining=8") {
		t.Errorf("unexpected trace:\n%s", out)
	}
	if !strings.Contains(out, "idle") {
		t.Errorf("expected idle line:\n%s", out)
	}
}
