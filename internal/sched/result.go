// internal/sched/result.go

package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"prisched/internal/job"
)

// ErrStrategyMismatch is returned by CrossCheck when the two strategies
// disagree.
var ErrStrategyMismatch = errors.New("event and tick strategies disagree")

// IdlePID marks idle CPU time in the timeline and in status events.
const IdlePID = -1

// Slice is one contiguous stretch of CPU time given to one process, or to
// nobody when PID is IdlePID.
type Slice struct {
	PID   int   `json:"pid"`
	Start int64 `json:"start"`
	Stop  int64 `json:"stop"`
}

func (s Slice) Idle() bool    { return s.PID == IdlePID }
func (s Slice) Length() int64 { return s.Stop - s.Start }

// Result is the outcome of one simulation run.
type Result struct {
	Strategy      Strategy `json:"strategy"`
	Processes     []Stats  `json:"processes"` // input order
	Timeline      []Slice  `json:"timeline"`
	Makespan      int64    `json:"makespan"` // completion time of the last process
	CPUBusy       int64    `json:"cpu_busy"`
	Utilization   float64  `json:"utilization"`
	Throughput    float64  `json:"throughput"` // processes per tick
	AvgWaiting    float64  `json:"avg_waiting"`
	AvgTurnaround float64  `json:"avg_turnaround"`
	AvgResponse   float64  `json:"avg_response"`
	Steps         int64    `json:"steps"` // loop iterations taken
}

func (d *Dispatcher) result() *Result {
	res := &Result{
		Strategy:  d.strategy,
		Processes: make([]Stats, 0, len(d.records)),
		Timeline:  slices.Clone(d.timeline),
		Steps:     d.clock.Steps(),
	}

	var waiting, turnaround, response int64
	for _, r := range d.records {
		s := r.Stats()
		res.Processes = append(res.Processes, s)
		res.Makespan = max(res.Makespan, s.Completion)
		res.CPUBusy += s.CPUTime
		waiting += s.Waiting
		turnaround += s.Turnaround
		response += s.Response
	}

	n := float64(len(d.records))
	res.AvgWaiting = float64(waiting) / n
	res.AvgTurnaround = float64(turnaround) / n
	res.AvgResponse = float64(response) / n
	if res.Makespan > 0 {
		res.Utilization = float64(res.CPUBusy) / float64(res.Makespan)
		res.Throughput = n / float64(res.Makespan)
	}
	return res
}

// Process returns the statistics of pid.
func (r *Result) Process(pid int) (Stats, bool) {
	for _, s := range r.Processes {
		if s.PID == pid {
			return s, true
		}
	}
	return Stats{}, false
}

// CrossCheck runs procs under both strategies and fails unless they produce
// the same statistics, timeline and event stream. It returns the event
// strategy's result and its status events.
func CrossCheck(ctx context.Context, cfg Config, procs []job.Description, logger *slog.Logger) (*Result, []StatusEvent, error) {
	run := func(s Strategy) (*Result, []StatusEvent, error) {
		c := cfg
		c.Strategy = s
		c.EventLog = "" // one run writes the log at most
		if s == cfg.Strategy {
			c.EventLog = cfg.EventLog
		}
		d, err := New(c, procs)
		if err != nil {
			return nil, nil, err
		}
		d.SetLogger(logger)
		if c.EventLog != "" {
			if err := d.EnableCSVLogging(c.EventLog); err != nil {
				return nil, nil, err
			}
		}
		res, err := d.Run(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("%s strategy: %w", s, err)
		}
		return res, d.Events(), nil
	}

	evRes, evEvents, err := run(StrategyEvent)
	if err != nil {
		return nil, nil, err
	}
	tickRes, tickEvents, err := run(StrategyTick)
	if err != nil {
		return nil, nil, err
	}

	if !slices.Equal(evRes.Processes, tickRes.Processes) {
		return nil, nil, fmt.Errorf("%w: per-process statistics differ", ErrStrategyMismatch)
	}
	if !slices.Equal(evRes.Timeline, tickRes.Timeline) {
		return nil, nil, fmt.Errorf("%w: timelines differ", ErrStrategyMismatch)
	}
	if !slices.Equal(evEvents, tickEvents) {
		return nil, nil, fmt.Errorf("%w: event streams differ", ErrStrategyMismatch)
	}
	return evRes, evEvents, nil
}
