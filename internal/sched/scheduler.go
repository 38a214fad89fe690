// internal/sched/scheduler.go

package sched

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"

	"prisched/internal/job"
)

var (
	// ErrInvalidInput is returned for batches the dispatcher cannot admit.
	ErrInvalidInput = errors.New("invalid process batch")
	// ErrInvariant means the time accounting went wrong; it is always a bug.
	ErrInvariant = errors.New("scheduler invariant violated")
)

// recordTable owns every record; handles index into it.
type recordTable []*Record

func (rt recordTable) PriorityOf(h Handle) (int, bool) {
	if h < 0 || int(h) >= len(rt) {
		return 0, false
	}
	return rt[h].Priority, true
}

// Dispatcher runs a preemptive priority schedule over a batch of processes on
// a single virtual CPU.
type Dispatcher struct {
	strategy Strategy
	clock    *TickClock
	policy   *Policy
	records  recordTable

	arrivals    []Handle // ordered by arrival, input order on ties
	nextArrival int
	running     Handle
	waiting     []Handle // in the order they blocked
	terminated  int
	idle        bool
	ran         bool

	events   []StatusEvent
	timeline []Slice

	logger *slog.Logger

	// logging-related
	csvFile   *os.File
	csvWriter *csv.Writer
}

// New validates procs and builds a dispatcher ready to Run.
func New(cfg Config, procs []job.Description) (*Dispatcher, error) {
	if len(procs) == 0 {
		return nil, fmt.Errorf("%w: no processes", ErrInvalidInput)
	}
	strategy, err := ParseStrategy(string(cfg.Strategy))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	records := make(recordTable, 0, len(procs))
	seen := make(map[int]bool, len(procs))
	for _, p := range procs {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if seen[p.PID] {
			return nil, fmt.Errorf("%w: process %d already exists", ErrInvalidInput, p.PID)
		}
		seen[p.PID] = true
		records = append(records, NewRecord(p))
	}

	arrivals := make([]Handle, len(records))
	for i := range records {
		arrivals[i] = Handle(i)
	}
	slices.SortStableFunc(arrivals, func(a, b Handle) int {
		switch {
		case records[a].Arrival < records[b].Arrival:
			return -1
		case records[a].Arrival > records[b].Arrival:
			return 1
		default:
			return 0
		}
	})

	return &Dispatcher{
		strategy: strategy,
		clock:    NewTickClock(),
		policy:   NewPolicy(records),
		records:  records,
		arrivals: arrivals,
		running:  NoHandle,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger routes transition logs to l.
func (d *Dispatcher) SetLogger(l *slog.Logger) {
	if l != nil {
		d.logger = l
	}
}

// EnableCSVLogging opens the given file path for CSV logging of events.
// Must be called before Run().
func (d *Dispatcher) EnableCSVLogging(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create event log: %w", err)
	}
	w := csv.NewWriter(f)

	// write header
	if err := w.Write([]string{"tick", "event", "pid", "priority", "remaining"}); err != nil {
		f.Close()
		return fmt.Errorf("write event log header: %w", err)
	}
	w.Flush()
	d.csvFile = f
	d.csvWriter = w
	return nil
}

// Events returns every status event emitted so far.
func (d *Dispatcher) Events() []StatusEvent { return d.events }

// Record returns the live record behind h.
func (d *Dispatcher) Record(h Handle) (*Record, bool) {
	if h < 0 || int(h) >= len(d.records) {
		return nil, false
	}
	return d.records[h], true
}

// Run drives the simulation until every process has terminated.
func (d *Dispatcher) Run(ctx context.Context) (*Result, error) {
	if d.ran {
		return nil, errors.New("dispatcher already ran")
	}
	d.ran = true
	defer d.closeEventLog()

	d.logger.Info("simulation started",
		slog.String("strategy", string(d.strategy)),
		slog.Int("processes", len(d.records)))

	for {
		// 1) check shutdown
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// 2) apply every transition due at the current instant
		if err := d.settle(); err != nil {
			return nil, err
		}
		if d.terminated == len(d.records) {
			break
		}

		// 3) move the clock to the next instant that can change anything
		delta, err := d.nextDelta()
		if err != nil {
			return nil, err
		}
		if err := d.advance(delta); err != nil {
			return nil, err
		}
	}

	res := d.result()
	d.logger.Info("simulation finished",
		slog.Int64("makespan", res.Makespan),
		slog.Int64("steps", res.Steps),
		slog.Float64("avg_waiting", res.AvgWaiting))
	return res, nil
}

// settle applies, in a fixed order, every transition due at the current
// tick: burst completion of the running process, arrivals, I/O completions,
// then the dispatch or preemption decision.
func (d *Dispatcher) settle() error {
	now := d.clock.Now()

	if d.running != NoHandle {
		h := d.running
		r := d.records[h]
		if r.BurstExhausted() {
			d.running = NoHandle
			if r.HasIOAfterBurst() {
				if err := r.Block(); err != nil {
					return err
				}
				d.waiting = append(d.waiting, h)
				d.emit(StatusBlock, h)
			} else {
				if err := r.Finish(now); err != nil {
					return err
				}
				if err := d.finished(h); err != nil {
					return err
				}
			}
		}
	}

	for d.nextArrival < len(d.arrivals) {
		h := d.arrivals[d.nextArrival]
		r := d.records[h]
		if r.Arrival > now {
			break
		}
		if err := r.Admit(now); err != nil {
			return err
		}
		d.policy.Admit(h)
		d.nextArrival++
		d.emit(StatusAdmit, h)
	}

	kept := d.waiting[:0]
	for _, h := range d.waiting {
		r := d.records[h]
		if !r.BurstExhausted() {
			kept = append(kept, h)
			continue
		}
		if err := r.Wake(now); err != nil {
			return err
		}
		if r.Terminated() {
			if err := d.finished(h); err != nil {
				return err
			}
			continue
		}
		d.policy.Admit(h)
		d.emit(StatusWake, h)
	}
	d.waiting = kept

	if d.running == NoHandle {
		return d.dispatchNext(now)
	}
	if d.policy.ShouldPreempt(d.records[d.running].Priority) {
		h := d.running
		if err := d.records[h].Preempt(); err != nil {
			return err
		}
		d.running = NoHandle
		d.policy.Admit(h)
		d.emit(StatusPreempt, h)
		return d.dispatchNext(now)
	}
	return nil
}

func (d *Dispatcher) dispatchNext(now int64) error {
	h, ok := d.policy.SelectNext()
	if !ok {
		if !d.idle && d.terminated < len(d.records) {
			d.emit(StatusIdle, NoHandle)
		}
		d.idle = true
		return nil
	}
	if err := d.records[h].Dispatch(now); err != nil {
		return err
	}
	d.running = h
	d.idle = false
	d.emit(StatusDispatch, h)
	return nil
}

// finished counts a terminated record and checks its accounting.
func (d *Dispatcher) finished(h Handle) error {
	r := d.records[h]
	d.terminated++
	d.emit(StatusFinish, h)

	s := r.Stats()
	if s.Waiting != r.ReadyTime() {
		return fmt.Errorf("%w: process %d waited %d ticks in the ready queue but formula gives %d",
			ErrInvariant, r.PID, r.ReadyTime(), s.Waiting)
	}
	if s.Waiting < 0 || s.Response < 0 {
		return fmt.Errorf("%w: process %d has negative waiting (%d) or response (%d) time",
			ErrInvariant, r.PID, s.Waiting, s.Response)
	}
	return nil
}

// nextDelta returns how far the clock moves next: always 1 for the tick
// strategy, otherwise the distance to the nearest arrival, burst completion
// or I/O completion.
func (d *Dispatcher) nextDelta() (int64, error) {
	now := d.clock.Now()
	next := int64(math.MaxInt64)

	if d.nextArrival < len(d.arrivals) {
		next = min(next, d.records[d.arrivals[d.nextArrival]].Arrival-now)
	}
	if d.running != NoHandle {
		next = min(next, d.records[d.running].Remaining())
	}
	for _, h := range d.waiting {
		next = min(next, d.records[h].Remaining())
	}

	if next == math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d processes unfinished at tick %d but nothing is pending",
			ErrInvariant, len(d.records)-d.terminated, now)
	}
	if next <= 0 {
		return 0, fmt.Errorf("%w: next event at tick %d is not in the future of %d",
			ErrInvariant, now+next, now)
	}
	if d.strategy == StrategyTick {
		return 1, nil
	}
	return next, nil
}

// advance charges delta ticks to every active record, then moves the clock.
func (d *Dispatcher) advance(delta int64) error {
	now := d.clock.Now()

	if d.running != NoHandle {
		r := d.records[d.running]
		if err := r.Execute(delta); err != nil {
			return err
		}
		d.appendSlice(r.PID, now, now+delta)
	} else {
		d.appendSlice(IdlePID, now, now+delta)
	}

	for _, h := range d.waiting {
		if err := d.records[h].PerformIO(delta); err != nil {
			return err
		}
	}
	for _, r := range d.records {
		if r.State() == StateReady {
			if err := r.AccrueReady(delta); err != nil {
				return err
			}
		}
	}

	return d.clock.Advance(delta)
}

func (d *Dispatcher) appendSlice(pid int, start, stop int64) {
	if n := len(d.timeline); n > 0 {
		last := &d.timeline[n-1]
		if last.PID == pid && last.Stop == start {
			last.Stop = stop
			return
		}
	}
	d.timeline = append(d.timeline, Slice{PID: pid, Start: start, Stop: stop})
}

func (d *Dispatcher) emit(kind StatusKind, h Handle) {
	ev := StatusEvent{
		Tick: d.clock.Now(),
		Kind: kind,
		PID:  IdlePID,
	}
	if h != NoHandle {
		r := d.records[h]
		ev.PID = r.PID
		ev.Priority = r.Priority
		ev.Remaining = r.Remaining()
	}
	d.events = append(d.events, ev)

	if d.logger.Enabled(context.Background(), slog.LevelDebug) {
		d.logger.Debug("transition",
			slog.Int64("tick", ev.Tick),
			slog.String("event", kind.String()),
			slog.Int("pid", ev.PID),
			slog.Int64("remaining", ev.Remaining),
			slog.String("ready", d.policy.String()))
	}

	// CSV output
	if d.csvWriter != nil {
		rec := []string{
			strconv.FormatInt(ev.Tick, 10),
			kind.String(),
			strconv.Itoa(ev.PID),
			strconv.Itoa(ev.Priority),
			strconv.FormatInt(ev.Remaining, 10),
		}
		if err := d.csvWriter.Write(rec); err != nil {
			d.logger.Warn("event log write failed", slog.Any("error", err))
		}
		d.csvWriter.Flush()
	}
}

func (d *Dispatcher) closeEventLog() {
	if d.csvFile == nil {
		return
	}
	d.csvWriter.Flush()
	if err := d.csvWriter.Error(); err != nil {
		d.logger.Warn("event log flush failed", slog.Any("error", err))
	}
	d.csvFile.Close()
	d.csvFile = nil
	d.csvWriter = nil
}

// Simulate builds a dispatcher from cfg, runs it and returns its result.
func Simulate(ctx context.Context, cfg Config, procs []job.Description, logger *slog.Logger) (*Result, error) {
	d, err := New(cfg, procs)
	if err != nil {
		return nil, err
	}
	d.SetLogger(logger)
	if cfg.EventLog != "" {
		if err := d.EnableCSVLogging(cfg.EventLog); err != nil {
			return nil, err
		}
	}
	return d.Run(ctx)
}
