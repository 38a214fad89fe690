// internal/sched/process.go

package sched

import (
	"errors"
	"fmt"

	"prisched/internal/job"
)

// Handle identifies a record in the dispatcher's record table.
type Handle int

// NoHandle is the absent handle (idle CPU, empty queue).
const NoHandle Handle = -1

// unset marks a time statistic that is not known yet.
const unset int64 = -1

// State is a process lifecycle state.
type State int

const (
	StateNew State = iota
	StateReady
	StateRunning
	StateWaiting
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateWaiting:
		return "Waiting"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// ErrInvalidTransition is wrapped by every TransitionError.
var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError describes a state change outside the lifecycle table.
type TransitionError struct {
	PID    int
	From   State
	Action string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("process %d: cannot %s from %s", e.PID, e.Action, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Record is the live, mutable state of one process. It is created from a
// job.Description at arrival and only the dispatcher mutates it.
type Record struct {
	PID      int
	Priority int // 0 is the highest priority
	Arrival  int64

	cpuBursts []int64
	ioBursts  []int64

	state      State
	burstIndex int   // index of the current (or last consumed) CPU burst
	remaining  int64 // units left in the current CPU or I/O burst

	start      int64
	completion int64
	turnaround int64
	waiting    int64
	response   int64
	cpuTime    int64
	ioTime     int64
	readyTime  int64 // incremental waiting counter, checked against the formula
}

// NewRecord copies d into a fresh record in the New state.
func NewRecord(d job.Description) *Record {
	return &Record{
		PID:        d.PID,
		Priority:   d.Priority,
		Arrival:    d.Arrival,
		cpuBursts:  append([]int64(nil), d.CPUBursts...),
		ioBursts:   append([]int64(nil), d.IOBursts...),
		state:      StateNew,
		start:      unset,
		completion: unset,
		turnaround: unset,
		waiting:    unset,
		response:   unset,
	}
}

func (r *Record) State() State         { return r.state }
func (r *Record) Remaining() int64     { return r.remaining }
func (r *Record) BurstIndex() int      { return r.burstIndex }
func (r *Record) ReadyTime() int64     { return r.readyTime }
func (r *Record) Terminated() bool     { return r.state == StateTerminated }
func (r *Record) BurstExhausted() bool { return r.remaining == 0 }

func (r *Record) invalid(action, reason string) error {
	return &TransitionError{PID: r.PID, From: r.state, Action: action, Reason: reason}
}

// Admit moves New to Ready and loads the first CPU burst.
func (r *Record) Admit(t int64) error {
	if r.state != StateNew {
		return r.invalid("admit", "")
	}
	if t < r.Arrival {
		return r.invalid("admit", fmt.Sprintf("time %d is before arrival %d", t, r.Arrival))
	}
	r.burstIndex = 0
	r.remaining = r.cpuBursts[0]
	r.state = StateReady
	return nil
}

// Dispatch moves Ready to Running. The first dispatch fixes the start and
// response times.
func (r *Record) Dispatch(t int64) error {
	if r.state != StateReady {
		return r.invalid("dispatch", "")
	}
	if r.start == unset {
		r.start = t
		r.response = t - r.Arrival
	}
	r.state = StateRunning
	return nil
}

// Preempt moves Running back to Ready. No work is lost.
func (r *Record) Preempt() error {
	if r.state != StateRunning {
		return r.invalid("preempt", "")
	}
	r.state = StateReady
	return nil
}

// Execute charges d units of CPU time to the running burst.
func (r *Record) Execute(d int64) error {
	if r.state != StateRunning {
		return r.invalid("execute", "")
	}
	if d < 0 || d > r.remaining {
		return r.invalid("execute", fmt.Sprintf("%d units with %d remaining", d, r.remaining))
	}
	r.remaining -= d
	r.cpuTime += d
	return nil
}

// Block moves Running to Waiting once the CPU burst is exhausted and an I/O
// burst follows it. burstIndex keeps pointing at the CPU burst just consumed.
func (r *Record) Block() error {
	if r.state != StateRunning {
		return r.invalid("block", "")
	}
	if r.remaining != 0 {
		return r.invalid("block", fmt.Sprintf("%d units left in CPU burst", r.remaining))
	}
	if r.burstIndex >= len(r.ioBursts) {
		return r.invalid("block", "no I/O burst follows")
	}
	r.remaining = r.ioBursts[r.burstIndex]
	r.state = StateWaiting
	return nil
}

// PerformIO charges d units of I/O time to the waiting burst.
func (r *Record) PerformIO(d int64) error {
	if r.state != StateWaiting {
		return r.invalid("perform I/O", "")
	}
	if d < 0 || d > r.remaining {
		return r.invalid("perform I/O", fmt.Sprintf("%d units with %d remaining", d, r.remaining))
	}
	r.remaining -= d
	r.ioTime += d
	return nil
}

// AccrueReady charges d units spent in the ready queue.
func (r *Record) AccrueReady(d int64) error {
	if r.state != StateReady {
		return r.invalid("accrue ready time", "")
	}
	r.readyTime += d
	return nil
}

// Wake ends an exhausted I/O burst. The record becomes Ready with its next CPU
// burst loaded, or Terminated at t when that I/O burst was the last burst.
func (r *Record) Wake(t int64) error {
	if r.state != StateWaiting {
		return r.invalid("wake", "")
	}
	if r.remaining != 0 {
		return r.invalid("wake", fmt.Sprintf("%d units left in I/O burst", r.remaining))
	}
	if r.burstIndex+1 >= len(r.cpuBursts) {
		r.terminate(t)
		return nil
	}
	r.burstIndex++
	r.remaining = r.cpuBursts[r.burstIndex]
	r.state = StateReady
	return nil
}

// Finish terminates a running record whose final CPU burst is exhausted.
func (r *Record) Finish(t int64) error {
	if r.state != StateRunning {
		return r.invalid("finish", "")
	}
	if r.remaining != 0 {
		return r.invalid("finish", fmt.Sprintf("%d units left in CPU burst", r.remaining))
	}
	if r.burstIndex != len(r.cpuBursts)-1 || len(r.ioBursts) > r.burstIndex {
		return r.invalid("finish", "bursts remain")
	}
	r.terminate(t)
	return nil
}

// HasIOAfterBurst reports whether an I/O burst follows the current CPU burst.
func (r *Record) HasIOAfterBurst() bool { return r.burstIndex < len(r.ioBursts) }

func (r *Record) terminate(t int64) {
	r.completion = t
	r.turnaround = t - r.Arrival
	r.waiting = r.turnaround - r.cpuTime - r.ioTime
	r.state = StateTerminated
}

// Stats is a snapshot of a record's timing statistics. Times not known yet
// are -1.
type Stats struct {
	PID        int   `json:"pid"`
	Priority   int   `json:"priority"`
	Arrival    int64 `json:"arrival"`
	Start      int64 `json:"start"`
	Completion int64 `json:"completion"`
	Turnaround int64 `json:"turnaround"`
	Waiting    int64 `json:"waiting"`
	Response   int64 `json:"response"`
	CPUTime    int64 `json:"cpu_time"`
	IOTime     int64 `json:"io_time"`
}

func (r *Record) Stats() Stats {
	return Stats{
		PID:        r.PID,
		Priority:   r.Priority,
		Arrival:    r.Arrival,
		Start:      r.start,
		Completion: r.completion,
		Turnaround: r.turnaround,
		Waiting:    r.waiting,
		Response:   r.response,
		CPUTime:    r.cpuTime,
		IOTime:     r.ioTime,
	}
}
