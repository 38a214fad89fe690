package job

import (
	"fmt"
	"math"
)

// Description is the immutable definition of one process as read from the
// process-definition file. The simulator copies it into a live record at the
// process's arrival time and never modifies it.
type Description struct {
	PID       int
	Arrival   int64
	Priority  int     // lower value means higher priority
	CPUBursts []int64 // CPU burst lengths, in order
	IOBursts  []int64 // I/O burst lengths, in order; interleaved after each CPU burst
}

// Validate checks the burst structure: at least one CPU burst, CPU first and
// alternating, every burst strictly positive and at most one I/O burst per
// CPU burst. Process IDs must be non-negative; negative values are reserved
// for the idle CPU in timelines and status events.
func (d Description) Validate() error {
	if d.PID < 0 {
		return fmt.Errorf("negative process ID %d", d.PID)
	}
	if d.Arrival < 0 {
		return fmt.Errorf("process %d: negative arrival time %d", d.PID, d.Arrival)
	}
	if len(d.CPUBursts) == 0 {
		return fmt.Errorf("process %d: no CPU bursts defined", d.PID)
	}
	if n, m := len(d.CPUBursts), len(d.IOBursts); m != n && m != n-1 {
		return fmt.Errorf("process %d: mismatch between CPU (%d) and I/O (%d) burst counts", d.PID, n, m)
	}
	for i, b := range d.CPUBursts {
		if b <= 0 {
			return fmt.Errorf("process %d: non-positive CPU burst #%d (%d)", d.PID, i+1, b)
		}
	}
	for i, b := range d.IOBursts {
		if b <= 0 {
			return fmt.Errorf("process %d: non-positive I/O burst #%d (%d)", d.PID, i+1, b)
		}
	}
	return nil
}

// TotalCPU is the sum of all CPU bursts.
func (d Description) TotalCPU() int64 { return sum(d.CPUBursts) }

// TotalIO is the sum of all I/O bursts.
func (d Description) TotalIO() int64 { return sum(d.IOBursts) }

// EndsWithIO reports whether the last burst is an I/O burst.
func (d Description) EndsWithIO() bool {
	return len(d.CPUBursts) > 0 && len(d.IOBursts) == len(d.CPUBursts)
}

// Horizon is an upper bound on the virtual time needed to run procs to
// completion: the latest arrival plus every CPU and I/O burst laid end to
// end. It saturates at math.MaxInt64.
func Horizon(procs []Description) int64 {
	var latest, demand int64
	for _, p := range procs {
		latest = max(latest, p.Arrival)
		for _, b := range p.CPUBursts {
			demand = addSat(demand, b)
		}
		for _, b := range p.IOBursts {
			demand = addSat(demand, b)
		}
	}
	return addSat(latest, demand)
}

func addSat(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func sum(xs []int64) int64 {
	var total int64
	for _, x := range xs {
		total += x
	}
	return total
}
