// internal/sched/policy.go

package sched

// PriorityLookup resolves a handle to the priority of the process behind it.
// ok is false for handles that do not name a live process.
type PriorityLookup interface {
	PriorityOf(h Handle) (priority int, ok bool)
}

// Policy is the preemptive priority policy. It orders ready handles but does
// not own the records they point at.
type Policy struct {
	ready  *BucketQueue[Handle]
	lookup PriorityLookup
}

// NewPolicy creates a policy with an empty ready queue.
func NewPolicy(lookup PriorityLookup) *Policy {
	return &Policy{
		ready:  NewBucketQueue[Handle](),
		lookup: lookup,
	}
}

// Admit queues h at its process's priority. Absent handles are ignored.
func (p *Policy) Admit(h Handle) {
	if h == NoHandle {
		return
	}
	prio, ok := p.lookup.PriorityOf(h)
	if !ok {
		return
	}
	p.ready.Enqueue(h, prio)
}

// SelectNext removes and returns the highest-priority ready handle.
func (p *Policy) SelectNext() (Handle, bool) {
	if p.ready.Empty() {
		return NoHandle, false
	}
	h, err := p.ready.Dequeue()
	if err != nil {
		return NoHandle, false
	}
	return h, true
}

// PeekNext returns the handle SelectNext would return without removing it.
func (p *Policy) PeekNext() (Handle, bool) {
	if p.ready.Empty() {
		return NoHandle, false
	}
	h, err := p.ready.Peek()
	if err != nil {
		return NoHandle, false
	}
	return h, true
}

func (p *Policy) IsEmpty() bool { return p.ready.Empty() }
func (p *Policy) Len() int      { return p.ready.Len() }

// ShouldPreempt reports whether the head of the ready queue strictly outranks
// a running process of the given priority. Equal priorities keep the
// incumbent.
func (p *Policy) ShouldPreempt(runningPriority int) bool {
	if p.ready.Empty() {
		return false
	}
	prio, err := p.ready.PeekPriority()
	if err != nil {
		return false
	}
	return prio < runningPriority
}

func (p *Policy) String() string { return p.ready.String() }
