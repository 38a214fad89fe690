package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeTable map[Handle]int

func (f fakeTable) PriorityOf(h Handle) (int, bool) {
	p, ok := f[h]
	return p, ok
}

func TestPolicy_AdmitIgnoresAbsentHandles(t *testing.T) {
	p := NewPolicy(fakeTable{0: 1})
	p.Admit(NoHandle)
	p.Admit(Handle(7))
	assert.True(t, p.IsEmpty())

	p.Admit(Handle(0))
	assert.Equal(t, 1, p.Len())
}

func TestPolicy_SelectAndPeek(t *testing.T) {
	p := NewPolicy(fakeTable{0: 3, 1: 1, 2: 3, 3: 1})

	h, ok := p.SelectNext()
	assert.False(t, ok)
	assert.Equal(t, NoHandle, h)
	_, ok = p.PeekNext()
	assert.False(t, ok)

	for _, h := range []Handle{0, 1, 2, 3} {
		p.Admit(h)
	}

	peeked, ok := p.PeekNext()
	assert.True(t, ok)
	assert.Equal(t, Handle(1), peeked)
	assert.Equal(t, 4, p.Len())

	var order []Handle
	for !p.IsEmpty() {
		h, ok := p.SelectNext()
		assert.True(t, ok)
		order = append(order, h)
	}
	assert.Equal(t, []Handle{1, 3, 0, 2}, order)
}

func TestPolicy_ShouldPreempt(t *testing.T) {
	tests := []struct {
		name    string
		ready   []Handle
		running int
		want    bool
	}{
		{"empty queue", nil, 5, false},
		{"strictly higher priority waiting", []Handle{0}, 3, true},
		{"equal priority keeps incumbent", []Handle{1}, 2, false},
		{"lower priority waiting", []Handle{2}, 2, false},
		{"head decides", []Handle{2, 0}, 2, true},
	}
	table := fakeTable{0: 1, 1: 2, 2: 7}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(table)
			for _, h := range tt.ready {
				p.Admit(h)
			}
			assert.Equal(t, tt.want, p.ShouldPreempt(tt.running))
			assert.Equal(t, len(tt.ready), p.Len(), "ShouldPreempt must not consume the queue")
		})
	}
}
