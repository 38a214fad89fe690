// internal/sched/queue.go

package sched

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/trees/redblacktree"
)

// ErrQueueUnderflow is returned by Dequeue and Peek on an empty queue. The
// dispatcher guards every call with an emptiness check, so seeing it means a
// caller bug.
var ErrQueueUnderflow = errors.New("priority queue underflow")

// BucketQueue maps each priority to a FIFO bucket. Lower priority values are
// served first; items sharing a priority leave in insertion order.
type BucketQueue[T any] struct {
	buckets *redblacktree.Tree // priority -> *linkedlistqueue.Queue, never empty
	size    int
}

// NewBucketQueue creates an empty queue.
func NewBucketQueue[T any]() *BucketQueue[T] {
	return &BucketQueue[T]{
		buckets: redblacktree.NewWithIntComparator(),
	}
}

// Enqueue appends item to the tail of the bucket for priority.
func (q *BucketQueue[T]) Enqueue(item T, priority int) {
	var bucket *linkedlistqueue.Queue
	if v, found := q.buckets.Get(priority); found {
		bucket = v.(*linkedlistqueue.Queue)
	} else {
		bucket = linkedlistqueue.New()
		q.buckets.Put(priority, bucket)
	}
	bucket.Enqueue(item)
	q.size++
}

// Dequeue removes and returns the head of the highest-priority bucket.
func (q *BucketQueue[T]) Dequeue() (T, error) {
	var zero T
	node := q.buckets.Left()
	if node == nil {
		return zero, fmt.Errorf("dequeue: %w", ErrQueueUnderflow)
	}

	bucket := node.Value.(*linkedlistqueue.Queue)
	v, _ := bucket.Dequeue()
	q.size--

	// drop the bucket right away so Left() always points at a live one
	if bucket.Empty() {
		q.buckets.Remove(node.Key)
	}
	return v.(T), nil
}

// Peek returns the item Dequeue would return, without removing it.
func (q *BucketQueue[T]) Peek() (T, error) {
	var zero T
	node := q.buckets.Left()
	if node == nil {
		return zero, fmt.Errorf("peek: %w", ErrQueueUnderflow)
	}
	v, _ := node.Value.(*linkedlistqueue.Queue).Peek()
	return v.(T), nil
}

// PeekPriority returns the priority of the item Peek would return.
func (q *BucketQueue[T]) PeekPriority() (int, error) {
	node := q.buckets.Left()
	if node == nil {
		return 0, fmt.Errorf("peek priority: %w", ErrQueueUnderflow)
	}
	return node.Key.(int), nil
}

// Len returns the number of queued items across all priorities.
func (q *BucketQueue[T]) Len() int { return q.size }

// Empty reports whether the queue holds no items.
func (q *BucketQueue[T]) Empty() bool { return q.size == 0 }

// Clear drops every bucket.
func (q *BucketQueue[T]) Clear() {
	q.buckets.Clear()
	q.size = 0
}

// String renders the queue highest priority first, e.g.
//
//	[1: a b] [3: c]
func (q *BucketQueue[T]) String() string {
	if q.Empty() {
		return "[]"
	}

	var sb strings.Builder
	it := q.buckets.Iterator()
	first := true
	for it.Next() {
		if !first {
			sb.WriteByte(' ')
		}
		first = false

		fmt.Fprintf(&sb, "[%d:", it.Key().(int))
		for _, v := range it.Value().(*linkedlistqueue.Queue).Values() {
			fmt.Fprintf(&sb, " %v", v)
		}
		sb.WriteByte(']')
	}
	return sb.String()
}
