// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package workqueue

import "sync"

// Task is a directory waiting to be scanned
type Task struct {
	Path string
	// Epoch identifies the run that discovered the directory
	Epoch uint64
}

// Queue is a concurrency-safe FIFO of directory tasks
type Queue struct {
	mu    sync.Mutex
	items []Task
	head  int
}

// New creates an empty queue
func New() *Queue {
	return &Queue{}
}

// Push appends a task to the tail
func (q *Queue) Push(t Task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()
}

// PushIf appends t only when live reports true. live runs under the queue
// lock, so a concurrent Clear either sees the task or the task is refused.
func (q *Queue) PushIf(t Task, live func() bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !live() {
		return false
	}
	q.items = append(q.items, t)
	return true
}

// Peek returns the head task without removing it
func (q *Queue) Peek() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head >= len(q.items) {
		return Task{}, false
	}
	return q.items[q.head], true
}

// Pop removes and returns the head task
func (q *Queue) Pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head >= len(q.items) {
		return Task{}, false
	}
	t := q.items[q.head]
	q.items[q.head] = Task{}
	q.head++

	// Compact once the consumed prefix dominates the backing array.
	if q.head > 1024 && q.head*2 >= len(q.items) {
		q.items = append([]Task(nil), q.items[q.head:]...)
		q.head = 0
	}
	return t, true
}

// Len returns the number of pending tasks
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Clear drops every pending task
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.head = 0
	q.mu.Unlock()
}
