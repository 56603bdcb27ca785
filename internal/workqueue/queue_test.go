// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package workqueue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := New()
	q.Push(Task{Path: "/a"})
	q.Push(Task{Path: "/b"})

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "/a", head.Path)
	assert.Equal(t, 2, q.Len(), "peek must not consume")

	first, _ := q.Pop()
	second, _ := q.Pop()
	_, ok = q.Pop()

	assert.Equal(t, "/a", first.Path)
	assert.Equal(t, "/b", second.Path)
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PushIf(t *testing.T) {
	q := New()
	live := true

	assert.True(t, q.PushIf(Task{Path: "/a", Epoch: 1}, func() bool { return live }))
	live = false
	assert.False(t, q.PushIf(Task{Path: "/b", Epoch: 1}, func() bool { return live }))

	assert.Equal(t, 1, q.Len())
	head, _ := q.Peek()
	assert.Equal(t, "/a", head.Path)
}

func TestQueue_Clear(t *testing.T) {
	q := New()
	for i := range 10 {
		q.Push(Task{Path: fmt.Sprintf("/d%d", i)})
	}
	q.Clear()

	assert.Equal(t, 0, q.Len())
	_, ok := q.Peek()
	assert.False(t, ok)
}

func TestQueue_CompactionKeepsOrder(t *testing.T) {
	q := New()
	for i := range 3000 {
		q.Push(Task{Path: fmt.Sprintf("/d%d", i)})
	}
	for i := range 2000 {
		task, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("/d%d", i), task.Path)
	}

	next, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "/d2000", next.Path)
	assert.Equal(t, 999, q.Len())
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := New()
	var wg sync.WaitGroup
	for p := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 250 {
				q.Push(Task{Path: fmt.Sprintf("/p%d/%d", p, i)})
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for {
		task, ok := q.Pop()
		if !ok {
			break
		}
		seen[task.Path] = true
	}
	assert.Len(t, seen, 2000)
}
