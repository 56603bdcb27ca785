// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGate_ProceedFollowsState(t *testing.T) {
	g := newGate()
	g.set(Started, 3)

	assert.True(t, g.proceed(3))
	assert.False(t, g.proceed(2))

	g.set(Idle, 4)
	assert.False(t, g.proceed(3))
	assert.False(t, g.proceed(4))
}

func TestGate_CurrentDoesNotBlock(t *testing.T) {
	g := newGate()
	g.set(Paused, 2)
	assert.True(t, runGate{g: g, epoch: 2}.Current())
	assert.False(t, runGate{g: g, epoch: 1}.Current())

	g.set(Started, 2)
	assert.True(t, g.current(2))

	g.set(Idle, 3)
	assert.False(t, g.current(2))
	assert.False(t, g.current(3))

	g.set(Completed, 3)
	assert.False(t, g.current(3))
}

func TestGate_PausedBlocksUntilResume(t *testing.T) {
	g := newGate()
	g.set(Paused, 1)

	result := make(chan bool, 1)
	go func() { result <- runGate{g: g, epoch: 1}.Proceed() }()

	select {
	case <-result:
		t.Fatal("proceed returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	g.set(Started, 1)
	select {
	case ok := <-result:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("proceed did not wake on resume")
	}
}

func TestGate_PausedReleasedByStop(t *testing.T) {
	g := newGate()
	g.set(Paused, 1)

	result := make(chan bool, 1)
	go func() { result <- g.proceed(1) }()

	g.set(Idle, 2)
	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("proceed did not wake on stop")
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Idle", Idle.String())
	assert.Equal(t, "Started", Started.String())
	assert.Equal(t, "Paused", Paused.String())
	assert.Equal(t, "Completed", Completed.String())
	assert.Equal(t, "BadConfig", BadConfig.String())
}
