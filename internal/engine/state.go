// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of the engine
type State uint8

const (
	Idle State = iota
	Started
	Paused
	Completed
	BadConfig
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Started:
		return "Started"
	case Paused:
		return "Paused"
	case Completed:
		return "Completed"
	case BadConfig:
		return "BadConfig"
	default:
		return "Unknown"
	}
}

// gate holds the state together with the epoch of the current run in one
// word. Every fresh run and every Stop moves the epoch on, so work captured
// by an older run sees the mismatch and abandons itself.
type gate struct {
	word atomic.Uint64
	mu   sync.Mutex
	cond *sync.Cond
}

func newGate() *gate {
	g := &gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func pack(s State, epoch uint64) uint64 {
	return epoch<<8 | uint64(s)
}

func (g *gate) load() (State, uint64) {
	w := g.word.Load()
	return State(w & 0xff), w >> 8
}

func (g *gate) state() State {
	s, _ := g.load()
	return s
}

// set publishes a new state and wakes every paused worker
func (g *gate) set(s State, epoch uint64) {
	g.mu.Lock()
	g.word.Store(pack(s, epoch))
	g.mu.Unlock()
	g.cond.Broadcast()
}

// proceed blocks while the run of epoch is paused. It returns true while
// that run is started and false once it was stopped, completed or replaced.
func (g *gate) proceed(epoch uint64) bool {
	for {
		s, e := g.load()
		if e != epoch {
			return false
		}
		switch s {
		case Started:
			return true
		case Paused:
			g.mu.Lock()
			for g.word.Load() == pack(Paused, epoch) {
				g.cond.Wait()
			}
			g.mu.Unlock()
		default:
			return false
		}
	}
}

// current reports whether the run of epoch is still started or paused
func (g *gate) current(epoch uint64) bool {
	s, e := g.load()
	return e == epoch && (s == Started || s == Paused)
}

// runGate binds the gate to one run for the crawler and the censor engine
type runGate struct {
	g     *gate
	epoch uint64
}

func (r runGate) Proceed() bool {
	return r.g.proceed(r.epoch)
}

func (r runGate) Current() bool {
	return r.g.current(r.epoch)
}
