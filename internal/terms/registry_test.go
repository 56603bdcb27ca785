// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package terms

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_TrimsAndDeduplicates(t *testing.T) {
	r := NewRegistry([]string{" secret ", "", "token", "secret", "  "})

	require.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"secret", "token"}, r.Words())
}

func TestRegistry_AddAndReset(t *testing.T) {
	r := NewRegistry([]string{"alpha", "beta"})

	assert.True(t, r.Add("alpha", 2))
	assert.True(t, r.Add("alpha", 3))
	assert.False(t, r.Add("gamma", 1), "unknown words are not counted")

	assert.Equal(t, 5, r.Count("alpha"))
	assert.Equal(t, 0, r.Count("beta"))
	assert.Equal(t, 0, r.Count("gamma"))

	r.Reset()
	assert.Equal(t, []WordCount{{Word: "alpha"}, {Word: "beta"}}, r.Snapshot())
}

func TestRegistry_ConcurrentAdd(t *testing.T) {
	r := NewRegistry([]string{"word"})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.Add("word", 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5000, r.Count("word"))
}
