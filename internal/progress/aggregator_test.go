// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"censor-scan/internal/report"
	"censor-scan/internal/terms"
)

func startAggregator(t *testing.T, words ...string) *Aggregator {
	t.Helper()
	agg := New(terms.NewRegistry(words), nil)
	go agg.Start()
	t.Cleanup(agg.Stop)
	agg.Reset(1)
	return agg
}

func TestAggregator_CountsAndOrder(t *testing.T) {
	agg := startAggregator(t, "secret", "token")
	pub := agg.Publisher(1)

	pub.DirectoryDiscovered("/a")
	pub.DirectoryDiscovered("/a/b")
	pub.DirectoryScanned("/a")
	pub.FileMatched(report.FileEntry{Path: "/a/1.txt", Words: []terms.WordCount{{Word: "secret", Count: 2}}})
	pub.FileAnalyzed("/a/1.txt")
	pub.FileAnalyzed("/a/2.txt")
	pub.FileMatched(report.FileEntry{Path: "/a/3.txt", Words: []terms.WordCount{{Word: "secret", Count: 1}, {Word: "token", Count: 4}}})
	pub.FileAnalyzed("/a/3.txt")
	agg.Flush()

	snap := agg.Snapshot()
	assert.Equal(t, uint64(1), snap.Epoch)
	assert.Equal(t, 2, snap.TotalDirectories)
	assert.Equal(t, 1, snap.CurrentDirectories)
	assert.Equal(t, 3, snap.AnalysedFiles)
	assert.Equal(t, 3, agg.AnalysedFiles())
	assert.Equal(t, []string{"/a/3.txt", "/a/2.txt", "/a/1.txt"}, snap.RecentFiles)
	require.Len(t, snap.MatchedFiles, 2)
	assert.Equal(t, "/a/3.txt", snap.MatchedFiles[0].Path)
	assert.Equal(t, []terms.WordCount{{Word: "secret", Count: 3}, {Word: "token", Count: 4}}, snap.Terms)
}

func TestAggregator_TermTotalsEqualFileSums(t *testing.T) {
	agg := startAggregator(t, "a", "b")

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pub := agg.Publisher(1)
			pub.FileMatched(report.FileEntry{
				Path:  fmt.Sprintf("/f%d", i),
				Words: []terms.WordCount{{Word: "a", Count: i + 1}, {Word: "b", Count: 1}},
			})
			pub.FileAnalyzed(fmt.Sprintf("/f%d", i))
		}()
	}
	wg.Wait()
	agg.Flush()

	snap := agg.Snapshot()
	sums := map[string]int{}
	for _, f := range snap.MatchedFiles {
		for _, w := range f.Words {
			sums[w.Word] += w.Count
		}
	}
	for _, term := range snap.Terms {
		assert.Equal(t, sums[term.Word], term.Count, term.Word)
	}
	assert.Equal(t, 50, snap.AnalysedFiles)
}

func TestAggregator_RecentFilesCapped(t *testing.T) {
	agg := startAggregator(t, "x")
	pub := agg.Publisher(1)

	for i := range MaxRecentFiles + 25 {
		pub.FileAnalyzed(fmt.Sprintf("/f%03d", i))
	}
	agg.Flush()

	snap := agg.Snapshot()
	assert.Equal(t, MaxRecentFiles+25, snap.AnalysedFiles)
	require.Len(t, snap.RecentFiles, MaxRecentFiles)
	assert.Equal(t, "/f124", snap.RecentFiles[0])
	assert.Equal(t, "/f025", snap.RecentFiles[MaxRecentFiles-1])
}

func TestAggregator_StaleEpochDropped(t *testing.T) {
	agg := startAggregator(t, "secret")
	old := agg.Publisher(1)
	old.FileAnalyzed("/before")
	agg.Flush()

	agg.Reset(2)
	old.FileAnalyzed("/late")
	old.FileMatched(report.FileEntry{Path: "/late", Words: []terms.WordCount{{Word: "secret", Count: 9}}})
	agg.Publisher(2).DirectoryDiscovered("/new")
	agg.Flush()

	snap := agg.Snapshot()
	assert.Equal(t, uint64(2), snap.Epoch)
	assert.Equal(t, 0, snap.AnalysedFiles)
	assert.Empty(t, snap.RecentFiles)
	assert.Empty(t, snap.MatchedFiles)
	assert.Equal(t, 1, snap.TotalDirectories)
	assert.Equal(t, []terms.WordCount{{Word: "secret", Count: 0}}, snap.Terms)
}

func TestAggregator_ChangesCoalesce(t *testing.T) {
	agg := startAggregator(t, "x")
	<-agg.Changes()

	pub := agg.Publisher(1)
	pub.FileAnalyzed("/a")
	pub.FileAnalyzed("/b")
	agg.Flush()

	select {
	case <-agg.Changes():
	default:
		t.Fatal("expected a change notification")
	}
}

func TestAggregator_PublishAfterStopDoesNotBlock(t *testing.T) {
	agg := New(terms.NewRegistry([]string{"x"}), nil)
	go agg.Start()
	agg.Stop()

	agg.Publisher(0).FileAnalyzed("/a")
	agg.Flush()
}

func TestShortenPath(t *testing.T) {
	short := "/home/user/file.txt"
	assert.Equal(t, short, ShortenPath(short))

	exact := strings.Repeat("a", 43)
	assert.Equal(t, exact, ShortenPath(exact))

	long := strings.Repeat("h", 20) + strings.Repeat("m", 10) + strings.Repeat("t", 20)
	assert.Equal(t, strings.Repeat("h", 20)+"..."+strings.Repeat("t", 20), ShortenPath(long))
}
