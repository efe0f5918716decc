// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

// Observer receives merge progress. Calls may come from several goroutines
// when Options.Concurrency is above 1.
type Observer interface {
	SourceStarted(src types.Source)
	SourceFinished(count SourceCount)
	MergeFinished(res Result)
}

type nopObserver struct{}

func (nopObserver) SourceStarted(types.Source) {}
func (nopObserver) SourceFinished(SourceCount) {}
func (nopObserver) MergeFinished(Result)       {}

// WriterObserver prints one line per source and a closing total to W.
type WriterObserver struct {
	W io.Writer

	// Progress also prints a line when each source starts loading. Set it
	// only for sequential loads so start lines sit next to their results.
	Progress bool

	mu sync.Mutex
}

// SourceStarted prints the label being loaded when Progress is set.
func (o *WriterObserver) SourceStarted(src types.Source) {
	if !o.Progress {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.W, "loading %s...\n", src.Label)
}

// SourceFinished prints the rows a source contributed, or why it
// contributed none.
func (o *WriterObserver) SourceFinished(c SourceCount) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c.Err != nil {
		fmt.Fprintf(o.W, "%s: 0 rows (warning: %v)\n", c.Label, c.Err)
		return
	}
	fmt.Fprintf(o.W, "%s: %d rows\n", c.Label, c.Rows)
}

// MergeFinished prints the merged total.
func (o *WriterObserver) MergeFinished(res Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.W, "\nmerged: %d rows from %d sources (%d failed)\n",
		res.Total, len(res.Counts), len(res.Failed()))
}

// Recorder keeps every event in memory. Tests and callers that report
// counts elsewhere use it instead of parsing printed lines.
type Recorder struct {
	mu       sync.Mutex
	Started  []string
	Finished []SourceCount
	Results  []Result
}

// SourceStarted records the source label.
func (r *Recorder) SourceStarted(src types.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Started = append(r.Started, src.Label)
}

// SourceFinished records the count.
func (r *Recorder) SourceFinished(c SourceCount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = append(r.Finished, c)
}

// MergeFinished records the result.
func (r *Recorder) MergeFinished(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, res)
}
