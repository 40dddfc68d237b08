package builder

import (
	"sort"
	"time"
)

// FileFailure records a file whose indexing stopped on an error. Postings
// inserted before the error stay in the stores.
type FileFailure struct {
	Path string
	Err  error
}

// Report summarises one build. FilesIndexed + FilesSkipped + FilesFailed
// equals FilesTotal for a build that was not cancelled.
type Report struct {
	FilesTotal   int
	FilesIndexed int
	FilesSkipped int
	FilesFailed  int
	Tokens       int64
	Failures     []FileFailure
	Duration     time.Duration
}

func (r *Report) HasFailures() bool {
	return r.FilesFailed > 0
}

func (r *Report) sortFailures() {
	sort.Slice(r.Failures, func(i, j int) bool {
		return r.Failures[i].Path < r.Failures[j].Path
	})
}
