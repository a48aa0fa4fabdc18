package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	qerrors "github.com/vango-dev/quill/internal/errors"
	"github.com/vango-dev/quill/pkg/quill"
	"github.com/vango-dev/quill/pkg/reactive"
	"github.com/vango-dev/quill/pkg/reconcile"
)

// Entry is one recorded tick.
type Entry struct {
	Tick      uint64              `json:"tick"`
	Time      time.Time           `json:"time"`
	Edits     reconcile.Script    `json:"edits,omitempty"`
	Stats     reactive.FlushStats `json:"stats"`
	Instances int                 `json:"instances"`
	Errors    []ErrorEntry        `json:"errors,omitempty"`
}

// ErrorEntry is one tick error.
type ErrorEntry struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// NewEntry converts a tick report.
func NewEntry(report quill.TickReport, now time.Time) Entry {
	e := Entry{
		Tick:      report.Tick,
		Time:      now.UTC(),
		Edits:     report.Edits,
		Stats:     report.Stats,
		Instances: report.Instances,
	}
	for _, err := range splitErrors(report.Err) {
		e.Errors = append(e.Errors, ErrorEntry{Code: qerrors.CodeOf(err), Message: err.Error()})
	}
	return e
}

func splitErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, splitErrors(e)...)
		}
		return out
	}
	return []error{err}
}

// ReadEntries decodes a JSON-lines journal.
func ReadEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return entries, fmt.Errorf("journal: line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
