package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/quill/internal/config"
	qerrors "github.com/vango-dev/quill/internal/errors"
	"github.com/vango-dev/quill/pkg/journal"
)

func TestParseScenario(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "default", doc: defaultScenario},
		{name: "empty steps", doc: "name: x\nitems: [{id: a, name: A, qty: 1}]\n"},
		{name: "missing id", doc: "items: [{name: A}]\n", wantErr: true},
		{name: "duplicate id", doc: "items: [{id: a}, {id: a}]\n", wantErr: true},
		{name: "two actions", doc: "steps: [{remove: a, sort: qty}]\n", wantErr: true},
		{name: "no action", doc: "steps: [{note: idle}]\n", wantErr: true},
		{name: "bad sort", doc: "steps: [{sort: price}]\n", wantErr: true},
		{name: "unknown field", doc: "steps: [{delete: a}]\n", wantErr: true},
		{name: "set without id", doc: "steps: [{set: {qty: 3}}]\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScenario() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && qerrors.CodeOf(err) != "Q200" {
				t.Errorf("code = %q, want Q200", qerrors.CodeOf(err))
			}
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	if qerrors.CodeOf(err) != "Q200" {
		t.Fatalf("err = %v, want Q200", err)
	}
}

func TestReplayDefaultScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	var out bytes.Buffer
	err := runReplay(context.Background(), &out, config.New(), "", replayOptions{journal: path, dump: true})
	if err != nil {
		t.Fatalf("runReplay: %v\n%s", err, out.String())
	}

	got := out.String()
	if !strings.Contains(got, "scenario restock: 3 items, 7 steps") {
		t.Errorf("missing header:\n%s", got)
	}
	if n := strings.Count(got, "tick "); n != 8 {
		t.Errorf("printed %d ticks, want 8:\n%s", n, got)
	}
	if strings.Contains(got, "reported errors") {
		t.Errorf("unexpected tick errors:\n%s", got)
	}
	for _, line := range strings.Split(got, "\n") {
		if strings.Contains(line, "reorder by quantity") && !strings.HasSuffix(line, "+0 -0 ~1 *0") {
			t.Errorf("sorting should only move one row: %q", line)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	entries, err := journal.ReadEntries(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 8 {
		t.Errorf("journal has %d entries, want 8", len(entries))
	}
}

// TestReplayMatchesFreshMount checks that the host built by applying every
// tick equals the host built by mounting the final state directly.
func TestReplayMatchesFreshMount(t *testing.T) {
	ctx := context.Background()
	sc, err := LoadScenario("")
	if err != nil {
		t.Fatal(err)
	}

	replayed := newEngine(config.New(), config.New().Logger())
	if err := replayed.start(sc); err != nil {
		t.Fatal(err)
	}
	if _, err := replayed.tick(ctx); err != nil {
		t.Fatal(err)
	}
	for _, st := range sc.Steps {
		st.Apply(replayed.store)
		res, err := replayed.tick(ctx)
		if err != nil || res.Err != nil {
			t.Fatalf("step %s: %v %v", st, err, res.Err)
		}
	}

	fresh := newEngine(config.New(), config.New().Logger())
	fresh.store.filter.Set(replayed.store.filter.Peek())
	fresh.store.sortBy.Set(replayed.store.sortBy.Peek())
	fresh.store.selected.Set(replayed.store.selected.Peek())
	if err := fresh.start(&Scenario{Items: replayed.store.items.Peek()}); err != nil {
		t.Fatal(err)
	}
	if _, err := fresh.tick(ctx); err != nil {
		t.Fatal(err)
	}

	if got, want := replayed.world.Dump(), fresh.world.Dump(); got != want {
		t.Errorf("replayed host differs from a fresh mount:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

// tickWriter collects output and cancels once it has seen n tick lines.
type tickWriter struct {
	bytes.Buffer
	n      int
	cancel context.CancelFunc
}

func (w *tickWriter) Write(p []byte) (int, error) {
	if strings.HasPrefix(string(p), "tick ") {
		w.n--
		if w.n == 0 {
			w.cancel()
		}
	}
	return w.Buffer.Write(p)
}

func tickLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "tick ") {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestDrive(t *testing.T) {
	sc, err := LoadScenario("")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		loop  bool
		ticks int
		last  string
	}{
		{name: "stops after the last step", ticks: len(sc.Steps) + 1, last: sc.Steps[len(sc.Steps)-1].String()},
		{name: "loop resets", loop: true, ticks: len(sc.Steps) + 3, last: sc.Steps[0].String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			out := &tickWriter{n: tt.ticks, cancel: cancel}

			e := newEngine(config.New(), config.New().Logger())
			if err := e.start(sc); err != nil {
				t.Fatal(err)
			}
			err := drive(ctx, out, e, sc, serveOptions{interval: time.Millisecond, loop: tt.loop})
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("drive() error = %v, want context.Canceled", err)
			}

			lines := tickLines(out.String())
			if len(lines) != tt.ticks {
				t.Fatalf("printed %d ticks, want %d:\n%s", len(lines), tt.ticks, out.String())
			}
			if !strings.Contains(lines[0], "mount") {
				t.Errorf("first tick should mount: %q", lines[0])
			}
			if !strings.Contains(lines[len(lines)-1], tt.last) {
				t.Errorf("last tick = %q, want step %q", lines[len(lines)-1], tt.last)
			}
			if tt.loop && !strings.Contains(lines[len(sc.Steps)+1], "reset") {
				t.Errorf("tick after the last step should reset: %q", lines[len(sc.Steps)+1])
			}
		})
	}
}

func TestRunServe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	cfg := config.New()
	cfg.Journal.Path = path

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &tickWriter{n: 8, cancel: cancel}

	err := runServe(ctx, out, cfg, "", serveOptions{addr: "127.0.0.1:0", interval: time.Millisecond})
	if err != nil {
		t.Fatalf("runServe: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "devtools on http://127.0.0.1:0") {
		t.Errorf("missing banner:\n%s", out.String())
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	entries, err := journal.ReadEntries(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 8 {
		t.Errorf("journal has %d entries after shutdown, want 8", len(entries))
	}
}

func TestExplain(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"explain"})
		if err := cmd.Execute(); err != nil {
			t.Fatal(err)
		}
		for _, code := range []string{"Q001", "Q002", "Q201"} {
			if !strings.Contains(out.String(), code) {
				t.Errorf("listing misses %s:\n%s", code, out.String())
			}
		}
	})

	t.Run("one code", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"explain", "q002"})
		if err := cmd.Execute(); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "Q002") {
			t.Errorf("output misses Q002:\n%s", out.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"explain", "Q999"})
		if err := cmd.Execute(); qerrors.CodeOf(err) != "Q201" {
			t.Errorf("err = %v, want Q201", err)
		}
	})
}

func TestVersionShort(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != version+"\n" {
		t.Errorf("version = %q", got)
	}
}
