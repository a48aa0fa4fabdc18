package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/quill/internal/config"
	"github.com/vango-dev/quill/pkg/host"
	"github.com/vango-dev/quill/pkg/host/memhost"
	"github.com/vango-dev/quill/pkg/journal"
	"github.com/vango-dev/quill/pkg/quill"
	"github.com/vango-dev/quill/pkg/reconcile"
	"github.com/vango-dev/quill/pkg/telemetry"
)

// engine drives the demo inventory UI into an in-memory host.
type engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	root     *quill.Root
	store    *inventory
	world    *memhost.World
	applier  *host.Applier
	registry *prometheus.Registry
	journals []*journal.Recorder
}

func newEngine(cfg *config.Config, logger *slog.Logger) *engine {
	root := quill.New(
		quill.WithConfig(cfg.ReactiveConfig(logger)),
		quill.WithLogger(logger),
	)
	world := memhost.New()
	registry := prometheus.NewRegistry()
	root.Use(telemetry.Prometheus(
		telemetry.WithRegistry(registry),
		telemetry.WithNamespace(cfg.Metrics.Namespace),
		telemetry.WithSubsystem(cfg.Metrics.Subsystem),
	))
	return &engine{
		cfg:      cfg,
		logger:   logger,
		root:     root,
		store:    newInventory(root.Runtime()),
		world:    world,
		applier:  host.NewApplier(world, world.Root(), host.WithLogger(logger)),
		registry: registry,
	}
}

// useJournals registers recorders for the configured sinks. path overrides
// the configured file.
func (e *engine) useJournals(ctx context.Context, path string) error {
	if path == "" {
		path = e.cfg.Journal.Path
	}
	if path != "" {
		sink, err := journal.OpenFile(path)
		if err != nil {
			return err
		}
		e.addJournal(sink, journal.WithBatchSize(1))
	}
	if s3cfg := e.cfg.Journal.S3; s3cfg.Bucket != "" {
		client, err := journal.NewS3Client(ctx, s3cfg.Region)
		if err != nil {
			return err
		}
		sink := journal.NewS3Sink(client, s3cfg.Bucket, s3cfg.Prefix)
		e.addJournal(sink, journal.WithBatchSize(e.cfg.Journal.BatchSize), journal.WithSkipEmpty())
	}
	return nil
}

func (e *engine) addJournal(sink journal.Sink, opts ...journal.Option) {
	opts = append(opts, journal.WithLogger(e.logger))
	rec := journal.NewRecorder(sink, opts...)
	e.journals = append(e.journals, rec)
	e.root.Use(rec)
}

// start seeds the inventory and mounts the app.
func (e *engine) start(sc *Scenario) error {
	e.store.items.Set(append([]Item(nil), sc.Items...))
	return e.root.Mount(inventoryApp(e.store), nil)
}

// reset restores the scenario's initial state without remounting.
func (e *engine) reset(sc *Scenario) {
	e.store.items.Set(append([]Item(nil), sc.Items...))
	e.store.filter.Set("")
	e.store.sortBy.Set(SortByID)
	e.store.selected.Set("")
}

// tickResult is the outcome of one engine tick.
type tickResult struct {
	Tick   uint64
	Script reconcile.Script
	// Err holds errors the root reported for the tick. The script is still
	// applied.
	Err error
}

// Counts formats the script as "+insert -remove ~move *update".
func (r tickResult) Counts() string {
	return fmt.Sprintf("+%d -%d ~%d *%d",
		r.Script.Count(reconcile.OpInsert),
		r.Script.Count(reconcile.OpRemove),
		r.Script.Count(reconcile.OpMove),
		r.Script.Count(reconcile.OpUpdateProps),
	)
}

// tick flushes the root and applies the edits to the host. A host error
// is returned; root errors are carried in the result.
func (e *engine) tick(ctx context.Context) (tickResult, error) {
	script, err := e.root.Flush(ctx)
	res := tickResult{Tick: e.root.Runtime().Tick(), Script: script, Err: err}
	if err := e.applier.Apply(script); err != nil {
		return res, err
	}
	return res, nil
}

// close flushes and closes every journal.
func (e *engine) close(ctx context.Context) error {
	var errs []error
	for _, rec := range e.journals {
		if err := rec.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
