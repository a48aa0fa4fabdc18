package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/quill/internal/config"
)

type replayOptions struct {
	journal string
	edits   bool
	dump    bool
}

func replayCmd() *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay [scenario.yaml]",
		Short: "Replay a scenario against the demo UI",
		Long: `Replay runs the demo inventory UI against an in-memory host. Each
scenario step is one tick; the edits of every tick are summarized as
+inserts -removes ~moves *prop updates.

Without a scenario file the built-in restock scenario runs.

Examples:
  quill replay
  quill replay restock.yaml --edits
  quill replay restock.yaml --journal ticks.jsonl --dump`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runReplay(cmd.Context(), cmd.OutOrStdout(), cfg, path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.journal, "journal", "j", "", "Append tick entries to this JSON-lines file")
	cmd.Flags().BoolVarP(&opts.edits, "edits", "e", false, "Print every edit")
	cmd.Flags().BoolVar(&opts.dump, "dump", false, "Print the host tree after the last tick")

	return cmd
}

func runReplay(ctx context.Context, out io.Writer, cfg *config.Config, path string, opts replayOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}

	e := newEngine(cfg, cfg.Logger())
	if err := e.useJournals(ctx, opts.journal); err != nil {
		return err
	}
	if err := e.start(sc); err != nil {
		return err
	}

	fmt.Fprintf(out, "scenario %s: %d items, %d steps\n\n", sc.Name, len(sc.Items), len(sc.Steps))

	failed := 0
	run := func(label string) error {
		res, err := e.tick(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "tick %-3d %-28s %s\n", res.Tick, label, res.Counts())
		if opts.edits && len(res.Script) > 0 {
			for _, line := range strings.Split(strings.TrimRight(res.Script.String(), "\n"), "\n") {
				info(out, "  %s", line)
			}
		}
		if res.Err != nil {
			failed++
			warn(out, "%v", res.Err)
		}
		return nil
	}

	if err := run("mount"); err != nil {
		return err
	}
	for _, st := range sc.Steps {
		st.Apply(e.store)
		label := st.String()
		if st.Note != "" {
			label = st.Note
		}
		if err := run(label); err != nil {
			return err
		}
	}

	fmt.Fprintln(out)
	stats := e.world.Stats()
	success(out, "%d ticks, %d entities, %d materialized, %d despawned, %d prop updates",
		len(sc.Steps)+1, e.world.Len(), stats.Materialized, stats.Despawned, stats.PropUpdates)
	if failed > 0 {
		warn(out, "%d ticks reported errors", failed)
	}
	if opts.dump {
		fmt.Fprintln(out)
		fmt.Fprint(out, e.world.Dump())
	}
	return e.close(ctx)
}
