// Package config provides configuration parsing for quill projects.
//
// The configuration is stored in quill.json at the project root. It tunes
// the reactive runtime and the tooling around it (logging, metrics,
// tracing, the devtools server and the tick journal). The core packages
// never read it directly; the CLI loads it and hands the relevant parts
// to each component.
//
// # Configuration File Structure
//
//	{
//	  "runtime": {
//	    "maxPasses": 32,
//	    "batching": "tick",
//	    "maxEvaluationsPerFlush": 0
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "metrics": {
//	    "namespace": "quill"
//	  },
//	  "tracing": {
//	    "tracerName": "github.com/vango-dev/quill"
//	  },
//	  "devtools": {
//	    "addr": "localhost:7420"
//	  },
//	  "journal": {
//	    "path": "ticks.jsonl",
//	    "s3": {"bucket": "quill-journal", "prefix": "ticks/", "region": "eu-west-1"},
//	    "batchSize": 64
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rt := reactive.New(cfg.ReactiveConfig(cfg.Logger()))
package config
