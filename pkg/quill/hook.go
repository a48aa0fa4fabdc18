package quill

import (
	"context"
	"time"

	"github.com/vango-dev/quill/pkg/reactive"
	"github.com/vango-dev/quill/pkg/reconcile"
)

// TickReport summarizes one Flush.
type TickReport struct {
	Tick      uint64              `json:"tick"`
	Edits     reconcile.Script    `json:"edits,omitempty"`
	Stats     reactive.FlushStats `json:"stats"`
	Instances int                 `json:"instances"`
	Duration  time.Duration       `json:"duration"`
	Err       error               `json:"-"`
}

// Hook observes ticks. BeforeTick may return a derived context; it is
// passed on to the BeforeTick of later hooks and to AfterTick of the same
// hook.
type Hook interface {
	BeforeTick(ctx context.Context, tick uint64) context.Context
	AfterTick(ctx context.Context, report TickReport)
}

// HookFuncs adapts plain functions to Hook. Nil fields are skipped.
type HookFuncs struct {
	Before func(ctx context.Context, tick uint64) context.Context
	After  func(ctx context.Context, report TickReport)
}

// BeforeTick implements Hook.
func (h HookFuncs) BeforeTick(ctx context.Context, tick uint64) context.Context {
	if h.Before == nil {
		return ctx
	}
	return h.Before(ctx, tick)
}

// AfterTick implements Hook.
func (h HookFuncs) AfterTick(ctx context.Context, report TickReport) {
	if h.After != nil {
		h.After(ctx, report)
	}
}
