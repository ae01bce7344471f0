package cache

import (
	"context"

	"github.com/ladderlink/ladderlink/internal/league"
)

// Noop is used when Redis is not available. Every lookup misses.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]league.Standing, bool) { return nil, false }

func (Noop) Set(context.Context, string, []league.Standing) {}

func (Noop) Invalidate(context.Context, string) {}

func (Noop) Close() error { return nil }
