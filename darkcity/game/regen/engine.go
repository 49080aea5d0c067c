// Package regen restores actor resources on a fixed interval.
package regen

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
)

const updateConcurrency = 8

type ActorStore interface {
	GetRegenDue(ctx context.Context, cutoff time.Time) ([]*models.Actor, error)
	Update(ctx context.Context, actor *models.Actor) error
}

// Rates holds the per-tick gain of each resource.
type Rates struct {
	Energy    int
	Nerve     int
	Willpower int
	Health    int
}

type Engine struct {
	actors   ActorStore
	interval time.Duration
	rates    Rates
}

func NewEngine(actors ActorStore, interval time.Duration, rates Rates) *Engine {
	return &Engine{actors: actors, interval: interval, rates: rates}
}

// Name identifies the engine to the scheduler.
func (e *Engine) Name() string { return "regen" }

// RunOnce regenerates every actor whose resources are due a tick. Actors are
// updated in parallel; an actor racing a player action just skips this tick
// and is picked up by the next one.
func (e *Engine) RunOnce(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-e.interval)
	actors, err := e.actors.GetRegenDue(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(actors) == 0 {
		return nil
	}

	var updated atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(updateConcurrency)

	for _, actor := range actors {
		g.Go(func() error {
			if !e.tick(actor, cutoff, now) {
				return nil
			}
			if err := e.actors.Update(ctx, actor); err != nil {
				// A conflict means a player action got there first;
				// anything else is logged, either way the actor just
				// waits for the next tick.
				if !errors.Is(err, repositories.ErrConflict) {
					slog.Error("Failed to persist regeneration",
						slog.String("type", "game"),
						slog.String("actor_id", actor.ID),
						slog.String("error", err.Error()))
				}
				return nil
			}
			updated.Add(1)
			return nil
		})
	}

	_ = g.Wait()

	slog.Info("Resource regeneration tick",
		slog.String("type", "game"),
		slog.Int("due", len(actors)),
		slog.Int64("updated", updated.Load()))
	return nil
}

// tick applies one regeneration step in place and reports whether anything
// changed.
func (e *Engine) tick(a *models.Actor, cutoff, now time.Time) bool {
	changed := false

	if a.LastEnergyUpdate.Before(cutoff) && a.Energy < models.ResourceCap {
		a.Energy = clampCap(a.Energy + e.rates.Energy)
		a.LastEnergyUpdate = now
		changed = true
	}
	if a.LastNerveUpdate.Before(cutoff) && a.Nerve < models.ResourceCap {
		a.Nerve = clampCap(a.Nerve + e.rates.Nerve)
		a.LastNerveUpdate = now
		changed = true
	}
	if a.LastWillpowerUpdate.Before(cutoff) && a.Willpower < models.ResourceCap {
		a.Willpower = clampCap(a.Willpower + e.rates.Willpower)
		a.LastWillpowerUpdate = now
		changed = true
	}
	if a.LastHealthUpdate.Before(cutoff) && a.Health < models.ResourceCap {
		a.Health = clampCap(a.Health + e.rates.Health)
		a.LastHealthUpdate = now
		changed = true
	}
	return changed
}

func clampCap(v int) int {
	if v > models.ResourceCap {
		return models.ResourceCap
	}
	return v
}
