// Package gym handles stat training.
package gym

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

const (
	energyCost   = 10
	baseCost     = 100_00
	costGrowth   = 1.1
	gainDimDenom = 500.0
)

type ActorStore interface {
	GetByID(ctx context.Context, id string) (*models.Actor, error)
	GetStats(ctx context.Context, actorID string) (*models.ActorStats, error)
	UpdateWithStats(ctx context.Context, actor *models.Actor, stats *models.ActorStats) error
}

type ProgressSink interface {
	RecordGym(ctx context.Context, actorID string)
}

type Session struct {
	Stat       models.TrainableStat
	Gain       int
	NewValue   int
	EnergyCost int
	MoneyCost  int64
}

// CostTable is the per-stat price list shown before training.
type CostTable map[models.TrainableStat]struct {
	EnergyCost   int
	MoneyCost    int64
	CurrentValue int
}

type Engine struct {
	actors   ActorStore
	dice     game.Dice
	missions ProgressSink
}

func NewEngine(actors ActorStore, dice game.Dice, missions ProgressSink) *Engine {
	return &Engine{actors: actors, dice: dice, missions: missions}
}

// TrainingCost is the cash price of one session at the given stat value. The
// price climbs 10% for every full ten points already trained.
func TrainingCost(statValue int) int64 {
	return int64(float64(baseCost) * math.Pow(costGrowth, float64(statValue/10)))
}

// statGain rolls 1-3 points, shaved by diminishing returns as the stat grows,
// never below 1.
func statGain(d game.Dice, statValue int) int {
	base := int(d.Int63n(3)) + 1
	dim := math.Max(0.5, 1-float64(statValue)/gainDimDenom)
	gain := int(float64(base) * dim)
	if gain < 1 {
		return 1
	}
	return gain
}

// Train runs one session on the given stat, spending energy and cash.
func (e *Engine) Train(ctx context.Context, actorID string, stat models.TrainableStat) (*Session, error) {
	if !models.ValidStat(stat) {
		return nil, game.Precondition("unknown stat %q", stat)
	}

	var session *Session
	err := game.RetryConflict(ctx, func(ctx context.Context) error {
		actor, err := e.actors.GetByID(ctx, actorID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return game.NotFound("actor not found")
			}
			return err
		}
		if actor.Confined(time.Now()) {
			return game.Forbidden("you are in prison or hospital")
		}

		stats, err := e.actors.GetStats(ctx, actorID)
		if err != nil {
			return err
		}

		current := stats.Get(stat)
		moneyCost := TrainingCost(current)

		if actor.Energy < energyCost {
			return game.Precondition("not enough energy")
		}
		if actor.MoneyCash < moneyCost {
			return game.Precondition("not enough cash, session costs %s", models.FormatMoney(moneyCost))
		}

		actor.Energy -= energyCost
		actor.MoneyCash -= moneyCost
		gain := statGain(e.dice, current)
		stats.Add(stat, gain)

		if err := e.actors.UpdateWithStats(ctx, actor, stats); err != nil {
			return err
		}
		session = &Session{
			Stat:       stat,
			Gain:       gain,
			NewValue:   stats.Get(stat),
			EnergyCost: energyCost,
			MoneyCost:  moneyCost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.missions != nil {
		e.missions.RecordGym(ctx, actorID)
	}
	return session, nil
}

// Costs returns the current session price for every trainable stat.
func (e *Engine) Costs(ctx context.Context, actorID string) (CostTable, error) {
	stats, err := e.actors.GetStats(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, game.NotFound("actor not found")
		}
		return nil, err
	}

	table := make(CostTable, 4)
	for _, stat := range []models.TrainableStat{
		models.StatStrength, models.StatDefense, models.StatAgility, models.StatIntelligence,
	} {
		v := stats.Get(stat)
		table[stat] = struct {
			EnergyCost   int
			MoneyCost    int64
			CurrentValue int
		}{EnergyCost: energyCost, MoneyCost: TrainingCost(v), CurrentValue: v}
	}
	return table, nil
}
