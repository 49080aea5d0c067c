// Package crime resolves crime attempts against the static crime catalog.
package crime

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/veszto/darkcity/darkcity/audit"
	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

const maxSuccessChance = 95.0

// ActorStore is the slice of the actor repository the engine needs.
type ActorStore interface {
	GetByID(ctx context.Context, id string) (*models.Actor, error)
	GetStats(ctx context.Context, actorID string) (*models.ActorStats, error)
	Update(ctx context.Context, actor *models.Actor) error
}

type CrimeStore interface {
	GetAll(ctx context.Context) ([]*models.CrimeDefinition, error)
	GetByID(ctx context.Context, id int64) (*models.CrimeDefinition, error)
}

// ProgressSink receives successful crime completions for mission tracking.
type ProgressSink interface {
	RecordCrime(ctx context.Context, actorID string, crimeID int64)
}

type Outcome struct {
	Success       bool
	SuccessChance float64
	MoneyEarned   int64
	XPEarned      int64
	LevelsGained  int
	NewLevel      int
	Jailed        bool
	JailMinutes   int
}

type Engine struct {
	actors   ActorStore
	crimes   CrimeStore
	dice     game.Dice
	missions ProgressSink
	recorder audit.Recorder
	now      func() time.Time
}

func NewEngine(actors ActorStore, crimes CrimeStore, dice game.Dice, missions ProgressSink, recorder audit.Recorder) *Engine {
	if recorder == nil {
		recorder = audit.NoopRecorder{}
	}
	return &Engine{
		actors:   actors,
		crimes:   crimes,
		dice:     dice,
		missions: missions,
		recorder: recorder,
		now:      time.Now,
	}
}

// SuccessChance is the percent chance of pulling off the crime at the given
// intelligence, capped at 95 so nothing is ever a sure thing.
func SuccessChance(intelligence, difficulty int) float64 {
	return math.Min(float64(intelligence)*1.5/float64(difficulty)*100, maxSuccessChance)
}

func (e *Engine) List(ctx context.Context) ([]*models.CrimeDefinition, error) {
	return e.crimes.GetAll(ctx)
}

// Commit attempts the crime for the actor. Energy is spent whether or not the
// attempt succeeds; a failed attempt may additionally land the actor in prison.
func (e *Engine) Commit(ctx context.Context, actorID string, crimeID int64) (*Outcome, error) {
	var outcome *Outcome
	err := game.RetryConflict(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = e.attempt(ctx, actorID, crimeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if outcome.Success && e.missions != nil {
		e.missions.RecordCrime(ctx, actorID, crimeID)
	}
	e.record(ctx, actorID, crimeID, outcome)
	return outcome, nil
}

func (e *Engine) attempt(ctx context.Context, actorID string, crimeID int64) (*Outcome, error) {
	now := e.now()

	actor, err := e.actors.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, game.NotFound("actor not found")
		}
		return nil, err
	}
	if actor.IsBanned {
		return nil, game.Forbidden("account is banned")
	}
	if actor.Confined(now) {
		return nil, game.Forbidden("you are in prison or hospital")
	}

	def, err := e.crimes.GetByID(ctx, crimeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, game.NotFound("crime not found")
		}
		return nil, err
	}
	if actor.Level < def.RequiredLevel {
		return nil, game.Forbidden("level %d required", def.RequiredLevel)
	}
	if actor.Energy < def.EnergyCost {
		return nil, game.Precondition("not enough energy")
	}

	stats, err := e.actors.GetStats(ctx, actorID)
	if err != nil {
		return nil, err
	}

	chance := SuccessChance(stats.Intelligence, def.Difficulty)
	outcome := &Outcome{
		Success:       game.RollPercent(e.dice, chance),
		SuccessChance: chance,
	}

	actor.Energy -= def.EnergyCost

	if outcome.Success {
		outcome.MoneyEarned = game.RandRange(e.dice, def.MinMoney, def.MaxMoney)
		outcome.XPEarned = def.XPReward
		actor.MoneyCash += outcome.MoneyEarned
		outcome.LevelsGained = actor.GainXP(def.XPReward)
		outcome.NewLevel = actor.Level
	} else if game.RollPercent(e.dice, def.JailChance*100) {
		release := now.Add(time.Duration(def.JailTimeMinutes) * time.Minute)
		actor.PrisonReleaseTime = &release
		outcome.Jailed = true
		outcome.JailMinutes = def.JailTimeMinutes
	}

	if err := e.actors.Update(ctx, actor); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (e *Engine) record(ctx context.Context, actorID string, crimeID int64, o *Outcome) {
	_ = e.recorder.Record(ctx, audit.Event{
		Kind:    "crime_attempt",
		ActorID: actorID,
		Details: map[string]any{
			"crime_id": crimeID,
			"success":  o.Success,
			"money":    o.MoneyEarned,
			"jailed":   o.Jailed,
		},
	})
}
