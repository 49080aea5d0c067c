// Package bank moves money between an actor's cash and bank balances.
package bank

import (
	"context"
	"errors"

	"github.com/veszto/darkcity/darkcity/audit"
	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

type ActorStore interface {
	GetByID(ctx context.Context, id string) (*models.Actor, error)
	Update(ctx context.Context, actor *models.Actor) error
}

type Balance struct {
	Cash  int64
	Bank  int64
	Total int64
}

// LaunderResult describes one laundering run: Laundered is what reached the
// bank after the cut.
type LaunderResult struct {
	Amount     int64
	Fee        int64
	FeePercent int64
	Laundered  int64
	NewCash    int64
	NewBank    int64
}

type Engine struct {
	actors    ActorStore
	dice      game.Dice
	recorder  audit.Recorder
	feeMinBps int64
	feeMaxBps int64
}

func NewEngine(actors ActorStore, dice game.Dice, recorder audit.Recorder, feeMinBps, feeMaxBps int64) *Engine {
	if recorder == nil {
		recorder = audit.NoopRecorder{}
	}
	return &Engine{
		actors:    actors,
		dice:      dice,
		recorder:  recorder,
		feeMinBps: feeMinBps,
		feeMaxBps: feeMaxBps,
	}
}

func (e *Engine) GetBalance(ctx context.Context, actorID string) (*Balance, error) {
	actor, err := e.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Cash:  actor.MoneyCash,
		Bank:  actor.MoneyBank,
		Total: actor.MoneyCash + actor.MoneyBank,
	}, nil
}

// Deposit moves cash into the bank at face value.
func (e *Engine) Deposit(ctx context.Context, actorID string, amount int64) (*Balance, error) {
	return e.transfer(ctx, actorID, amount, func(a *models.Actor) error {
		if a.MoneyCash < amount {
			return game.Precondition("not enough cash")
		}
		a.MoneyCash -= amount
		a.MoneyBank += amount
		return nil
	})
}

// Withdraw moves banked money back to cash at face value.
func (e *Engine) Withdraw(ctx context.Context, actorID string, amount int64) (*Balance, error) {
	return e.transfer(ctx, actorID, amount, func(a *models.Actor) error {
		if a.MoneyBank < amount {
			return game.Precondition("not enough money in bank")
		}
		a.MoneyBank -= amount
		a.MoneyCash += amount
		return nil
	})
}

// Launder pushes cash into the bank through a cut-taking intermediary. The
// cut is rolled fresh per run between the configured bounds.
func (e *Engine) Launder(ctx context.Context, actorID string, amount int64) (*LaunderResult, error) {
	if amount <= 0 {
		return nil, game.Precondition("amount must be positive")
	}

	var result *LaunderResult
	err := game.RetryConflict(ctx, func(ctx context.Context) error {
		actor, err := e.loadActor(ctx, actorID)
		if err != nil {
			return err
		}
		if actor.MoneyCash < amount {
			return game.Precondition("not enough cash to launder")
		}

		feeBps := e.feeMinBps + int64(e.dice.Float64()*float64(e.feeMaxBps-e.feeMinBps))
		fee := models.FeeOf(amount, feeBps)
		laundered := amount - fee

		actor.MoneyCash -= amount
		actor.MoneyBank += laundered

		if err := e.actors.Update(ctx, actor); err != nil {
			return err
		}
		result = &LaunderResult{
			Amount:     amount,
			Fee:        fee,
			FeePercent: feeBps / 100,
			Laundered:  laundered,
			NewCash:    actor.MoneyCash,
			NewBank:    actor.MoneyBank,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = e.recorder.Record(ctx, audit.Event{
		Kind:    "launder",
		ActorID: actorID,
		Details: map[string]any{"amount": amount, "fee": result.Fee},
	})
	return result, nil
}

func (e *Engine) transfer(ctx context.Context, actorID string, amount int64, move func(*models.Actor) error) (*Balance, error) {
	if amount <= 0 {
		return nil, game.Precondition("amount must be positive")
	}

	var balance *Balance
	err := game.RetryConflict(ctx, func(ctx context.Context) error {
		actor, err := e.loadActor(ctx, actorID)
		if err != nil {
			return err
		}
		if err := move(actor); err != nil {
			return err
		}
		if err := e.actors.Update(ctx, actor); err != nil {
			return err
		}
		balance = &Balance{
			Cash:  actor.MoneyCash,
			Bank:  actor.MoneyBank,
			Total: actor.MoneyCash + actor.MoneyBank,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (e *Engine) loadActor(ctx context.Context, id string) (*models.Actor, error) {
	actor, err := e.actors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, game.NotFound("actor not found")
		}
		return nil, err
	}
	return actor, nil
}
