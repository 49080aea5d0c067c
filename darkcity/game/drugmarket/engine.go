// Package drugmarket runs the street price random walk and actor drug trades.
package drugmarket

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/veszto/darkcity/darkcity/audit"
	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

type ActorStore interface {
	GetByID(ctx context.Context, id string) (*models.Actor, error)
}

type DrugStore interface {
	GetAll(ctx context.Context) ([]*models.Drug, error)
	GetByID(ctx context.Context, id int64) (*models.Drug, error)
	UpdatePrice(ctx context.Context, drug *models.Drug) error
	GetHolding(ctx context.Context, actorID string, drugID int64) (*models.ActorDrug, error)
	GetHoldings(ctx context.Context, actorID string) ([]*models.ActorDrug, error)
	ApplyTrade(ctx context.Context, actor *models.Actor, holding *models.ActorDrug) error
}

type TradeResult struct {
	DrugID    int64
	Quantity  int64
	UnitPrice int64
	Total     int64
	NewCash   int64
	NewHeld   int64
}

type Engine struct {
	actors   ActorStore
	drugs    DrugStore
	dice     game.Dice
	recorder audit.Recorder
}

func NewEngine(actors ActorStore, drugs DrugStore, dice game.Dice, recorder audit.Recorder) *Engine {
	if recorder == nil {
		recorder = audit.NoopRecorder{}
	}
	return &Engine{actors: actors, drugs: drugs, dice: dice, recorder: recorder}
}

func (e *Engine) Name() string { return "drug-prices" }

// RunOnce perturbs every drug price by a volatility-bounded random step,
// clamped to the drug's configured band. The trend records the direction of
// the realized move. A drug that fails to persist is logged and skipped, the
// rest of the batch still ticks.
func (e *Engine) RunOnce(ctx context.Context, now time.Time) error {
	drugs, err := e.drugs.GetAll(ctx)
	if err != nil {
		return err
	}

	for _, drug := range drugs {
		step := (e.dice.Float64()*2 - 1) * drug.Volatility
		newPrice := int64(float64(drug.CurrentPrice) * (1 + step))
		newPrice = clamp(newPrice, drug.MinPrice, drug.MaxPrice)

		switch {
		case newPrice > drug.CurrentPrice:
			drug.Trend = models.TrendUp
		case newPrice < drug.CurrentPrice:
			drug.Trend = models.TrendDown
		default:
			drug.Trend = models.TrendStable
		}
		drug.CurrentPrice = newPrice

		if err := e.drugs.UpdatePrice(ctx, drug); err != nil {
			slog.Error("Failed to persist drug price",
				slog.String("type", "game"),
				slog.Int64("drug_id", drug.ID),
				slog.String("error", err.Error()))
			continue
		}
	}

	slog.Info("Drug prices updated",
		slog.String("type", "game"),
		slog.Int("drugs", len(drugs)))
	return nil
}

func (e *Engine) Prices(ctx context.Context) ([]*models.Drug, error) {
	return e.drugs.GetAll(ctx)
}

func (e *Engine) Holdings(ctx context.Context, actorID string) ([]*models.ActorDrug, error) {
	return e.drugs.GetHoldings(ctx, actorID)
}

// Buy purchases quantity units at the current street price.
func (e *Engine) Buy(ctx context.Context, actorID string, drugID, quantity int64) (*TradeResult, error) {
	if quantity <= 0 {
		return nil, game.Precondition("quantity must be positive")
	}

	var result *TradeResult
	err := game.RetryConflict(ctx, func(ctx context.Context) error {
		drug, actor, holding, err := e.loadTrade(ctx, actorID, drugID)
		if err != nil {
			return err
		}

		total := drug.CurrentPrice * quantity
		if actor.MoneyCash < total {
			return game.Precondition("not enough cash")
		}

		actor.MoneyCash -= total
		holding.Quantity += quantity

		if err := e.drugs.ApplyTrade(ctx, actor, holding); err != nil {
			return err
		}
		result = &TradeResult{
			DrugID:    drugID,
			Quantity:  quantity,
			UnitPrice: drug.CurrentPrice,
			Total:     total,
			NewCash:   actor.MoneyCash,
			NewHeld:   holding.Quantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.record(ctx, actorID, "drug_buy", result)
	return result, nil
}

// Sell liquidates quantity units at the current street price.
func (e *Engine) Sell(ctx context.Context, actorID string, drugID, quantity int64) (*TradeResult, error) {
	if quantity <= 0 {
		return nil, game.Precondition("quantity must be positive")
	}

	var result *TradeResult
	err := game.RetryConflict(ctx, func(ctx context.Context) error {
		drug, actor, holding, err := e.loadTrade(ctx, actorID, drugID)
		if err != nil {
			return err
		}
		if holding.Quantity < quantity {
			return game.Precondition("not enough drugs")
		}

		total := drug.CurrentPrice * quantity
		actor.MoneyCash += total
		holding.Quantity -= quantity

		if err := e.drugs.ApplyTrade(ctx, actor, holding); err != nil {
			return err
		}
		result = &TradeResult{
			DrugID:    drugID,
			Quantity:  quantity,
			UnitPrice: drug.CurrentPrice,
			Total:     total,
			NewCash:   actor.MoneyCash,
			NewHeld:   holding.Quantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.record(ctx, actorID, "drug_sell", result)
	return result, nil
}

func (e *Engine) loadTrade(ctx context.Context, actorID string, drugID int64) (*models.Drug, *models.Actor, *models.ActorDrug, error) {
	drug, err := e.drugs.GetByID(ctx, drugID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, nil, game.NotFound("drug not found")
		}
		return nil, nil, nil, err
	}

	actor, err := e.actors.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, nil, game.NotFound("actor not found")
		}
		return nil, nil, nil, err
	}

	holding, err := e.drugs.GetHolding(ctx, actorID, drugID)
	if errors.Is(err, repositories.ErrNotFound) {
		holding = &models.ActorDrug{ActorID: actorID, DrugID: drugID}
	} else if err != nil {
		return nil, nil, nil, err
	}
	return drug, actor, holding, nil
}

func (e *Engine) record(ctx context.Context, actorID, kind string, r *TradeResult) {
	_ = e.recorder.Record(ctx, audit.Event{
		Kind:    kind,
		ActorID: actorID,
		Details: map[string]any{
			"drug_id":  r.DrugID,
			"quantity": r.Quantity,
			"total":    r.Total,
		},
	})
}

func clamp(v, min, max int64) int64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
