package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/veszto/darkcity/darkcity/database/models"
)

type DrugRepository interface {
	GetAll(ctx context.Context) ([]*models.Drug, error)
	GetByID(ctx context.Context, id int64) (*models.Drug, error)
	UpdatePrice(ctx context.Context, drug *models.Drug) error

	GetHolding(ctx context.Context, actorID string, drugID int64) (*models.ActorDrug, error)
	GetHoldings(ctx context.Context, actorID string) ([]*models.ActorDrug, error)
	// ApplyTrade persists the actor balance and the holding quantity as one
	// atomic unit.
	ApplyTrade(ctx context.Context, actor *models.Actor, holding *models.ActorDrug) error
}

type drugRepository struct {
	db *bun.DB
}

func NewDrugRepository(db *bun.DB) DrugRepository {
	return &drugRepository{db: db}
}

func (r *drugRepository) GetAll(ctx context.Context) ([]*models.Drug, error) {
	var drugs []*models.Drug
	err := r.db.NewSelect().
		Model(&drugs).
		Order("base_price ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get drugs: %w", err)
	}
	return drugs, nil
}

func (r *drugRepository) GetByID(ctx context.Context, id int64) (*models.Drug, error) {
	drug := new(models.Drug)
	err := r.db.NewSelect().
		Model(drug).
		Where("d.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return drug, nil
}

func (r *drugRepository) UpdatePrice(ctx context.Context, drug *models.Drug) error {
	drug.LastPriceUpdate = time.Now()
	_, err := r.db.NewUpdate().
		Model(drug).
		Column("current_price", "trend", "last_price_update").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update drug price: %w", err)
	}
	return nil
}

func (r *drugRepository) GetHolding(ctx context.Context, actorID string, drugID int64) (*models.ActorDrug, error) {
	holding := new(models.ActorDrug)
	err := r.db.NewSelect().
		Model(holding).
		Where("ad.actor_id = ? AND ad.drug_id = ?", actorID, drugID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return holding, nil
}

func (r *drugRepository) GetHoldings(ctx context.Context, actorID string) ([]*models.ActorDrug, error) {
	var holdings []*models.ActorDrug
	err := r.db.NewSelect().
		Model(&holdings).
		Relation("Drug").
		Where("ad.actor_id = ?", actorID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get drug holdings: %w", err)
	}
	return holdings, nil
}

func (r *drugRepository) ApplyTrade(ctx context.Context, actor *models.Actor, holding *models.ActorDrug) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if err := applyActorUpdate(ctx, tx, actor); err != nil {
			return err
		}
		holding.UpdatedAt = time.Now()
		_, err := tx.NewInsert().
			Model(holding).
			On("CONFLICT (actor_id, drug_id) DO UPDATE").
			Set("quantity = EXCLUDED.quantity").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert drug holding: %w", err)
		}
		return nil
	})
}
