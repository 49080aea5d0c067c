package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/veszto/darkcity/darkcity/database/models"
)

type CombatRepository interface {
	// RecordResolution persists both actors and the encounter log as one
	// atomic unit. Either actor losing its version check aborts the whole
	// write with ErrConflict.
	RecordResolution(ctx context.Context, attacker, defender *models.Actor, log *models.CombatLog) error
	GetHistory(ctx context.Context, actorID string, limit int) ([]*models.CombatLog, error)
}

type combatRepository struct {
	db *bun.DB
}

func NewCombatRepository(db *bun.DB) CombatRepository {
	return &combatRepository{db: db}
}

func (r *combatRepository) RecordResolution(ctx context.Context, attacker, defender *models.Actor, log *models.CombatLog) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if err := applyActorUpdate(ctx, tx, attacker); err != nil {
			return err
		}
		if err := applyActorUpdate(ctx, tx, defender); err != nil {
			return err
		}
		log.CreatedAt = time.Now()
		if _, err := tx.NewInsert().Model(log).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert combat log: %w", err)
		}
		return nil
	})
}

func (r *combatRepository) GetHistory(ctx context.Context, actorID string, limit int) ([]*models.CombatLog, error) {
	var logs []*models.CombatLog
	err := r.db.NewSelect().
		Model(&logs).
		Where("cl.attacker_id = ? OR cl.defender_id = ?", actorID, actorID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get combat history: %w", err)
	}
	return logs, nil
}
