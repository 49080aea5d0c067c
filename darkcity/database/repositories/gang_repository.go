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

type GangRepository interface {
	// Create inserts the gang with its leader as the first member and links
	// the leader's actor row atomically.
	Create(ctx context.Context, gang *models.Gang, leader *models.Actor) error
	GetByID(ctx context.Context, id string) (*models.Gang, error)
	GetMembers(ctx context.Context, gangID string) ([]*models.GangMember, error)
	AddMember(ctx context.Context, member *models.GangMember, actor *models.Actor) error
	// Contribute moves cash from the member into the gang treasury.
	Contribute(ctx context.Context, gang *models.Gang, member *models.GangMember, actor *models.Actor, amount int64) error
}

type gangRepository struct {
	db *bun.DB
}

func NewGangRepository(db *bun.DB) GangRepository {
	return &gangRepository{db: db}
}

func (r *gangRepository) Create(ctx context.Context, gang *models.Gang, leader *models.Actor) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		gang.CreatedAt = time.Now()
		if _, err := tx.NewInsert().Model(gang).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create gang: %w", err)
		}
		member := &models.GangMember{
			ID:       gang.ID + ":" + leader.ID,
			GangID:   gang.ID,
			ActorID:  leader.ID,
			Role:     models.GangRoleLeader,
			JoinedAt: time.Now(),
		}
		if _, err := tx.NewInsert().Model(member).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create leader membership: %w", err)
		}
		leader.GangID = &gang.ID
		return applyActorUpdate(ctx, tx, leader)
	})
}

func (r *gangRepository) GetByID(ctx context.Context, id string) (*models.Gang, error) {
	gang := new(models.Gang)
	err := r.db.NewSelect().
		Model(gang).
		Where("g.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return gang, nil
}

func (r *gangRepository) GetMembers(ctx context.Context, gangID string) ([]*models.GangMember, error) {
	var members []*models.GangMember
	err := r.db.NewSelect().
		Model(&members).
		Where("gm.gang_id = ?", gangID).
		Order("joined_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gang members: %w", err)
	}
	return members, nil
}

func (r *gangRepository) AddMember(ctx context.Context, member *models.GangMember, actor *models.Actor) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		member.JoinedAt = time.Now()
		if _, err := tx.NewInsert().Model(member).Exec(ctx); err != nil {
			return fmt.Errorf("failed to add gang member: %w", err)
		}
		actor.GangID = &member.GangID
		return applyActorUpdate(ctx, tx, actor)
	})
}

func (r *gangRepository) Contribute(ctx context.Context, gang *models.Gang, member *models.GangMember, actor *models.Actor, amount int64) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if err := applyActorUpdate(ctx, tx, actor); err != nil {
			return err
		}
		res, err := tx.NewUpdate().
			Model(gang).
			Set("treasury = treasury + ?", amount).
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to credit treasury: %w", err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return ErrNotFound
		}
		_, err = tx.NewUpdate().
			Model(member).
			Set("contributed_money = contributed_money + ?", amount).
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to record contribution: %w", err)
		}
		return nil
	})
}
