package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/veszto/darkcity/darkcity/database/models"
)

type ActorRepository interface {
	Create(ctx context.Context, actor *models.Actor) error
	GetByID(ctx context.Context, id string) (*models.Actor, error)
	GetByUsername(ctx context.Context, username string) (*models.Actor, error)
	GetStats(ctx context.Context, actorID string) (*models.ActorStats, error)
	Update(ctx context.Context, actor *models.Actor) error
	UpdateWithStats(ctx context.Context, actor *models.Actor, stats *models.ActorStats) error
	GetRegenDue(ctx context.Context, cutoff time.Time) ([]*models.Actor, error)
	GetAvailableTargets(ctx context.Context, excludeID string, now time.Time, limit int) ([]*models.Actor, error)
}

type actorRepository struct {
	db *bun.DB
}

func NewActorRepository(db *bun.DB) ActorRepository {
	return &actorRepository{db: db}
}

// Create inserts the actor together with its stats row.
func (r *actorRepository) Create(ctx context.Context, actor *models.Actor) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(actor).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create actor: %w", err)
		}
		stats := models.NewActorStats(actor.ID)
		if _, err := tx.NewInsert().Model(stats).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create actor stats: %w", err)
		}
		return nil
	})
}

func (r *actorRepository) GetByID(ctx context.Context, id string) (*models.Actor, error) {
	actor := new(models.Actor)
	err := r.db.NewSelect().
		Model(actor).
		Where("a.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Error("Database error when getting actor",
			slog.String("type", "db"),
			slog.String("operation", "GetByID"),
			slog.String("actor_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}
	return actor, nil
}

func (r *actorRepository) GetByUsername(ctx context.Context, username string) (*models.Actor, error) {
	actor := new(models.Actor)
	err := r.db.NewSelect().
		Model(actor).
		Where("a.username = ?", username).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return actor, nil
}

func (r *actorRepository) GetStats(ctx context.Context, actorID string) (*models.ActorStats, error) {
	stats := new(models.ActorStats)
	err := r.db.NewSelect().
		Model(stats).
		Where("ast.actor_id = ?", actorID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stats, nil
}

func (r *actorRepository) Update(ctx context.Context, actor *models.Actor) error {
	return applyActorUpdate(ctx, r.db, actor)
}

func (r *actorRepository) UpdateWithStats(ctx context.Context, actor *models.Actor, stats *models.ActorStats) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if err := applyActorUpdate(ctx, tx, actor); err != nil {
			return err
		}
		stats.UpdatedAt = time.Now()
		if _, err := tx.NewUpdate().Model(stats).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("failed to update actor stats: %w", err)
		}
		return nil
	})
}

// GetRegenDue returns actors with at least one resource whose regen timestamp
// is older than the cutoff.
func (r *actorRepository) GetRegenDue(ctx context.Context, cutoff time.Time) ([]*models.Actor, error) {
	var actors []*models.Actor
	err := r.db.NewSelect().
		Model(&actors).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("a.last_energy_update < ?", cutoff).
				WhereOr("a.last_nerve_update < ?", cutoff).
				WhereOr("a.last_willpower_update < ?", cutoff).
				WhereOr("a.last_health_update < ?", cutoff)
		}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get regen-due actors: %w", err)
	}
	return actors, nil
}

// GetAvailableTargets lists unconfined actors, strongest first.
func (r *actorRepository) GetAvailableTargets(ctx context.Context, excludeID string, now time.Time, limit int) ([]*models.Actor, error) {
	var actors []*models.Actor
	err := r.db.NewSelect().
		Model(&actors).
		Where("a.id != ?", excludeID).
		Where("a.prison_release_time IS NULL OR a.prison_release_time < ?", now).
		Where("a.hospital_release_time IS NULL OR a.hospital_release_time < ?", now).
		Order("level DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get available targets: %w", err)
	}
	return actors, nil
}
