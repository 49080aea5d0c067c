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

type MissionRepository interface {
	GetDefinition(ctx context.Context, id int64) (*models.MissionDefinition, error)
	GetStoryByOrder(ctx context.Context, order int) (*models.MissionDefinition, error)
	GetRandomDailies(ctx context.Context, maxLevel, count int) ([]*models.MissionDefinition, error)

	GetActorMissions(ctx context.Context, actorID string) ([]*models.ActorMission, error)
	GetActorMission(ctx context.Context, id string) (*models.ActorMission, error)
	GetActiveByActor(ctx context.Context, actorID string) ([]*models.ActorMission, error)
	GetLastCompletedStoryOrder(ctx context.Context, actorID string) (int, error)
	CountDailiesSince(ctx context.Context, actorID string, since time.Time) (int, error)

	CreateActorMission(ctx context.Context, am *models.ActorMission) error
	// SaveProgress writes progress/completed on an incomplete mission. A row
	// already marked complete is left untouched.
	SaveProgress(ctx context.Context, am *models.ActorMission) error
	// Claim flips claimed and pays the actor atomically. The claimed guard
	// makes a double claim lose with ErrConflict.
	Claim(ctx context.Context, am *models.ActorMission, actor *models.Actor) error
}

type missionRepository struct {
	db *bun.DB
}

func NewMissionRepository(db *bun.DB) MissionRepository {
	return &missionRepository{db: db}
}

func (r *missionRepository) GetDefinition(ctx context.Context, id int64) (*models.MissionDefinition, error) {
	def := new(models.MissionDefinition)
	err := r.db.NewSelect().
		Model(def).
		Where("m.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return def, nil
}

func (r *missionRepository) GetStoryByOrder(ctx context.Context, order int) (*models.MissionDefinition, error) {
	def := new(models.MissionDefinition)
	err := r.db.NewSelect().
		Model(def).
		Where("m.type = ? AND m.story_order = ?", models.MissionTypeStory, order).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return def, nil
}

func (r *missionRepository) GetRandomDailies(ctx context.Context, maxLevel, count int) ([]*models.MissionDefinition, error) {
	var defs []*models.MissionDefinition
	err := r.db.NewSelect().
		Model(&defs).
		Where("m.type = ? AND m.min_level <= ?", models.MissionTypeDaily, maxLevel).
		OrderExpr("random()").
		Limit(count).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily missions: %w", err)
	}
	return defs, nil
}

func (r *missionRepository) GetActorMissions(ctx context.Context, actorID string) ([]*models.ActorMission, error) {
	var missions []*models.ActorMission
	err := r.db.NewSelect().
		Model(&missions).
		Relation("Mission").
		Where("am.actor_id = ?", actorID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get actor missions: %w", err)
	}
	return missions, nil
}

func (r *missionRepository) GetActorMission(ctx context.Context, id string) (*models.ActorMission, error) {
	am := new(models.ActorMission)
	err := r.db.NewSelect().
		Model(am).
		Relation("Mission").
		Where("am.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return am, nil
}

// GetActiveByActor returns assigned missions that are still progressing or
// completed but unclaimed.
func (r *missionRepository) GetActiveByActor(ctx context.Context, actorID string) ([]*models.ActorMission, error) {
	var missions []*models.ActorMission
	err := r.db.NewSelect().
		Model(&missions).
		Relation("Mission").
		Where("am.actor_id = ? AND am.claimed = false", actorID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active missions: %w", err)
	}
	return missions, nil
}

func (r *missionRepository) GetLastCompletedStoryOrder(ctx context.Context, actorID string) (int, error) {
	var order int
	err := r.db.NewSelect().
		ColumnExpr("COALESCE(MAX(m.story_order), 0)").
		TableExpr("actor_missions AS am").
		Join("JOIN missions AS m ON m.id = am.mission_id").
		Where("am.actor_id = ? AND am.completed = true AND m.type = ?", actorID, models.MissionTypeStory).
		Scan(ctx, &order)
	if err != nil {
		return 0, fmt.Errorf("failed to get story progress: %w", err)
	}
	return order, nil
}

func (r *missionRepository) CountDailiesSince(ctx context.Context, actorID string, since time.Time) (int, error) {
	count, err := r.db.NewSelect().
		Model((*models.ActorMission)(nil)).
		Join("JOIN missions AS m ON m.id = am.mission_id").
		Where("am.actor_id = ? AND am.created_at >= ? AND m.type = ?", actorID, since, models.MissionTypeDaily).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count dailies: %w", err)
	}
	return count, nil
}

func (r *missionRepository) CreateActorMission(ctx context.Context, am *models.ActorMission) error {
	now := time.Now()
	am.CreatedAt = now
	am.UpdatedAt = now
	if _, err := r.db.NewInsert().Model(am).Exec(ctx); err != nil {
		return fmt.Errorf("failed to assign mission: %w", err)
	}
	return nil
}

func (r *missionRepository) SaveProgress(ctx context.Context, am *models.ActorMission) error {
	am.UpdatedAt = time.Now()
	res, err := r.db.NewUpdate().
		Model(am).
		Column("progress", "completed", "updated_at").
		WherePK().
		Where("am.completed = false").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save mission progress: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrConflict
	}
	return nil
}

func (r *missionRepository) Claim(ctx context.Context, am *models.ActorMission, actor *models.Actor) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		am.Claimed = true
		am.UpdatedAt = time.Now()
		res, err := tx.NewUpdate().
			Model(am).
			Column("claimed", "updated_at").
			WherePK().
			Where("am.completed = true AND am.claimed = false").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to claim mission: %w", err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return ErrConflict
		}
		return applyActorUpdate(ctx, tx, actor)
	})
}
