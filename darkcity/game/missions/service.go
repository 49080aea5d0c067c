// Package missions assigns story and daily missions and settles their rewards.
package missions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

// dailyBatchSize is how many dailies an actor is dealt per calendar day.
const dailyBatchSize = 3

type ActorStore interface {
	GetByID(ctx context.Context, id string) (*models.Actor, error)
}

type MissionStore interface {
	GetStoryByOrder(ctx context.Context, order int) (*models.MissionDefinition, error)
	GetRandomDailies(ctx context.Context, maxLevel, count int) ([]*models.MissionDefinition, error)
	GetActorMission(ctx context.Context, id string) (*models.ActorMission, error)
	GetActiveByActor(ctx context.Context, actorID string) ([]*models.ActorMission, error)
	GetLastCompletedStoryOrder(ctx context.Context, actorID string) (int, error)
	CountDailiesSince(ctx context.Context, actorID string, since time.Time) (int, error)
	CreateActorMission(ctx context.Context, am *models.ActorMission) error
	SaveProgress(ctx context.Context, am *models.ActorMission) error
	Claim(ctx context.Context, am *models.ActorMission, actor *models.Actor) error
}

type ClaimResult struct {
	XP           int64
	Money        int64
	Credits      int64
	LevelsGained int
}

type Service struct {
	actors   ActorStore
	missions MissionStore
	now      func() time.Time
}

func NewService(actors ActorStore, missions MissionStore) *Service {
	return &Service{actors: actors, missions: missions, now: time.Now}
}

func (s *Service) Active(ctx context.Context, actorID string) ([]*models.ActorMission, error) {
	return s.missions.GetActiveByActor(ctx, actorID)
}

// EnsureAssigned tops up the actor's mission slate: the next story mission in
// order if none is unfinished, and a fresh batch of dailies once per calendar
// day.
func (s *Service) EnsureAssigned(ctx context.Context, actorID string) error {
	actor, err := s.actors.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return game.NotFound("actor not found")
		}
		return err
	}

	active, err := s.missions.GetActiveByActor(ctx, actorID)
	if err != nil {
		return err
	}

	if err := s.ensureStory(ctx, actor, active); err != nil {
		return err
	}
	return s.ensureDailies(ctx, actor)
}

func (s *Service) ensureStory(ctx context.Context, actor *models.Actor, active []*models.ActorMission) error {
	for _, am := range active {
		// A finished story mission awaiting its claim does not block the
		// next chapter.
		if am.Completed {
			continue
		}
		if am.Mission != nil && am.Mission.Type == models.MissionTypeStory {
			return nil
		}
	}

	lastOrder, err := s.missions.GetLastCompletedStoryOrder(ctx, actor.ID)
	if err != nil {
		return err
	}
	next, err := s.missions.GetStoryByOrder(ctx, lastOrder+1)
	if errors.Is(err, repositories.ErrNotFound) {
		// Story line finished.
		return nil
	}
	if err != nil {
		return err
	}
	if actor.Level < next.MinLevel {
		return nil
	}

	return s.missions.CreateActorMission(ctx, &models.ActorMission{
		ID:        uuid.NewString(),
		ActorID:   actor.ID,
		MissionID: next.ID,
	})
}

func (s *Service) ensureDailies(ctx context.Context, actor *models.Actor) error {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	n, err := s.missions.CountDailiesSince(ctx, actor.ID, dayStart)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	defs, err := s.missions.GetRandomDailies(ctx, actor.Level, dailyBatchSize)
	if err != nil {
		return err
	}
	for _, def := range defs {
		err := s.missions.CreateActorMission(ctx, &models.ActorMission{
			ID:        uuid.NewString(),
			ActorID:   actor.ID,
			MissionID: def.ID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Progress feeds an accomplished action into every matching active mission.
// A mission with a target only advances when the action hits that target.
func (s *Service) Progress(ctx context.Context, actorID string, req models.MissionRequirement, amount int64, targetID *int64) error {
	active, err := s.missions.GetActiveByActor(ctx, actorID)
	if err != nil {
		return err
	}

	for _, am := range active {
		if am.Completed || am.Mission == nil || am.Mission.RequirementType != req {
			continue
		}
		if am.Mission.TargetID != nil {
			if targetID == nil || *am.Mission.TargetID != *targetID {
				continue
			}
		}

		am.Progress += amount
		if am.Progress >= am.Mission.RequirementValue {
			am.Progress = am.Mission.RequirementValue
			am.Completed = true
		}
		if err := s.missions.SaveProgress(ctx, am); err != nil {
			// Lost against a concurrent completion of the same mission.
			if errors.Is(err, repositories.ErrConflict) {
				continue
			}
			return err
		}
	}
	return nil
}

// Claim pays out a completed mission. Each mission pays exactly once; a
// concurrent or repeated claim is rejected.
func (s *Service) Claim(ctx context.Context, actorID, actorMissionID string) (*ClaimResult, error) {
	var result *ClaimResult
	var storyClaimed bool
	err := game.RetryConflict(ctx, func(ctx context.Context) error {
		am, err := s.missions.GetActorMission(ctx, actorMissionID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return game.NotFound("mission not found")
			}
			return err
		}
		if am.ActorID != actorID {
			return game.Forbidden("not your mission")
		}
		if am.Claimed {
			return game.Precondition("reward already claimed")
		}
		if !am.Completed {
			return game.Precondition("mission not completed")
		}
		if am.Mission == nil {
			return game.NotFound("mission definition missing")
		}

		actor, err := s.actors.GetByID(ctx, actorID)
		if err != nil {
			return err
		}

		actor.MoneyCash += am.Mission.RewardMoney
		actor.Credits += am.Mission.RewardCredits
		levels := actor.GainXP(am.Mission.RewardXP)

		if err := s.missions.Claim(ctx, am, actor); err != nil {
			return err
		}
		storyClaimed = am.Mission.Type == models.MissionTypeStory
		result = &ClaimResult{
			XP:           am.Mission.RewardXP,
			Money:        am.Mission.RewardMoney,
			Credits:      am.Mission.RewardCredits,
			LevelsGained: levels,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Open the next chapter right away instead of waiting for the next
	// assignment pass. The reward is already settled, so a failure here
	// only delays the follow-up mission.
	if storyClaimed {
		if err := s.EnsureAssigned(ctx, actorID); err != nil {
			slog.Warn("Failed to assign the next story mission",
				slog.String("type", "game"),
				slog.String("actor_id", actorID),
				slog.String("error", err.Error()))
		}
	}
	return result, nil
}

// Tracker is the fire-and-forget progress hook handed to the other engines.
// Failures are logged, never propagated: mission bookkeeping must not undo a
// crime or a fight that already happened.
type Tracker struct {
	svc *Service
}

func NewTracker(svc *Service) *Tracker {
	return &Tracker{svc: svc}
}

func (t *Tracker) RecordCrime(ctx context.Context, actorID string, crimeID int64) {
	t.report(ctx, actorID, models.RequirementCrime, 1, &crimeID)
}

func (t *Tracker) RecordCombatWin(ctx context.Context, actorID string) {
	t.report(ctx, actorID, models.RequirementCombat, 1, nil)
}

func (t *Tracker) RecordGym(ctx context.Context, actorID string) {
	t.report(ctx, actorID, models.RequirementGym, 1, nil)
}

func (t *Tracker) RecordItem(ctx context.Context, actorID string, itemID int64, qty int64) {
	t.report(ctx, actorID, models.RequirementItem, qty, &itemID)
}

func (t *Tracker) report(ctx context.Context, actorID string, req models.MissionRequirement, amount int64, targetID *int64) {
	if err := t.svc.Progress(ctx, actorID, req, amount, targetID); err != nil {
		slog.Error("Failed to track mission progress",
			slog.String("type", "game"),
			slog.String("actor_id", actorID),
			slog.String("requirement", string(req)),
			slog.String("error", err.Error()))
	}
}
