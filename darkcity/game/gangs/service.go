// Package gangs handles crews: creation, membership and the shared treasury.
package gangs

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/veszto/darkcity/darkcity/audit"
	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

// CreationCost is what founding a gang takes out of the leader's cash.
const CreationCost int64 = 1000_00

const (
	maxNameLen = 32
	maxTagLen  = 5
)

type ActorStore interface {
	GetByID(ctx context.Context, id string) (*models.Actor, error)
}

type GangStore interface {
	Create(ctx context.Context, gang *models.Gang, leader *models.Actor) error
	GetByID(ctx context.Context, id string) (*models.Gang, error)
	GetMembers(ctx context.Context, gangID string) ([]*models.GangMember, error)
	AddMember(ctx context.Context, member *models.GangMember, actor *models.Actor) error
	Contribute(ctx context.Context, gang *models.Gang, member *models.GangMember, actor *models.Actor, amount int64) error
}

type Service struct {
	actors   ActorStore
	gangs    GangStore
	recorder audit.Recorder
}

func NewService(actors ActorStore, gangs GangStore, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.NoopRecorder{}
	}
	return &Service{actors: actors, gangs: gangs, recorder: recorder}
}

// Create founds a gang with the actor as leader. Founding costs cash and an
// actor can belong to one gang at a time.
func (s *Service) Create(ctx context.Context, leaderID, name, tag string) (*models.Gang, error) {
	name = strings.TrimSpace(name)
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if name == "" || len(name) > maxNameLen {
		return nil, game.Precondition("gang name must be 1-%d characters", maxNameLen)
	}
	if tag == "" || len(tag) > maxTagLen {
		return nil, game.Precondition("gang tag must be 1-%d characters", maxTagLen)
	}

	var gang *models.Gang
	err := game.RetryConflict(ctx, func(ctx context.Context) error {
		leader, err := s.loadActor(ctx, leaderID)
		if err != nil {
			return err
		}
		if leader.GangID != nil {
			return game.Precondition("you are already in a gang")
		}
		if leader.MoneyCash < CreationCost {
			return game.Precondition("founding a gang costs %s", models.FormatMoney(CreationCost))
		}
		leader.MoneyCash -= CreationCost

		gang = &models.Gang{
			ID:       uuid.NewString(),
			Name:     name,
			Tag:      tag,
			LeaderID: leaderID,
		}
		return s.gangs.Create(ctx, gang, leader)
	})
	if err != nil {
		return nil, err
	}

	_ = s.recorder.Record(ctx, audit.Event{
		Kind:    "gang_created",
		ActorID: leaderID,
		Details: map[string]any{"gang_id": gang.ID, "name": name},
	})
	return gang, nil
}

func (s *Service) Get(ctx context.Context, gangID string) (*models.Gang, []*models.GangMember, error) {
	gang, err := s.gangs.GetByID(ctx, gangID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, game.NotFound("gang not found")
		}
		return nil, nil, err
	}
	members, err := s.gangs.GetMembers(ctx, gangID)
	if err != nil {
		return nil, nil, err
	}
	return gang, members, nil
}

// Join adds the actor to the gang as a regular member.
func (s *Service) Join(ctx context.Context, actorID, gangID string) error {
	if _, err := s.gangs.GetByID(ctx, gangID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return game.NotFound("gang not found")
		}
		return err
	}

	return game.RetryConflict(ctx, func(ctx context.Context) error {
		actor, err := s.loadActor(ctx, actorID)
		if err != nil {
			return err
		}
		if actor.GangID != nil {
			return game.Precondition("you are already in a gang")
		}

		member := &models.GangMember{
			ID:      uuid.NewString(),
			GangID:  gangID,
			ActorID: actorID,
			Role:    models.GangRoleMember,
		}
		return s.gangs.AddMember(ctx, member, actor)
	})
}

// Contribute moves the member's cash into the gang treasury.
func (s *Service) Contribute(ctx context.Context, actorID, gangID string, amount int64) error {
	if amount <= 0 {
		return game.Precondition("amount must be positive")
	}

	gang, err := s.gangs.GetByID(ctx, gangID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return game.NotFound("gang not found")
		}
		return err
	}

	members, err := s.gangs.GetMembers(ctx, gangID)
	if err != nil {
		return err
	}
	var membership *models.GangMember
	for _, m := range members {
		if m.ActorID == actorID {
			membership = m
			break
		}
	}
	if membership == nil {
		return game.Forbidden("you are not a member of this gang")
	}

	return game.RetryConflict(ctx, func(ctx context.Context) error {
		actor, err := s.loadActor(ctx, actorID)
		if err != nil {
			return err
		}
		if actor.MoneyCash < amount {
			return game.Precondition("not enough cash")
		}
		actor.MoneyCash -= amount
		return s.gangs.Contribute(ctx, gang, membership, actor, amount)
	})
}

func (s *Service) loadActor(ctx context.Context, id string) (*models.Actor, error) {
	actor, err := s.actors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, game.NotFound("actor not found")
		}
		return nil, err
	}
	return actor, nil
}
