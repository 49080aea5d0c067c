package regen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
)

type fakeStore struct {
	mu     sync.Mutex
	actors []*models.Actor

	updateErrs map[string]error
	updated    map[string]*models.Actor
}

func (f *fakeStore) GetRegenDue(_ context.Context, cutoff time.Time) ([]*models.Actor, error) {
	var due []*models.Actor
	for _, a := range f.actors {
		if a.LastEnergyUpdate.Before(cutoff) || a.LastNerveUpdate.Before(cutoff) ||
			a.LastWillpowerUpdate.Before(cutoff) || a.LastHealthUpdate.Before(cutoff) {
			cp := *a
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (f *fakeStore) Update(_ context.Context, actor *models.Actor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.updateErrs[actor.ID]; ok {
		return err
	}
	if f.updated == nil {
		f.updated = make(map[string]*models.Actor)
	}
	cp := *actor
	f.updated[actor.ID] = &cp
	return nil
}

var (
	now     = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stale   = now.Add(-10 * time.Minute)
	rates   = Rates{Energy: 10, Nerve: 5, Willpower: 5, Health: 10}
	testInt = 5 * time.Minute
)

func staleActor(id string) *models.Actor {
	a := models.NewActor(id, id+"@example.com")
	a.ID = id
	a.Energy = 50
	a.Nerve = 50
	a.Willpower = 50
	a.Health = 50
	a.LastEnergyUpdate = stale
	a.LastNerveUpdate = stale
	a.LastWillpowerUpdate = stale
	a.LastHealthUpdate = stale
	return a
}

func TestRunOnceRegenerates(t *testing.T) {
	store := &fakeStore{actors: []*models.Actor{staleActor("a1")}}
	e := NewEngine(store, testInt, rates)

	if err := e.RunOnce(context.Background(), now); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	got := store.updated["a1"]
	if got == nil {
		t.Fatal("actor was not updated")
	}
	if got.Energy != 60 || got.Nerve != 55 || got.Willpower != 55 || got.Health != 60 {
		t.Errorf("resources = %d/%d/%d/%d, want 60/55/55/60",
			got.Energy, got.Nerve, got.Willpower, got.Health)
	}
	if !got.LastEnergyUpdate.Equal(now) {
		t.Errorf("energy timestamp not advanced: %v", got.LastEnergyUpdate)
	}
}

func TestRunOnceClampsAtCap(t *testing.T) {
	a := staleActor("a1")
	a.Energy = 95
	store := &fakeStore{actors: []*models.Actor{a}}

	if err := NewEngine(store, testInt, rates).RunOnce(context.Background(), now); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if got := store.updated["a1"].Energy; got != models.ResourceCap {
		t.Errorf("energy = %d, want %d", got, models.ResourceCap)
	}
}

func TestRunOnceSkipsFullAndFresh(t *testing.T) {
	full := staleActor("full")
	full.Energy = models.ResourceCap
	full.Nerve = models.ResourceCap
	full.Willpower = models.ResourceCap
	full.Health = models.ResourceCap

	fresh := staleActor("fresh")
	fresh.LastEnergyUpdate = now
	fresh.LastNerveUpdate = now
	fresh.LastWillpowerUpdate = now
	fresh.LastHealthUpdate = now

	store := &fakeStore{actors: []*models.Actor{full, fresh}}
	if err := NewEngine(store, testInt, rates).RunOnce(context.Background(), now); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(store.updated) != 0 {
		t.Errorf("updated %d actors, want 0", len(store.updated))
	}
}

func TestRunOncePartialResources(t *testing.T) {
	a := staleActor("a1")
	// Only nerve is due; the other timestamps are current.
	a.LastEnergyUpdate = now
	a.LastWillpowerUpdate = now
	a.LastHealthUpdate = now

	store := &fakeStore{actors: []*models.Actor{a}}
	if err := NewEngine(store, testInt, rates).RunOnce(context.Background(), now); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	got := store.updated["a1"]
	if got.Nerve != 55 {
		t.Errorf("nerve = %d, want 55", got.Nerve)
	}
	if got.Energy != 50 {
		t.Errorf("energy = %d, want untouched 50", got.Energy)
	}
	if !got.LastEnergyUpdate.Equal(now) {
		t.Errorf("fresh energy timestamp moved: %v", got.LastEnergyUpdate)
	}
}

func TestRunOnceToleratesConflicts(t *testing.T) {
	store := &fakeStore{
		actors:     []*models.Actor{staleActor("a1"), staleActor("a2")},
		updateErrs: map[string]error{"a1": repositories.ErrConflict},
	}

	if err := NewEngine(store, testInt, rates).RunOnce(context.Background(), now); err != nil {
		t.Fatalf("RunOnce should swallow conflicts: %v", err)
	}
	if store.updated["a2"] == nil {
		t.Error("a2 should still regenerate when a1 conflicts")
	}
}

func TestRunOnceToleratesPersistFailures(t *testing.T) {
	store := &fakeStore{
		actors:     []*models.Actor{staleActor("a1"), staleActor("a2"), staleActor("a3")},
		updateErrs: map[string]error{"a2": errors.New("connection reset")},
	}

	if err := NewEngine(store, testInt, rates).RunOnce(context.Background(), now); err != nil {
		t.Fatalf("RunOnce must not abort the batch on one bad row: %v", err)
	}
	if store.updated["a1"] == nil || store.updated["a3"] == nil {
		t.Error("siblings should still regenerate when a2 fails to persist")
	}
	if store.updated["a2"] != nil {
		t.Error("a2 should be left for the next tick")
	}
}
