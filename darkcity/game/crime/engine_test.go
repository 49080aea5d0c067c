package crime

import (
	"context"
	"testing"
	"time"

	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

type stubDice struct {
	floats []float64
	ints   []int64
}

func (d *stubDice) Float64() float64 {
	if len(d.floats) == 0 {
		return 0.5
	}
	v := d.floats[0]
	d.floats = d.floats[1:]
	return v
}

func (d *stubDice) Int63n(n int64) int64 {
	if len(d.ints) == 0 {
		return 0
	}
	v := d.ints[0]
	d.ints = d.ints[1:]
	return v % n
}

type fakeActors struct {
	actor       *models.Actor
	stats       *models.ActorStats
	updateErrs  []error
	updateCalls int
}

func (f *fakeActors) GetByID(_ context.Context, id string) (*models.Actor, error) {
	if f.actor == nil || f.actor.ID != id {
		return nil, repositories.ErrNotFound
	}
	cp := *f.actor
	return &cp, nil
}

func (f *fakeActors) GetStats(_ context.Context, actorID string) (*models.ActorStats, error) {
	if f.stats == nil || f.stats.ActorID != actorID {
		return nil, repositories.ErrNotFound
	}
	return f.stats, nil
}

func (f *fakeActors) Update(_ context.Context, actor *models.Actor) error {
	f.updateCalls++
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		if err != nil {
			return err
		}
	}
	cp := *actor
	f.actor = &cp
	return nil
}

type fakeCrimes struct {
	crimes map[int64]*models.CrimeDefinition
}

func (f *fakeCrimes) GetAll(context.Context) ([]*models.CrimeDefinition, error) {
	out := make([]*models.CrimeDefinition, 0, len(f.crimes))
	for _, c := range f.crimes {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCrimes) GetByID(_ context.Context, id int64) (*models.CrimeDefinition, error) {
	c, ok := f.crimes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return c, nil
}

func testActor() *models.Actor {
	a := models.NewActor("vinnie", "vinnie@example.com")
	a.ID = "actor-1"
	return a
}

func pickpocketing() *models.CrimeDefinition {
	return &models.CrimeDefinition{
		ID:              1,
		Name:            "Pickpocketing",
		EnergyCost:      5,
		MinMoney:        10_00,
		MaxMoney:        50_00,
		XPReward:        10,
		Difficulty:      20,
		JailChance:      0.1,
		JailTimeMinutes: 5,
		RequiredLevel:   1,
	}
}

func newTestEngine(actors *fakeActors, crimes *fakeCrimes, dice *stubDice) *Engine {
	e := NewEngine(actors, crimes, dice, nil, nil)
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestSuccessChanceCap(t *testing.T) {
	if got := SuccessChance(10, 20); got != 75 {
		t.Errorf("SuccessChance(10, 20) = %v, want 75", got)
	}
	if got := SuccessChance(500, 20); got != 95 {
		t.Errorf("SuccessChance(500, 20) = %v, want cap 95", got)
	}
}

func TestCommitSuccess(t *testing.T) {
	actors := &fakeActors{actor: testActor(), stats: models.NewActorStats("actor-1")}
	crimes := &fakeCrimes{crimes: map[int64]*models.CrimeDefinition{1: pickpocketing()}}
	// Success roll 0.1 (10 < 75), payout roll lands on min.
	dice := &stubDice{floats: []float64{0.1}, ints: []int64{0}}

	out, err := newTestEngine(actors, crimes, dice).Commit(context.Background(), "actor-1", 1)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !out.Success {
		t.Fatal("expected success")
	}
	if out.MoneyEarned != 10_00 {
		t.Errorf("MoneyEarned = %d, want %d", out.MoneyEarned, 10_00)
	}
	if actors.actor.Energy != 95 {
		t.Errorf("energy = %d, want 95", actors.actor.Energy)
	}
	if actors.actor.MoneyCash != models.StartingCash+10_00 {
		t.Errorf("cash = %d, want %d", actors.actor.MoneyCash, models.StartingCash+10_00)
	}
	if actors.actor.XP != 10 {
		t.Errorf("xp = %d, want 10", actors.actor.XP)
	}
}

func TestCommitFailureJailed(t *testing.T) {
	actors := &fakeActors{actor: testActor(), stats: models.NewActorStats("actor-1")}
	crimes := &fakeCrimes{crimes: map[int64]*models.CrimeDefinition{1: pickpocketing()}}
	// Success roll 0.99 (99 >= 75) fails, jail roll 0.05 (5 < 10) lands.
	dice := &stubDice{floats: []float64{0.99, 0.05}}

	e := newTestEngine(actors, crimes, dice)
	out, err := e.Commit(context.Background(), "actor-1", 1)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if out.Success {
		t.Fatal("expected failure")
	}
	if !out.Jailed || out.JailMinutes != 5 {
		t.Fatalf("expected 5 minute jail, got %+v", out)
	}
	if actors.actor.PrisonReleaseTime == nil {
		t.Fatal("prison release time not set")
	}
	want := e.now().Add(5 * time.Minute)
	if !actors.actor.PrisonReleaseTime.Equal(want) {
		t.Errorf("release = %v, want %v", actors.actor.PrisonReleaseTime, want)
	}
	// Energy is still spent on failure.
	if actors.actor.Energy != 95 {
		t.Errorf("energy = %d, want 95", actors.actor.Energy)
	}
	if actors.actor.MoneyCash != models.StartingCash {
		t.Errorf("cash changed on failure: %d", actors.actor.MoneyCash)
	}
}

func TestCommitFailureNoJail(t *testing.T) {
	actors := &fakeActors{actor: testActor(), stats: models.NewActorStats("actor-1")}
	crimes := &fakeCrimes{crimes: map[int64]*models.CrimeDefinition{1: pickpocketing()}}
	dice := &stubDice{floats: []float64{0.99, 0.50}}

	out, err := newTestEngine(actors, crimes, dice).Commit(context.Background(), "actor-1", 1)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if out.Success || out.Jailed {
		t.Fatalf("expected plain failure, got %+v", out)
	}
	if actors.actor.PrisonReleaseTime != nil {
		t.Error("prison release time set on no-jail failure")
	}
}

func TestCommitLevelUpLoop(t *testing.T) {
	actor := testActor()
	actor.XP = 99 // one shy of the level 1 threshold
	actors := &fakeActors{actor: actor, stats: models.NewActorStats("actor-1")}
	big := pickpocketing()
	big.XPReward = 401 // 99+401 = 500: clears 100 (L1) and 400 (L2)
	crimes := &fakeCrimes{crimes: map[int64]*models.CrimeDefinition{1: big}}
	dice := &stubDice{floats: []float64{0.1}, ints: []int64{0}}

	out, err := newTestEngine(actors, crimes, dice).Commit(context.Background(), "actor-1", 1)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if out.LevelsGained != 2 || out.NewLevel != 3 {
		t.Errorf("levels gained = %d newLevel = %d, want 2 and 3", out.LevelsGained, out.NewLevel)
	}
	if actors.actor.XP != 0 {
		t.Errorf("xp remainder = %d, want 0", actors.actor.XP)
	}
}

func TestCommitPreconditions(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(a *models.Actor)
		check func(error) bool
	}{
		{
			name:  "not enough energy",
			mut:   func(a *models.Actor) { a.Energy = 3 },
			check: game.IsPrecondition,
		},
		{
			name: "in prison",
			mut: func(a *models.Actor) {
				release := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
				a.PrisonReleaseTime = &release
			},
			check: game.IsForbidden,
		},
		{
			name:  "banned",
			mut:   func(a *models.Actor) { a.IsBanned = true },
			check: game.IsForbidden,
		},
		{
			name:  "level too low",
			mut:   func(a *models.Actor) { a.Level = 1 },
			check: game.IsForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := testActor()
			tt.mut(actor)
			def := pickpocketing()
			if tt.name == "level too low" {
				def.RequiredLevel = 5
			}
			actors := &fakeActors{actor: actor, stats: models.NewActorStats("actor-1")}
			crimes := &fakeCrimes{crimes: map[int64]*models.CrimeDefinition{1: def}}

			_, err := newTestEngine(actors, crimes, &stubDice{}).Commit(context.Background(), "actor-1", 1)
			if err == nil || !tt.check(err) {
				t.Fatalf("got %v, want typed rejection", err)
			}
			if actors.updateCalls != 0 {
				t.Error("actor was persisted on a rejected attempt")
			}
		})
	}
}

func TestCommitRetriesOnConflict(t *testing.T) {
	actors := &fakeActors{
		actor:      testActor(),
		stats:      models.NewActorStats("actor-1"),
		updateErrs: []error{repositories.ErrConflict, nil},
	}
	crimes := &fakeCrimes{crimes: map[int64]*models.CrimeDefinition{1: pickpocketing()}}
	dice := &stubDice{floats: []float64{0.1, 0.1}, ints: []int64{0, 0}}

	_, err := newTestEngine(actors, crimes, dice).Commit(context.Background(), "actor-1", 1)
	if err != nil {
		t.Fatalf("Commit after retry: %v", err)
	}
	if actors.updateCalls != 2 {
		t.Errorf("update calls = %d, want 2", actors.updateCalls)
	}
}

func TestCommitGivesUpAfterRepeatedConflicts(t *testing.T) {
	actors := &fakeActors{
		actor:      testActor(),
		stats:      models.NewActorStats("actor-1"),
		updateErrs: []error{repositories.ErrConflict, repositories.ErrConflict, repositories.ErrConflict},
	}
	crimes := &fakeCrimes{crimes: map[int64]*models.CrimeDefinition{1: pickpocketing()}}
	dice := &stubDice{floats: []float64{0.1, 0.1, 0.1}, ints: []int64{0, 0, 0}}

	_, err := newTestEngine(actors, crimes, dice).Commit(context.Background(), "actor-1", 1)
	if !game.IsConflict(err) {
		t.Fatalf("got %v, want conflict failure", err)
	}
}
