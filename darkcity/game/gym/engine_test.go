package gym

import (
	"context"
	"testing"

	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

type stubDice struct {
	ints []int64
}

func (d *stubDice) Float64() float64 { return 0.5 }

func (d *stubDice) Int63n(n int64) int64 {
	if len(d.ints) == 0 {
		return 0
	}
	v := d.ints[0]
	d.ints = d.ints[1:]
	return v % n
}

type fakeActors struct {
	actor *models.Actor
	stats *models.ActorStats

	updateErrs []error
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
	cp := *f.stats
	return &cp, nil
}

func (f *fakeActors) UpdateWithStats(_ context.Context, actor *models.Actor, stats *models.ActorStats) error {
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		if err != nil {
			return err
		}
	}
	acp, scp := *actor, *stats
	f.actor, f.stats = &acp, &scp
	return nil
}

func newFake() *fakeActors {
	actor := models.NewActor("lifter", "lifter@example.com")
	actor.ID = "actor-1"
	actor.MoneyCash = 1000_00
	return &fakeActors{actor: actor, stats: models.NewActorStats("actor-1")}
}

func TestTrainingCostGrowth(t *testing.T) {
	tests := []struct {
		value int
		want  int64
	}{
		{0, 100_00},
		{9, 100_00},
		{10, 110_00},
		{25, 121_00},
		{50, 161_05},
	}
	for _, tt := range tests {
		if got := TrainingCost(tt.value); got != tt.want {
			t.Errorf("TrainingCost(%d) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestTrain(t *testing.T) {
	f := newFake()
	// Roll 2 => base gain 3, stat 10 => dim 0.98 => floor(2.94) = 2.
	e := NewEngine(f, &stubDice{ints: []int64{2}}, nil)

	s, err := e.Train(context.Background(), "actor-1", models.StatStrength)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if s.Gain != 2 || s.NewValue != 12 {
		t.Errorf("gain/new = %d/%d, want 2/12", s.Gain, s.NewValue)
	}
	if s.MoneyCost != 110_00 {
		t.Errorf("cost = %d, want 110_00", s.MoneyCost)
	}
	if f.actor.Energy != 90 {
		t.Errorf("energy = %d, want 90", f.actor.Energy)
	}
	if f.actor.MoneyCash != 890_00 {
		t.Errorf("cash = %d, want 890_00", f.actor.MoneyCash)
	}
	if f.stats.Strength != 12 {
		t.Errorf("strength = %d, want 12", f.stats.Strength)
	}
}

func TestTrainDiminishingReturnsFloor(t *testing.T) {
	f := newFake()
	f.stats.Agility = 400
	f.actor.MoneyCash = 100_000_00
	// Roll 0 => base gain 1, dim 0.2 -> floored to the 0.5 minimum => 0.5, still >= 1 floor.
	e := NewEngine(f, &stubDice{ints: []int64{0}}, nil)

	s, err := e.Train(context.Background(), "actor-1", models.StatAgility)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if s.Gain != 1 {
		t.Errorf("gain = %d, want floor 1", s.Gain)
	}
}

func TestTrainRejections(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(f *fakeActors)
		stat  models.TrainableStat
		check func(error) bool
	}{
		{
			name: "invalid stat", stat: "charisma",
			mut: func(*fakeActors) {}, check: game.IsPrecondition,
		},
		{
			name: "not enough energy", stat: models.StatStrength,
			mut:   func(f *fakeActors) { f.actor.Energy = 5 },
			check: game.IsPrecondition,
		},
		{
			name: "not enough cash", stat: models.StatStrength,
			mut:   func(f *fakeActors) { f.actor.MoneyCash = 50_00 },
			check: game.IsPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			tt.mut(f)
			_, err := NewEngine(f, &stubDice{}, nil).Train(context.Background(), "actor-1", tt.stat)
			if err == nil || !tt.check(err) {
				t.Fatalf("got %v, want typed rejection", err)
			}
		})
	}
}

func TestTrainRetriesOnConflict(t *testing.T) {
	f := newFake()
	f.updateErrs = []error{repositories.ErrConflict, nil}

	if _, err := NewEngine(f, &stubDice{ints: []int64{0, 0}}, nil).Train(context.Background(), "actor-1", models.StatDefense); err != nil {
		t.Fatalf("Train after retry: %v", err)
	}
	if f.stats.Defense != 11 {
		t.Errorf("defense = %d, want 11", f.stats.Defense)
	}
}

func TestCosts(t *testing.T) {
	f := newFake()
	f.stats.Intelligence = 30

	table, err := NewEngine(f, &stubDice{}, nil).Costs(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("Costs: %v", err)
	}
	if got := table[models.StatIntelligence].MoneyCost; got != 133_10 {
		t.Errorf("intelligence cost = %d, want 133_10", got)
	}
	if got := table[models.StatStrength].MoneyCost; got != 100_00 {
		t.Errorf("strength cost = %d, want 100_00", got)
	}
}
