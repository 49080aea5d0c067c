package combat

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

type fakeWorld struct {
	actors   map[string]*models.Actor
	stats    map[string]*models.ActorStats
	equipped map[string][]*models.InventorySlot

	logs       []*models.CombatLog
	recordErrs []error
}

func (f *fakeWorld) GetByID(_ context.Context, id string) (*models.Actor, error) {
	a, ok := f.actors[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeWorld) GetStats(_ context.Context, actorID string) (*models.ActorStats, error) {
	s, ok := f.stats[actorID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return s, nil
}

func (f *fakeWorld) GetAvailableTargets(_ context.Context, excludeID string, now time.Time, _ int) ([]*models.Actor, error) {
	var out []*models.Actor
	for id, a := range f.actors {
		if id == excludeID || a.Confined(now) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeWorld) GetEquipped(_ context.Context, actorID string) ([]*models.InventorySlot, error) {
	return f.equipped[actorID], nil
}

func (f *fakeWorld) RecordResolution(_ context.Context, attacker, defender *models.Actor, log *models.CombatLog) error {
	if len(f.recordErrs) > 0 {
		err := f.recordErrs[0]
		f.recordErrs = f.recordErrs[1:]
		if err != nil {
			return err
		}
	}
	atk, def := *attacker, *defender
	f.actors[attacker.ID] = &atk
	f.actors[defender.ID] = &def
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeWorld) GetHistory(_ context.Context, actorID string, limit int) ([]*models.CombatLog, error) {
	var out []*models.CombatLog
	for _, l := range f.logs {
		if l.AttackerID == actorID || l.DefenderID == actorID {
			out = append(out, l)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type capturedAlert struct {
	actorID string
	payload map[string]any
}

type fakeAlerter struct {
	alerts []capturedAlert
}

func (f *fakeAlerter) NotifyActor(actorID string, payload map[string]any) {
	f.alerts = append(f.alerts, capturedAlert{actorID, payload})
}

func newWorld() *fakeWorld {
	atk := models.NewActor("bruiser", "bruiser@example.com")
	atk.ID = "atk"
	def := models.NewActor("victim", "victim@example.com")
	def.ID = "def"
	def.MoneyCash = 1000_00

	atkStats := models.NewActorStats("atk")
	atkStats.Strength = 50
	defStats := models.NewActorStats("def")

	return &fakeWorld{
		actors:   map[string]*models.Actor{"atk": atk, "def": def},
		stats:    map[string]*models.ActorStats{"atk": atkStats, "def": defStats},
		equipped: map[string][]*models.InventorySlot{},
	}
}

func newTestEngine(w *fakeWorld, dice *stubDice, alerter *fakeAlerter) *Engine {
	var a Alerter
	if alerter != nil {
		a = alerter
	}
	e := NewEngine(w, w, w, dice, nil, a, nil, 10)
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestAttackerWin(t *testing.T) {
	w := newWorld()
	alerter := &fakeAlerter{}
	// Both sides hit (rolls 0.1, 0.1), steal roll 0.5 => 10%, hospital +15min.
	dice := &stubDice{floats: []float64{0.1, 0.1, 0.5}, ints: []int64{15}}

	rep, err := newTestEngine(w, dice, alerter).Attack(context.Background(), "atk", "def")
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	if rep.Result != models.CombatResultAttackerWin {
		t.Fatalf("result = %s, want attacker_win", rep.Result)
	}
	// Attacker: 50 str vs 10/2 def = 45. Defender: 10 str vs 25 def => floor 1.
	if rep.AttackerDamage != 45 || rep.DefenderDamage != 1 {
		t.Errorf("damage = %d/%d, want 45/1", rep.AttackerDamage, rep.DefenderDamage)
	}
	if rep.MoneyStolen != 100_00 {
		t.Errorf("stolen = %d, want %d", rep.MoneyStolen, 100_00)
	}
	if rep.XPGained != 15 {
		t.Errorf("xp = %d, want 15", rep.XPGained)
	}

	atk, def := w.actors["atk"], w.actors["def"]
	if atk.MoneyCash != models.StartingCash+100_00 {
		t.Errorf("attacker cash = %d", atk.MoneyCash)
	}
	if def.MoneyCash != 900_00 {
		t.Errorf("defender cash = %d", def.MoneyCash)
	}
	if atk.Nerve != 90 {
		t.Errorf("nerve = %d, want 90", atk.Nerve)
	}
	if def.HospitalReleaseTime == nil {
		t.Fatal("defender not hospitalized")
	}
	if got, want := *def.HospitalReleaseTime, time.Date(2025, 6, 1, 12, 45, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("hospital release = %v, want %v", got, want)
	}
	if def.Health != 70 {
		t.Errorf("defender health = %d, want 70", def.Health)
	}

	if len(w.logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(w.logs))
	}
	if len(alerter.alerts) != 1 || alerter.alerts[0].actorID != "def" {
		t.Fatalf("defender was not notified: %+v", alerter.alerts)
	}
	if alerter.alerts[0].payload["type"] != "combat_attack" {
		t.Errorf("payload type = %v", alerter.alerts[0].payload["type"])
	}
}

func TestDefenderWin(t *testing.T) {
	w := newWorld()
	// Attacker misses (0.99), defender hits (0.1), hospital +0min => 30.
	dice := &stubDice{floats: []float64{0.99, 0.1}, ints: []int64{0}}

	rep, err := newTestEngine(w, dice, nil).Attack(context.Background(), "atk", "def")
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	if rep.Result != models.CombatResultDefenderWin {
		t.Fatalf("result = %s, want defender_win", rep.Result)
	}
	atk := w.actors["atk"]
	if atk.HospitalReleaseTime == nil {
		t.Fatal("attacker not hospitalized")
	}
	if rep.HospitalMins != 30 {
		t.Errorf("hospital minutes = %d, want 30", rep.HospitalMins)
	}
	if rep.MoneyStolen != 0 {
		t.Errorf("money stolen on a loss: %d", rep.MoneyStolen)
	}
}

func TestDrawBothMiss(t *testing.T) {
	w := newWorld()
	dice := &stubDice{floats: []float64{0.99, 0.99}}

	rep, err := newTestEngine(w, dice, nil).Attack(context.Background(), "atk", "def")
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	if rep.Result != models.CombatResultDraw {
		t.Fatalf("result = %s, want draw", rep.Result)
	}
	if w.actors["atk"].Health != 90 || w.actors["def"].Health != 90 {
		t.Errorf("health = %d/%d, want 90/90",
			w.actors["atk"].Health, w.actors["def"].Health)
	}
	if w.actors["atk"].HospitalReleaseTime != nil || w.actors["def"].HospitalReleaseTime != nil {
		t.Error("nobody should be hospitalized on a draw")
	}
}

func TestAttackRejections(t *testing.T) {
	release := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		attackerID string
		defenderID string
		mut        func(w *fakeWorld)
		check      func(error) bool
	}{
		{
			name: "self attack", attackerID: "atk", defenderID: "atk",
			mut: func(*fakeWorld) {}, check: game.IsPrecondition,
		},
		{
			name: "attacker confined", attackerID: "atk", defenderID: "def",
			mut:   func(w *fakeWorld) { w.actors["atk"].PrisonReleaseTime = &release },
			check: game.IsForbidden,
		},
		{
			name: "defender confined", attackerID: "atk", defenderID: "def",
			mut:   func(w *fakeWorld) { w.actors["def"].HospitalReleaseTime = &release },
			check: game.IsPrecondition,
		},
		{
			name: "not enough nerve", attackerID: "atk", defenderID: "def",
			mut:   func(w *fakeWorld) { w.actors["atk"].Nerve = 5 },
			check: game.IsPrecondition,
		},
		{
			name: "unknown defender", attackerID: "atk", defenderID: "ghost",
			mut: func(*fakeWorld) {}, check: game.IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld()
			tt.mut(w)
			_, err := newTestEngine(w, &stubDice{}, nil).Attack(context.Background(), tt.attackerID, tt.defenderID)
			if err == nil || !tt.check(err) {
				t.Fatalf("got %v, want typed rejection", err)
			}
			if len(w.logs) != 0 {
				t.Error("combat log written for a rejected attack")
			}
		})
	}
}

func TestEquipmentBonusesApply(t *testing.T) {
	w := newWorld()
	w.equipped["def"] = []*models.InventorySlot{
		{Item: &models.Item{EffectStat: "defense", EffectValue: 70}},
	}
	// Both hit.
	dice := &stubDice{floats: []float64{0.1, 0.1, 0.5}, ints: []int64{0}}

	rep, err := newTestEngine(w, dice, nil).Attack(context.Background(), "atk", "def")
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	// Attacker 50 str vs (10+70)/2 = 40 defense => damage 10.
	if rep.AttackerDamage != 10 {
		t.Errorf("attacker damage = %d, want 10", rep.AttackerDamage)
	}
}

func TestAttackRetriesOnConflict(t *testing.T) {
	w := newWorld()
	w.recordErrs = []error{repositories.ErrConflict, nil}
	dice := &stubDice{floats: []float64{0.1, 0.1, 0.5, 0.1, 0.1, 0.5}, ints: []int64{0, 0}}

	_, err := newTestEngine(w, dice, nil).Attack(context.Background(), "atk", "def")
	if err != nil {
		t.Fatalf("Attack after retry: %v", err)
	}
	if len(w.logs) != 1 {
		t.Errorf("logs = %d, want 1", len(w.logs))
	}
}

func TestTargetsExcludesConfined(t *testing.T) {
	w := newWorld()
	release := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	w.actors["def"].PrisonReleaseTime = &release

	targets, err := newTestEngine(w, &stubDice{}, nil).Targets(context.Background(), "atk", 50)
	if err != nil {
		t.Fatalf("Targets: %v", err)
	}
	if len(targets) != 0 {
		t.Errorf("targets = %d, want 0", len(targets))
	}
}
