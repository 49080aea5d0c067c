// Package combat resolves attacks between actors.
package combat

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/veszto/darkcity/darkcity/audit"
	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

type ActorStore interface {
	GetByID(ctx context.Context, id string) (*models.Actor, error)
	GetStats(ctx context.Context, actorID string) (*models.ActorStats, error)
	GetAvailableTargets(ctx context.Context, excludeID string, now time.Time, limit int) ([]*models.Actor, error)
}

type InventoryStore interface {
	GetEquipped(ctx context.Context, actorID string) ([]*models.InventorySlot, error)
}

type CombatStore interface {
	RecordResolution(ctx context.Context, attacker, defender *models.Actor, log *models.CombatLog) error
	GetHistory(ctx context.Context, actorID string, limit int) ([]*models.CombatLog, error)
}

type ProgressSink interface {
	RecordCombatWin(ctx context.Context, actorID string)
}

// Alerter pushes a real-time event at the defender. Delivery is best effort.
type Alerter interface {
	NotifyActor(actorID string, payload map[string]any)
}

type Report struct {
	Result         models.CombatResult
	AttackerDamage int64
	DefenderDamage int64
	MoneyStolen    int64
	XPGained       int64
	LevelsGained   int
	HospitalMins   int
	DefenderName   string
}

type Engine struct {
	actors    ActorStore
	inventory InventoryStore
	combat    CombatStore
	dice      game.Dice
	missions  ProgressSink
	alerter   Alerter
	recorder  audit.Recorder
	nerveCost int
	now       func() time.Time
}

func NewEngine(actors ActorStore, inventory InventoryStore, combat CombatStore, dice game.Dice, missions ProgressSink, alerter Alerter, recorder audit.Recorder, nerveCost int) *Engine {
	if recorder == nil {
		recorder = audit.NoopRecorder{}
	}
	return &Engine{
		actors:    actors,
		inventory: inventory,
		combat:    combat,
		dice:      dice,
		missions:  missions,
		alerter:   alerter,
		recorder:  recorder,
		nerveCost: nerveCost,
		now:       time.Now,
	}
}

// combatant is the effective fighting profile: base stats plus equipment.
type combatant struct {
	strength int
	defense  int
	agility  int
}

func buildCombatant(stats *models.ActorStats, equipped []*models.InventorySlot) combatant {
	c := combatant{
		strength: stats.Strength,
		defense:  stats.Defense,
		agility:  stats.Agility,
	}
	for _, slot := range equipped {
		if slot.Item == nil {
			continue
		}
		switch models.TrainableStat(slot.Item.EffectStat) {
		case models.StatStrength:
			c.strength += slot.Item.EffectValue
		case models.StatDefense:
			c.defense += slot.Item.EffectValue
		case models.StatAgility:
			c.agility += slot.Item.EffectValue
		}
	}
	return c
}

// hitChance is 50% adjusted by the agility gap, capped at 95.
func hitChance(own, opp combatant) float64 {
	return math.Min(95, 50+float64(own.agility-opp.agility)*0.5)
}

// damageDealt is strength against half the opponent's defense, never below 1.
func damageDealt(own, opp combatant) int64 {
	dmg := float64(own.strength) - float64(opp.defense)*0.5
	if dmg < 1 {
		return 1
	}
	return int64(dmg)
}

// Attack resolves one round of combat between the two actors and persists the
// consequences atomically.
func (e *Engine) Attack(ctx context.Context, attackerID, defenderID string) (*Report, error) {
	if attackerID == defenderID {
		return nil, game.Precondition("you cannot attack yourself")
	}

	var report *Report
	err := game.RetryConflict(ctx, func(ctx context.Context) error {
		var err error
		report, err = e.resolve(ctx, attackerID, defenderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if report.Result == models.CombatResultAttackerWin && e.missions != nil {
		e.missions.RecordCombatWin(ctx, attackerID)
	}
	e.notify(attackerID, defenderID, report)
	e.record(ctx, attackerID, defenderID, report)
	return report, nil
}

func (e *Engine) resolve(ctx context.Context, attackerID, defenderID string) (*Report, error) {
	now := e.now()

	attacker, err := e.loadActor(ctx, attackerID, "attacker")
	if err != nil {
		return nil, err
	}
	defender, err := e.loadActor(ctx, defenderID, "defender")
	if err != nil {
		return nil, err
	}

	if attacker.Confined(now) {
		return nil, game.Forbidden("you are in prison or hospital")
	}
	if attacker.Nerve < e.nerveCost {
		return nil, game.Precondition("not enough nerve")
	}
	if defender.Confined(now) {
		return nil, game.Precondition("target is not available for combat")
	}

	atkStats, err := e.actors.GetStats(ctx, attackerID)
	if err != nil {
		return nil, err
	}
	defStats, err := e.actors.GetStats(ctx, defenderID)
	if err != nil {
		return nil, err
	}
	atkItems, err := e.inventory.GetEquipped(ctx, attackerID)
	if err != nil {
		return nil, err
	}
	defItems, err := e.inventory.GetEquipped(ctx, defenderID)
	if err != nil {
		return nil, err
	}

	atk := buildCombatant(atkStats, atkItems)
	def := buildCombatant(defStats, defItems)

	report := &Report{DefenderName: defender.Username}
	if game.RollPercent(e.dice, hitChance(atk, def)) {
		report.AttackerDamage = damageDealt(atk, def)
	}
	if game.RollPercent(e.dice, hitChance(def, atk)) {
		report.DefenderDamage = damageDealt(def, atk)
	}

	switch {
	case report.AttackerDamage > report.DefenderDamage:
		report.Result = models.CombatResultAttackerWin
		stealPct := 0.05 + e.dice.Float64()*0.10
		report.MoneyStolen = int64(float64(defender.MoneyCash) * stealPct)
		report.XPGained = 10 + int64(defender.Level)*5

		attacker.MoneyCash += report.MoneyStolen
		defender.MoneyCash -= report.MoneyStolen
		report.LevelsGained = attacker.GainXP(report.XPGained)

		report.HospitalMins = int(30 + e.dice.Int63n(30))
		e.hospitalize(defender, now, report.HospitalMins, 30, 10)

	case report.DefenderDamage > report.AttackerDamage:
		report.Result = models.CombatResultDefenderWin
		report.HospitalMins = int(30 + e.dice.Int63n(30))
		e.hospitalize(attacker, now, report.HospitalMins, 30, 10)

	default:
		report.Result = models.CombatResultDraw
		attacker.Health = clampFloor(attacker.Health-10, 20)
		defender.Health = clampFloor(defender.Health-10, 20)
	}

	attacker.Nerve -= e.nerveCost

	log := &models.CombatLog{
		ID:             uuid.NewString(),
		AttackerID:     attackerID,
		DefenderID:     defenderID,
		Result:         report.Result,
		AttackerDamage: report.AttackerDamage,
		DefenderDamage: report.DefenderDamage,
		MoneyStolen:    report.MoneyStolen,
		XPGained:       report.XPGained,
	}
	if err := e.combat.RecordResolution(ctx, attacker, defender, log); err != nil {
		return nil, err
	}
	return report, nil
}

func (e *Engine) hospitalize(a *models.Actor, now time.Time, minutes, damage, floor int) {
	release := now.Add(time.Duration(minutes) * time.Minute)
	a.HospitalReleaseTime = &release
	a.Health = clampFloor(a.Health-damage, floor)
}

func clampFloor(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}

func (e *Engine) loadActor(ctx context.Context, id, role string) (*models.Actor, error) {
	actor, err := e.actors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, game.NotFound("%s not found", role)
		}
		return nil, err
	}
	return actor, nil
}

func (e *Engine) notify(attackerID, defenderID string, r *Report) {
	if e.alerter == nil {
		return
	}
	moneyLost := int64(0)
	if r.Result == models.CombatResultAttackerWin {
		moneyLost = r.MoneyStolen
	}
	e.alerter.NotifyActor(defenderID, map[string]any{
		"type":        "combat_attack",
		"attacker_id": attackerID,
		"result":      string(r.Result),
		"damage":      r.AttackerDamage,
		"money_lost":  moneyLost,
	})
}

func (e *Engine) record(ctx context.Context, attackerID, defenderID string, r *Report) {
	_ = e.recorder.Record(ctx, audit.Event{
		Kind:    "combat",
		ActorID: attackerID,
		Details: map[string]any{
			"defender_id":  defenderID,
			"result":       string(r.Result),
			"money_stolen": r.MoneyStolen,
		},
	})
}

// Targets lists actors currently open to attack, strongest first.
func (e *Engine) Targets(ctx context.Context, actorID string, limit int) ([]*models.Actor, error) {
	return e.actors.GetAvailableTargets(ctx, actorID, e.now(), limit)
}

// History returns the actor's most recent encounters.
func (e *Engine) History(ctx context.Context, actorID string, limit int) ([]*models.CombatLog, error) {
	return e.combat.GetHistory(ctx, actorID, limit)
}
