package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CombatResult string

const (
	CombatResultAttackerWin CombatResult = "attacker_win"
	CombatResultDefenderWin CombatResult = "defender_win"
	CombatResultDraw        CombatResult = "draw"
)

// CombatLog is the immutable record of one resolved attack.
type CombatLog struct {
	bun.BaseModel `bun:"table:combat_logs,alias:cl"`

	ID         string       `bun:"id,pk"`
	AttackerID string       `bun:"attacker_id,notnull"`
	DefenderID string       `bun:"defender_id,notnull"`
	Result     CombatResult `bun:"result,notnull"`

	AttackerDamage int64 `bun:"attacker_damage,notnull"`
	DefenderDamage int64 `bun:"defender_damage,notnull"`
	MoneyStolen    int64 `bun:"money_stolen,notnull,default:0"`
	XPGained       int64 `bun:"xp_gained,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}
