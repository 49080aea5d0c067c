package models

import "github.com/uptrace/bun"

// CrimeDefinition is a static catalog entry, immutable at runtime.
type CrimeDefinition struct {
	bun.BaseModel `bun:"table:crimes,alias:c"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description"`

	EnergyCost int   `bun:"energy_cost,notnull"`
	MinMoney   int64 `bun:"min_money,notnull"`
	MaxMoney   int64 `bun:"max_money,notnull"`
	XPReward   int64 `bun:"xp_reward,notnull"`

	Difficulty      int     `bun:"difficulty,notnull"`
	JailChance      float64 `bun:"jail_chance,notnull"`
	JailTimeMinutes int     `bun:"jail_time_minutes,notnull"`
	RequiredLevel   int     `bun:"required_level,notnull,default:1"`
}
