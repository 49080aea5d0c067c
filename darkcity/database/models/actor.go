package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	ResourceCap = 100

	StartingCash      int64 = 500_00
	StartingStatValue       = 10
)

type Actor struct {
	bun.BaseModel `bun:"table:actors,alias:a"`

	ID       string `bun:"id,pk"`
	Username string `bun:"username,notnull,unique"`
	Email    string `bun:"email,notnull,unique"`

	Level int   `bun:"level,notnull,default:1"`
	XP    int64 `bun:"xp,notnull,default:0"`

	// Money is stored in minor units (cents).
	MoneyCash int64 `bun:"money_cash,notnull,default:0"`
	MoneyBank int64 `bun:"money_bank,notnull,default:0"`
	Credits   int64 `bun:"credits,notnull,default:0"`

	Health    int `bun:"health,notnull,default:100"`
	Energy    int `bun:"energy,notnull,default:100"`
	Nerve     int `bun:"nerve,notnull,default:100"`
	Willpower int `bun:"willpower,notnull,default:100"`

	IsAdmin   bool       `bun:"is_admin,notnull,default:false"`
	IsBanned  bool       `bun:"is_banned,notnull,default:false"`
	BanExpiry *time.Time `bun:"ban_expiry"`
	BanReason string     `bun:"ban_reason"`

	PrisonReleaseTime   *time.Time `bun:"prison_release_time"`
	HospitalReleaseTime *time.Time `bun:"hospital_release_time"`

	GangID *string `bun:"gang_id"`

	LastEnergyUpdate    time.Time `bun:"last_energy_update,notnull"`
	LastNerveUpdate     time.Time `bun:"last_nerve_update,notnull"`
	LastWillpowerUpdate time.Time `bun:"last_willpower_update,notnull"`
	LastHealthUpdate    time.Time `bun:"last_health_update,notnull"`

	// Version is bumped on every persisted update. Writers racing on the
	// same row lose with ErrConflict and must retry against fresh state.
	Version int64 `bun:"version,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	Stats *ActorStats `bun:"rel:has-one,join:id=actor_id"`
}

// NewActor returns a fresh actor with registration defaults.
func NewActor(username, email string) *Actor {
	now := time.Now()
	return &Actor{
		ID:                  uuid.NewString(),
		Username:            username,
		Email:               email,
		Level:               1,
		MoneyCash:           StartingCash,
		Health:              ResourceCap,
		Energy:              ResourceCap,
		Nerve:               ResourceCap,
		Willpower:           ResourceCap,
		LastEnergyUpdate:    now,
		LastNerveUpdate:     now,
		LastWillpowerUpdate: now,
		LastHealthUpdate:    now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Confined reports whether the actor is locked out of actions by a prison or
// hospital stay that has not elapsed yet.
func (a *Actor) Confined(now time.Time) bool {
	if a.PrisonReleaseTime != nil && a.PrisonReleaseTime.After(now) {
		return true
	}
	if a.HospitalReleaseTime != nil && a.HospitalReleaseTime.After(now) {
		return true
	}
	return false
}

// XPNeeded returns the threshold for advancing past the given level.
func XPNeeded(level int) int64 {
	return 100 * int64(level) * int64(level)
}

// GainXP adds xp and advances the level while the threshold keeps being met,
// carrying the remainder forward. Returns the number of levels gained.
func (a *Actor) GainXP(xp int64) int {
	a.XP += xp
	gained := 0
	for a.XP >= XPNeeded(a.Level) {
		a.XP -= XPNeeded(a.Level)
		a.Level++
		gained++
	}
	return gained
}
