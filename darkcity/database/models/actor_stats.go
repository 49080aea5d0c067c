package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TrainableStat names one of the four attributes the gym can raise.
type TrainableStat string

const (
	StatStrength     TrainableStat = "strength"
	StatDefense      TrainableStat = "defense"
	StatAgility      TrainableStat = "agility"
	StatIntelligence TrainableStat = "intelligence"
)

func ValidStat(s TrainableStat) bool {
	switch s {
	case StatStrength, StatDefense, StatAgility, StatIntelligence:
		return true
	}
	return false
}

type ActorStats struct {
	bun.BaseModel `bun:"table:actor_stats,alias:ast"`

	ActorID      string    `bun:"actor_id,pk"`
	Strength     int       `bun:"strength,notnull,default:10"`
	Defense      int       `bun:"defense,notnull,default:10"`
	Agility      int       `bun:"agility,notnull,default:10"`
	Intelligence int       `bun:"intelligence,notnull,default:10"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func NewActorStats(actorID string) *ActorStats {
	return &ActorStats{
		ActorID:      actorID,
		Strength:     StartingStatValue,
		Defense:      StartingStatValue,
		Agility:      StartingStatValue,
		Intelligence: StartingStatValue,
		UpdatedAt:    time.Now(),
	}
}

func (s *ActorStats) Get(stat TrainableStat) int {
	switch stat {
	case StatStrength:
		return s.Strength
	case StatDefense:
		return s.Defense
	case StatAgility:
		return s.Agility
	case StatIntelligence:
		return s.Intelligence
	}
	return 0
}

func (s *ActorStats) Add(stat TrainableStat, amount int) {
	switch stat {
	case StatStrength:
		s.Strength += amount
	case StatDefense:
		s.Defense += amount
	case StatAgility:
		s.Agility += amount
	case StatIntelligence:
		s.Intelligence += amount
	}
}
