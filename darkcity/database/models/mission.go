package models

import (
	"time"

	"github.com/uptrace/bun"
)

type MissionType string

const (
	MissionTypeStory MissionType = "story"
	MissionTypeDaily MissionType = "daily"
)

type MissionRequirement string

const (
	RequirementCrime  MissionRequirement = "crime"
	RequirementCombat MissionRequirement = "combat"
	RequirementGym    MissionRequirement = "gym"
	RequirementItem   MissionRequirement = "item"
)

// MissionDefinition is a static catalog entry. TargetID optionally narrows the
// requirement to one crime or item id, interpreted by RequirementType.
type MissionDefinition struct {
	bun.BaseModel `bun:"table:missions,alias:m"`

	ID          int64       `bun:"id,pk,autoincrement"`
	Title       string      `bun:"title,notnull"`
	Description string      `bun:"description"`
	Type        MissionType `bun:"type,notnull,default:'story'"`

	RequirementType  MissionRequirement `bun:"requirement_type,notnull"`
	RequirementValue int64              `bun:"requirement_value,notnull"`
	TargetID         *int64             `bun:"target_id"`

	RewardXP      int64 `bun:"reward_xp,notnull,default:0"`
	RewardMoney   int64 `bun:"reward_money,notnull,default:0"`
	RewardCredits int64 `bun:"reward_credits,notnull,default:0"`

	MinLevel   int `bun:"min_level,notnull,default:1"`
	StoryOrder int `bun:"story_order,notnull,default:0"`
}

// ActorMission is the per-(actor, mission) progress row.
// Invariants: completed implies progress >= requirement value;
// claimed implies completed.
type ActorMission struct {
	bun.BaseModel `bun:"table:actor_missions,alias:am"`

	ID        string `bun:"id,pk"`
	ActorID   string `bun:"actor_id,notnull"`
	MissionID int64  `bun:"mission_id,notnull"`

	Progress  int64 `bun:"progress,notnull,default:0"`
	Completed bool  `bun:"completed,notnull,default:false"`
	Claimed   bool  `bun:"claimed,notnull,default:false"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	Mission *MissionDefinition `bun:"rel:belongs-to,join:mission_id=id"`
}
