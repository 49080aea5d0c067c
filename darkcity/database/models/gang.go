package models

import (
	"time"

	"github.com/uptrace/bun"
)

type GangRole string

const (
	GangRoleLeader  GangRole = "leader"
	GangRoleOfficer GangRole = "officer"
	GangRoleMember  GangRole = "member"
)

type Gang struct {
	bun.BaseModel `bun:"table:gangs,alias:g"`

	ID          string `bun:"id,pk"`
	Name        string `bun:"name,notnull,unique"`
	Tag         string `bun:"tag,notnull,unique"`
	Description string `bun:"description"`
	LeaderID    string `bun:"leader_id,notnull"`

	Treasury   int64 `bun:"treasury,notnull,default:0"`
	Reputation int   `bun:"reputation,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}

type GangMember struct {
	bun.BaseModel `bun:"table:gang_members,alias:gm"`

	ID      string   `bun:"id,pk"`
	GangID  string   `bun:"gang_id,notnull"`
	ActorID string   `bun:"actor_id,notnull,unique"`
	Role    GangRole `bun:"role,notnull,default:'member'"`

	ContributedMoney int64 `bun:"contributed_money,notnull,default:0"`

	JoinedAt time.Time `bun:"joined_at,notnull"`
}
