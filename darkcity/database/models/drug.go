package models

import (
	"time"

	"github.com/uptrace/bun"
)

type DrugTrend string

const (
	TrendUp     DrugTrend = "up"
	TrendDown   DrugTrend = "down"
	TrendStable DrugTrend = "stable"
)

// Drug is a tradable commodity. Prices are minor units; only the price-tick
// engine mutates the row.
type Drug struct {
	bun.BaseModel `bun:"table:drugs,alias:d"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description"`

	BasePrice    int64 `bun:"base_price,notnull"`
	MinPrice     int64 `bun:"min_price,notnull"`
	MaxPrice     int64 `bun:"max_price,notnull"`
	CurrentPrice int64 `bun:"current_price,notnull"`

	// Volatility is the fraction of the current price the price may move per tick.
	Volatility float64   `bun:"volatility,notnull,default:0.15"`
	Trend      DrugTrend `bun:"trend,notnull,default:'stable'"`

	LastPriceUpdate time.Time `bun:"last_price_update,notnull"`
}

type ActorDrug struct {
	bun.BaseModel `bun:"table:actor_drugs,alias:ad"`

	ActorID   string    `bun:"actor_id,pk"`
	DrugID    int64     `bun:"drug_id,pk"`
	Quantity  int64     `bun:"quantity,notnull,default:0"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	Drug *Drug `bun:"rel:belongs-to,join:drug_id=id"`
}
