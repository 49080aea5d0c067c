package darkcity

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads config.toml and applies .env / environment overrides for
// the database credentials. Zero-valued game tunables fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.DB.applyEnv()
	cfg.Game.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log   LogConfig   `toml:"log"`
	DB    DBConfig    `toml:"db"`
	Audit AuditConfig `toml:"audit"`
	Game  GameConfig  `toml:"game"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

func (c *DBConfig) applyEnv() {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("DB_DATABASE"); v != "" {
		c.Database = v
	}
}

type AuditConfig struct {
	// Path to the local sqlite audit log. Empty disables recording.
	Path string `toml:"path"`
}

// GameConfig carries the externally supplied tunables of the simulation core.
// Money values are minor units (cents), rates are basis points.
type GameConfig struct {
	RegenIntervalMinutes int `toml:"regen_interval_minutes"`
	EnergyRegenRate      int `toml:"energy_regen_rate"`
	NerveRegenRate       int `toml:"nerve_regen_rate"`
	WillpowerRegenRate   int `toml:"willpower_regen_rate"`
	HealthRegenRate      int `toml:"health_regen_rate"`

	MarketplaceMinPrice            int64 `toml:"marketplace_min_price"`
	MarketplaceListingFeeBps       int64 `toml:"marketplace_listing_fee_bps"`
	MarketplaceListingFeeFloor     int64 `toml:"marketplace_listing_fee_floor"`
	MarketplaceTransactionFeeBps   int64 `toml:"marketplace_transaction_fee_bps"`
	MarketplaceMaxListingsPerActor int   `toml:"marketplace_max_listings_per_actor"`
	MarketplaceListingDurationDays int   `toml:"marketplace_listing_duration_days"`
	MarketplaceSweepMinutes        int   `toml:"marketplace_sweep_minutes"`

	LaunderFeeMinBps int64 `toml:"launder_fee_min_bps"`
	LaunderFeeMaxBps int64 `toml:"launder_fee_max_bps"`

	DrugPriceTickHours int `toml:"drug_price_tick_hours"`
	CombatNerveCost    int `toml:"combat_nerve_cost"`
}

func (c *GameConfig) applyDefaults() {
	def := DefaultGameConfig()
	if c.RegenIntervalMinutes == 0 {
		c.RegenIntervalMinutes = def.RegenIntervalMinutes
	}
	if c.EnergyRegenRate == 0 {
		c.EnergyRegenRate = def.EnergyRegenRate
	}
	if c.NerveRegenRate == 0 {
		c.NerveRegenRate = def.NerveRegenRate
	}
	if c.WillpowerRegenRate == 0 {
		c.WillpowerRegenRate = def.WillpowerRegenRate
	}
	if c.HealthRegenRate == 0 {
		c.HealthRegenRate = def.HealthRegenRate
	}
	if c.MarketplaceMinPrice == 0 {
		c.MarketplaceMinPrice = def.MarketplaceMinPrice
	}
	if c.MarketplaceListingFeeBps == 0 {
		c.MarketplaceListingFeeBps = def.MarketplaceListingFeeBps
	}
	if c.MarketplaceListingFeeFloor == 0 {
		c.MarketplaceListingFeeFloor = def.MarketplaceListingFeeFloor
	}
	if c.MarketplaceTransactionFeeBps == 0 {
		c.MarketplaceTransactionFeeBps = def.MarketplaceTransactionFeeBps
	}
	if c.MarketplaceMaxListingsPerActor == 0 {
		c.MarketplaceMaxListingsPerActor = def.MarketplaceMaxListingsPerActor
	}
	if c.MarketplaceListingDurationDays == 0 {
		c.MarketplaceListingDurationDays = def.MarketplaceListingDurationDays
	}
	if c.MarketplaceSweepMinutes == 0 {
		c.MarketplaceSweepMinutes = def.MarketplaceSweepMinutes
	}
	if c.LaunderFeeMinBps == 0 {
		c.LaunderFeeMinBps = def.LaunderFeeMinBps
	}
	if c.LaunderFeeMaxBps == 0 {
		c.LaunderFeeMaxBps = def.LaunderFeeMaxBps
	}
	if c.DrugPriceTickHours == 0 {
		c.DrugPriceTickHours = def.DrugPriceTickHours
	}
	if c.CombatNerveCost == 0 {
		c.CombatNerveCost = def.CombatNerveCost
	}
}

func DefaultGameConfig() GameConfig {
	return GameConfig{
		RegenIntervalMinutes: 5,
		EnergyRegenRate:      10,
		NerveRegenRate:       5,
		WillpowerRegenRate:   5,
		HealthRegenRate:      10,

		MarketplaceMinPrice:            100_00,
		MarketplaceListingFeeBps:       500,
		MarketplaceListingFeeFloor:     5_00,
		MarketplaceTransactionFeeBps:   1000,
		MarketplaceMaxListingsPerActor: 10,
		MarketplaceListingDurationDays: 7,
		MarketplaceSweepMinutes:        60,

		LaunderFeeMinBps: 2000,
		LaunderFeeMaxBps: 4000,

		DrugPriceTickHours: 4,
		CombatNerveCost:    10,
	}
}
