package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veszto/darkcity/darkcity/database/models"
)

// SeedCatalogs populates the static catalog tables on first boot. Each table
// is seeded only when empty, so repeated startups are no-ops.
func (db *DB) SeedCatalogs(ctx context.Context) error {
	if err := db.seedCrimes(ctx); err != nil {
		return fmt.Errorf("seed crimes: %w", err)
	}
	if err := db.seedItems(ctx); err != nil {
		return fmt.Errorf("seed items: %w", err)
	}
	if err := db.seedDrugs(ctx); err != nil {
		return fmt.Errorf("seed drugs: %w", err)
	}
	if err := db.seedMissions(ctx); err != nil {
		return fmt.Errorf("seed missions: %w", err)
	}
	return nil
}

func (db *DB) seedCrimes(ctx context.Context) error {
	count, err := db.bunDB.NewSelect().Model((*models.CrimeDefinition)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	crimes := []models.CrimeDefinition{
		{Name: "Pickpocketing", Description: "Lift a wallet in the crowd.", EnergyCost: 5, MinMoney: 50_00, MaxMoney: 200_00, XPReward: 10, Difficulty: 10, JailChance: 0.05, JailTimeMinutes: 15, RequiredLevel: 1},
		{Name: "Shoplifting", Description: "Steal goods from a corner store.", EnergyCost: 10, MinMoney: 100_00, MaxMoney: 500_00, XPReward: 25, Difficulty: 15, JailChance: 0.10, JailTimeMinutes: 30, RequiredLevel: 1},
		{Name: "Car Break-in", Description: "Break into a car and grab the valuables.", EnergyCost: 15, MinMoney: 300_00, MaxMoney: 1000_00, XPReward: 50, Difficulty: 25, JailChance: 0.15, JailTimeMinutes: 60, RequiredLevel: 2},
		{Name: "Burglary", Description: "Break into an apartment.", EnergyCost: 20, MinMoney: 800_00, MaxMoney: 2500_00, XPReward: 100, Difficulty: 40, JailChance: 0.20, JailTimeMinutes: 120, RequiredLevel: 4},
		{Name: "Armed Robbery", Description: "Rob a jewelry store at gunpoint.", EnergyCost: 30, MinMoney: 2000_00, MaxMoney: 8000_00, XPReward: 250, Difficulty: 60, JailChance: 0.30, JailTimeMinutes: 240, RequiredLevel: 8},
		{Name: "Bank Heist", Description: "The big one. Bring a crew.", EnergyCost: 50, MinMoney: 10000_00, MaxMoney: 50000_00, XPReward: 1000, Difficulty: 90, JailChance: 0.45, JailTimeMinutes: 480, RequiredLevel: 15},
	}

	if _, err := db.bunDB.NewInsert().Model(&crimes).Exec(ctx); err != nil {
		return err
	}
	slog.Info("Seeded crime catalog", slog.String("type", "db"), slog.Int("count", len(crimes)))
	return nil
}

func (db *DB) seedItems(ctx context.Context) error {
	count, err := db.bunDB.NewSelect().Model((*models.Item)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	items := []models.Item{
		{Name: "Brass Knuckles", Description: "Cheap but effective.", Type: models.ItemTypeWeapon, EffectStat: "strength", EffectValue: 5, Price: 500_00, RequiredLevel: 1},
		{Name: "Switchblade", Description: "Quick to draw.", Type: models.ItemTypeWeapon, EffectStat: "strength", EffectValue: 10, Price: 1500_00, RequiredLevel: 2},
		{Name: "9mm Pistol", Description: "Standard sidearm.", Type: models.ItemTypeWeapon, EffectStat: "strength", EffectValue: 25, Price: 8000_00, RequiredLevel: 5},
		{Name: "Assault Rifle", Description: "Serious firepower.", Type: models.ItemTypeWeapon, EffectStat: "strength", EffectValue: 60, Price: 40000_00, RequiredLevel: 12},
		{Name: "Leather Jacket", Description: "Better than nothing.", Type: models.ItemTypeArmor, EffectStat: "defense", EffectValue: 5, Price: 400_00, RequiredLevel: 1},
		{Name: "Kevlar Vest", Description: "Stops most rounds.", Type: models.ItemTypeArmor, EffectStat: "defense", EffectValue: 20, Price: 6000_00, RequiredLevel: 4},
		{Name: "Full Body Armor", Description: "Military grade.", Type: models.ItemTypeArmor, EffectStat: "defense", EffectValue: 50, Price: 35000_00, RequiredLevel: 10},
		{Name: "Old Bicycle", Description: "Gets you around.", Type: models.ItemTypeVehicle, EffectStat: "agility", EffectValue: 3, Price: 200_00, RequiredLevel: 1},
		{Name: "Motorbike", Description: "Fast through traffic.", Type: models.ItemTypeVehicle, EffectStat: "agility", EffectValue: 15, Price: 12000_00, RequiredLevel: 5},
		{Name: "Sports Car", Description: "Nobody catches you.", Type: models.ItemTypeVehicle, EffectStat: "agility", EffectValue: 40, Price: 80000_00, RequiredLevel: 14},
		{Name: "Energy Drink", Description: "One-shot pick-me-up.", Type: models.ItemTypeConsumable, Price: 50_00, RequiredLevel: 1, IsTradable: false},
	}

	if _, err := db.bunDB.NewInsert().Model(&items).Exec(ctx); err != nil {
		return err
	}
	slog.Info("Seeded item catalog", slog.String("type", "db"), slog.Int("count", len(items)))
	return nil
}

func (db *DB) seedDrugs(ctx context.Context) error {
	count, err := db.bunDB.NewSelect().Model((*models.Drug)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	drugs := []models.Drug{
		{Name: "Weed", Description: "Common street herb. Low risk, low reward.", BasePrice: 50_00, MinPrice: 30_00, MaxPrice: 80_00, CurrentPrice: 50_00, Volatility: 0.20, Trend: models.TrendStable, LastPriceUpdate: now},
		{Name: "Ecstasy", Description: "Party pills. Popular in clubs.", BasePrice: 150_00, MinPrice: 100_00, MaxPrice: 250_00, CurrentPrice: 150_00, Volatility: 0.25, Trend: models.TrendStable, LastPriceUpdate: now},
		{Name: "Speed", Description: "Keeps you awake for days.", BasePrice: 300_00, MinPrice: 200_00, MaxPrice: 500_00, CurrentPrice: 300_00, Volatility: 0.30, Trend: models.TrendStable, LastPriceUpdate: now},
		{Name: "Cocaine", Description: "Expensive taste, expensive habit.", BasePrice: 800_00, MinPrice: 500_00, MaxPrice: 1500_00, CurrentPrice: 800_00, Volatility: 0.35, Trend: models.TrendStable, LastPriceUpdate: now},
		{Name: "Heroin", Description: "The deep end of the market.", BasePrice: 1200_00, MinPrice: 700_00, MaxPrice: 2500_00, CurrentPrice: 1200_00, Volatility: 0.40, Trend: models.TrendStable, LastPriceUpdate: now},
	}

	if _, err := db.bunDB.NewInsert().Model(&drugs).Exec(ctx); err != nil {
		return err
	}
	slog.Info("Seeded drug catalog", slog.String("type", "db"), slog.Int("count", len(drugs)))
	return nil
}

func (db *DB) seedMissions(ctx context.Context) error {
	count, err := db.bunDB.NewSelect().Model((*models.MissionDefinition)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	missions := []models.MissionDefinition{
		{Title: "First Steps", Description: "Commit your first crime.", Type: models.MissionTypeStory, RequirementType: models.RequirementCrime, RequirementValue: 1, RewardXP: 50, RewardMoney: 500_00, MinLevel: 1, StoryOrder: 1},
		{Title: "Petty Criminal", Description: "Commit 10 crimes.", Type: models.MissionTypeStory, RequirementType: models.RequirementCrime, RequirementValue: 10, RewardXP: 200, RewardMoney: 2000_00, RewardCredits: 1, MinLevel: 1, StoryOrder: 2},
		{Title: "Street Fighter", Description: "Win 5 fights.", Type: models.MissionTypeStory, RequirementType: models.RequirementCombat, RequirementValue: 5, RewardXP: 400, RewardMoney: 5000_00, RewardCredits: 2, MinLevel: 3, StoryOrder: 3},
		{Title: "Iron Discipline", Description: "Train 20 times at the gym.", Type: models.MissionTypeStory, RequirementType: models.RequirementGym, RequirementValue: 20, RewardXP: 600, RewardMoney: 8000_00, RewardCredits: 3, MinLevel: 5, StoryOrder: 4},
		{Title: "Armed and Dangerous", Description: "Buy any weapon.", Type: models.MissionTypeStory, RequirementType: models.RequirementItem, RequirementValue: 1, RewardXP: 800, RewardMoney: 10000_00, RewardCredits: 5, MinLevel: 7, StoryOrder: 5},

		{Title: "Daily Grind", Description: "Commit 3 crimes today.", Type: models.MissionTypeDaily, RequirementType: models.RequirementCrime, RequirementValue: 3, RewardXP: 30, RewardMoney: 300_00, MinLevel: 1},
		{Title: "Daily Brawl", Description: "Win a fight today.", Type: models.MissionTypeDaily, RequirementType: models.RequirementCombat, RequirementValue: 1, RewardXP: 50, RewardMoney: 500_00, MinLevel: 1},
		{Title: "Daily Workout", Description: "Train twice today.", Type: models.MissionTypeDaily, RequirementType: models.RequirementGym, RequirementValue: 2, RewardXP: 40, RewardMoney: 400_00, MinLevel: 1},
		{Title: "Daily Shopper", Description: "Buy an item today.", Type: models.MissionTypeDaily, RequirementType: models.RequirementItem, RequirementValue: 1, RewardXP: 20, RewardMoney: 200_00, MinLevel: 1},
	}

	if _, err := db.bunDB.NewInsert().Model(&missions).Exec(ctx); err != nil {
		return err
	}
	slog.Info("Seeded mission catalog", slog.String("type", "db"), slog.Int("count", len(missions)))
	return nil
}
