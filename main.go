package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veszto/darkcity/darkcity"
	"github.com/veszto/darkcity/darkcity/audit"
	"github.com/veszto/darkcity/darkcity/catalog"
	"github.com/veszto/darkcity/darkcity/database"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game/bank"
	"github.com/veszto/darkcity/darkcity/game/combat"
	"github.com/veszto/darkcity/darkcity/game/crime"
	"github.com/veszto/darkcity/darkcity/game/drugmarket"
	"github.com/veszto/darkcity/darkcity/game/gangs"
	"github.com/veszto/darkcity/darkcity/game/gym"
	"github.com/veszto/darkcity/darkcity/game/marketplace"
	"github.com/veszto/darkcity/darkcity/game/missions"
	"github.com/veszto/darkcity/darkcity/game/regen"
	"github.com/veszto/darkcity/darkcity/game/shop"
	"github.com/veszto/darkcity/darkcity/logger"
	"github.com/veszto/darkcity/darkcity/notifier"
	"github.com/veszto/darkcity/darkcity/presence"
	"github.com/veszto/darkcity/darkcity/scheduler"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Initialize custom logger
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting Dark City game server",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSeed := flag.Bool("seed", false, "Whether to seed the game catalogs on startup")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := darkcity.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	db, err := database.New(ctx, dbConfig)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	defer db.Close()

	if *shouldSeed {
		slog.Info("Seeding game catalogs...")
		if err := db.SeedCatalogs(ctx); err != nil {
			slog.Error("Failed to seed game catalogs",
				slog.String("error", err.Error()))
			os.Exit(-1)
		}
		slog.Info("Game catalogs seeded successfully")
	}

	app := darkcity.New(*cfg, version, commit)
	app.DB = db

	// Audit trail goes to a local sqlite file; disabled when unconfigured.
	if cfg.Audit.Path != "" {
		recorder, err := audit.NewSQLiteRecorder(cfg.Audit.Path)
		if err != nil {
			slog.Error("Failed to open audit log",
				slog.String("path", cfg.Audit.Path),
				slog.String("error", err.Error()))
			os.Exit(-1)
		}
		defer recorder.Close()
		app.Recorder = recorder
	} else {
		app.Recorder = audit.NoopRecorder{}
	}

	// Initialize repositories
	app.ActorRepository = repositories.NewActorRepository(db.BunDB())
	app.CrimeRepository = repositories.NewCrimeRepository(db.BunDB())
	app.CombatRepository = repositories.NewCombatRepository(db.BunDB())
	app.DrugRepository = repositories.NewDrugRepository(db.BunDB())
	app.ItemRepository = repositories.NewItemRepository(db.BunDB())
	app.InventoryRepository = repositories.NewInventoryRepository(db.BunDB())
	app.ListingRepository = repositories.NewListingRepository(db.BunDB())
	app.MissionRepository = repositories.NewMissionRepository(db.BunDB())
	app.GangRepository = repositories.NewGangRepository(db.BunDB())

	app.Presence = presence.NewRegistry()
	app.Notifier = notifier.New(app.Presence)

	app.Missions = missions.NewService(app.ActorRepository, app.MissionRepository)
	app.Tracker = missions.NewTracker(app.Missions)

	rng := func() *rand.Rand {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	app.Crimes = crime.NewEngine(app.ActorRepository, app.CrimeRepository, rng(), app.Tracker, app.Recorder)
	app.Combat = combat.NewEngine(app.ActorRepository, app.InventoryRepository, app.CombatRepository,
		rng(), app.Tracker, app.Notifier, app.Recorder, cfg.Game.CombatNerveCost)
	app.Regen = regen.NewEngine(app.ActorRepository,
		time.Duration(cfg.Game.RegenIntervalMinutes)*time.Minute,
		regen.Rates{
			Energy:    cfg.Game.EnergyRegenRate,
			Nerve:     cfg.Game.NerveRegenRate,
			Willpower: cfg.Game.WillpowerRegenRate,
			Health:    cfg.Game.HealthRegenRate,
		})
	app.DrugMarket = drugmarket.NewEngine(app.ActorRepository, app.DrugRepository, rng(), app.Recorder)
	app.Marketplace = marketplace.NewEngine(app.ActorRepository, app.ItemRepository, app.ListingRepository,
		marketplace.Config{
			MinPrice:           cfg.Game.MarketplaceMinPrice,
			ListingFeeBps:      cfg.Game.MarketplaceListingFeeBps,
			ListingFeeFloor:    cfg.Game.MarketplaceListingFeeFloor,
			TransactionFeeBps:  cfg.Game.MarketplaceTransactionFeeBps,
			MaxListingsPerUser: cfg.Game.MarketplaceMaxListingsPerActor,
			ListingDuration:    time.Duration(cfg.Game.MarketplaceListingDurationDays) * 24 * time.Hour,
		}, app.Recorder)
	app.Gym = gym.NewEngine(app.ActorRepository, rng(), app.Tracker)
	app.Bank = bank.NewEngine(app.ActorRepository, rng(), app.Recorder,
		cfg.Game.LaunderFeeMinBps, cfg.Game.LaunderFeeMaxBps)
	app.Shop = shop.NewEngine(app.ActorRepository, app.ItemRepository, app.InventoryRepository,
		app.Tracker, app.Recorder)
	app.Gangs = gangs.NewService(app.ActorRepository, app.GangRepository, app.Recorder)
	app.Catalog = catalog.NewService(app.CrimeRepository, app.ItemRepository, app.DrugRepository)

	slog.Info("Game engines initialized successfully",
		slog.String("component", "engines"),
		slog.String("status", "success"))

	// Background ticks: resource regeneration, drug price drift and the
	// marketplace expiry sweep.
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	sched := scheduler.New(runCtx)
	jobs := []struct {
		spec string
		job  scheduler.Job
	}{
		{fmt.Sprintf("@every %dm", cfg.Game.RegenIntervalMinutes), app.Regen},
		{fmt.Sprintf("@every %dh", cfg.Game.DrugPriceTickHours), app.DrugMarket},
		{fmt.Sprintf("@every %dm", cfg.Game.MarketplaceSweepMinutes), app.Marketplace},
	}
	for _, j := range jobs {
		if err := sched.Add(j.spec, j.job); err != nil {
			slog.Error("Failed to schedule job",
				slog.String("type", "sys"),
				slog.String("job", j.job.Name()),
				slog.String("spec", j.spec),
				slog.Any("error", err))
			os.Exit(-1)
		}
		slog.Info("Scheduled background job",
			slog.String("type", "sys"),
			slog.String("job", j.job.Name()),
			slog.String("spec", j.spec))
	}
	sched.Start()

	slog.Info("Dark City is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down game server...")
	sched.Stop()
}
