package darkcity

import (
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
	"github.com/veszto/darkcity/darkcity/notifier"
	"github.com/veszto/darkcity/darkcity/presence"
)

func New(cfg Config, version string, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

// App carries every wired component of the game server. main populates it
// top to bottom: database, repositories, then engines.
type App struct {
	Cfg     Config
	Version string
	Commit  string
	DB      *database.DB

	Recorder audit.Recorder
	Presence *presence.Registry
	Notifier *notifier.Notifier

	ActorRepository     repositories.ActorRepository
	CrimeRepository     repositories.CrimeRepository
	CombatRepository    repositories.CombatRepository
	DrugRepository      repositories.DrugRepository
	ItemRepository      repositories.ItemRepository
	InventoryRepository repositories.InventoryRepository
	ListingRepository   repositories.ListingRepository
	MissionRepository   repositories.MissionRepository
	GangRepository      repositories.GangRepository

	Crimes      *crime.Engine
	Combat      *combat.Engine
	Regen       *regen.Engine
	DrugMarket  *drugmarket.Engine
	Marketplace *marketplace.Engine
	Missions    *missions.Service
	Tracker     *missions.Tracker
	Gym         *gym.Engine
	Bank        *bank.Engine
	Shop        *shop.Engine
	Gangs       *gangs.Service
	Catalog     *catalog.Service
}
