// Package marketplace runs the player-to-player item market with escrow.
package marketplace

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veszto/darkcity/darkcity/audit"
	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

type ActorStore interface {
	GetByID(ctx context.Context, id string) (*models.Actor, error)
}

type ItemStore interface {
	GetByID(ctx context.Context, id int64) (*models.Item, error)
}

type ListingStore interface {
	GetByID(ctx context.Context, id string) (*models.MarketplaceListing, error)
	GetActive(ctx context.Context, limit int) ([]*models.MarketplaceListing, error)
	GetBySeller(ctx context.Context, sellerID string) ([]*models.MarketplaceListing, error)
	CountActive(ctx context.Context, sellerID string) (int, error)
	GetExpired(ctx context.Context, now time.Time) ([]*models.MarketplaceListing, error)
	GetTransactions(ctx context.Context, actorID string, limit int) ([]*models.MarketplaceTransaction, error)
	CreateEscrowed(ctx context.Context, seller *models.Actor, listing *models.MarketplaceListing) error
	Cancel(ctx context.Context, listing *models.MarketplaceListing) error
	CompletePurchase(ctx context.Context, listing *models.MarketplaceListing, buyer, seller *models.Actor, txn *models.MarketplaceTransaction) error
	Expire(ctx context.Context, listing *models.MarketplaceListing) error
}

// Config carries the market tunables. Money is minor units, rates are basis
// points.
type Config struct {
	MinPrice           int64
	ListingFeeBps      int64
	ListingFeeFloor    int64
	TransactionFeeBps  int64
	MaxListingsPerUser int
	ListingDuration    time.Duration
}

type Engine struct {
	actors   ActorStore
	items    ItemStore
	listings ListingStore
	cfg      Config
	recorder audit.Recorder
	now      func() time.Time
}

func NewEngine(actors ActorStore, items ItemStore, listings ListingStore, cfg Config, recorder audit.Recorder) *Engine {
	if recorder == nil {
		recorder = audit.NoopRecorder{}
	}
	return &Engine{
		actors:   actors,
		items:    items,
		listings: listings,
		cfg:      cfg,
		recorder: recorder,
		now:      time.Now,
	}
}

// ListingFee is the up-front, non-refundable charge for posting at the given
// price: a percentage with a fixed floor.
func (e *Engine) ListingFee(price int64) int64 {
	fee := models.FeeOf(price, e.cfg.ListingFeeBps)
	if fee < e.cfg.ListingFeeFloor {
		fee = e.cfg.ListingFeeFloor
	}
	return fee
}

func (e *Engine) Browse(ctx context.Context, limit int) ([]*models.MarketplaceListing, error) {
	return e.listings.GetActive(ctx, limit)
}

func (e *Engine) SellerListings(ctx context.Context, sellerID string) ([]*models.MarketplaceListing, error) {
	return e.listings.GetBySeller(ctx, sellerID)
}

func (e *Engine) Transactions(ctx context.Context, actorID string, limit int) ([]*models.MarketplaceTransaction, error) {
	return e.listings.GetTransactions(ctx, actorID, limit)
}

// CreateListing escrows one unit of the item and posts it at the asked price.
// The listing fee is charged immediately and kept whatever happens later.
func (e *Engine) CreateListing(ctx context.Context, sellerID string, itemID, price int64) (*models.MarketplaceListing, error) {
	if price < e.cfg.MinPrice {
		return nil, game.Precondition("price must be at least %s", models.FormatMoney(e.cfg.MinPrice))
	}

	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, game.NotFound("item not found")
		}
		return nil, err
	}
	if !item.IsTradable {
		return nil, game.Forbidden("item cannot be traded")
	}

	var listing *models.MarketplaceListing
	err = game.RetryConflict(ctx, func(ctx context.Context) error {
		seller, err := e.loadActor(ctx, sellerID)
		if err != nil {
			return err
		}
		if seller.Confined(e.now()) {
			return game.Forbidden("you cannot list items while in prison or hospital")
		}

		active, err := e.listings.CountActive(ctx, sellerID)
		if err != nil {
			return err
		}
		if active >= e.cfg.MaxListingsPerUser {
			return game.Precondition("you already have %d active listings", active)
		}

		fee := e.ListingFee(price)
		if seller.MoneyCash < fee {
			return game.Precondition("not enough cash for the %s listing fee", models.FormatMoney(fee))
		}
		seller.MoneyCash -= fee

		now := e.now()
		listing = &models.MarketplaceListing{
			ID:         uuid.NewString(),
			SellerID:   sellerID,
			ItemID:     itemID,
			Price:      price,
			ListingFee: fee,
			Status:     models.ListingStatusActive,
			CreatedAt:  now,
			ExpiresAt:  now.Add(e.cfg.ListingDuration),
		}
		err = e.listings.CreateEscrowed(ctx, seller, listing)
		if errors.Is(err, repositories.ErrUnavailable) {
			return game.Precondition("item is not available to list")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	e.record(ctx, sellerID, "listing_created", map[string]any{
		"listing_id": listing.ID,
		"item_id":    itemID,
		"price":      price,
	})
	return listing, nil
}

// CancelListing takes an active listing down and returns the item. The
// listing fee is not refunded.
func (e *Engine) CancelListing(ctx context.Context, sellerID, listingID string) error {
	listing, err := e.loadListing(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.SellerID != sellerID {
		return game.Forbidden("not your listing")
	}
	if listing.Status != models.ListingStatusActive {
		return game.Precondition("listing is no longer active")
	}

	if err := e.listings.Cancel(ctx, listing); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return game.Conflict("listing was just settled")
		}
		return err
	}
	e.record(ctx, sellerID, "listing_cancelled", map[string]any{"listing_id": listingID})
	return nil
}

// Buy settles an active listing for the buyer. Exactly one concurrent buyer
// can win; everyone else gets a conflict failure.
func (e *Engine) Buy(ctx context.Context, buyerID, listingID string) (*models.MarketplaceTransaction, error) {
	var txn *models.MarketplaceTransaction
	err := game.RetryConflict(ctx, func(ctx context.Context) error {
		listing, err := e.loadListing(ctx, listingID)
		if err != nil {
			return err
		}
		if listing.Status != models.ListingStatusActive {
			return game.Precondition("listing is no longer active")
		}
		// The sweep runs on an interval; a listing can sit past its
		// expiry before it gets flipped.
		if e.now().After(listing.ExpiresAt) {
			return game.Precondition("listing has expired")
		}
		if listing.SellerID == buyerID {
			return game.Precondition("you cannot buy your own listing")
		}

		buyer, err := e.loadActor(ctx, buyerID)
		if err != nil {
			return err
		}
		if buyer.MoneyCash < listing.Price {
			return game.Precondition("not enough cash")
		}
		seller, err := e.loadActor(ctx, listing.SellerID)
		if err != nil {
			return err
		}

		fee := models.FeeOf(listing.Price, e.cfg.TransactionFeeBps)
		revenue := listing.Price - fee

		buyer.MoneyCash -= listing.Price
		seller.MoneyCash += revenue

		now := e.now()
		listing.SoldAt = &now
		listing.BuyerID = &buyerID

		txn = &models.MarketplaceTransaction{
			ID:             uuid.NewString(),
			ListingID:      listing.ID,
			SellerID:       listing.SellerID,
			BuyerID:        buyerID,
			ItemID:         listing.ItemID,
			Price:          listing.Price,
			TransactionFee: fee,
			SellerRevenue:  revenue,
		}
		return e.listings.CompletePurchase(ctx, listing, buyer, seller, txn)
	})
	if err != nil {
		return nil, err
	}

	e.record(ctx, buyerID, "listing_bought", map[string]any{
		"listing_id": listingID,
		"price":      txn.Price,
		"fee":        txn.TransactionFee,
	})
	return txn, nil
}

func (e *Engine) Name() string { return "marketplace-expiry" }

// RunOnce sweeps listings past their expiry, returning each escrowed item to
// its seller. A listing settled mid-sweep is skipped; a listing that fails to
// persist is logged and left for the next sweep.
func (e *Engine) RunOnce(ctx context.Context, now time.Time) error {
	expired, err := e.listings.GetExpired(ctx, now)
	if err != nil {
		return err
	}

	swept := 0
	for _, listing := range expired {
		if err := e.listings.Expire(ctx, listing); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				continue
			}
			slog.Error("Failed to expire listing",
				slog.String("type", "game"),
				slog.String("listing_id", listing.ID),
				slog.String("error", err.Error()))
			continue
		}
		swept++
	}

	if swept > 0 {
		slog.Info("Expired marketplace listings",
			slog.String("type", "game"),
			slog.Int("count", swept))
	}
	return nil
}

func (e *Engine) loadActor(ctx context.Context, id string) (*models.Actor, error) {
	actor, err := e.actors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, game.NotFound("actor not found")
		}
		return nil, err
	}
	return actor, nil
}

func (e *Engine) loadListing(ctx context.Context, id string) (*models.MarketplaceListing, error) {
	listing, err := e.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, game.NotFound("listing not found")
		}
		return nil, err
	}
	return listing, nil
}

func (e *Engine) record(ctx context.Context, actorID, kind string, details map[string]any) {
	_ = e.recorder.Record(ctx, audit.Event{Kind: kind, ActorID: actorID, Details: details})
}
