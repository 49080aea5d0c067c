package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/veszto/darkcity/darkcity/database/models"
)

type ListingRepository interface {
	GetByID(ctx context.Context, id string) (*models.MarketplaceListing, error)
	GetActive(ctx context.Context, limit int) ([]*models.MarketplaceListing, error)
	GetBySeller(ctx context.Context, sellerID string) ([]*models.MarketplaceListing, error)
	CountActive(ctx context.Context, sellerID string) (int, error)
	GetExpired(ctx context.Context, now time.Time) ([]*models.MarketplaceListing, error)
	GetTransactions(ctx context.Context, actorID string, limit int) ([]*models.MarketplaceTransaction, error)

	// CreateEscrowed charges the seller the listing fee, takes one unit out of
	// the seller's inventory and inserts the active listing, all atomically.
	CreateEscrowed(ctx context.Context, seller *models.Actor, listing *models.MarketplaceListing) error
	// Cancel flips an active listing to cancelled and returns the escrowed
	// unit to the seller. The fee is not refunded.
	Cancel(ctx context.Context, listing *models.MarketplaceListing) error
	// CompletePurchase settles an active listing: buyer pays, seller receives
	// price minus the transaction fee, buyer gets the item, and the receipt is
	// written. The status guard makes concurrent purchases lose with
	// ErrConflict.
	CompletePurchase(ctx context.Context, listing *models.MarketplaceListing, buyer, seller *models.Actor, txn *models.MarketplaceTransaction) error
	// Expire flips an active listing to expired and returns the unit to the
	// seller.
	Expire(ctx context.Context, listing *models.MarketplaceListing) error
}

type listingRepository struct {
	db *bun.DB
}

func NewListingRepository(db *bun.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*models.MarketplaceListing, error) {
	listing := new(models.MarketplaceListing)
	err := r.db.NewSelect().
		Model(listing).
		Relation("Item").
		Where("ml.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return listing, nil
}

func (r *listingRepository) GetActive(ctx context.Context, limit int) ([]*models.MarketplaceListing, error) {
	var listings []*models.MarketplaceListing
	err := r.db.NewSelect().
		Model(&listings).
		Relation("Item").
		Where("ml.status = ?", models.ListingStatusActive).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) GetBySeller(ctx context.Context, sellerID string) ([]*models.MarketplaceListing, error) {
	var listings []*models.MarketplaceListing
	err := r.db.NewSelect().
		Model(&listings).
		Relation("Item").
		Where("ml.seller_id = ?", sellerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get seller listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) CountActive(ctx context.Context, sellerID string) (int, error) {
	count, err := r.db.NewSelect().
		Model((*models.MarketplaceListing)(nil)).
		Where("ml.seller_id = ? AND ml.status = ?", sellerID, models.ListingStatusActive).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count active listings: %w", err)
	}
	return count, nil
}

func (r *listingRepository) GetExpired(ctx context.Context, now time.Time) ([]*models.MarketplaceListing, error) {
	var listings []*models.MarketplaceListing
	err := r.db.NewSelect().
		Model(&listings).
		Where("ml.status = ? AND ml.expires_at < ?", models.ListingStatusActive, now).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) GetTransactions(ctx context.Context, actorID string, limit int) ([]*models.MarketplaceTransaction, error) {
	var txns []*models.MarketplaceTransaction
	err := r.db.NewSelect().
		Model(&txns).
		Where("mt.seller_id = ? OR mt.buyer_id = ?", actorID, actorID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return txns, nil
}

func (r *listingRepository) CreateEscrowed(ctx context.Context, seller *models.Actor, listing *models.MarketplaceListing) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if err := applyActorUpdate(ctx, tx, seller); err != nil {
			return err
		}
		if err := removeInventory(ctx, tx, seller.ID, listing.ItemID, 1); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(listing).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert listing: %w", err)
		}
		return nil
	})
}

// closeListing flips an active listing to the given terminal status. The
// status guard in the WHERE clause is what makes competing settlements lose.
func closeListing(ctx context.Context, tx bun.Tx, listing *models.MarketplaceListing) error {
	res, err := tx.NewUpdate().
		Model(listing).
		Column("status", "sold_at", "buyer_id").
		WherePK().
		Where("ml.status = ?", models.ListingStatusActive).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to close listing: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrConflict
	}
	return nil
}

func (r *listingRepository) Cancel(ctx context.Context, listing *models.MarketplaceListing) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		listing.Status = models.ListingStatusCancelled
		if err := closeListing(ctx, tx, listing); err != nil {
			return err
		}
		return addInventory(ctx, tx, listing.SellerID, listing.ItemID, 1)
	})
}

func (r *listingRepository) CompletePurchase(ctx context.Context, listing *models.MarketplaceListing, buyer, seller *models.Actor, txn *models.MarketplaceTransaction) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		listing.Status = models.ListingStatusSold
		if err := closeListing(ctx, tx, listing); err != nil {
			return err
		}
		if err := applyActorUpdate(ctx, tx, buyer); err != nil {
			return err
		}
		if err := applyActorUpdate(ctx, tx, seller); err != nil {
			return err
		}
		if err := addInventory(ctx, tx, buyer.ID, listing.ItemID, 1); err != nil {
			return err
		}
		txn.CreatedAt = time.Now()
		if _, err := tx.NewInsert().Model(txn).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		return nil
	})
}

func (r *listingRepository) Expire(ctx context.Context, listing *models.MarketplaceListing) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		listing.Status = models.ListingStatusExpired
		if err := closeListing(ctx, tx, listing); err != nil {
			return err
		}
		return addInventory(ctx, tx, listing.SellerID, listing.ItemID, 1)
	})
}
