package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusCancelled ListingStatus = "cancelled"
	ListingStatusExpired   ListingStatus = "expired"
)

// MarketplaceListing is the escrow record for a listed item. While the status
// is active the physical item exists only here, never in an inventory slot.
type MarketplaceListing struct {
	bun.BaseModel `bun:"table:marketplace_listings,alias:ml"`

	ID       string `bun:"id,pk"`
	SellerID string `bun:"seller_id,notnull"`
	ItemID   int64  `bun:"item_id,notnull"`

	Price      int64 `bun:"price,notnull"`
	ListingFee int64 `bun:"listing_fee,notnull"`

	Status ListingStatus `bun:"status,notnull,default:'active'"`

	CreatedAt time.Time  `bun:"created_at,notnull"`
	ExpiresAt time.Time  `bun:"expires_at,notnull"`
	SoldAt    *time.Time `bun:"sold_at"`
	BuyerID   *string    `bun:"buyer_id"`

	Item *Item `bun:"rel:belongs-to,join:item_id=id"`
}

// MarketplaceTransaction is the immutable receipt of one successful purchase.
type MarketplaceTransaction struct {
	bun.BaseModel `bun:"table:marketplace_transactions,alias:mt"`

	ID        string `bun:"id,pk"`
	ListingID string `bun:"listing_id,notnull"`
	SellerID  string `bun:"seller_id,notnull"`
	BuyerID   string `bun:"buyer_id,notnull"`
	ItemID    int64  `bun:"item_id,notnull"`

	Price          int64 `bun:"price,notnull"`
	TransactionFee int64 `bun:"transaction_fee,notnull"`
	SellerRevenue  int64 `bun:"seller_revenue,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}
