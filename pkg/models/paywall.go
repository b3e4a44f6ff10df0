package models

import "time"

// AccessReason explains a paywall decision
type AccessReason string

const (
	AccessFree            AccessReason = "free"
	AccessPurchased       AccessReason = "purchased"
	AccessAuthRequired    AccessReason = "auth_required"
	AccessPaymentRequired AccessReason = "payment_required"
)

// PaywallDecision is the outcome of evaluating a chapter for a viewer.
// Balance is only filled in when the viewer has to pay.
type PaywallDecision struct {
	Locked  bool         `json:"locked"`
	Price   int          `json:"price"`
	Reason  AccessReason `json:"reason"`
	Balance *int         `json:"balance,omitempty"`
}

// UnlockStatus describes how an unlock request was satisfied
type UnlockStatus string

const (
	UnlockGranted      UnlockStatus = "unlocked"
	UnlockAlreadyOwned UnlockStatus = "already_owned"
	UnlockFree         UnlockStatus = "free"
)

// UnlockResult is returned by a successful unlock
type UnlockResult struct {
	Status    UnlockStatus `json:"status"`
	ChapterID string       `json:"chapter_id"`
	PricePaid int          `json:"price_paid"`
	Balance   int          `json:"balance"`
}

// Purchase is the permanent entitlement to one chapter
type Purchase struct {
	UserID      string    `json:"user_id" db:"user_id"`
	ChapterID   string    `json:"chapter_id" db:"chapter_id"`
	PricePaid   int       `json:"price_paid" db:"price_paid"`
	PurchasedAt time.Time `json:"purchased_at" db:"purchased_at"`
}

// Ledger reasons
const (
	CoinReasonGrant  = "grant"
	CoinReasonUnlock = "unlock"
)

// CoinTransaction is one balance mutation
type CoinTransaction struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Delta     int       `json:"delta" db:"delta"`
	Reason    string    `json:"reason" db:"reason"`
	ChapterID *string   `json:"chapter_id,omitempty" db:"chapter_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// GrantCoinsRequest is the admin coin top-up body
type GrantCoinsRequest struct {
	Amount int `json:"amount" binding:"required"`
}

// Wallet summarises a user's coins
type Wallet struct {
	UserID  string `json:"user_id"`
	Balance int    `json:"balance"`
}
