package models

// All lists every persisted model in dependency order. SQLite schemas for
// local runs and tests are built from it.
func All() []any {
	return []any{
		&Listing{},
		&Order{},
		&Wallet{},
		&LedgerEntry{},
		&WithdrawalRequest{},
		&Review{},
		&SellerRating{},
		&OutboxEvent{},
		&OutboxDLQ{},
		&Notification{},
	}
}
