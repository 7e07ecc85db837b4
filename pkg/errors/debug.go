package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// storageGuards names the schema rules that back ledger and order
// invariants, keyed by Postgres constraint name or the SQLite failure text.
var storageGuards = map[string]string{
	"wallets_balance_cents_check":             "wallet_balance_non_negative",
	"chk_wallets_balance_cents":               "wallet_balance_non_negative",
	"balance_cents >= 0":                      "wallet_balance_non_negative",
	"ledger_entries_amount_cents_check":       "ledger_amount_positive",
	"chk_ledger_entries_amount_cents":         "ledger_amount_positive",
	"ledger_entries_reference_key":            "ledger_reference_unique",
	"ledger_entries.reference":                "ledger_reference_unique",
	"wallets_user_id_key":                     "one_wallet_per_user",
	"wallets.user_id":                         "one_wallet_per_user",
	"withdrawal_requests_ledger_entry_id_key": "withdrawal_entry_unique",
	"withdrawal_requests.ledger_entry_id":     "withdrawal_entry_unique",
	"reviews_order_id_key":                    "one_review_per_order",
	"reviews.order_id":                        "one_review_per_order",
	"orders_rated_requires_rating":            "rating_requires_completion",
	"orders_completed_at_matches_status":      "completed_at_matches_status",
}

// ErrorDump flattens an error for structured logs.
type ErrorDump struct {
	TopMessage string
	Code       Code
	Chain      []string

	SQLState   string
	Constraint string
	Table      string
	Column     string
	Detail     string
	// Guard names the violated ledger or order rule, when the database
	// rejected the write on one.
	Guard string
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		d.SQLState = pgErr.Code
		d.Constraint = pgErr.ConstraintName
		d.Table = pgErr.TableName
		d.Column = pgErr.ColumnName
		d.Detail = pgErr.Detail
		d.Guard = storageGuards[pgErr.ConstraintName]
		return d
	}

	d.Guard = sqliteGuard(d.TopMessage)
	return d
}

// sqliteGuard matches "UNIQUE constraint failed: t.c" and
// "CHECK constraint failed: expr" messages.
func sqliteGuard(msg string) string {
	for _, marker := range []string{"UNIQUE constraint failed: ", "CHECK constraint failed: "} {
		idx := strings.Index(msg, marker)
		if idx < 0 {
			continue
		}
		target := strings.TrimSpace(msg[idx+len(marker):])
		for key, guard := range storageGuards {
			if strings.HasPrefix(target, key) {
				return guard
			}
		}
	}
	return ""
}

// Fields is the log payload for the dump. Empty database fields are left out.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	for key, value := range map[string]string{
		"sql_state":     d.SQLState,
		"db_constraint": d.Constraint,
		"db_table":      d.Table,
		"db_column":     d.Column,
		"db_detail":     d.Detail,
		"guard":         d.Guard,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
