package admin

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigmarket-backend/api/controllers/wallet"
	"github.com/angelmondragon/gigmarket-backend/api/middleware"
	"github.com/angelmondragon/gigmarket-backend/api/responses"
	"github.com/angelmondragon/gigmarket-backend/api/validators"
	"github.com/angelmondragon/gigmarket-backend/internal/ledger"
	"github.com/angelmondragon/gigmarket-backend/internal/withdrawals"
	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
	"github.com/angelmondragon/gigmarket-backend/pkg/types"
)

type rejectRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// Reconciler compares a wallet's cached balance with its ledger.
type Reconciler interface {
	Reconcile(ctx context.Context, userID uuid.UUID) (*ledger.Reconciliation, error)
}

type reconciliationView struct {
	UserID     uuid.UUID   `json:"user_id"`
	WalletID   uuid.UUID   `json:"wallet_id"`
	Balance    types.Money `json:"balance"`
	LedgerSum  types.Money `json:"ledger_sum"`
	Drift      types.Money `json:"drift"`
	IsBalanced bool        `json:"is_balanced"`
}

// ListPendingWithdrawals is the admin payout queue, newest first.
func ListPendingWithdrawals(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, err := adminActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListPending(r.Context(), admin, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet.NewWithdrawalListView(list.Requests, list.NextCursor))
	}
}

func ApproveWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, err := adminActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := validators.ParseURLUUID(r, "withdrawalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.Approve(r.Context(), withdrawals.ResolveInput{RequestID: requestID, Admin: admin})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet.NewWithdrawalView(*req))
	}
}

func RejectWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, err := adminActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := validators.ParseURLUUID(r, "withdrawalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body rejectRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		req, err := svc.Reject(r.Context(), withdrawals.RejectInput{
			RequestID: requestID,
			Admin:     admin,
			Reason:    validators.SanitizeString(body.Reason, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet.NewWithdrawalView(*req))
	}
}

// ReconcileWallet reports drift between a user's cached balance and ledger.
// It never corrects the balance.
func ReconcileWallet(svc Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminActor(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.ParseURLUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rec, err := svc.Reconcile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reconciliationView{
			UserID:     rec.UserID,
			WalletID:   rec.WalletID,
			Balance:    types.Money(rec.BalanceCents),
			LedgerSum:  types.Money(rec.LedgerSumCents),
			Drift:      types.Money(rec.DriftCents),
			IsBalanced: rec.Balanced(),
		})
	}
}

func adminActor(r *http.Request) (withdrawals.Actor, error) {
	userID, role, err := middleware.RequireCaller(r.Context())
	if err != nil {
		return withdrawals.Actor{}, err
	}
	return withdrawals.Actor{UserID: userID, Role: role}, nil
}
