// Package withdrawals implements the payout workflow: a request reserves
// wallet funds with a pending debit, and an admin either approves (the debit
// completes) or rejects it (the debit fails and the funds return).
package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/internal/ledger"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigmarket-backend/pkg/errors"
	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
	"github.com/angelmondragon/gigmarket-backend/pkg/metrics"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/gigmarket-backend/pkg/pagination"
)

const (
	reservationReferencePrefix = "withdrawal"
	refundReferencePrefix      = "withdrawal_refund"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type walletLedger interface {
	Append(ctx context.Context, tx *gorm.DB, input ledger.AppendEntryInput) (*models.LedgerEntry, error)
	Resolve(ctx context.Context, tx *gorm.DB, entryID uuid.UUID, status enums.LedgerEntryStatus) (*models.LedgerEntry, error)
}

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) isAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// RequestInput asks for a payout of AmountCents from the user's wallet.
type RequestInput struct {
	UserID      uuid.UUID
	AmountCents int64
}

// ResolveInput addresses a pending request on behalf of an admin.
type ResolveInput struct {
	RequestID uuid.UUID
	Admin     Actor
}

// RejectInput rejects a pending request; Reason is mandatory.
type RejectInput struct {
	RequestID uuid.UUID
	Admin     Actor
	Reason    string
}

// RequestList is one page of withdrawal requests, newest first.
type RequestList struct {
	Requests   []models.WithdrawalRequest
	NextCursor string
}

// Service is the withdrawal workflow.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error)
	Approve(ctx context.Context, input ResolveInput) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, input RejectInput) (*models.WithdrawalRequest, error)
	Get(ctx context.Context, requestID uuid.UUID, actor Actor) (*models.WithdrawalRequest, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*RequestList, error)
	ListPending(ctx context.Context, actor Actor, params pagination.Params) (*RequestList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	ledger  walletLedger
	outbox  outboxPublisher
	metrics *metrics.LedgerMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the withdrawal workflow. metrics and logg may be nil.
func NewService(repo Repository, tx txRunner, ledger walletLedger, outbox outboxPublisher, m *metrics.LedgerMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("withdrawal repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		ledger:  ledger,
		outbox:  outbox,
		metrics: m,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Request reserves the amount with a pending debit and records the request
// holding that entry's id, all in one transaction.
func (s *service) Request(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "withdrawal amount must be positive").
			WithDetails(map[string]any{"amount_cents": input.AmountCents})
	}

	request := &models.WithdrawalRequest{
		ID:          uuid.New(),
		UserID:      input.UserID,
		AmountCents: input.AmountCents,
		Status:      enums.WithdrawalStatusPending,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		entry, err := s.ledger.Append(ctx, tx, ledger.AppendEntryInput{
			UserID:      input.UserID,
			Type:        enums.LedgerEntryDebit,
			AmountCents: input.AmountCents,
			Description: fmt.Sprintf("Withdrawal request #%s", shortID(request.ID)),
			Reference:   ledger.Reference(reservationReferencePrefix, request.ID),
			Status:      enums.LedgerEntryPending,
		})
		if err != nil {
			return err
		}
		request.LedgerEntryID = entry.ID

		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal request")
		}
		return s.emit(ctx, tx, enums.EventWithdrawalRequested, *request, Actor{UserID: input.UserID}, "")
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncWithdrawal("requested")
	s.logResolution(ctx, request, "withdrawal requested")
	return request, nil
}

// Approve completes the reserved debit; the balance already reflects it.
func (s *service) Approve(ctx context.Context, input ResolveInput) (*models.WithdrawalRequest, error) {
	if err := requireAdmin(input.Admin); err != nil {
		return nil, err
	}

	var result *models.WithdrawalRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := s.loadPending(ctx, repo, input.RequestID)
		if err != nil {
			return err
		}

		if _, err := s.ledger.Resolve(ctx, tx, request.LedgerEntryID, enums.LedgerEntryCompleted); err != nil {
			return err
		}

		processedAt := s.now()
		adminID := input.Admin.UserID
		ok, err := repo.ResolvePending(ctx, request.ID, map[string]any{
			"status":       enums.WithdrawalStatusCompleted,
			"processed_at": processedAt,
			"processed_by": adminID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve withdrawal request")
		}
		if !ok {
			return alreadyResolved(request)
		}
		request.Status = enums.WithdrawalStatusCompleted
		request.ProcessedAt = &processedAt
		request.ProcessedBy = &adminID
		result = request
		return s.emit(ctx, tx, enums.EventWithdrawalProcessed, *request, input.Admin, "")
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncWithdrawal(string(enums.WithdrawalStatusCompleted))
	s.logResolution(ctx, result, "withdrawal approved")
	return result, nil
}

// Reject fails the reserved debit, which returns the funds, and appends a
// memo credit documenting the refund. The memo entry never moves the
// balance, so the wallet ends exactly where it was before the request.
func (s *service) Reject(ctx context.Context, input RejectInput) (*models.WithdrawalRequest, error) {
	if err := requireAdmin(input.Admin); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)

	var result *models.WithdrawalRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := s.loadPending(ctx, repo, input.RequestID)
		if err != nil {
			return err
		}
		if reason == "" {
			return pkgerrors.New(pkgerrors.CodeMissingReason, "rejection reason required")
		}

		if _, err := s.ledger.Resolve(ctx, tx, request.LedgerEntryID, enums.LedgerEntryFailed); err != nil {
			return err
		}
		refund, err := s.ledger.Append(ctx, tx, ledger.AppendEntryInput{
			UserID:      request.UserID,
			Type:        enums.LedgerEntryCredit,
			AmountCents: request.AmountCents,
			Description: fmt.Sprintf("Refund for rejected withdrawal #%s: %s", shortID(request.ID), reason),
			Reference:   ledger.Reference(refundReferencePrefix, request.ID),
			Status:      enums.LedgerEntryCompleted,
			Memo:        true,
		})
		if err != nil {
			return err
		}

		processedAt := s.now()
		adminID := input.Admin.UserID
		ok, err := repo.ResolvePending(ctx, request.ID, map[string]any{
			"status":           enums.WithdrawalStatusRejected,
			"processed_at":     processedAt,
			"processed_by":     adminID,
			"rejection_reason": reason,
			"refund_entry_id":  refund.ID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject withdrawal request")
		}
		if !ok {
			return alreadyResolved(request)
		}
		request.Status = enums.WithdrawalStatusRejected
		request.ProcessedAt = &processedAt
		request.ProcessedBy = &adminID
		request.RejectionReason = &reason
		request.RefundEntryID = &refund.ID
		result = request
		return s.emit(ctx, tx, enums.EventWithdrawalRejected, *request, input.Admin, reason)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncWithdrawal(string(enums.WithdrawalStatusRejected))
	s.logResolution(ctx, result, "withdrawal rejected")
	return result, nil
}

func (s *service) Get(ctx context.Context, requestID uuid.UUID, actor Actor) (*models.WithdrawalRequest, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	request, err := s.load(ctx, s.repo, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.isAdmin() && request.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "withdrawal request does not belong to user")
	}
	return request, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*RequestList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.list(ctx, ListFilter{UserID: &userID}, params)
}

func (s *service) ListPending(ctx context.Context, actor Actor, params pagination.Params) (*RequestList, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status := enums.WithdrawalStatusPending
	return s.list(ctx, ListFilter{Status: &status}, params)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (*RequestList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawal requests")
	}
	page := pagination.BuildPage(rows, params.Limit, func(r models.WithdrawalRequest) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return &RequestList{Requests: page.Items, NextCursor: page.NextCursor}, nil
}

func (s *service) load(ctx context.Context, repo Repository, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal request id required")
	}
	request, err := repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal request")
	}
	return request, nil
}

func (s *service) loadPending(ctx context.Context, repo Repository, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	request, err := s.load(ctx, repo, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.WithdrawalStatusPending {
		return nil, alreadyResolved(request)
	}
	return request, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, request models.WithdrawalRequest, actor Actor, reason string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateWithdrawal,
		AggregateID:   request.ID,
		Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
		Data: payloads.WithdrawalEvent{
			WithdrawalID:  request.ID,
			UserID:        request.UserID,
			AmountCents:   request.AmountCents,
			Status:        request.Status,
			LedgerEntryID: request.LedgerEntryID,
			RefundEntryID: request.RefundEntryID,
			ProcessedBy:   request.ProcessedBy,
			Reason:        reason,
		},
	})
}

func (s *service) logResolution(ctx context.Context, request *models.WithdrawalRequest, msg string) {
	if s.logg == nil || request == nil {
		return
	}
	logCtx := s.logg.WithWithdrawal(ctx, request.ID)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"user_id":      request.UserID.String(),
		"amount_cents": request.AmountCents,
		"status":       request.Status,
	})
	s.logg.Info(logCtx, msg)
}

func requireAdmin(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.isAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

func alreadyResolved(request *models.WithdrawalRequest) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "withdrawal request already resolved").
		WithDetails(map[string]any{"request_id": request.ID.String(), "status": request.Status})
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
