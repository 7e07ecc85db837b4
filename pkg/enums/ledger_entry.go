package enums

import "fmt"

// LedgerEntryType is the direction of a wallet ledger entry.
type LedgerEntryType string

const (
	LedgerEntryCredit LedgerEntryType = "credit"
	LedgerEntryDebit  LedgerEntryType = "debit"
)

// IsValid reports whether the value is credit or debit.
func (t LedgerEntryType) IsValid() bool {
	return t == LedgerEntryCredit || t == LedgerEntryDebit
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	t := LedgerEntryType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid ledger entry type %q", value)
	}
	return t, nil
}

// LedgerEntryStatus tracks resolution of a ledger entry. Only pending
// entries may change, and only once.
type LedgerEntryStatus string

const (
	LedgerEntryPending   LedgerEntryStatus = "pending"
	LedgerEntryCompleted LedgerEntryStatus = "completed"
	LedgerEntryFailed    LedgerEntryStatus = "failed"
)

var validLedgerEntryStatuses = []LedgerEntryStatus{
	LedgerEntryPending,
	LedgerEntryCompleted,
	LedgerEntryFailed,
}

// IsValid reports whether the value is a known LedgerEntryStatus.
func (s LedgerEntryStatus) IsValid() bool {
	for _, candidate := range validLedgerEntryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsFinal reports whether the status is a resolution target.
func (s LedgerEntryStatus) IsFinal() bool {
	return s == LedgerEntryCompleted || s == LedgerEntryFailed
}

// ParseLedgerEntryStatus converts raw input into LedgerEntryStatus.
func ParseLedgerEntryStatus(value string) (LedgerEntryStatus, error) {
	for _, candidate := range validLedgerEntryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry status %q", value)
}
