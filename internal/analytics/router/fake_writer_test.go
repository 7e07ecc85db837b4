package router

import (
	"context"

	"github.com/angelmondragon/gigmarket-backend/internal/analytics/types"
)

type fakeWriter struct {
	inserted []types.LedgerEventRow
	err      error
}

func (f *fakeWriter) InsertLedgerEvent(_ context.Context, row types.LedgerEventRow) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, row)
	return nil
}
