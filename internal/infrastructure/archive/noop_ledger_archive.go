package archive

import (
	"context"

	appbilling "github.com/clientdesk/backend/internal/application/billing"
	"github.com/clientdesk/backend/internal/domain/finance"
)

// NoopLedgerArchive discards every entry. Used when the archive is
// disabled in configuration.
type NoopLedgerArchive struct{}

// NewNoopLedgerArchive creates a new NoopLedgerArchive
func NewNoopLedgerArchive() *NoopLedgerArchive {
	return &NoopLedgerArchive{}
}

// Ensure NoopLedgerArchive implements LedgerArchive
var _ appbilling.LedgerArchive = (*NoopLedgerArchive)(nil)

// Store discards the entry
func (n *NoopLedgerArchive) Store(_ context.Context, _ *finance.LedgerEntry) error {
	return nil
}
