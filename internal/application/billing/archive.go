package billing

import (
	"context"

	"github.com/clientdesk/backend/internal/domain/finance"
)

// LedgerArchive receives a copy of every committed ledger entry for
// long-term storage outside the primary database. Archive writes are
// best-effort: failures are logged by callers and never surfaced to
// the payment path.
type LedgerArchive interface {
	Store(ctx context.Context, entry *finance.LedgerEntry) error
}
