package finance

import (
	"context"
	"time"

	appbilling "github.com/clientdesk/backend/internal/application/billing"
	"github.com/clientdesk/backend/internal/domain/billing"
)

// PaymentRecorder is the single entry point for confirming payments.
// Both the manual income path and the statement importer funnel through
// it so the three-row payment write never gets duplicated elsewhere.
type PaymentRecorder interface {
	RecordInvoicePayment(ctx context.Context, req appbilling.RecordPaymentRequest) (*appbilling.RecordPaymentResult, error)
}

// InvoiceCreator creates invoices on behalf of the income path when a
// received amount has no open invoice to settle
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, req appbilling.CreateInvoiceRequest) (*billing.Invoice, error)
}

// SummaryCache is a TTL cache for reconciliation summaries. Entries
// are invalidated whenever a reconciliation run changes the underlying
// counts.
type SummaryCache interface {
	// Get returns the cached payload for key, if present and unexpired
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores payload under key for ttl
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	// Delete removes key
	Delete(ctx context.Context, key string) error
}
