package partner

import (
	"context"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientRepository defines persistence for clients
type ClientRepository interface {
	// Save persists a new or updated client
	Save(ctx context.Context, client *Client) error

	// FindByIDForOrg retrieves a client scoped to an organization
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Client, error)

	// FindAllForOrg lists clients for an organization
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]*Client, int64, error)

	// FindByTaxID retrieves a client by exact CPF/CNPJ match (digits only)
	FindByTaxID(ctx context.Context, orgID uuid.UUID, taxID string) (*Client, error)

	// SearchByName retrieves the best case-insensitive partial name match
	SearchByName(ctx context.Context, orgID uuid.UUID, name string) (*Client, error)

	// UpdatePaymentStatus persists only the derived payment status
	UpdatePaymentStatus(ctx context.Context, orgID, clientID uuid.UUID, status ClientPaymentStatus) error
}
