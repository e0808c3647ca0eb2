package notification

import (
	"context"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines persistence for notifications
type Repository interface {
	// Create persists a new notification
	Create(ctx context.Context, n *Notification) error

	// FindByIDForOrg retrieves a notification scoped to an organization
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Notification, error)

	// FindAllForOrg lists notifications for an organization
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]*Notification, int64, error)

	// MarkRead stamps the notification as acknowledged
	MarkRead(ctx context.Context, orgID, id uuid.UUID) error
}
