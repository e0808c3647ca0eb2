package notification

import (
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Priority ranks how urgently a notification needs attention
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// IsValid checks if the priority is valid
func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Notification is an org-scoped alert surfaced to operators.
// The reconciliation auditor emits one per anomaly it finds.
type Notification struct {
	shared.OrgAggregateRoot
	Type     string     `json:"type"`
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	Priority Priority   `json:"priority"`
	Link     string     `json:"link,omitempty"`
	ClientID *uuid.UUID `json:"client_id,omitempty"`
	ReadAt   *time.Time `json:"read_at,omitempty"`
}

// NewNotification creates a new unread notification
func NewNotification(orgID uuid.UUID, notificationType, title, message string, priority Priority) (*Notification, error) {
	if notificationType == "" {
		return nil, shared.NewDomainError("INVALID_NOTIFICATION_TYPE", "Notification type cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_NOTIFICATION_TITLE", "Notification title cannot be empty")
	}
	if !priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_NOTIFICATION_PRIORITY", "Unknown notification priority")
	}

	return &Notification{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Type:             notificationType,
		Title:            title,
		Message:          message,
		Priority:         priority,
	}, nil
}

// WithLink attaches a navigation link
func (n *Notification) WithLink(link string) *Notification {
	n.Link = link
	return n
}

// WithClient attaches the related client
func (n *Notification) WithClient(clientID uuid.UUID) *Notification {
	if clientID != uuid.Nil {
		n.ClientID = &clientID
	}
	return n
}

// MarkRead records when the notification was acknowledged
func (n *Notification) MarkRead(at time.Time) {
	if n.ReadAt != nil {
		return
	}
	n.ReadAt = &at
	n.UpdatedAt = at
	n.IncrementVersion()
}
