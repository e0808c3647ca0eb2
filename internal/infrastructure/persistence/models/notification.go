package models

import (
	"time"

	"github.com/clientdesk/backend/internal/domain/notification"
	"github.com/google/uuid"
)

// NotificationModel is the persistence model for operator notifications.
type NotificationModel struct {
	OrgAggregateModel
	Type     string                `gorm:"type:varchar(50);not null;index"`
	Title    string                `gorm:"type:varchar(200);not null"`
	Message  string                `gorm:"type:text"`
	Priority notification.Priority `gorm:"type:varchar(10);not null;index"`
	Link     string                `gorm:"type:varchar(500)"`
	ClientID *uuid.UUID            `gorm:"type:uuid;index"`
	ReadAt   *time.Time            `gorm:"index"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification.
func (m *NotificationModel) ToDomain() *notification.Notification {
	n := &notification.Notification{
		Type:     m.Type,
		Title:    m.Title,
		Message:  m.Message,
		Priority: m.Priority,
		Link:     m.Link,
		ClientID: m.ClientID,
		ReadAt:   m.ReadAt,
	}
	m.PopulateOrgAggregateRoot(&n.OrgAggregateRoot)
	return n
}

// FromDomain populates the persistence model from a domain Notification.
func (m *NotificationModel) FromDomain(n *notification.Notification) {
	m.FromDomainOrgAggregateRoot(n.OrgAggregateRoot)
	m.Type = n.Type
	m.Title = n.Title
	m.Message = n.Message
	m.Priority = n.Priority
	m.Link = n.Link
	m.ClientID = n.ClientID
	m.ReadAt = n.ReadAt
}

// NotificationModelFromDomain creates a new persistence model from a domain Notification.
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	m := &NotificationModel{}
	m.FromDomain(n)
	return m
}
