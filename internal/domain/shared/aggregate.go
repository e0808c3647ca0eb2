package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is an entity that owns a consistency boundary: it
// carries a version for optimistic locking and records the domain
// events raised while it changed.
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot supplies the version and event bookkeeping
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot creates an aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// GetVersion returns the optimistic locking version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion bumps the version before a save
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent records an event to publish after commit
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the events recorded since the last clear
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the recorded events once published
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// OrgAggregateRoot scopes an aggregate to one organization. Every
// monetary record in the system belongs to exactly one organization.
type OrgAggregateRoot struct {
	BaseAggregateRoot
	OrgID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewOrgAggregateRoot creates an aggregate owned by the given organization
func NewOrgAggregateRoot(orgID uuid.UUID) OrgAggregateRoot {
	return OrgAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		OrgID:             orgID,
	}
}
