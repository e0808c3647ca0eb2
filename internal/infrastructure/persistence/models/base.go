package models

import (
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel carries the persistence fields every row has. It maps to
// the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts the row fields into a domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity copies the entity fields onto the row
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel adds the optimistic locking version to BaseModel
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot copies the aggregate bookkeeping onto the row
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// OrgAggregateModel adds the owning organization. All billing tables
// embed this so the org_id index is consistent across the schema.
type OrgAggregateModel struct {
	AggregateModel
	OrgID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainOrgAggregateRoot copies the org-scoped aggregate onto the row
func (m *OrgAggregateModel) FromDomainOrgAggregateRoot(a shared.OrgAggregateRoot) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.OrgID = a.OrgID
}

// PopulateOrgAggregateRoot copies the row back into a domain aggregate
func (m *OrgAggregateModel) PopulateOrgAggregateRoot(a *shared.OrgAggregateRoot) {
	a.BaseAggregateRoot.BaseEntity.ID = m.ID
	a.BaseAggregateRoot.BaseEntity.CreatedAt = m.CreatedAt
	a.BaseAggregateRoot.BaseEntity.UpdatedAt = m.UpdatedAt
	a.BaseAggregateRoot.Version = m.Version
	a.OrgID = m.OrgID
}
