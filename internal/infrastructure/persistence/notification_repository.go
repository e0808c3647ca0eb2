package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/clientdesk/backend/internal/domain/notification"
	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create persists a new notification
func (r *GormNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	model := models.NotificationModelFromDomain(n)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByIDForOrg finds a notification by ID for a specific organization
func (r *GormNotificationRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*notification.Notification, error) {
	var model models.NotificationModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOrg finds all notifications for an organization with filtering
func (r *GormNotificationRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]*notification.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("org_id = ?", orgID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, NotificationSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	var notificationModels []models.NotificationModel
	if err := query.Find(&notificationModels).Error; err != nil {
		return nil, 0, err
	}
	notifications := make([]*notification.Notification, len(notificationModels))
	for i := range notificationModels {
		notifications[i] = notificationModels[i].ToDomain()
	}
	return notifications, total, nil
}

// MarkRead stamps the notification as acknowledged
func (r *GormNotificationRepository) MarkRead(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("org_id = ? AND id = ? AND read_at IS NULL", orgID, id).
		Update("read_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.NotificationModel{}).
			Where("org_id = ? AND id = ?", orgID, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
	}
	return nil
}

// Ensure GormNotificationRepository implements notification.Repository
var _ notification.Repository = (*GormNotificationRepository)(nil)
