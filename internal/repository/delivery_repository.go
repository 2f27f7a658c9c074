package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campina-tasks/internal/model"
)

// DeliveryRepository records which notifications each subscriber has already seen.
type DeliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// Claim records key as delivered to the subscriber on day. It reports false when the
// same key was already claimed that day.
func (r *DeliveryRepository) Claim(ctx context.Context, subscriberID uint, key, day string) (bool, error) {
	delivery := model.Delivery{SubscriberID: subscriberID, Key: key, Day: day}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&delivery)
	if res.Error != nil {
		return false, fmt.Errorf("claim delivery %s: %w", key, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Release forgets a claim, so a failed send can be retried on the next pass.
func (r *DeliveryRepository) Release(ctx context.Context, subscriberID uint, key, day string) error {
	if err := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND notice_key = ? AND day = ?", subscriberID, key, day).
		Delete(&model.Delivery{}).Error; err != nil {
		return fmt.Errorf("release delivery %s: %w", key, err)
	}
	return nil
}
