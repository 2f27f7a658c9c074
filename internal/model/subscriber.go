package model

import "time"

// Permission mirrors the notification permission states of a client.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Subscriber is a Telegram chat that receives deadline notifications.
type Subscriber struct {
	ID         uint       `gorm:"primaryKey"`
	TelegramID int64      `gorm:"uniqueIndex"`
	FirstName  string
	Username   string
	Permission Permission `gorm:"default:default;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Delivery records that a notification key was shown to a subscriber on a given day.
type Delivery struct {
	ID           uint   `gorm:"primaryKey"`
	SubscriberID uint   `gorm:"uniqueIndex:idx_delivery_once"`
	Key          string `gorm:"column:notice_key;uniqueIndex:idx_delivery_once"`
	Day          string `gorm:"uniqueIndex:idx_delivery_once"`
	CreatedAt    time.Time
}
