package model

import "time"

// Area is an organizational bucket (branch, department) that tasks are filed under.
type Area struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Tasks     []Task    `gorm:"foreignKey:AreaID" json:"-"`
}
