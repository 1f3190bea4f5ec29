package model

import (
	"time"
)

// Business statuses. A suspended business keeps its data but cannot log in.
const (
	BusinessStatusActive    = "active"
	BusinessStatusSuspended = "suspended"
)

// Business represents an independent business account (tenant). Every product,
// category and order belongs to exactly one business. Businesses are never
// physically deleted.
type Business struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Code            string    `json:"business_code" gorm:"type:varchar(20);uniqueIndex;not null"`
	Password        string    `json:"-" gorm:"type:varchar(255);not null"`
	RecoveryContact string    `json:"recovery_contact" gorm:"type:varchar(100);uniqueIndex;not null"`
	Status          string    `json:"status" gorm:"type:varchar(10);default:'active'"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
