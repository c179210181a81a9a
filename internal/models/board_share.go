package models

import "time"

// BoardShare is one sharing edge. OwnerID's sharedTo set and RecipientID's
// sharedWith set are both read from the same row.
type BoardShare struct {
	ID          uint `gorm:"primaryKey"`
	OwnerID     uint `gorm:"not null;uniqueIndex:idx_owner_recipient"`
	RecipientID uint `gorm:"not null;uniqueIndex:idx_owner_recipient;index"`
	CreatedAt   time.Time
}
