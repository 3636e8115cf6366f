package models

import "time"

// Profile storage keys mirror the browser localStorage layout the web client
// used for the same data.
const (
	ProfileKeyCart  = "cart"
	ProfileKeyToken = "token"
	ProfileKeyUser  = "user"
)

// ProfileEntry is one key-value row of the device profile. Values are JSON
// or opaque strings; interpretation belongs to the owning component.
type ProfileEntry struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (ProfileEntry) TableName() string {
	return "profile_entries"
}
