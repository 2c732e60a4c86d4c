// Package settings persists per-venue key-value configuration (emoji
// choices, role bindings, enablement) outside the lifetime of any town.
package settings

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Setting is one per-venue configuration value.
type Setting struct {
	VenueID string `gorm:"primaryKey;size:32"`
	Key     string `gorm:"primaryKey;size:64"`
	Value   string `gorm:"type:text"`
}

// Store reads and writes venue settings, falling back to registered
// defaults for unset keys.
type Store struct {
	db       *gorm.DB
	defaults map[string]string
}

// NewStore migrates the settings table and wraps the connection. defaults
// maps setting keys to the value returned when a venue has no override.
func NewStore(db *gorm.DB, defaults map[string]string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("settings: db is required")
	}
	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, fmt.Errorf("settings: migrate: %w", err)
	}
	if defaults == nil {
		defaults = make(map[string]string)
	}
	return &Store{db: db, defaults: defaults}, nil
}

// Get returns the venue's value for key, or the registered default, or "".
func (s *Store) Get(venueID, key string) string {
	if v, ok := s.Lookup(venueID, key); ok {
		return v
	}
	return s.defaults[key]
}

// Lookup returns the stored value without applying defaults.
func (s *Store) Lookup(venueID, key string) (string, bool) {
	var row Setting
	err := s.db.Where("venue_id = ? AND `key` = ?", venueID, key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false
	}
	if err != nil {
		return "", false
	}
	return row.Value, true
}

// GetBool interprets the venue's value for key as a boolean flag.
func (s *Store) GetBool(venueID, key string) bool {
	v := s.Get(venueID, key)
	return v == "true" || v == "1"
}

// Set stores a venue's value for key, replacing any previous value.
func (s *Store) Set(venueID, key, value string) error {
	row := Setting{VenueID: venueID, Key: key, Value: value}
	err := s.db.Save(&row).Error
	if err != nil {
		return fmt.Errorf("settings: set %s/%s: %w", venueID, key, err)
	}
	return nil
}

// Unset removes a venue's value for key, restoring the default.
func (s *Store) Unset(venueID, key string) error {
	err := s.db.Where("venue_id = ? AND `key` = ?", venueID, key).Delete(&Setting{}).Error
	if err != nil {
		return fmt.Errorf("settings: unset %s/%s: %w", venueID, key, err)
	}
	return nil
}

// All returns the venue's stored overrides keyed by setting name.
func (s *Store) All(venueID string) (map[string]string, error) {
	var rows []Setting
	if err := s.db.Where("venue_id = ?", venueID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("settings: list %s: %w", venueID, err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// Defaults returns the registered default map.
func (s *Store) Defaults() map[string]string {
	return s.defaults
}
