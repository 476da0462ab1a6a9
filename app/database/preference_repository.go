package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

var _ PreferenceRepository = (*PreferenceRepositoryImpl)(nil)

type PreferenceRepositoryImpl struct {
	db *DB
}

func NewPreferenceRepository(db *DB) *PreferenceRepositoryImpl {
	return &PreferenceRepositoryImpl{db: db}
}

func (r *PreferenceRepositoryImpl) GetPreference(profile string) (*Preference, error) {
	var pref Preference
	var enabledSources, categories string

	err := r.db.QueryRow(`
		SELECT profile, enabled_sources, categories, updated_at
		FROM preferences
		WHERE profile = ?
	`, profile).Scan(&pref.Profile, &enabledSources, &categories, &pref.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	if err := json.Unmarshal([]byte(enabledSources), &pref.EnabledSources); err != nil {
		return nil, fmt.Errorf("failed to decode enabled sources: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &pref.Categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	return &pref, nil
}

func (r *PreferenceRepositoryImpl) UpsertPreference(pref Preference) error {
	enabledSources, err := json.Marshal(pref.EnabledSources)
	if err != nil {
		return fmt.Errorf("failed to encode enabled sources: %w", err)
	}
	categories, err := json.Marshal(pref.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO preferences (profile, enabled_sources, categories, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (profile) DO UPDATE SET
			enabled_sources = excluded.enabled_sources,
			categories = excluded.categories,
			updated_at = excluded.updated_at
	`, pref.Profile, string(enabledSources), string(categories), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}

	return nil
}
