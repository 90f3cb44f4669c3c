// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/seralin/tradepost-tui/internal/util"
)

// settingsFile is the fixed name of the selections snapshot.
const settingsFile = "settings.json"

// =============================================================================
// SETTINGS STORE
// =============================================================================

// Settings holds session selections that outlive a single run.
type Settings struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	// LastConversationID reopens the previous conversation on startup.
	LastConversationID string `json:"last_conversation_id,omitempty"`
}

// SettingsStore persists the selections snapshot next to the conversations.
type SettingsStore struct {
	BaseDir string
}

// NewSettingsStore creates a store rooted in the user's home directory.
func NewSettingsStore() (*SettingsStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewSettingsStoreWithDir(filepath.Join(home, ".tradepost"))
}

// NewSettingsStoreWithDir creates a store with a custom directory.
func NewSettingsStoreWithDir(baseDir string) (*SettingsStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &SettingsStore{BaseDir: baseDir}, nil
}

// Load reads the selections snapshot. A missing or corrupt file returns
// empty defaults, never an error.
func (s *SettingsStore) Load() Settings {
	data, err := os.ReadFile(filepath.Join(s.BaseDir, settingsFile))
	if err != nil {
		return Settings{}
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}
	}
	return settings
}

// Save writes the selections snapshot atomically.
func (s *SettingsStore) Save(settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(filepath.Join(s.BaseDir, settingsFile), data, 0644)
}
