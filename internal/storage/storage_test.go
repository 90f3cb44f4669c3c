// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/seralin/tradepost-tui/internal/model"
)

func newTestStore(t *testing.T) *ConversationStore {
	t.Helper()
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewConversationStoreWithDir: %v", err)
	}
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	conv := model.NewConversation("ollama", "llama3")
	conv.AddUserMessage("how much is T4_BAG in Lymhurst?")
	asst := conv.AddAssistantMessage()
	asst.Finalize("Around 2400 silver.", &model.ResponseMeta{
		ToolCalls: []model.ToolCallRecord{{Tool: "get_prices", Success: true}},
	})

	id, err := store.Save(conv)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(loaded.Messages))
	}
	if loaded.Messages[1].Content != "Around 2400 silver." {
		t.Errorf("content = %q", loaded.Messages[1].Content)
	}
	if loaded.Messages[1].Meta == nil || len(loaded.Messages[1].Meta.ToolCalls) != 1 {
		t.Error("tool call metadata lost in round trip")
	}
}

func TestSaveDropsStreamingMessage(t *testing.T) {
	store := newTestStore(t)

	conv := model.NewConversation("ollama", "llama3")
	conv.AddUserMessage("hello")
	conv.AddAssistantMessage() // still streaming, no final text

	id, err := store.Save(conv)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Messages) != 1 {
		t.Errorf("streaming message persisted: %d messages", len(loaded.Messages))
	}
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load("nope"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestListSkipsCorruptFiles(t *testing.T) {
	store := newTestStore(t)

	conv := model.NewConversation("ollama", "llama3")
	conv.AddUserMessage("first")
	if _, err := store.Save(conv); err != nil {
		t.Fatal(err)
	}

	badPath := filepath.Join(store.BaseDir, "corrupt.json")
	if err := os.WriteFile(badPath, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 1 {
		t.Errorf("got %d metas, want 1 (corrupt skipped)", len(metas))
	}
	if metas[0].Preview != "first" {
		t.Errorf("preview = %q", metas[0].Preview)
	}
}

func TestLoadLatestFallsBackToFresh(t *testing.T) {
	store := newTestStore(t)
	conv := store.LoadLatest("ollama", "llama3")
	if conv == nil || len(conv.Messages) != 0 {
		t.Fatal("expected a fresh conversation")
	}
	if conv.Provider != "ollama" {
		t.Errorf("provider = %q", conv.Provider)
	}
}

func TestEnforceLimit(t *testing.T) {
	store := newTestStore(t)
	store.MaxConversations = 2

	for i := 0; i < 3; i++ {
		conv := model.NewConversation("ollama", "llama3")
		conv.AddUserMessage("msg")
		if _, err := store.Save(conv); err != nil {
			t.Fatal(err)
		}
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) > 2 {
		t.Errorf("limit not enforced: %d conversations", len(metas))
	}
}

func TestDeleteAndClear(t *testing.T) {
	store := newTestStore(t)

	conv := model.NewConversation("ollama", "llama3")
	id, err := store.Save(conv)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(id); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("second delete err = %v", err)
	}

	if _, err := store.Save(model.NewConversation("ollama", "llama3")); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	metas, _ := store.List()
	if len(metas) != 0 {
		t.Errorf("Clear left %d conversations", len(metas))
	}
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettingsRoundTrip(t *testing.T) {
	store, err := NewSettingsStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	want := Settings{Provider: "anthropic", Model: "claude-sonnet", LastConversationID: "abc"}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := store.Load(); got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestSettingsCorruptFallsBack(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSettingsStoreWithDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, settingsFile), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := store.Load(); got != (Settings{}) {
		t.Errorf("Load = %+v, want empty defaults", got)
	}
}
