package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/beanbag/internal/appearance"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error: %v", err)
	}
	if _, ok := s.Get(DefaultSelectionKey); ok {
		t.Fatal("new store should be empty")
	}

	black, _ := appearance.Lookup("black")
	if err := SaveSelection(s, DefaultSelectionKey, black); err != nil {
		t.Fatalf("SaveSelection() error: %v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	got := LoadSelection(reopened, DefaultSelectionKey)
	if got.ID != "black" {
		t.Errorf("LoadSelection() = %s, want black", got.ID)
	}
}

func TestOpenFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("- not\n- a map\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Error("expected error for non-map yaml")
	}
}

func TestLoadSelectionFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		set    bool
		want   string
	}{
		{"missing", "", false, appearance.Default().ID},
		{"unknown", "purple", true, appearance.Default().ID},
		{"known", "grey", true, "grey"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore()
			if tt.set {
				_ = s.Set(DefaultSelectionKey, tt.stored)
			}
			if got := LoadSelection(s, DefaultSelectionKey).ID; got != tt.want {
				t.Errorf("LoadSelection() = %s, want %s", got, tt.want)
			}
		})
	}
}
