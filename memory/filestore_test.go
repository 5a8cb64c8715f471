package memory_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tailored-agentic-units/chat/memory"
)

func TestFileStore_List_MissingRoot(t *testing.T) {
	store := memory.NewFileStore(filepath.Join(t.TempDir(), "nonexistent"), "")

	keys, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("List() returned %d keys, want 0", len(keys))
	}
}

func TestFileStore_List(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "rules.md", "be brief")
	writeTestFile(t, root, "personas/lincoln/voice.txt", "speak plainly")
	writeTestFile(t, root, "personas/curie/voice.md", "be precise")
	writeTestFile(t, root, "config.json", "{}")
	writeTestFile(t, root, ".hidden.md", "secret")
	writeTestFile(t, root, ".drafts/wip.md", "draft")

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{
			name: "all prompt files sorted",
			want: []string{"personas/curie/voice.md", "personas/lincoln/voice.txt", "rules.md"},
		},
		{
			name:   "prefix filter",
			prefix: "personas/lincoln/",
			want:   []string{"personas/lincoln/voice.txt"},
		},
		{
			name:   "prefix without matches",
			prefix: "personas/tesla/",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := memory.NewFileStore(root, tt.prefix).List(context.Background())
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(keys) != len(tt.want) {
				t.Fatalf("List() = %v, want %v", keys, tt.want)
			}
			for i := range keys {
				if keys[i] != tt.want[i] {
					t.Errorf("List()[%d] = %q, want %q", i, keys[i], tt.want[i])
				}
			}
		})
	}
}

func TestFileStore_Load(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.md", "first")
	writeTestFile(t, root, "b.md", "second")

	entries, err := memory.NewFileStore(root, "").Load(context.Background(), "b.md", "a.md")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Load() returned %d entries, want 2", len(entries))
	}
	if entries[0].Key != "b.md" || string(entries[0].Value) != "second" {
		t.Errorf("entries[0] = %q:%q, want %q:%q", entries[0].Key, entries[0].Value, "b.md", "second")
	}
	if entries[1].Key != "a.md" || string(entries[1].Value) != "first" {
		t.Errorf("entries[1] = %q:%q, want %q:%q", entries[1].Key, entries[1].Value, "a.md", "first")
	}
}

func TestFileStore_Load_KeyNotFound(t *testing.T) {
	store := memory.NewFileStore(t.TempDir(), "")

	tests := []string{"missing.md", "../outside.md"}
	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := store.Load(context.Background(), key)
			if !errors.Is(err, memory.ErrKeyNotFound) {
				t.Errorf("Load(%q) error = %v, want ErrKeyNotFound", key, err)
			}
		})
	}
}

func writeTestFile(t *testing.T, root, key, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
