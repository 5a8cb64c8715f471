package memory

import (
	"context"
	"fmt"
	"strings"
)

// Compose appends every entry in store to base, separated by blank lines.
// A nil store returns base unchanged. Entries that are empty after trimming
// are skipped.
func Compose(ctx context.Context, store Store, base string) (string, error) {
	content := strings.TrimSpace(base)

	if store == nil {
		return content, nil
	}

	keys, err := store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list memory keys: %w", err)
	}
	if len(keys) == 0 {
		return content, nil
	}

	entries, err := store.Load(ctx, keys...)
	if err != nil {
		return "", fmt.Errorf("failed to load memory entries: %w", err)
	}

	var b strings.Builder
	b.WriteString(content)
	for _, entry := range entries {
		text := strings.TrimSpace(string(entry.Value))
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}

	return b.String(), nil
}
