package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const migrationsLogPrefix = "db:migrations"

// downMarker separates the forward script from the optional rollback script in a migration file.
const downMarker = "-- +down"

// Migration is one schema migration file. Down is empty when the migration cannot be rolled back.
type Migration struct {
	Name string
	Up   string
	Down string
}

// ParseMigration splits file content at the "-- +down" marker line.
func ParseMigration(name, content string) Migration {
	m := Migration{Name: name, Up: content}
	lines := strings.SplitAfter(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == downMarker {
			m.Up = strings.Join(lines[:i], "")
			m.Down = strings.TrimSpace(strings.Join(lines[i+1:], ""))
			break
		}
	}
	m.Up = strings.TrimSpace(m.Up)
	return m
}

// LoadMigrations reads all .sql files from dir, sorted by name.
// An empty directory is an error: the message store cannot run without its schema.
func LoadMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read migration dir %s: %w", migrationsLogPrefix, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s: %w", migrationsLogPrefix, path, err)
		}
		m := ParseMigration(strings.TrimSuffix(name, ".sql"), string(data))
		if m.Up == "" {
			return nil, fmt.Errorf("%s - %s has no forward script", migrationsLogPrefix, path)
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s - no .sql files in %s", migrationsLogPrefix, dir)
	}
	slog.Info(fmt.Sprintf("%s - Loaded %d migrations from %s", migrationsLogPrefix, len(out), dir))
	return out, nil
}
