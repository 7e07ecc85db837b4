package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

var (
	sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	createRe  = regexp.MustCompile(`(?i)CREATE\s+(TABLE|TYPE)\s+(?:IF\s+NOT\s+EXISTS\s+)?([a-z0-9_]+)`)
	// ledger history is append-only; no forward migration may erase it
	ledgerEraseRe = regexp.MustCompile(`(?i)(DELETE\s+FROM|TRUNCATE(?:\s+TABLE)?|DROP\s+TABLE(?:\s+IF\s+EXISTS)?)\s+ledger_entries\b`)
)

// ValidateDir checks every migration in dir and reports all problems at once:
// filename and version shape, goose markers, a Down section that drops every
// table and type its Up creates, and no Up section erasing ledger_entries.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, ok := seen[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name))
		}
		seen[m[1]] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read %q: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, validateMigration(name, string(body)))
	}
	return errs
}

func validateMigration(name, body string) error {
	upAt := strings.Index(body, upMarker)
	downAt := strings.Index(body, downMarker)
	switch {
	case upAt < 0:
		return fmt.Errorf("migration %q missing %q", name, upMarker)
	case downAt < 0:
		return fmt.Errorf("migration %q missing %q", name, downMarker)
	case downAt < upAt:
		return fmt.Errorf("migration %q has Down before Up", name)
	}
	up, down := body[upAt:downAt], strings.ToLower(body[downAt:])

	var errs error
	if ledgerEraseRe.MatchString(up) {
		errs = multierr.Append(errs, fmt.Errorf("migration %q erases ledger_entries in its Up section", name))
	}
	for _, m := range createRe.FindAllStringSubmatch(up, -1) {
		kind, object := strings.ToLower(m[1]), strings.ToLower(m[2])
		if !strings.Contains(down, "drop "+kind+" if exists "+object) {
			errs = multierr.Append(errs, fmt.Errorf("migration %q creates %s %s without dropping it in Down", name, kind, object))
		}
	}
	return errs
}
