package tenant

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
)

// ErrTemplateMissing is returned when the canonical template database does
// not exist, leaving nothing to seed from.
var ErrTemplateMissing = errors.New("template database missing")

// Repairer reseeds invalid or missing tenant databases from the canonical
// template image (the main database). Repair is lossy: whatever sat at the
// destination is sacrificed for a consistent schema.
type Repairer struct {
	templatePath string
	logger       *logging.ChanneledLogger
}

// NewRepairer creates a repair service seeding from templatePath.
func NewRepairer(templatePath string, logger *logging.ChanneledLogger) *Repairer {
	return &Repairer{templatePath: templatePath, logger: logger}
}

// Repair copies the template database over location. The copy lands in a
// temp file in the destination directory and is renamed into place, so a
// concurrent reader never observes a torn file. Repair is idempotent:
// repairing an already-valid location reseeds it without corruption.
func (r *Repairer) Repair(location string) error {
	src, err := os.Open(r.templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrTemplateMissing
		}
		return fmt.Errorf("failed to open template database: %w", err)
	}
	defer src.Close()

	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".erp-repair-*")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy template database: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close staging file: %w", err)
	}

	if err := os.Rename(tmpPath, location); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move database into place: %w", err)
	}

	if r.logger != nil {
		r.logger.Repair().Info("Tenant database reseeded from template",
			"location", location, "template", r.templatePath)
	}
	return nil
}

// TemplatePath returns the canonical template location.
func (r *Repairer) TemplatePath() string {
	return r.templatePath
}
