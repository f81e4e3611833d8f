package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"sheet-sync/internal/schema"
)

// Preflight verifies that every table the registry defines exists in the
// grid. Missing tables mean the backend is not set up yet; callers decide
// whether that is fatal or just means setup has to run first.
func Preflight(g Grid, reg *schema.Registry, logger *logrus.Logger) error {
	var missing []string
	for _, name := range reg.TableNames() {
		_, err := g.Header(name)
		if errors.Is(err, ErrTableNotFound) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", name, err)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %s", strings.Join(missing, ", "))
	}
	logger.Infof("Store preflight OK, %d tables present", len(reg.TableNames()))
	return nil
}

// Setup creates every registry table that does not exist yet, with the full
// physical header (schema columns followed by lookup columns).
func Setup(g Grid, reg *schema.Registry, logger *logrus.Logger) error {
	for _, name := range reg.TableNames() {
		def := reg.ByName(name)
		if err := g.EnsureTable(name, def.HeaderColumns()); err != nil {
			return fmt.Errorf("failed to set up table %s: %w", name, err)
		}
	}
	logger.Infof("Set up %d tables", len(reg.TableNames()))
	return nil
}
