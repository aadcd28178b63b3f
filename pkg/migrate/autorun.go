package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations at API startup. It only acts in
// the dev environment with STOREFRONT_AUTO_MIGRATE enabled; other
// environments run cmd/migrate as a release step.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	runner, err := NewRunner(sqlDB, EmbeddedDir, logg)
	if err != nil {
		return err
	}
	started := time.Now()
	if err := runner.Up(ctx); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"duration_ms": time.Since(started).Milliseconds(),
	}), "migrate.auto_run_completed")
	return nil
}
