package migrate

import (
	"context"
	"fmt"

	"github.com/pontodigital/pdv-backend/pkg/config"
	"github.com/pontodigital/pdv-backend/pkg/db"
	"github.com/pontodigital/pdv-backend/pkg/logger"
)

// MaybeRunDev migrates up on boot when the auto-migrate flag is set.
// Production deploys run migrations out of band.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.Features.AutoMigrate {
		return nil
	}
	if cfg.App.IsProd() {
		return fmt.Errorf("auto-migrate is not allowed in prod")
	}

	sqlDB, err := client.SQLDB()
	if err != nil {
		return fmt.Errorf("get sql handle: %w", err)
	}

	dialect := "postgres"
	if cfg.Features.UseSQLite {
		dialect = "sqlite3"
	}

	if logg != nil {
		logg.Info(ctx, "running dev auto-migrations")
	}
	return Run(ctx, sqlDB, dialect, DefaultDir, "up")
}
