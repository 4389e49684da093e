package migration

import (
	"github.com/smallbiznis/taxbridge/internal/config"
	customerdomain "github.com/smallbiznis/taxbridge/internal/customer/domain"
	"github.com/smallbiznis/taxbridge/internal/ordermarker"
	synclogdomain "github.com/smallbiznis/taxbridge/internal/synclog/domain"
	taxruledomain "github.com/smallbiznis/taxbridge/internal/taxrule/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// non-postgres targets (dev, sqlite) fall back to AutoMigrate
		return conn.AutoMigrate(
			&taxruledomain.TaxRule{},
			&taxruledomain.TaxProvider{},
			&customerdomain.Customer{},
			&synclogdomain.SyncLog{},
			&ordermarker.OrderMarker{},
		)
	}),
)
