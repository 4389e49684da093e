package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxbridge/internal/calculator"
	taxjarcalc "github.com/smallbiznis/taxbridge/internal/calculator/taxjar"
	"github.com/smallbiznis/taxbridge/internal/config"
	"github.com/smallbiznis/taxbridge/internal/customer"
	"github.com/smallbiznis/taxbridge/internal/engine"
	"github.com/smallbiznis/taxbridge/internal/migration"
	"github.com/smallbiznis/taxbridge/internal/observability"
	"github.com/smallbiznis/taxbridge/internal/ordermarker"
	"github.com/smallbiznis/taxbridge/internal/profilesync"
	"github.com/smallbiznis/taxbridge/internal/server"
	"github.com/smallbiznis/taxbridge/internal/synclog"
	"github.com/smallbiznis/taxbridge/internal/taxrule"
	"github.com/smallbiznis/taxbridge/pkg/db"
	"github.com/smallbiznis/taxbridge/pkg/telemetry"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		fx.Provide(telemetry.NewMetrics),
		db.Module,
		migration.Module,

		// Domains
		taxrule.Module,
		customer.Module,
		synclog.Module,
		calculator.Module,
		taxjarcalc.Module,
		engine.Module,
		profilesync.Module,
		ordermarker.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
