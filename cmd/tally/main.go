package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tallyworks/tally/internal/clock"
	"github.com/tallyworks/tally/internal/config"
	"github.com/tallyworks/tally/internal/migration"
	"github.com/tallyworks/tally/internal/observability"
	"github.com/tallyworks/tally/internal/server"
	"github.com/tallyworks/tally/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
