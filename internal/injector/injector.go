//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/gdamore/tcell/v2"
	"github.com/google/wire"

	"github.com/zeusync/zoowalk/internal/app"
	"github.com/zeusync/zoowalk/internal/config"
)

// InitializeServer assembles the world behind the websocket host.
func InitializeServer(cfg config.Config) (*app.Runtime, func(), error) {
	wire.Build(app.CoreSet, app.ServerSet)
	return nil, nil, nil
}

// InitializeTerminal assembles the world behind a terminal screen.
func InitializeTerminal(cfg config.Config, screen tcell.Screen) (*app.Runtime, func(), error) {
	wire.Build(app.CoreSet, app.TerminalSet)
	return nil, nil, nil
}
