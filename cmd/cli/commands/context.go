package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/offthechainak/hourbank/internal/config"
	"github.com/offthechainak/hourbank/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Database *db.DB
	Logger   *zap.Logger
	Ctx      context.Context
}
