package logging

import (
	"go.uber.org/zap"
)

// Init builds the process logger and installs it as zap's global so
// packages can log through zap.L(). The returned func flushes it.
func Init(development bool) (*zap.Logger, func(), error) {
	var (
		logger *zap.Logger
		err    error
	)
	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, err
	}

	restore := zap.ReplaceGlobals(logger)
	return logger, func() {
		if err := logger.Sync(); err != nil {
			zap.L().Debug("failed to sync logger", zap.Error(err))
		}
		restore()
	}, nil
}
