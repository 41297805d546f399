package robot

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/xkilldash9x/otto-cli/internal/desktop"
	"github.com/xkilldash9x/otto-cli/internal/desktop/x11"
)

// NewWindowSystem picks the best backend for the host: the EWMH backend when
// an X server answers, robotgo everywhere else.
func NewWindowSystem(logger *zap.Logger) desktop.WindowSystem {
	if runtime.GOOS == "linux" {
		ws, err := x11.Dial(logger)
		if err == nil {
			logger.Debug("Using X11 window backend.")
			return ws
		}
		logger.Warn("X11 connection failed; window geometry operations will be unavailable.", zap.Error(err))
	}
	return NewWindows(logger)
}
