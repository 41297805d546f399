package tools

import (
	"github.com/xkilldash9x/otto-cli/internal/action"
	"github.com/xkilldash9x/otto-cli/internal/desktop"
	"github.com/xkilldash9x/otto-cli/internal/recovery"
	"github.com/xkilldash9x/otto-cli/internal/screen"
	"github.com/xkilldash9x/otto-cli/internal/store"
	"github.com/xkilldash9x/otto-cli/internal/windows"
	"go.uber.org/zap"
)

// Deps are the components the tool handlers drive.
type Deps struct {
	Executor *action.Executor
	Recovery *recovery.Coordinator
	Windows  *windows.Directory
	// Input is only read for the pointer position.
	Input desktop.Input
	// SimilarityThreshold is the compare_screenshots default, used as given.
	SimilarityThreshold float64
}

type toolset struct {
	Deps
	observer *screen.Observer
	logger   *zap.Logger
}

// New builds a registry holding the full tool set.
func New(deps Deps, journal store.Journal, logger *zap.Logger) *Registry {
	ts := &toolset{
		Deps:     deps,
		observer: deps.Executor.Observer(),
		logger:   logger.Named("tools"),
	}
	r := NewRegistry(journal, logger)
	ts.registerDesktop(r)
	ts.registerRecovery(r)
	ts.registerWindows(r)
	return r
}

func str(name, desc string, required bool) Param {
	return Param{Name: name, Type: TypeString, Description: desc, Required: required}
}

func integer(name, desc string, required bool) Param {
	return Param{Name: name, Type: TypeInteger, Description: desc, Required: required}
}

var titlePattern = str("title_pattern", "Case-insensitive substring of the window title. The first matching window is used.", true)
