// Package app runs a front end to completion and maps the result to a
// process exit code.
package app

import (
	"go.uber.org/zap"

	"github.com/Faultbox/vbsp-viewer/internal/logger"
)

// Runner is a long-running front end such as the viewer window.
type Runner interface {
	Run() error
	Close()
}

// Run runs r and closes it whether or not Run failed. It returns the exit
// code for main: 0 when r stopped normally, 1 on error.
func Run(name string, r Runner) int {
	defer r.Close()

	if err := r.Run(); err != nil {
		logger.Error(name+" error", zap.Error(err))
		return 1
	}
	logger.Info(name + " closed normally")
	return 0
}
