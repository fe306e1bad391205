// Package main is the entry point for the VBSP map viewer.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/vbsp-viewer/internal/app"
	"github.com/Faultbox/vbsp-viewer/internal/config"
	"github.com/Faultbox/vbsp-viewer/internal/logger"
	"github.com/Faultbox/vbsp-viewer/internal/viewer"
)

func main() {
	os.Exit(run())
}

// run returns the exit code so that deferred cleanup finishes before exit.
func run() int {
	// Parse CLI flags first
	config.ParseFlags()

	if config.WriteConfigRequested() {
		return writeConfig()
	}

	args := config.Args()
	if len(args) < 2 {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "\n  hdr: 0 for LDR lighting, any other integer for HDR")
		return 1
	}
	path := args[0]
	hdr, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid hdr value %q: %v\n", args[1], err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}
	cfg.Map.HDR = hdr != 0

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("=== BSP Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := viewer.New(cfg, path)
	if err != nil {
		logger.Error("failed to open map", zap.String("path", path), zap.Error(err))
		return 1
	}

	return app.Run("viewer", v)
}

// writeConfig saves the effective configuration so it can be edited by hand.
func writeConfig() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}
	path, err := cfg.Save()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Writing config: %v\n", err)
		return 1
	}
	fmt.Println(path)
	return 0
}
