package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mediaprops/internal/config"
	"mediaprops/internal/engine"
	"mediaprops/internal/logger"
	"mediaprops/internal/mediaprops"
	"mediaprops/internal/progress"
	"mediaprops/internal/shutdown"
)

func main() {
	opts, err := parseArgs(os.Args[1:])
	if opts.help {
		printUsage()
		if err != nil {
			os.Exit(1)
		}
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	if opts.initConfig {
		if err := initConfigFile(); err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg := opts.cfg

	log := logger.New(cfg.Verbose)
	defer log.Close()

	if err := cfg.Validate(); err != nil {
		log.Error("Configuration error: %v", err)
		os.Exit(1)
	}

	if !cfg.Verbose {
		setupFileLog(log, cfg)
	}
	if opts.configPath != "" {
		log.Debug("Loaded configuration from: %s", opts.configPath)
	}

	sh := shutdown.New()
	sh.Listen()

	eng, err := engine.New(cfg.Engine)
	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	log.Debug("Using %s engine", cfg.Engine)

	a := &app{
		media:     mediaprops.New(eng, mediaprops.WithLogger(log)),
		cfg:       cfg,
		log:       log,
		out:       os.Stdout,
		recursive: opts.recursive,
	}
	if !cfg.Verbose && progress.IsTerminal(os.Stderr) {
		a.progressOut = os.Stderr
	}

	if err := a.run(sh.Context(), opts.command, opts.args); err != nil {
		log.Error("%v", err)
		log.Close()
		os.Exit(1)
	}
}

// setupFileLog keeps a debug-level log of every run under cfg.LogDir.
func setupFileLog(log *logger.Logger, cfg config.Config) {
	logDir := cfg.LogDir
	if logDir == "" {
		logDir = config.GetDefaultLogPath()
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		return
	}
	logFile := filepath.Join(logDir, fmt.Sprintf("mediaprops_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	if err := log.SetFileLog(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
		return
	}
	log.Debug("Logging to file: %s", logFile)
}
