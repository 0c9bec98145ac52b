package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"mediaprops/internal/config"
	"mediaprops/internal/engine"
	"mediaprops/internal/logger"
	"mediaprops/internal/mediaprops"
	"mediaprops/internal/shutdown"
	"mediaprops/internal/web"
)

func main() {
	var (
		port       int
		configPath string
		root       string
	)

	flag.IntVar(&port, "port", 0, "HTTP server port (default from config)")
	flag.StringVar(&configPath, "config", "", "Config file path")
	flag.StringVar(&root, "root", "", "Library root served by the API (default from config)")
	flag.Parse()

	// Load config from the given path or the standard locations
	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if port != 0 {
		cfg.WebPort = port
	}
	if root != "" {
		cfg.LibraryRoot = config.ExpandHome(root)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateLibrary(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Setup logger with file logging
	l := logger.New(cfg.Verbose)
	if err := os.MkdirAll(cfg.LogDir, 0755); err == nil {
		logPath := filepath.Join(cfg.LogDir, fmt.Sprintf("mediaprops-web-%d.log", time.Now().Unix()))
		if err := l.SetFileLog(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup file logging: %v\n", err)
		}
	}
	defer l.Close()

	eng, err := engine.New(cfg.Engine)
	if err != nil {
		l.Error("%v", err)
		os.Exit(1)
	}

	sh := shutdown.New()
	sh.Listen()

	jobMgr := web.NewJobManager()
	jobMgr.StartCleanup(sh.Context())

	server, err := web.NewServer(sh.Context(), mediaprops.New(eng, mediaprops.WithLogger(l)), jobMgr, cfg, l)
	if err != nil {
		l.Error("Failed to create server: %v", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.WebPort),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sh.Track(func(ctx context.Context) {
		l.Info("Serving %s on port %d", cfg.LibraryRoot, cfg.WebPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("Server error: %v", err)
			sh.Shutdown()
		}
	})

	<-sh.Context().Done()

	l.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		l.Error("Server shutdown error: %v", err)
	}
	if !sh.Wait(time.Second) {
		l.Warn("Server did not stop in time")
	}

	l.Info("Server stopped")
}
