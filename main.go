// Package main provides the entry point for the Room Stager application.
package main

import (
	"fmt"
	"os"

	"room-stager/internal/app"
	"room-stager/internal/collab"
	"room-stager/internal/config"
	"room-stager/internal/logger"
	"room-stager/internal/version"
	"room-stager/ui/mainwindow"
	"room-stager/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"go.uber.org/zap"
)

const appID = "app.roomstager.desktop"

func main() {
	cfgPath := config.DefaultConfigPath
	if p := os.Getenv(config.EnvPrefix + "_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "room-stager: %v\n", err)
		os.Exit(1)
	}

	l := logger.Init(cfg.Logging.Debug)
	defer logger.Close()
	l.Info("starting room stager", zap.String("version", version.String()), zap.String("config", cfgPath))

	opts, err := app.OptionsFromConfig(cfg)
	if err != nil {
		l.Fatal("invalid configuration", zap.Error(err))
	}
	appPrefs := prefs.Load()
	opts.Brush.BrushSize = appPrefs.Float(prefs.KeyBrushSize, opts.Brush.BrushSize)

	var service collab.Service
	if client, err := collab.NewHTTPClient(app.ClientConfig(cfg), l); err != nil {
		l.Warn("cleanup service unavailable, running offline", zap.Error(err))
	} else {
		service = client
	}

	session := app.New(service, opts, l)

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&mainwindow.RoomStagerTheme{})

	win := mainwindow.New(fyneApp, session, mainwindow.Options{
		Config:     cfg,
		ConfigPath: cfgPath,
		Prefs:      appPrefs,
		Logger:     l,
	})

	// Handle command line arguments
	if len(os.Args) > 1 {
		if err := loadPhoto(session, os.Args[1]); err != nil {
			l.Warn("failed to load photo", zap.String("path", os.Args[1]), zap.Error(err))
		}
	}

	win.ShowAndRun()
}

func loadPhoto(s *app.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.LoadPhoto(f)
}
