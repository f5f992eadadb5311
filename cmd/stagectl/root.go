package main

import (
	"context"
	"fmt"
	"time"

	"room-stager/internal/app"
	"room-stager/internal/collab"
	"room-stager/internal/collab/collabtest"
	"room-stager/internal/config"
	"room-stager/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type envKey struct{}

// env is the per-invocation state shared by subcommands.
type env struct {
	cfg     *config.Config
	cfgPath string
	log     *zap.Logger
	fake    *collabtest.Server
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stagectl",
		Short: "Room staging pipeline tools",
		Long: `stagectl normalizes room photos, exports cleanup masks from stroke
scripts, replays placement gestures, and submits cleanup and render jobs to
the collaborator service.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupEnv,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e := envFrom(cmd); e != nil && e.fake != nil {
				e.fake.Close()
			}
		},
	}

	root.PersistentFlags().StringP("config", "c", "", fmt.Sprintf("config file (default is %s)", config.DefaultConfigPath))
	root.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	root.PersistentFlags().Bool("fake", false, "run against an in-process fake collaborator")

	root.AddCommand(
		newNormalizeCmd(),
		newMaskCmd(),
		newPlaceCmd(),
		newCleanupCmd(),
		newRenderCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func setupEnv(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath
	}
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	l := logger.Init(verbose || cfg.Logging.Debug)

	e := &env{cfg: cfg, cfgPath: path, log: l}
	if fake, _ := cmd.Flags().GetBool("fake"); fake {
		e.fake = collabtest.NewServer(collabtest.Options{PendingPolls: 1})
		cfg.Collaborator.BaseURL = e.fake.URL
		cfg.Collaborator.PollInterval = 10 * time.Millisecond
		l.Info("using fake collaborator", zap.String("url", e.fake.URL))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, envKey{}, e)
	cmd.SetContext(logger.ContextWithLogger(ctx, l))
	return nil
}

func envFrom(cmd *cobra.Command) *env {
	if ctx := cmd.Context(); ctx != nil {
		if e, ok := ctx.Value(envKey{}).(*env); ok {
			return e
		}
	}
	return nil
}

// newSession builds a session; online sessions talk to the configured
// collaborator.
func (e *env) newSession(online bool) (*app.Session, error) {
	opts, err := app.OptionsFromConfig(e.cfg)
	if err != nil {
		return nil, err
	}
	if !online {
		return app.New(nil, opts, e.log), nil
	}
	client, err := collab.NewHTTPClient(app.ClientConfig(e.cfg), e.log)
	if err != nil {
		return nil, err
	}
	return app.New(client, opts, e.log), nil
}
