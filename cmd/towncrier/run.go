package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravenswood/towncrier/internal/bot"
	"github.com/ravenswood/towncrier/internal/config"
	"github.com/ravenswood/towncrier/internal/dashboard"
	"github.com/ravenswood/towncrier/internal/directory/discord"
	"github.com/ravenswood/towncrier/internal/settings"
	"github.com/ravenswood/towncrier/internal/town"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Towncrier bot",
		Long:  "Connects to Discord, listens for town square commands, and serves the optional dashboard.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "towncrier.yaml", "path to Towncrier config file")
	return cmd
}

func runRun(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := settings.Open(cfg.Storage.Driver, cfg.Storage.DSNString())
	if err != nil {
		return fmt.Errorf("open settings storage: %w", err)
	}
	store, err := settings.NewStore(db, defaultSettings())
	if err != nil {
		return fmt.Errorf("init settings store: %w", err)
	}

	adapter, err := discord.New(discord.AdapterOpts{BotToken: cfg.Discord.Token})
	if err != nil {
		return fmt.Errorf("create discord adapter: %w", err)
	}

	registry := town.NewRegistry(store, adapter)
	daemon, err := bot.New(bot.Opts{
		Settings:      store,
		Towns:         registry,
		Directory:     adapter,
		Gateway:       adapter,
		Prefix:        cfg.Discord.Prefix,
		DeleteDelay:   time.Duration(cfg.Janitor.DeleteDelaySec) * time.Second,
		IdleTTL:       time.Duration(cfg.Janitor.IdleTTLMin) * time.Minute,
		SweepSchedule: cfg.Janitor.SweepSchedule,
	})
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Dashboard.Enabled {
		go func() {
			err := dashboard.Start(ctx, dashboard.StartOpts{
				Towns:    registry,
				Settings: store,
				Port:     cfg.Dashboard.Port,
				Out:      cmd.OutOrStdout(),
			})
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "dashboard: %v\n", err)
			}
		}()
	}

	err = daemon.Run(ctx)
	if cerr := adapter.Close(); cerr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "close adapter: %v\n", cerr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// defaultSettings seeds the per-venue settings store with the stock emoji.
// Role bindings have no default; each town sets its own.
func defaultSettings() map[string]string {
	return map[string]string{
		town.KeyEmojiDead:      town.DefaultSymbols.Dead,
		town.KeyEmojiVote:      town.DefaultSymbols.Vote,
		town.KeyEmojiNoVote:    town.DefaultSymbols.NoVote,
		town.KeyEmojiTraveling: town.DefaultSymbols.Traveling,
	}
}
