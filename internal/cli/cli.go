// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cli implements editorctl, the command line tool editors use to
// run workflow transitions in bulk and inspect the review queue without
// the admin API. It talks to PostgreSQL directly through the editorial
// service, so every gate that applies over HTTP applies here too.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mentorocms/internal/authz"
	"mentorocms/internal/cache"
	"mentorocms/internal/config"
	"mentorocms/internal/database"
	"mentorocms/internal/editorial"
	"mentorocms/internal/models"
	"mentorocms/internal/store"
	"mentorocms/internal/workflow"
)

// Backend is what the commands operate on.
type Backend struct {
	Service *editorial.Service
	Users   ActorFinder
	Close   func()
}

// ActorFinder resolves the --as email to a user.
type ActorFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Opener builds a Backend. editorialPath overrides EDITORIAL_CONFIG when
// not empty.
type Opener func(ctx context.Context, editorialPath string) (*Backend, error)

type commandContext struct {
	open          Opener
	editorialPath string
	jsonOutput    bool
}

// withBackend opens a backend for the duration of fn.
func (c *commandContext) withBackend(ctx context.Context, fn func(*Backend) error) error {
	b, err := c.open(ctx, c.editorialPath)
	if err != nil {
		return err
	}
	if b.Close != nil {
		defer b.Close()
	}
	return fn(b)
}

// actor resolves email, which must name an existing user.
func (c *commandContext) actor(ctx context.Context, b *Backend, email string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("--as is required")
	}
	u, err := b.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", email, err)
	}
	if u == nil {
		return nil, fmt.Errorf("no user with email %s", email)
	}
	return u, nil
}

// NewRootCommand returns the editorctl command tree. A nil open uses
// OpenDatabase.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = OpenDatabase
	}
	ctx := &commandContext{open: open}
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "editorctl",
		Short:         "Run editorial workflow actions from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.editorialPath, "editorial-config", "", "Editorial policy file (overrides EDITORIAL_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&ctx.jsonOutput, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newTransitionCommand(ctx))
	rootCmd.AddCommand(newQueueCommand(ctx))
	rootCmd.AddCommand(newDiffCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))

	return rootCmd
}

// OpenDatabase connects to PostgreSQL using the server's environment
// configuration. Valkey is optional: without it transitions still apply
// but cached public pages are left to expire on their own.
func OpenDatabase(_ context.Context, editorialPath string) (*Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if editorialPath != "" {
		if cfg.Editorial, err = config.LoadEditorial(editorialPath); err != nil {
			return nil, err
		}
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}
	closers := []func(){func() { db.Close() }}

	opts := editorial.Options{
		Languages:       cfg.Editorial.Languages,
		DefaultLanguage: cfg.Editorial.DefaultLanguage,
		CacheLog:        store.NewCacheLogStore(db),
	}
	if client, err := cache.ConnectValkey(cfg.ValkeyAddr(), cfg.ValkeyPassword); err != nil {
		slog.Warn("valkey unavailable, page cache will not be invalidated", "error", err)
	} else {
		opts.Cache = cache.NewPageCache(client, cfg.Editorial.PageCacheTTL())
		closers = append(closers, func() { client.Close() })
	}

	machine := workflow.NewMachine(authz.NewPolicy(cfg.Editorial.EditorGroups))
	return &Backend{
		Service: editorial.New(machine, editorial.NewSQLStore(db), opts),
		Users:   store.NewUserStore(db),
		Close: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

// Execute runs editorctl with the process arguments and returns the exit
// code.
func Execute() int {
	cmd := NewRootCommand(nil)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
