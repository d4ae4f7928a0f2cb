package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"imoveis/internal/adapters/auth"
	"imoveis/internal/adapters/observability"
	redisad "imoveis/internal/adapters/redis"
	"imoveis/internal/app"
	"imoveis/internal/shared"
	mysqlrepo "imoveis/internal/storage/mysql"
)

func setup() shared.Config {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	return cfg
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			db, err := openDB(cmd.Context(), cfg.MySQLDSN)
			if err != nil {
				return err
			}
			defer db.Close()
			return mysqlrepo.Migrate(cmd.Context(), db)
		},
	}
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import listings from a JSON array file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			workers, _ := cmd.Flags().GetInt("workers")
			if workers <= 0 {
				workers = cfg.ImportWorkers
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var listings []map[string]any
			if err := json.Unmarshal(raw, &listings); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			db, err := openDB(cmd.Context(), cfg.MySQLDSN)
			if err != nil {
				return err
			}
			defer db.Close()
			cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
			defer cache.Close()

			log.Info().Str("file", args[0]).Int("listings", len(listings)).Int("workers", workers).Msg("import starting")
			svc := app.NewImportService(mysqlrepo.New(db), cache)
			report, err := svc.ImportAll(cmd.Context(), listings, workers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created: %d, duplicates: %d, failed: %d\n", len(report.Created), len(report.Duplicates), len(report.Failed))
			failed := make([]string, 0, len(report.Failed))
			for ref := range report.Failed {
				failed = append(failed, ref)
			}
			sort.Strings(failed)
			for _, ref := range failed {
				fmt.Fprintf(out, "- %s: %s\n", ref, report.Failed[ref])
			}
			return nil
		},
	}
	cmd.Flags().Int("workers", 0, "concurrent imports (defaults to IMPORT_WORKERS)")
	return cmd
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print an admin bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL, cfg.AdminEmail, cfg.AdminPassword)
			if err != nil {
				return err
			}
			tok, exp, err := issuer.Issue(cfg.AdminEmail, auth.RoleAdmin)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			log.Info().Time("expires_at", exp).Msg("token issued")
			return nil
		},
	}
}
