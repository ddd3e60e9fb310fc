// Command profilectl inspects and repairs profile documents.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wellness/internal/adapter/repo"
	"wellness/internal/docstore"
	"wellness/internal/infra"
	"wellness/internal/infra/credentials"
	"wellness/internal/notify"
	"wellness/internal/profile"
	"wellness/internal/progress"
	"wellness/internal/settings"
	"wellness/internal/storage"
)

type env struct {
	pool    *pgxpool.Pool
	runner  *infra.SQLRunner
	store   docstore.Store
	access  profile.Access
	builder *profile.Builder
	logger  infra.Logger
}

func (e *env) profileBuilder(images profile.ImageEraser) *profile.Builder {
	return profile.NewBuilder(profile.Options{
		Access:    e.access,
		Settings:  settings.NewService(e.store, notify.NewLogPusher(e.logger), &e.logger),
		Progress:  progress.NewService(e.store, nil, &e.logger),
		Images:    images,
		Reminders: repo.NewReminderRepository(e.runner),
		Scans:     repo.NewScanHistoryRepository(e.runner),
		Accounts:  repo.NewAccountRepository(e.runner),
		Logger:    &e.logger,
	})
}

// imageStore opens the object store named by STORAGE_DRIVER, defaulting to
// the local directory the API uses.
func imageStore(ctx context.Context) (profile.ImageEraser, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_DRIVER")))
	switch driver {
	case "", "file":
		path := strings.TrimSpace(os.Getenv("STORAGE_PATH"))
		if path == "" {
			path = "./storage"
		}
		store, err := storage.NewFileStore(path, "")
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		bucket := strings.TrimSpace(os.Getenv("S3_BUCKET"))
		if bucket == "" {
			return nil, errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
		region := strings.TrimSpace(os.Getenv("AWS_REGION"))
		if region == "" {
			region = "us-east-1"
		}
		awsCfg, err := infra.LoadAWSConfig(ctx, &infra.Config{AWSRegion: region})
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(storage.NewS3Client(awsCfg), bucket, ""), nil
	}
	return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		e       env
		timeout time.Duration
		cancel  context.CancelFunc = func() {}
	)
	root := &cobra.Command{
		Use:           "profilectl",
		Short:         "Inspect and repair wellness profile documents",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
			if dbURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			var ctx context.Context
			ctx, cancel = context.WithTimeout(cmd.Context(), timeout)
			cmd.SetContext(ctx)

			pool, err := pgxpool.New(ctx, dbURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			e.pool = pool
			// Logs go to stderr so command output stays pipeable.
			e.logger = infra.NewLogger("development").
				Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				With().Str("cmd", "profilectl").Logger()
			e.runner = infra.NewSQLRunner(pool, e.logger)
			e.store = docstore.NewPostgresStore(e.runner, nil)
			e.access = profile.NewAccess(e.store)
			e.builder = e.profileBuilder(nil)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			cancel()
			if e.pool != nil {
				e.pool.Close()
			}
		},
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall command timeout")

	root.AddCommand(
		newGetCmd(&e),
		newMergeCmd(&e),
		newDeleteAccountCmd(&e),
		newMigrateCmd(&e),
		newLegacyCmd(&e),
		newAPIKeyCmd(&e),
	)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <user-id>",
		Short: "Print a user's profile document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := e.builder.Resolver().Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, doc)
		},
	}
}

func newMergeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <user-id> <json-patch>",
		Short: "Deep-merge a JSON object into a user's profile document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch map[string]any
			if err := json.Unmarshal([]byte(args[1]), &patch); err != nil {
				return fmt.Errorf("patch must be a JSON object: %w", err)
			}
			doc, err := e.access.Merge(cmd.Context(), e.builder.Resolver().KeyFor(args[0]), patch)
			if err != nil {
				return err
			}
			return printJSON(cmd, doc)
		},
	}
}

func newDeleteAccountCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account <user-id>",
		Short: "Delete a user's profile, images, scans, reminders and account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			images, err := imageStore(cmd.Context())
			if err != nil {
				return fmt.Errorf("open image store: %w", err)
			}
			if err := e.profileBuilder(images).DeleteAccount(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db := infra.SQLDB(e.pool)
			defer db.Close()
			return infra.Migrate(cmd.Context(), db, e.logger)
		},
	}
}

func newLegacyCmd(e *env) *cobra.Command {
	legacy := &cobra.Command{
		Use:   "legacy",
		Short: "Work with profile_<name>_<timestamp> documents",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List documents under the profile prefix in key order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := e.builder.Resolver().ListLegacy(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, d := range docs {
				name, _ := d.Data["name"].(string)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tv%d\t%s\n", d.Key, d.Version, name)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 100, "maximum documents to list")

	resolve := &cobra.Command{
		Use:   "resolve",
		Short: "Show the document the prefix resolver would pick",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			match, err := e.builder.Resolver().ResolveLegacy(cmd.Context())
			if err != nil {
				return err
			}
			if match.Count > 1 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d documents match, showing the first\n", match.Count)
			}
			return printJSON(cmd, match.Document)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate <legacy-key> <user-id>",
		Short: "Merge a legacy document into a user's profile and remove it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := e.builder.MigrateLegacy(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	legacy.AddCommand(list, resolve, migrate)
	return legacy
}

func newAPIKeyCmd(e *env) *cobra.Command {
	apikey := &cobra.Command{
		Use:   "apikey",
		Short: "Manage stored nutrition provider keys",
	}
	set := &cobra.Command{
		Use:   "set <provider> [key]",
		Short: fmt.Sprintf("Store an API key (%s); the key may come from $NUTRITION_API_KEY", strings.Join(credentials.Providers, ", ")),
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(os.Getenv("NUTRITION_API_KEY"))
			if len(args) == 2 {
				key = strings.TrimSpace(args[1])
			}
			if key == "" {
				return errors.New("key is required")
			}
			if err := credentials.NewStore(e.runner).SetToken(cmd.Context(), args[0], key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s key\n", strings.ToLower(args[0]))
			return nil
		},
	}
	apikey.AddCommand(set)
	return apikey
}
