package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func main() {
	// bootstrap logger early (re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "migrate",
		Usage: "manage storefront database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: migrate.DefaultDir, Usage: "goose migrations directory"},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: withRunner(logg, func(c *cli.Context, r *migrate.Runner) error {
					applied, err := r.Up(c.Context)
					printFiles("applied", applied)
					return err
				}),
			},
			{
				Name:  "down",
				Usage: "roll back the latest migration",
				Action: withRunner(logg, func(c *cli.Context, r *migrate.Runner) error {
					file, err := r.Down(c.Context)
					if file != "" {
						fmt.Println("rolled back", file)
					}
					return err
				}),
			},
			{
				Name:  "reset",
				Usage: "roll back every migration",
				Action: withRunner(logg, func(c *cli.Context, r *migrate.Runner) error {
					reverted, err := r.Reset(c.Context)
					printFiles("rolled back", reverted)
					return err
				}),
			},
			{
				Name:  "status",
				Usage: "print applied and pending migrations",
				Action: withRunner(logg, func(c *cli.Context, r *migrate.Runner) error {
					rows, err := r.Status(c.Context)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
					for _, row := range rows {
						state, at := "pending", "-"
						if row.Applied {
							state, at = "applied", row.AppliedAt.UTC().Format(time.RFC3339)
						}
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", row.Version, state, at, row.File)
					}
					return w.Flush()
				}),
			},
			{
				Name:  "version",
				Usage: "print the current version, or migrate to --to",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "to", Usage: "target version (YYYYMMDDHHMMSS)"},
				},
				Action: withRunner(logg, func(c *cli.Context, r *migrate.Runner) error {
					if target := c.Int64("to"); target > 0 {
						moved, err := r.To(c.Context, target)
						printFiles("migrated", moved)
						return err
					}
					v, err := r.Version(c.Context)
					if err == nil {
						fmt.Println(v)
					}
					return err
				}),
			},
			{
				Name:  "create",
				Usage: "create a new SQL migration",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "migration name"},
				},
				Action: func(c *cli.Context) error {
					path, err := migrate.CreateSQLMigration(c.String("dir"), c.String("name"))
					if err != nil {
						return err
					}
					fmt.Println("created", path)
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "check migration file names and goose annotations",
				Action: func(c *cli.Context) error {
					if err := migrate.ValidateDir(c.String("dir")); err != nil {
						return fmt.Errorf("migration validation failed: %w", err)
					}
					fmt.Println("migrations ok")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logg.Error(context.Background(), "migrate failed", err)
		os.Exit(1)
	}
}

func printFiles(verb string, files []string) {
	if len(files) == 0 {
		fmt.Println("nothing to do")
	}
	for _, f := range files {
		fmt.Println(verb, f)
	}
}

// withRunner opens the configured database for the duration of one command.
func withRunner(logg *logger.Logger, fn func(c *cli.Context, r *migrate.Runner) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logg = logger.New(logger.Options{
			ServiceName: "migrate",
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
			Format:      cfg.App.LogFormat,
		})
		ctx := logg.WithFields(c.Context, map[string]any{
			"env": cfg.App.Env,
			"cmd": c.Command.Name,
			"dir": c.String("dir"),
		})

		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return fmt.Errorf("bootstrap database: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				logg.Error(ctx, "close database", err)
			}
		}()

		sqlDB, err := client.DB().DB()
		if err != nil {
			return fmt.Errorf("extract sql db: %w", err)
		}
		runner, err := migrate.NewRunner(sqlDB, client.Dialect(), c.String("dir"))
		if err != nil {
			return err
		}
		c.Context = ctx
		return fn(c, runner)
	}
}
