package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// admin-token mints a bearer token for the admin API, for local use and smoke tests
// where the external auth provider is not available.
func main() {
	logg := logger.New(logger.Options{ServiceName: "admin-token"})
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "admin-token",
		Usage: "mint a staff bearer token signed with STOREFRONT_JWT_SECRET",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Required: true, Usage: "staff identifier"},
			&cli.StringFlag{Name: "email", Usage: "staff email"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime; defaults to STOREFRONT_JWT_EXPIRATION_MINUTES"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			token, err := auth.MintAdminToken(cfg.JWT, time.Now(), auth.AdminTokenPayload{
				Subject: c.String("subject"),
				Email:   c.String("email"),
				TTL:     c.Duration("ttl"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logg.Error(context.Background(), "mint admin token", err)
		os.Exit(1)
	}
}
