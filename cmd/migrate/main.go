package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/partsbridge/marketplace/internal/auth"
	"github.com/partsbridge/marketplace/internal/boot"
	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/db"
	"github.com/partsbridge/marketplace/pkg/migrate"
)

const seedPasswordEnv = "PARTSBRIDGE_SEED_ADMIN_PASSWORD"

type options struct {
	cmd        string
	dir        string
	name       string
	version    string
	adminEmail string
	adminName  string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate|seed-admin")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory; empty uses the embedded set")
	flag.StringVar(&opts.name, "name", "", "name of the migration to create")
	flag.StringVar(&opts.version, "version", "", "target version for -cmd=version")
	flag.StringVar(&opts.adminEmail, "email", "", "email of the admin to seed")
	flag.StringVar(&opts.adminName, "display-name", "Administrator", "display name of the admin to seed")
	flag.Parse()

	// File-only commands need neither config nor a database.
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			die("create needs -name")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			die("create migration: %v", err)
		}
		fmt.Println("created", path)
		return
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			die("validate migrations: %v", err)
		}
		fmt.Println("migrations ok")
		return
	}

	ctx, stop, cfg, logg := boot.Start("migrate", config.Load)
	defer stop()
	ctx = logg.WithField(ctx, "cmd", opts.cmd)

	backends, err := boot.Connect(ctx, cfg, logg, boot.Needs{DB: true})
	if err != nil {
		boot.Exit(ctx, logg, "database unavailable", err)
	}
	dbClient := backends.DB
	defer backends.Close()

	if err := execute(ctx, opts, cfg, dbClient); err != nil {
		backends.Close()
		boot.Exit(ctx, logg, "migrate command failed", err)
	}
	logg.Info(ctx, "migrate command finished")
}

func execute(ctx context.Context, opts options, cfg *config.Config, dbClient *db.Client) error {
	var sqlDB *sql.DB
	if opts.cmd != "seed-admin" {
		var err error
		if sqlDB, err = dbClient.DB().DB(); err != nil {
			return fmt.Errorf("unwrap sql db: %w", err)
		}
	}

	switch opts.cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, opts.dir, opts.cmd, os.Stdout)
	case "version":
		if opts.version == "" {
			return fmt.Errorf("version needs -version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version, os.Stdout)
	case "seed-admin":
		return seedAdmin(ctx, opts, cfg, dbClient)
	default:
		return fmt.Errorf("unknown command %q", opts.cmd)
	}
}

// seedAdmin creates the first admin account. The password is read from the
// environment only so it never lands in shell history.
func seedAdmin(ctx context.Context, opts options, cfg *config.Config, dbClient *db.Client) error {
	password := os.Getenv(seedPasswordEnv)
	if opts.adminEmail == "" || password == "" {
		return fmt.Errorf("seed-admin needs -email and %s", seedPasswordEnv)
	}
	registrar, err := auth.NewRegisterService(auth.RegisterServiceParams{DB: dbClient, PasswordConfig: cfg.Password})
	if err != nil {
		return err
	}
	user, err := registrar.RegisterAdmin(ctx, auth.AdminRegisterRequest{
		Email:       opts.adminEmail,
		Password:    password,
		DisplayName: opts.adminName,
	})
	if err != nil {
		return err
	}
	fmt.Println("created admin", user.Email)
	return nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
