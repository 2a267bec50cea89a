package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/healthconnect-api/internal/repository"
	"github.com/noah-isme/healthconnect-api/internal/service"
	"github.com/noah-isme/healthconnect-api/migrations"
	"github.com/noah-isme/healthconnect-api/pkg/config"
	"github.com/noah-isme/healthconnect-api/pkg/database"
	"github.com/noah-isme/healthconnect-api/pkg/logger"
	"github.com/noah-isme/healthconnect-api/pkg/validation"
)

func main() {
	flag.Usage = usage
	adminEmail := flag.String("email", "", "admin email for seed-admin (defaults to MAIL_ADMIN_EMAIL)")
	adminPassword := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password for seed-admin")
	adminName := flag.String("name", "System Administrator", "admin display name for seed-admin")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logr.Fatal("set goose dialect", zap.Error(err))
	}

	switch args[0] {
	case "up":
		err = goose.UpContext(ctx, db.DB, ".")
	case "down":
		err = goose.DownContext(ctx, db.DB, ".")
	case "status":
		err = goose.StatusContext(ctx, db.DB, ".")
	case "seed-admin":
		email := *adminEmail
		if email == "" {
			email = cfg.Mail.AdminEmail
		}
		auth := service.NewAuthService(repository.NewUserRepository(db), validation.New(), logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})
		var created bool
		created, err = auth.EnsureAdmin(ctx, service.AdminSeed{
			Email:          email,
			Password:       *adminPassword,
			FullName:       *adminName,
			EmployeeNumber: "A123456",
			Department:     "Clinic Administration",
		})
		if err == nil && !created {
			logr.Info("admin already present", zap.String("email", email))
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logr.Fatal("migrate command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [flags] up|down|status|seed-admin")
	flag.PrintDefaults()
}
