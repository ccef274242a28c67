package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/farmgeo/internal/config"
	"github.com/woozymasta/farmgeo/internal/fields"
	"github.com/woozymasta/farmgeo/internal/logger"
	"github.com/woozymasta/farmgeo/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"    env:"CONFIG_FILE"    description:"Path to configuration file"       default:"config.yaml"`
	Addr       string `short:"a" long:"addr"      env:"LISTEN_ADDRESS" description:"Address to listen on"             default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"      env:"LISTEN_PORT"    description:"Port to listen on"                default:"8080"`
	Driver     string `short:"d" long:"db-driver" env:"DB_DRIVER"      description:"Database driver, overrides config" choice:"sqlite" choice:"postgres"`
	DSN        string `long:"db-dsn"              env:"DATABASE_URL"   description:"Database DSN, overrides config"`
}

func main() {
	// .env files are optional, real environment wins
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.Driver != "" {
		cfg.Database.Driver = opts.Driver
	}
	if opts.DSN != "" {
		cfg.Database.DSN = opts.DSN
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid database options")
	}

	store, err := fields.Open(cfg.Database, cfg.TypeNames())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open field store")
	}
	defer store.Close()

	srvCtx := server.NewServerContext(cfg, store)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("addr", listenAddr).
		Str("db_driver", cfg.Database.Driver).
		Int("field_types", len(cfg.FieldTypes)).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
