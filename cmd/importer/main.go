package main

import (
	"context"
	"errors"
	"os"

	"github.com/woozymasta/farmgeo/internal/config"
	"github.com/woozymasta/farmgeo/internal/fields"
	"github.com/woozymasta/farmgeo/internal/kml"
	"github.com/woozymasta/farmgeo/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE"  description:"Path to configuration file" default:"config.yaml"`
	Farm        string `short:"F" long:"farm"        env:"FARM_ID"      description:"Farm the fields belong to" required:"true"`
	Type        string `short:"t" long:"type"                           description:"Field type for every imported field, defaults to config"`
	Concurrency int    `short:"p" long:"concurrency" env:"CONCURRENCY"  description:"Files parsed in parallel" default:"4"`
	DryRun      bool   `short:"n" long:"dry-run"                        description:"Parse and check overlaps without storing"`
	SkipOverlap bool   `short:"s" long:"skip-overlap"                   description:"Do not import candidates that overlap stored fields"`

	Args struct {
		Files []string `positional-arg-name:"FILE" required:"1"`
	} `positional-args:"yes"`
}

func main() {
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

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	fieldType := cfg.Import.DefaultFieldType
	if opts.Type != "" {
		fieldType = opts.Type
	}

	store, err := fields.Open(cfg.Database, cfg.TypeNames())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open field store")
	}
	defer store.Close()

	ctx := context.Background()
	idx, err := store.Index(ctx, opts.Farm)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to index stored fields")
	}

	log.Info().
		Str("farm", opts.Farm).
		Int("files", len(opts.Args.Files)).
		Int("stored_fields", idx.Len()).
		Bool("dry_run", opts.DryRun).
		Msg("Starting import")

	var total fields.ImportResult
	failedFiles := 0

	for _, res := range kml.ParseFiles(opts.Args.Files, opts.Concurrency) {
		label := kml.FileLabel(res.Path)

		if res.Err != nil {
			if errors.Is(res.Err, kml.ErrNoPolygons) {
				log.Warn().Str("file", res.Path).Msg("No polygons found in file")
				continue
			}
			failedFiles++
			log.Error().Err(res.Err).Str("file", res.Path).Msg("Could not read file")
			continue
		}

		candidates := kml.Review(res.Candidates, fieldType)
		kml.FlagOverlaps(candidates, idx)

		for i := range candidates {
			c := &candidates[i]
			evt := log.Info()
			if len(c.Overlaps) > 0 {
				evt = log.Warn().Strs("overlaps", c.Overlaps)
				if opts.SkipOverlap {
					c.Selected = false
				}
			}
			evt.
				Str("file", label).
				Str("field", c.Name).
				Float64("area_ha", c.AreaHectares).
				Float64("lat", c.Center.Lat).
				Float64("lng", c.Center.Lng).
				Bool("selected", c.Selected).
				Msg("Candidate")
		}

		if opts.DryRun {
			continue
		}

		r := store.ImportCandidates(ctx, opts.Farm, candidates)
		total.Imported += r.Imported
		total.Failed += r.Failed
		total.Skipped += r.Skipped

		for _, c := range candidates {
			if c.Selected {
				idx.Insert(c.Name, c.Ring())
			}
		}
	}

	log.Info().
		Str("farm", opts.Farm).
		Int("imported", total.Imported).
		Int("failed", total.Failed).
		Int("skipped", total.Skipped).
		Int("unreadable_files", failedFiles).
		Msg("Import finished")

	if failedFiles > 0 || total.Failed > 0 {
		_ = store.Close()
		os.Exit(2)
	}
}
