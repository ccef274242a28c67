package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/woozymasta/farmgeo/internal/config"
	"github.com/woozymasta/farmgeo/internal/kml"
	"github.com/woozymasta/farmgeo/internal/render"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input   string `short:"i" long:"in"     description:"Input KMZ or KML file. Reads from stdin if empty"`
	Output  string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format  string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Type    string `short:"t" long:"type"   description:"Field type assigned to every candidate" default:"Weide"`
	SVG     string `long:"svg"              description:"Also write an SVG preview of the candidates to this path"`
	GeoJSON string `long:"geojson"          description:"Also write the candidates as GeoJSON to this path"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Read Input
	var inputData []byte
	var err error

	if opts.Input != "" {
		inputData, err = os.ReadFile(opts.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
	} else {
		inputData, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
	}

	candidates, err := kml.ParseGeofenceFile(inputData)
	if err != nil {
		var fe *kml.FormatError
		if errors.As(err, &fe) {
			fmt.Fprintf(os.Stderr, "Error: could not read file (%s)\n", fe.Reason)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
	if err := kml.CheckEmpty(candidates); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	kml.Review(candidates, opts.Type)

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		outputData, err = yaml.Marshal(candidates)
	} else {
		outputData, err = json.MarshalIndent(candidates, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	overlays := toOverlays(candidates)
	if opts.SVG != "" {
		writeSurface(opts.SVG, overlays, func(w io.Writer) render.Surface {
			return render.SVGSurface{W: w}
		})
	}
	if opts.GeoJSON != "" {
		writeSurface(opts.GeoJSON, overlays, func(w io.Writer) render.Surface {
			return render.GeoJSONSurface{W: w}
		})
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully converted %d fields to %s (format: %s)\n", len(candidates), opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}

func toOverlays(candidates []kml.Candidate) []render.Overlay {
	palette := render.Palette{}
	for _, ft := range config.DefaultFieldTypes {
		palette[ft.Name] = ft.Color
	}

	out := make([]render.Overlay, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, render.Overlay{
			Name:   c.Name,
			Color:  palette.Color(c.FieldType),
			Points: c.Polygon,
			Popup:  fmt.Sprintf("%s (%.1f ha)", c.Name, c.AreaHectares),
		})
	}
	return out
}

func writeSurface(path string, overlays []render.Overlay, surface func(io.Writer) render.Surface) {
	var buf bytes.Buffer
	if err := surface(&buf).Draw(context.Background(), overlays); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering %s: %v\n", path, err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
		os.Exit(1)
	}
}
