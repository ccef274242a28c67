package kml

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// FileResult is the outcome of parsing one file of a batch.
type FileResult struct {
	Path       string
	Kind       SourceKind
	Candidates []Candidate
	Err        error
}

type fileJob struct {
	index int
	path  string
}

// ParseFiles parses geofence files with a bounded worker pool.
// Results are returned in input order. A readable file without polygons
// reports ErrNoPolygons.
func ParseFiles(paths []string, concurrency int) []FileResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	jobs := make(chan fileJob, len(paths))
	results := make([]FileResult, len(paths))

	go func() {
		for i, p := range paths {
			jobs <- fileJob{index: i, path: p}
		}
		close(jobs)
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = parseFile(j.path)
				if err := results[j.index].Err; err != nil {
					log.Debug().
						Err(err).
						Str("file", j.path).
						Msg("Failed to parse geofence file")
				}
			}
		}()
	}
	wg.Wait()

	return results
}

func parseFile(path string) FileResult {
	res := FileResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}

	res.Kind = Detect(data)
	res.Candidates, res.Err = ParseGeofenceFile(data)
	if res.Err == nil {
		res.Err = CheckEmpty(res.Candidates)
	}

	return res
}

// FileLabel returns the base name of path without its KMZ or KML extension.
func FileLabel(path string) string {
	return StripExtension(filepath.Base(path))
}
