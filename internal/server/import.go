package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/farmgeo/internal/kml"
	"github.com/woozymasta/farmgeo/internal/metrics"
)

// Client facing messages of the import endpoint.
const (
	msgUnreadable = "could not read file"
	msgTooLarge   = "file too large"
	msgNoFile     = "missing file"
)

type importResponse struct {
	Candidates []kml.Candidate `json:"candidates"`
	Warning    string          `json:"warning,omitempty"`
}

// HandleImport parses an uploaded KMZ or KML file into reviewable candidates.
// Nothing is stored until the candidates are committed.
func (s *ServerContext) HandleImport(w http.ResponseWriter, r *http.Request) {
	farm := farmID(r)
	limit := s.Config.Import.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		serverError(w, r, err, "Failed to read upload")
		return
	}

	kind := kml.Detect(data)
	start := time.Now()
	candidates, err := kml.ParseGeofenceFile(data)
	metrics.ParseDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)

	if err != nil {
		metrics.ImportsTotal.WithLabelValues(kind.String(), metrics.OutcomeMalformed).Inc()
		log.Warn().
			Err(err).
			Str("farm", farm).
			Str("file", header.Filename).
			Str("kind", kind.String()).
			Msg("Rejected geofence file")

		resp := errorResponse{Error: msgUnreadable}
		var fe *kml.FormatError
		if errors.As(err, &fe) {
			resp.Reason = fe.Reason
			writeJSON(w, http.StatusUnprocessableEntity, resp)
			return
		}
		serverError(w, r, err, "Failed to parse geofence file")
		return
	}

	resp := importResponse{Candidates: candidates}
	if err := kml.CheckEmpty(candidates); err != nil {
		metrics.ImportsTotal.WithLabelValues(kind.String(), metrics.OutcomeEmpty).Inc()
		resp.Warning = err.Error()
	} else {
		metrics.ImportsTotal.WithLabelValues(kind.String(), metrics.OutcomeOK).Inc()
		metrics.CandidatesTotal.Add(float64(len(candidates)))

		kml.Review(candidates, s.Config.Import.DefaultFieldType)
		if idx, err := s.Store.Index(r.Context(), farm); err != nil {
			log.Warn().Err(err).Str("farm", farm).Msg("Overlap check skipped")
		} else {
			kml.FlagOverlaps(candidates, idx)
		}
	}

	log.Info().
		Str("farm", farm).
		Str("file", header.Filename).
		Str("kind", kind.String()).
		Int("candidates", len(candidates)).
		Msg("Geofence file parsed")

	writeJSON(w, http.StatusOK, resp)
}

// HandleImportCommit stores the reviewed candidates. Every selected
// candidate is inserted on its own and failures are reported per item.
func (s *ServerContext) HandleImportCommit(w http.ResponseWriter, r *http.Request) {
	farm := farmID(r)
	r.Body = http.MaxBytesReader(w, r.Body, s.Config.Import.MaxUploadMB<<20)

	var candidates []kml.Candidate
	if err := json.NewDecoder(r.Body).Decode(&candidates); err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid candidates")
		return
	}

	res := s.Store.ImportCandidates(r.Context(), farm, candidates)
	metrics.FieldsImportedTotal.WithLabelValues("imported").Add(float64(res.Imported))
	metrics.FieldsImportedTotal.WithLabelValues("failed").Add(float64(res.Failed))

	log.Info().
		Str("farm", farm).
		Int("imported", res.Imported).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Msg("Import committed")

	writeJSON(w, http.StatusOK, res)
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
