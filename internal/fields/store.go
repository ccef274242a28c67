package fields

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/woozymasta/farmgeo/internal/config"
	"github.com/woozymasta/farmgeo/internal/geo"
	"github.com/woozymasta/farmgeo/internal/kml"
	"github.com/woozymasta/farmgeo/internal/logger"
	"github.com/woozymasta/farmgeo/internal/render"
)

// PerPage is the list page size.
const PerPage = 20

// ErrNotFound is returned when a field does not exist for the farm.
var ErrNotFound = errors.New("field not found")

// Store persists fields through GORM.
type Store struct {
	db    *gorm.DB
	types []string
}

// Open connects to the configured database and migrates the schema.
func Open(cfg config.Database, types []string) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGorm(cfg.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	s := New(db, types)
	if err := s.Migrate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("driver", cfg.Driver).
		Int("field_types", len(types)).
		Msg("Connected to database")

	return s, nil
}

// New wraps an open database handle.
func New(db *gorm.DB, types []string) *Store {
	return &Store{db: db, types: types}
}

// Migrate creates or updates the fields table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Field{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Types returns the accepted field types.
func (s *Store) Types() []string {
	return s.types
}

// Create validates and inserts a field for farmID.
func (s *Store) Create(ctx context.Context, farmID string, f *Field) error {
	f.FarmID = farmID
	f.Normalize()
	if err := f.Validate(s.types); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(f).Error
}

// Get returns a field of farmID.
func (s *Store) Get(ctx context.Context, farmID string, id uuid.UUID) (*Field, error) {
	var f Field
	err := s.db.WithContext(ctx).
		Where("farm_id = ? AND id = ?", farmID, id).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Update replaces the editable values of an existing field.
func (s *Store) Update(ctx context.Context, farmID string, id uuid.UUID, f *Field) (*Field, error) {
	current, err := s.Get(ctx, farmID, id)
	if err != nil {
		return nil, err
	}

	f.ID = current.ID
	f.FarmID = farmID
	f.CreatedAt = current.CreatedAt
	f.Normalize()
	if err := f.Validate(s.types); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(f).Error; err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes a field of farmID.
func (s *Store) Delete(ctx context.Context, farmID string, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("farm_id = ? AND id = ?", farmID, id).
		Delete(&Field{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListQuery filters a field listing.
type ListQuery struct {
	Search string
	Type   string // "" or "all" for every type
	Page   int    // zero based
}

// Page is one page of a field listing.
type Page struct {
	Items []Field `json:"items"`
	Total int64   `json:"total"`
	Page  int     `json:"page"`
	Pages int     `json:"pages"`
}

// List returns fields of farmID ordered by name.
func (s *Store) List(ctx context.Context, farmID string, q ListQuery) (*Page, error) {
	query := s.db.WithContext(ctx).Model(&Field{}).Where("farm_id = ?", farmID)

	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(field_type) LIKE ? OR LOWER(grass_type) LIKE ?",
			like, like, like,
		)
	}
	if q.Type != "" && q.Type != "all" {
		query = query.Where("field_type = ?", q.Type)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	page := max(q.Page, 0)
	items := make([]Field, 0, PerPage)
	if err := query.Order("name ASC").
		Offset(page * PerPage).
		Limit(PerPage).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return &Page{
		Items: items,
		Total: total,
		Page:  page,
		Pages: int((total + PerPage - 1) / PerPage),
	}, nil
}

// All returns every field of farmID ordered by name.
func (s *Store) All(ctx context.Context, farmID string) ([]Field, error) {
	var out []Field
	err := s.db.WithContext(ctx).
		Where("farm_id = ?", farmID).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

// Stats summarizes the field areas of a farm.
type Stats struct {
	TotalArea   float64 `json:"total_area"`
	TotalFields int     `json:"total_fields"`
	PangolaArea float64 `json:"pangola_area"`
	WeideArea   float64 `json:"weide_area"`
}

// Stats computes area totals for farmID.
func (s *Store) Stats(ctx context.Context, farmID string) (*Stats, error) {
	var rows []Field
	if err := s.db.WithContext(ctx).
		Select("field_type", "area_hectares").
		Where("farm_id = ?", farmID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	st := &Stats{TotalFields: len(rows)}
	for _, f := range rows {
		st.TotalArea += f.Area()
		switch f.FieldType {
		case "Pangola":
			st.PangolaArea += f.Area()
		case "Weide":
			st.WeideArea += f.Area()
		}
	}

	return st, nil
}

// ItemError describes one candidate that could not be stored.
type ItemError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ImportResult tallies a bulk import.
type ImportResult struct {
	Imported int         `json:"imported"`
	Failed   int         `json:"failed"`
	Skipped  int         `json:"skipped"`
	Errors   []ItemError `json:"errors,omitempty"`
	IDs      []uuid.UUID `json:"ids,omitempty"`
}

// ImportCandidates stores every selected candidate as a new field of farmID.
// Each candidate is inserted on its own, a failure is counted and the
// remaining candidates are still processed.
func (s *Store) ImportCandidates(ctx context.Context, farmID string, candidates []kml.Candidate) ImportResult {
	var res ImportResult

	for _, c := range candidates {
		if !c.Selected {
			res.Skipped++
			continue
		}

		f, err := fieldFromCandidate(c)
		if err == nil {
			err = s.Create(ctx, farmID, f)
		}
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, ItemError{Name: c.Name, Error: err.Error()})
			log.Warn().
				Err(err).
				Str("farm", farmID).
				Str("field", c.Name).
				Msg("Failed to import field")
			continue
		}

		res.Imported++
		res.IDs = append(res.IDs, f.ID)
	}

	return res
}

func fieldFromCandidate(c kml.Candidate) (*Field, error) {
	encoded, err := EncodePolygon(c.Polygon)
	if err != nil {
		return nil, err
	}

	area := c.AreaHectares
	lat, lng := c.Center.Lat, c.Center.Lng

	return &Field{
		Name:         c.Name,
		FieldType:    c.FieldType,
		AreaHectares: &area,
		Latitude:     &lat,
		Longitude:    &lng,
		Polygon:      encoded,
	}, nil
}

// Index builds a bounding-box index over the outlines of farmID.
func (s *Store) Index(ctx context.Context, farmID string) (*geo.Index, error) {
	all, err := s.All(ctx, farmID)
	if err != nil {
		return nil, err
	}

	idx := geo.NewIndex()
	for i := range all {
		idx.Insert(all[i].Name, all[i].Ring())
	}
	return idx, nil
}

// Overlays returns the outlined fields of farmID ready for rendering.
func (s *Store) Overlays(ctx context.Context, farmID string, palette render.Palette) ([]render.Overlay, error) {
	all, err := s.All(ctx, farmID)
	if err != nil {
		return nil, err
	}

	out := make([]render.Overlay, 0, len(all))
	for i := range all {
		f := &all[i]
		ring := f.Ring()
		if !ring.Valid() {
			continue
		}
		out = append(out, render.Overlay{
			Name:   f.Name,
			Color:  palette.Color(f.FieldType),
			Points: ring.Pairs(),
			Popup:  fmt.Sprintf("%s (%s, %.1f ha)", f.Name, f.FieldType, f.Area()),
		})
	}
	return out, nil
}

// Shapes returns the outlined fields of farmID for KML export.
func (s *Store) Shapes(ctx context.Context, farmID string) ([]kml.Shape, error) {
	all, err := s.All(ctx, farmID)
	if err != nil {
		return nil, err
	}

	out := make([]kml.Shape, 0, len(all))
	for i := range all {
		f := &all[i]
		ring := f.Ring()
		if !ring.Valid() {
			continue
		}
		out = append(out, kml.Shape{
			Name:        f.Name,
			Description: fmt.Sprintf("%s, %.1f ha", f.FieldType, f.Area()),
			Ring:        ring,
		})
	}
	return out, nil
}
