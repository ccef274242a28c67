// Package fields stores farm fields and turns reviewed import candidates
// into persisted records.
package fields

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/woozymasta/farmgeo/internal/geo"
)

// Field status values.
var Statuses = []string{"aktiv", "in Ruhe", "ueberweidet", "neu bepflanzt", "gesperrt"}

// Fence condition values.
var FenceConditions = []string{"gut", "mittel", "schlecht", "kein Zaun"}

// ValidationError reports a field value the store refuses to save.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrNameRequired is returned for fields without a name.
var ErrNameRequired error = &ValidationError{Msg: "Name ist erforderlich"}

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Field is a pasture, forest or other parcel of a farm.
type Field struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID          string    `gorm:"index;not null" json:"farm_id"`
	Name            string    `gorm:"not null" json:"name"`
	FieldType       string    `gorm:"index;not null" json:"field_type"`
	Status          string    `gorm:"not null;default:aktiv" json:"status"`
	AreaHectares    *float64  `json:"area_hectares"`
	CapacityAnimals *int      `json:"capacity_animals"`
	GrassType       string    `json:"grass_type"`
	WaterSource     string    `json:"water_source"`
	FenceCondition  string    `gorm:"default:gut" json:"fence_condition"`
	Latitude        *float64  `json:"latitude"`
	Longitude       *float64  `json:"longitude"`
	Polygon         string    `gorm:"type:text" json:"polygon,omitempty"` // [[lat, lng], ...]
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Field) TableName() string {
	return "fields"
}

// BeforeCreate assigns a new identity.
func (f *Field) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Normalize trims text and fills defaults.
func (f *Field) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.GrassType = strings.TrimSpace(f.GrassType)
	f.WaterSource = strings.TrimSpace(f.WaterSource)
	f.Notes = strings.TrimSpace(f.Notes)
	if f.Status == "" {
		f.Status = Statuses[0]
	}
	if f.FenceCondition == "" {
		f.FenceCondition = FenceConditions[0]
	}
}

// Validate checks required values against the configured field types.
func (f *Field) Validate(types []string) error {
	if f.Name == "" {
		return ErrNameRequired
	}
	if !slices.Contains(types, f.FieldType) {
		return invalid("unknown field type %q", f.FieldType)
	}
	if !slices.Contains(Statuses, f.Status) {
		return invalid("unknown status %q", f.Status)
	}
	if !slices.Contains(FenceConditions, f.FenceCondition) {
		return invalid("unknown fence condition %q", f.FenceCondition)
	}
	if f.Polygon != "" {
		if _, err := DecodePolygon(f.Polygon); err != nil {
			return invalid("polygon: %v", err)
		}
	}
	return nil
}

// Ring returns the stored outline, or nil when there is none.
func (f *Field) Ring() geo.Polygon {
	if f.Polygon == "" {
		return nil
	}
	pairs, err := DecodePolygon(f.Polygon)
	if err != nil {
		return nil
	}
	return geo.FromPairs(pairs)
}

// Area returns the stored area or zero.
func (f *Field) Area() float64 {
	if f.AreaHectares == nil {
		return 0
	}
	return *f.AreaHectares
}

// EncodePolygon serializes [lat, lng] pairs for storage.
func EncodePolygon(pairs [][2]float64) (string, error) {
	if len(pairs) == 0 {
		return "", nil
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodePolygon parses a stored polygon.
func DecodePolygon(s string) ([][2]float64, error) {
	var pairs [][2]float64
	if err := json.Unmarshal([]byte(s), &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}
