package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Gorm routes GORM statements to zerolog.
// Queries slower than SlowThreshold are logged as warnings, all others at trace.
type Gorm struct {
	SlowThreshold time.Duration
	level         gormlogger.LogLevel
}

// NewGorm creates a GORM logger with the given slow query threshold.
func NewGorm(slow time.Duration) *Gorm {
	return &Gorm{SlowThreshold: slow, level: gormlogger.Warn}
}

// LogMode implements gormlogger.Interface.
func (g *Gorm) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *Gorm) Info(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		log.Info().Msg(fmt.Sprintf(msg, args...))
	}
}

func (g *Gorm) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		log.Warn().Msg(fmt.Sprintf(msg, args...))
	}
}

func (g *Gorm) Error(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		log.Error().Msg(fmt.Sprintf(msg, args...))
	}
}

// Trace implements gormlogger.Interface.
func (g *Gorm) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	var ev *zerolog.Event

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		ev = log.Error().Err(err)
	case g.SlowThreshold > 0 && elapsed > g.SlowThreshold && g.level >= gormlogger.Warn:
		ev = log.Warn().Bool("slow", true)
	default:
		ev = log.Trace()
	}

	if !ev.Enabled() {
		return
	}

	sql, rows := fc()
	ev.Str("sql", sql).
		Int64("rows", rows).
		Dur("duration", elapsed).
		Msg("Query executed")
}
