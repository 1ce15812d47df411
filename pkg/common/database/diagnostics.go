package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bookdata/pkg/common/logger"
)

// diagnostics is the gorm logger of a handle. Every line goes synchronously
// to the optional sink and to zerolog.
type diagnostics struct {
	sink  Sink
	log   zerolog.Logger
	level gormlogger.LogLevel
}

func newDiagnostics(sink Sink, catalog string) *diagnostics {
	return &diagnostics{
		sink:  sink,
		log:   logger.WithComponent("database").With().Str("catalog", catalog).Logger(),
		level: gormlogger.Info,
	}
}

func (d *diagnostics) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *d
	c.level = level
	return &c
}

func (d *diagnostics) Info(_ context.Context, msg string, args ...interface{}) {
	if d.level >= gormlogger.Info {
		d.emit(zerolog.InfoLevel, fmt.Sprintf(msg, args...))
	}
}

func (d *diagnostics) Warn(_ context.Context, msg string, args ...interface{}) {
	if d.level >= gormlogger.Warn {
		d.emit(zerolog.WarnLevel, fmt.Sprintf(msg, args...))
	}
}

func (d *diagnostics) Error(_ context.Context, msg string, args ...interface{}) {
	if d.level >= gormlogger.Error {
		d.emit(zerolog.ErrorLevel, fmt.Sprintf(msg, args...))
	}
}

func (d *diagnostics) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if d.level <= gormlogger.Silent {
		return
	}
	sql, rows := fc()
	elapsed := float64(time.Since(begin).Nanoseconds()) / 1e6
	rowText := "-"
	if rows >= 0 {
		rowText = fmt.Sprint(rows)
	}
	line := fmt.Sprintf("[%.3fms] [rows:%s] %s", elapsed, rowText, sql)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		d.emit(zerolog.WarnLevel, err.Error()+" "+line)
		return
	}
	d.emit(zerolog.DebugLevel, line)
}

// Event records a lifecycle step.
func (d *diagnostics) Event(format string, args ...interface{}) {
	d.emit(zerolog.InfoLevel, fmt.Sprintf(format, args...))
}

func (d *diagnostics) emit(level zerolog.Level, line string) {
	if d.sink != nil {
		d.sink(line)
	}
	d.log.WithLevel(level).Msg(line)
}
