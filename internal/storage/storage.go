// Package storage persists crawl output. The CSV backend mirrors the result
// files consumed by downstream reporting, with fixed Korean headers; the
// MongoDB backend mirrors the same rows as documents for ad-hoc queries.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/JMJ-GIF/jw-streamlit/internal/config"
	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

// Sink receives crawl output. Implementations are safe for use from a single
// crawl goroutine; Close flushes anything buffered.
type Sink interface {
	Name() string
	WriteSchedule(records []types.ScheduleRecord) error
	WriteRosters(entries []types.RosterEntry) error
	WriteResults(entries []types.ResultEntry) error
	Close() error
}

// Open builds the configured sink.
func Open(cfg *config.Config, logger *slog.Logger) (Sink, error) {
	switch cfg.Storage.Type {
	case "csv":
		return NewCSVSink(cfg.Storage.OutputDir, logger)
	case "mongo":
		return NewMongoSink(cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
