package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

// Collection names within the configured database.
const (
	scheduleCollection = "schedule"
	rosterCollection   = "rosters"
	resultCollection   = "results"
)

// MongoSink mirrors crawl output into MongoDB collections, one document per
// row, replacing each collection's contents per run.
type MongoSink struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

func NewMongoSink(uri, database string, logger *slog.Logger) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoSink{
		client: client,
		db:     client.Database(database),
		logger: logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoSink) Name() string { return "mongodb" }

func (s *MongoSink) WriteSchedule(records []types.ScheduleRecord) error {
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = map[string]any{
			"local_pk":  r.LocalPK,
			"global_pk": r.GlobalPK,
			"filter": map[string]any{
				"date":          r.Page.FilterDate,
				"category_code": r.Page.FilterCategoryCode,
				"category_name": r.Page.FilterCategoryName,
			},
			"sport":      r.Sport,
			"kind":       r.Kind,
			"subkind":    r.Subkind,
			"match_type": r.MatchType,
			"status":     r.Status,
			"datetime":   r.DateTime,
			"venue":      r.Venue,
			"region":     r.Region,
		}
	}
	return s.replace(scheduleCollection, docs)
}

func (s *MongoSink) WriteRosters(entries []types.RosterEntry) error {
	docs := make([]any, len(entries))
	for i, e := range entries {
		docs[i] = map[string]any{
			"local_pk":          e.LocalPK,
			"global_pk":         e.GlobalPK,
			"match_title":       e.MatchTitle,
			"team":              e.TeamLabel,
			"attended":          string(e.Attended),
			"player_name":       e.PlayerName,
			"affiliation_grade": e.AffiliationGrade,
			"position":          e.Position,
		}
	}
	return s.replace(rosterCollection, docs)
}

func (s *MongoSink) WriteResults(entries []types.ResultEntry) error {
	docs := make([]any, len(entries))
	for i, e := range entries {
		docs[i] = map[string]any{
			"local_pk":  e.LocalPK,
			"global_pk": e.GlobalPK,
			"filter": map[string]any{
				"date":          e.Page.FilterDate,
				"category_code": e.Page.FilterCategoryCode,
				"category_name": e.Page.FilterCategoryName,
			},
			"rank":        e.Rank,
			"region":      e.Region,
			"player_name": e.PlayerName,
			"affiliation": e.Affiliation,
			"grade":       e.Grade,
			"record":      e.Record,
			"remarks":     e.Remarks,
		}
	}
	return s.replace(resultCollection, docs)
}

func (s *MongoSink) replace(name string, docs []any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	coll := s.db.Collection(name)
	if _, err := coll.DeleteMany(ctx, map[string]any{}); err != nil {
		return fmt.Errorf("clear %s: %w", name, err)
	}
	if len(docs) == 0 {
		return nil
	}
	res, err := coll.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", name, err)
	}
	s.logger.Info("mongo written", "collection", name, "docs", len(res.InsertedIDs))
	return nil
}

func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
