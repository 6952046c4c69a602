package internal_evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
)

// Store persists and queries evidence rows. Rows are append-only: nothing in
// the application ever updates or deletes evidence, because researchers rely
// on the table as the immutable event record of every session.
type Store interface {
	// Save appends one evidence row. The payload is serialized to the jsonb
	// column as-is.
	Save(ctx context.Context, app, eventType string, version int, payload interface{}) (*Evidence, error)

	// ListByApp returns the most recent rows for an app, newest first.
	ListByApp(ctx context.Context, app string, limit int) ([]Evidence, error)

	// ListByTypes returns rows for an app restricted to the given event
	// types, newest first. Used by the research export.
	ListByTypes(ctx context.Context, app string, eventTypes []string, limit int) ([]Evidence, error)
}

type postgresStore struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

// NewStore creates an evidence store backed by Postgres.
func NewStore(postgres connectors.PostgresConnector, logger commons.Logger) Store {
	return &postgresStore{
		postgres: postgres,
		logger:   logger,
	}
}

func (s *postgresStore) Save(ctx context.Context, app, eventType string, version int, payload interface{}) (*Evidence, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize evidence payload: %w", err)
	}

	row := &Evidence{
		App:       app,
		Type:      eventType,
		Version:   version,
		Timestamp: time.Now(),
		JSON:      string(body),
	}

	db := s.postgres.DB(ctx)
	if err := db.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to save evidence app=%s type=%s: %w", app, eventType, err)
	}

	s.logger.Debugf("saved evidence: app=%s type=%s version=%d", app, eventType, version)
	return row, nil
}

func (s *postgresStore) ListByApp(ctx context.Context, app string, limit int) ([]Evidence, error) {
	db := s.postgres.DB(ctx)
	var rows []Evidence
	if err := db.Where("app = ?", app).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list evidence for app %s: %w", app, err)
	}
	return rows, nil
}

func (s *postgresStore) ListByTypes(ctx context.Context, app string, eventTypes []string, limit int) ([]Evidence, error) {
	db := s.postgres.DB(ctx)
	var rows []Evidence
	if err := db.Where("app = ? AND type IN ?", app, eventTypes).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list evidence for app %s types %v: %w", app, eventTypes, err)
	}
	return rows, nil
}
