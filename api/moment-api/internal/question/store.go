package internal_question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
)

// QuestionSet is one versioned snapshot of the authored question bank. The
// whole bank is stored as a single jsonb document per save; the newest row
// wins. The document carries currentQuestions and archivedQuestions lists.
type QuestionSet struct {
	Id        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp;type:timestamp;not null;default:NOW()"`
	Questions string    `json:"questions" gorm:"column:questions;type:jsonb;not null"`
}

func (QuestionSet) TableName() string {
	return "message_popup_questions"
}

// EmptyDocument is returned when nothing has been authored yet.
func EmptyDocument() map[string]interface{} {
	return map[string]interface{}{
		"currentQuestions":  []interface{}{},
		"archivedQuestions": []interface{}{},
	}
}

// Store persists authored question documents.
type Store interface {
	// Save appends a new snapshot of the question document.
	Save(ctx context.Context, document interface{}) error

	// Latest returns the newest question document, or the empty document
	// when none exists.
	Latest(ctx context.Context) (map[string]interface{}, error)
}

type postgresStore struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

func NewStore(postgres connectors.PostgresConnector, logger commons.Logger) Store {
	return &postgresStore{
		postgres: postgres,
		logger:   logger,
	}
}

func (s *postgresStore) Save(ctx context.Context, document interface{}) error {
	body, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to serialize question document: %w", err)
	}

	row := &QuestionSet{
		Timestamp: time.Now(),
		Questions: string(body),
	}
	db := s.postgres.DB(ctx)
	if err := db.Create(row).Error; err != nil {
		return fmt.Errorf("failed to save question document: %w", err)
	}

	s.logger.Infof("saved question document: id=%d bytes=%d", row.Id, len(body))
	return nil
}

func (s *postgresStore) Latest(ctx context.Context) (map[string]interface{}, error) {
	db := s.postgres.DB(ctx)
	var row QuestionSet
	err := db.Order("timestamp DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return EmptyDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest question document: %w", err)
	}

	var document map[string]interface{}
	if err := json.Unmarshal([]byte(row.Questions), &document); err != nil {
		return nil, fmt.Errorf("stored question document is not valid JSON: %w", err)
	}
	return document, nil
}
