package internal_transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	listenapi "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	"github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenclient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"gorm.io/gorm"

	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
)

// Transcriber converts a WAV response into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

type deepgramTranscriber struct {
	client *listenapi.Client
	logger commons.Logger
}

// NewDeepgramTranscriber builds the speech-to-text client used by the
// research transcription endpoint.
func NewDeepgramTranscriber(cfg *config.AppConfig, logger commons.Logger) (Transcriber, error) {
	if cfg.DeepgramApiKey == "" {
		return nil, errors.New("deepgram api key is not configured")
	}
	rest := listenclient.NewREST(cfg.DeepgramApiKey, &interfaces.ClientOptions{})
	return &deepgramTranscriber{
		client: listenapi.New(rest),
		logger: logger,
	}, nil
}

func (t *deepgramTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       "nova-2",
		SmartFormat: true,
	}

	res, err := t.client.FromStream(ctx, bytes.NewReader(wav), options)
	if err != nil {
		return "", fmt.Errorf("deepgram transcription failed: %w", err)
	}

	if len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return "", errors.New("deepgram returned no transcript")
	}
	transcript := res.Results.Channels[0].Alternatives[0].Transcript
	t.logger.Debugf("transcribed %d bytes of audio into %d chars", len(wav), len(transcript))
	return transcript, nil
}

// Transcription caches one transcript per stored audio response, so repeat
// research requests do not re-bill the provider.
type Transcription struct {
	Id          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	AudioID     string    `json:"audioId" gorm:"column:audio_id;type:varchar(64);not null;uniqueIndex"`
	Transcript  string    `json:"transcript" gorm:"column:transcript;type:text;not null"`
	CreatedDate time.Time `json:"createdDate" gorm:"column:created_date;type:timestamp;not null;default:NOW()"`
}

func (Transcription) TableName() string { return "transcriptions" }

// Store caches transcripts keyed by audio id.
type Store interface {
	Find(ctx context.Context, audioID string) (*Transcription, error)
	Save(ctx context.Context, audioID, transcript string) (*Transcription, error)
}

type postgresStore struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

func NewStore(postgres connectors.PostgresConnector, logger commons.Logger) Store {
	return &postgresStore{postgres: postgres, logger: logger}
}

func (s *postgresStore) Find(ctx context.Context, audioID string) (*Transcription, error) {
	db := s.postgres.DB(ctx)
	var row Transcription
	err := db.Where("audio_id = ?", audioID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up transcription %s: %w", audioID, err)
	}
	return &row, nil
}

func (s *postgresStore) Save(ctx context.Context, audioID, transcript string) (*Transcription, error) {
	row := &Transcription{
		AudioID:     audioID,
		Transcript:  transcript,
		CreatedDate: time.Now(),
	}
	db := s.postgres.DB(ctx)
	if err := db.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to cache transcription %s: %w", audioID, err)
	}
	s.logger.Debugf("cached transcription: audioId=%s", audioID)
	return row, nil
}
