package internal_review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
)

// TokenTTL is how long an exchanged researcher token stays valid.
const TokenTTL = 24 * time.Hour

// Store provides researcher access grants, session tokens and review links.
type Store interface {
	// FindAccess returns the access grant for an email, or nil when the
	// email has no grant.
	FindAccess(ctx context.Context, email string) (*Access, error)

	// IssueToken mints and stores a fresh session token for an email.
	IssueToken(ctx context.Context, email string) (*Token, error)

	// ResolveToken returns the unexpired token row for a token value, or an
	// error when unknown or expired.
	ResolveToken(ctx context.Context, token string) (*Token, error)

	// AccessURLsForToken returns the review urls granted to the email
	// behind an unexpired token.
	AccessURLsForToken(ctx context.Context, token string) ([]string, error)

	// CreateReview stores a shareable review link for an evidence filter.
	CreateReview(ctx context.Context, email string, filter interface{}) (*Review, error)

	// GetReview resolves a review key.
	GetReview(ctx context.Context, reviewKey string) (*Review, error)
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

func (s *postgresStore) FindAccess(ctx context.Context, email string) (*Access, error) {
	db := s.postgres.DB(ctx)
	var access Access
	err := db.Where("email = ?", email).First(&access).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up access for %s: %w", email, err)
	}
	return &access, nil
}

func (s *postgresStore) IssueToken(ctx context.Context, email string) (*Token, error) {
	token := &Token{
		Email:       email,
		Token:       uuid.New().String(),
		ExpiresDate: time.Now().Add(TokenTTL),
		CreatedDate: time.Now(),
	}
	db := s.postgres.DB(ctx)
	if err := db.Create(token).Error; err != nil {
		return nil, fmt.Errorf("failed to issue token for %s: %w", email, err)
	}

	s.logger.Infof("issued researcher token: email=%s expires=%s", email, token.ExpiresDate)
	return token, nil
}

func (s *postgresStore) ResolveToken(ctx context.Context, token string) (*Token, error) {
	db := s.postgres.DB(ctx)
	var row Token
	err := db.Where("token = ? AND expires_date > ?", token, time.Now()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("token unknown or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	return &row, nil
}

func (s *postgresStore) AccessURLsForToken(ctx context.Context, token string) ([]string, error) {
	db := s.postgres.DB(ctx)
	var urls []string
	err := db.Model(&Access{}).
		Select("access.url").
		Joins("JOIN tokens ON access.email = tokens.email AND tokens.token = ?", token).
		Where("tokens.expires_date > ?", time.Now()).
		Scan(&urls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve access urls: %w", err)
	}
	return urls, nil
}

func (s *postgresStore) CreateReview(ctx context.Context, email string, filter interface{}) (*Review, error) {
	body, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize review filter: %w", err)
	}

	review := &Review{
		ReviewKey:      uuid.New().String(),
		Email:          email,
		EvidenceFilter: string(body),
		CreatedDate:    time.Now(),
	}
	db := s.postgres.DB(ctx)
	if err := db.Create(review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review for %s: %w", email, err)
	}

	s.logger.Infof("created review link: key=%s email=%s", review.ReviewKey, email)
	return review, nil
}

func (s *postgresStore) GetReview(ctx context.Context, reviewKey string) (*Review, error) {
	db := s.postgres.DB(ctx)
	var review Review
	if err := db.Where("review_key = ?", reviewKey).First(&review).Error; err != nil {
		return nil, fmt.Errorf("review not found: %s: %w", reviewKey, err)
	}
	return &review, nil
}
