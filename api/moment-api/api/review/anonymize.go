package review_api

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	internal_evidence "github.com/teachermoments/moments/api/moment-api/internal/evidence"
	internal_review "github.com/teachermoments/moments/api/moment-api/internal/review"
	"github.com/teachermoments/moments/pkg/commons"
)

// filterDocument is the evidence filter stored with a review link.
type filterDocument struct {
	App   string   `mapstructure:"app"`
	Types []string `mapstructure:"types"`
}

func reviewFilter(review *internal_review.Review) (*filterDocument, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(review.EvidenceFilter), &raw); err != nil {
		return nil, fmt.Errorf("review filter is not valid JSON: %w", err)
	}

	var filter filterDocument
	if err := mapstructure.Decode(raw, &filter); err != nil {
		return nil, fmt.Errorf("review filter has unexpected shape: %w", err)
	}
	if filter.App == "" {
		return nil, fmt.Errorf("review filter names no app")
	}
	if len(filter.Types) == 0 {
		filter.Types = []string{"on_response_submitted"}
	}
	return &filter, nil
}

// identityKeys are stripped from payloads before group review.
var identityKeys = []string{"email", "name", "user", "userID", "userId", "identifier"}

func anonymize(rows []internal_evidence.Evidence, logger commons.Logger) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		payload, err := row.Payload()
		if err != nil {
			logger.Warnf("skipping unreadable evidence row %d: %v", row.Id, err)
			continue
		}
		for _, key := range identityKeys {
			delete(payload, key)
		}
		payload["timestamp"] = row.Timestamp
		out = append(out, payload)
	}
	return out
}
