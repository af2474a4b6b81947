package search

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/teamcommonapp/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const teamsIndex = "teams"

// TeamIndex is the full-text index behind the team directory search.
type TeamIndex interface {
	IndexTeams(ctx context.Context, teams []*entity.Team) error
	SearchTeamIDs(ctx context.Context, query, category string) ([]uuid.UUID, error)
}

type meiliTeamIndex struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
	log       *zap.Logger
}

func NewMeiliTeamIndex(client meilisearch.ServiceManager, log *zap.Logger) TeamIndex {
	s := &meiliTeamIndex{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
	}
	s.initIndex()
	return s
}

func (s *meiliTeamIndex) initIndex() {
	filterable := []any{"category"}
	if _, err := s.client.Index(teamsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		s.log.Warn("failed to update teams filterable attributes", zap.Error(err))
	}

	searchable := []string{"name", "category", "description", "questions"}
	if _, err := s.client.Index(teamsIndex).UpdateSearchableAttributes(&searchable); err != nil {
		s.log.Warn("failed to update teams searchable attributes", zap.Error(err))
	}
}

type meiliTeamDoc struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Questions   []string `json:"questions"`
}

func (s *meiliTeamIndex) cleanText(content string) string {
	cleaned := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(cleaned), " ")
}

func (s *meiliTeamIndex) IndexTeams(ctx context.Context, teams []*entity.Team) error {
	if len(teams) == 0 {
		return nil
	}

	docs := make([]meiliTeamDoc, 0, len(teams))
	for _, t := range teams {
		doc := meiliTeamDoc{
			ID:          t.ID.String(),
			Name:        t.Name,
			Description: s.cleanText(deref(t.Description)),
			Category:    deref(t.Category),
		}
		for _, q := range t.CustomQuestions {
			doc.Questions = append(doc.Questions, s.cleanText(q.Label))
		}
		docs = append(docs, doc)
	}

	pk := "id"
	task, err := s.client.Index(teamsIndex).AddDocuments(docs, &pk)
	if err != nil {
		return fmt.Errorf("index teams: %w", err)
	}
	s.log.Info("teams indexed", zap.Int("count", len(docs)), zap.Int64("task_uid", task.TaskUID))
	return nil
}

func (s *meiliTeamIndex) SearchTeamIDs(ctx context.Context, query, category string) ([]uuid.UUID, error) {
	req := &meilisearch.SearchRequest{
		AttributesToRetrieve: []string{"id"},
		Limit:                1000,
	}
	if category != "" {
		req.Filter = fmt.Sprintf("category = %q", category)
	}

	raw, err := s.client.Index(teamsIndex).SearchRawWithContext(ctx, query, req)
	if err != nil {
		return nil, fmt.Errorf("search teams: %w", err)
	}

	var resp struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &resp); err != nil {
		return nil, fmt.Errorf("decode team search: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
