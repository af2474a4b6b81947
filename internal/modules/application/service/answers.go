package application

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"anoa.com/teamcommonapp/internal/entity"
	"anoa.com/teamcommonapp/pkg/apperror"
)

// validateAnswers checks a draft's answers against the team's current
// questions. Partial answers are allowed.
func validateAnswers(t *entity.Team, answers map[string]string) error {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := t.Question(k); !ok {
			return fmt.Errorf("unknown question %q: %w", k, apperror.ErrInvalidInput)
		}
	}

	for _, q := range t.CustomQuestions {
		v := strings.TrimSpace(answers[q.ID])
		if q.Type == entity.QuestionSelect && v != "" && !slices.Contains(q.Options, v) {
			return fmt.Errorf("%q must be one of the listed options: %w", q.Label, apperror.ErrInvalidInput)
		}
	}
	return nil
}

// validateSubmission reports the first required question without an answer.
// Answers to questions the team has since removed are ignored.
func validateSubmission(t *entity.Team, answers map[string]string) error {
	for _, q := range t.CustomQuestions {
		if q.Required && strings.TrimSpace(answers[q.ID]) == "" {
			return fmt.Errorf("%q is required: %w", q.Label, apperror.ErrInvalidInput)
		}
	}
	return nil
}
