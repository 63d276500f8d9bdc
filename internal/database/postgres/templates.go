package postgres

import (
	"context"
	"fmt"

	"github.com/faceattend/faceattend/internal/constants"
	"github.com/faceattend/faceattend/internal/database"
	"github.com/pgvector/pgvector-go"
)

// SaveTemplate stores (or replaces) the face template for an enrolled user.
// The template column is a fixed-dimension vector, so a wrong-size template
// is rejected here rather than as an opaque driver error.
func (s *Store) SaveTemplate(ctx context.Context, userID int, template []float32) error {
	if len(template) != constants.TemplateDim {
		return fmt.Errorf("face template must have %d dimensions, got %d", constants.TemplateDim, len(template))
	}
	vec := pgvector.NewVector(template)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO face_templates (user_id, template)
		VALUES ($1, $2::vector)
		ON CONFLICT (user_id) DO UPDATE SET
			template = EXCLUDED.template,
			updated_at = NOW()
	`, userID, vec)
	if err != nil {
		return fmt.Errorf("save face template for user %d: %w", userID, err)
	}
	return nil
}

// SimilarTemplates returns enrolled users whose stored template is within
// maxDistance (cosine) of the given one, nearest first. The enrollment flow
// uses it to warn when a new face looks like someone already enrolled.
func (s *Store) SimilarTemplates(ctx context.Context, template []float32, limit int, maxDistance float64) ([]database.TemplateMatch, error) {
	vec := pgvector.NewVector(template)
	rows, err := s.pool.Query(ctx, `
		SELECT t.user_id, u.name, t.template <=> $1::vector AS distance
		FROM face_templates t
		JOIN users u ON u.id = t.user_id
		WHERE t.template <=> $1::vector < $2
		ORDER BY distance
		LIMIT $3
	`, vec, maxDistance, limit)
	if err != nil {
		return nil, fmt.Errorf("query similar templates: %w", err)
	}
	defer rows.Close()

	var matches []database.TemplateMatch
	for rows.Next() {
		var m database.TemplateMatch
		if err := rows.Scan(&m.UserID, &m.Name, &m.Distance); err != nil {
			return nil, fmt.Errorf("scan template match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template matches: %w", err)
	}
	return matches, nil
}

// Verify interface compliance.
var _ database.Store = (*Store)(nil)
var _ database.TemplateStore = (*Store)(nil)
