package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/scorelens/store"
)

// UpsertResponseEmbeddings inserts or updates embeddings in one multi-row
// statement.
func (d *DB) UpsertResponseEmbeddings(ctx context.Context, embeddings []*store.ResponseEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	now := time.Now().Unix()
	const cols = 9
	valueRows := make([]string, 0, len(embeddings))
	args := make([]any, 0, len(embeddings)*cols)
	for i, e := range embeddings {
		valueRows = append(valueRows, "("+placeholderRange(i*cols+1, cols)+")")
		args = append(args,
			e.CaseID,
			e.ResponseID,
			string(e.Question),
			pgvector.NewVector(e.Embedding),
			e.Model,
			e.SourceScore,
			e.ScoreBucket,
			now,
			now,
		)
	}

	stmt := `
		INSERT INTO response_embedding (
			case_id, response_id, question, embedding, model, source_score, score_bucket, created_ts, updated_ts
		)
		VALUES ` + strings.Join(valueRows, ", ") + `
		ON CONFLICT (case_id, response_id, question)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			source_score = EXCLUDED.source_score,
			score_bucket = EXCLUDED.score_bucket,
			updated_ts = EXCLUDED.updated_ts
	`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to upsert response embeddings")
	}
	return nil
}

// ListResponseEmbeddings lists response embeddings matching the find condition.
func (d *DB) ListResponseEmbeddings(ctx context.Context, find *store.FindResponseEmbedding) ([]*store.ResponseEmbedding, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.CaseID != nil {
		where, args = append(where, "case_id = "+placeholder(len(args)+1)), append(args, *find.CaseID)
	}
	if find.Question != nil {
		where, args = append(where, "question = "+placeholder(len(args)+1)), append(args, string(*find.Question))
	}
	if find.ScoreBucket != nil {
		where, args = append(where, "score_bucket = "+placeholder(len(args)+1)), append(args, *find.ScoreBucket)
	}

	query := `
		SELECT id, case_id, response_id, question, embedding, model, source_score, score_bucket, created_ts, updated_ts
		FROM response_embedding
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list response embeddings")
	}
	defer rows.Close()

	list := []*store.ResponseEmbedding{}
	for rows.Next() {
		var e store.ResponseEmbedding
		var question string
		var vector pgvector.Vector
		err := rows.Scan(
			&e.ID,
			&e.CaseID,
			&e.ResponseID,
			&question,
			&vector,
			&e.Model,
			&e.SourceScore,
			&e.ScoreBucket,
			&e.CreatedTs,
			&e.UpdatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan response embedding")
		}
		e.Question = store.Question(question)
		e.Embedding = vector.Slice()
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// CountResponseEmbeddings counts response embeddings in a case/question scope.
func (d *DB) CountResponseEmbeddings(ctx context.Context, caseID string, question store.Question) (int, error) {
	query := `SELECT COUNT(*) FROM response_embedding WHERE case_id = $1 AND question = $2`
	var count int
	if err := d.db.QueryRowContext(ctx, query, caseID, string(question)).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count response embeddings")
	}
	return count, nil
}

// SearchSimilarAnswers performs cosine similarity search with pgvector.
// The <=> operator computes cosine distance (1 - cosine_similarity), so
// ordering by distance ASC yields most similar first.
func (d *DB) SearchSimilarAnswers(ctx context.Context, opts *store.SimilarAnswerSearchOptions) ([]*store.SimilarAnswer, error) {
	query := `
		SELECT
			sa.id, sa.case_id, sa.response_id, sa.question, sa.answer_text,
			sa.problem_statement, sa.solution_proposal, sa.lessons_learned,
			sa.scores, sa.comment, sa.created_ts,
			1 - (e.embedding <=> $1) AS similarity
		FROM response_embedding e
		INNER JOIN scored_answer sa
			ON sa.case_id = e.case_id
			AND sa.response_id = e.response_id
			AND sa.question = e.question
		WHERE e.case_id = $2 AND e.question = $3
		ORDER BY e.embedding <=> $4
		LIMIT $5
	`

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, query, vector, opts.CaseID, string(opts.Question), vector, opts.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search similar answers")
	}
	defer rows.Close()

	results := []*store.SimilarAnswer{}
	for rows.Next() {
		var answer store.ScoredAnswer
		var question string
		var scores []byte
		var result store.SimilarAnswer
		err := rows.Scan(
			&answer.ID,
			&answer.CaseID,
			&answer.ResponseID,
			&question,
			&answer.AnswerText,
			&answer.ProblemStatement,
			&answer.SolutionProposal,
			&answer.LessonsLearned,
			&scores,
			&answer.Comment,
			&answer.CreatedTs,
			&result.Similarity,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan similar answer")
		}
		answer.Question = store.Question(question)
		if err := json.Unmarshal(scores, &answer.Scores); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal scores")
		}
		result.Answer = &answer
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// placeholderRange returns "$start, $start+1, ..." for count placeholders.
func placeholderRange(start, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = placeholder(start + i)
	}
	return strings.Join(parts, ", ")
}
