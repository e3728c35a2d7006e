package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/scorelens/store"
)

// CreateScoredAnswer inserts a scored answer and its pending embedding job
// in one transaction.
func (d *DB) CreateScoredAnswer(ctx context.Context, create *store.ScoredAnswer) (*store.ScoredAnswer, error) {
	scores, err := json.Marshal(create.Scores)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal scores")
	}

	now := time.Now().Unix()
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt := `
		INSERT INTO scored_answer (
			case_id, response_id, question, answer_text,
			problem_statement, solution_proposal, lessons_learned,
			scores, comment, created_ts
		)
		VALUES (` + placeholders(10) + `)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, stmt,
		create.CaseID,
		create.ResponseID,
		string(create.Question),
		create.AnswerText,
		create.ProblemStatement,
		create.SolutionProposal,
		create.LessonsLearned,
		scores,
		create.Comment,
		now,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert scored answer")
	}
	create.CreatedTs = now

	jobStmt := `
		INSERT INTO embedding_job (case_id, response_id, question, status, created_ts, updated_ts)
		VALUES (` + placeholders(6) + `)
		ON CONFLICT (case_id, response_id, question) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, jobStmt,
		create.CaseID,
		create.ResponseID,
		string(create.Question),
		string(store.JobStatusPending),
		now,
		now,
	); err != nil {
		return nil, errors.Wrap(err, "failed to enqueue embedding job")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit scored answer")
	}
	return create, nil
}

// ListScoredAnswers lists scored answers matching the find condition.
func (d *DB) ListScoredAnswers(ctx context.Context, find *store.FindScoredAnswer) ([]*store.ScoredAnswer, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.CaseID != nil {
		where, args = append(where, "case_id = "+placeholder(len(args)+1)), append(args, *find.CaseID)
	}
	if find.ResponseID != nil {
		where, args = append(where, "response_id = "+placeholder(len(args)+1)), append(args, *find.ResponseID)
	}
	if find.Question != nil {
		where, args = append(where, "question = "+placeholder(len(args)+1)), append(args, string(*find.Question))
	}

	query := `
		SELECT
			id, case_id, response_id, question, answer_text,
			problem_statement, solution_proposal, lessons_learned,
			scores, comment, created_ts
		FROM scored_answer
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
	`
	if find.Limit > 0 {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list scored answers")
	}
	defer rows.Close()

	list := []*store.ScoredAnswer{}
	for rows.Next() {
		answer, err := scanScoredAnswer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, answer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScoredAnswer(row rowScanner) (*store.ScoredAnswer, error) {
	var answer store.ScoredAnswer
	var question string
	var scores []byte
	err := row.Scan(
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
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan scored answer")
	}
	answer.Question = store.Question(question)
	if err := json.Unmarshal(scores, &answer.Scores); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal scores")
	}
	return &answer, nil
}
