package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/scorelens/store"
)

// ReplaceClusterExemplars deletes the scope's previous exemplars and
// inserts the new set in one transaction, so readers never observe a
// mix of old and new rows.
func (d *DB) ReplaceClusterExemplars(ctx context.Context, scope *store.ExemplarScope, exemplars []*store.ClusterExemplar) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	deleteStmt := `
		DELETE FROM cluster_exemplar
		WHERE case_id = $1 AND question = $2 AND score_bucket = $3
	`
	if _, err := tx.ExecContext(ctx, deleteStmt, scope.CaseID, string(scope.Question), scope.ScoreBucket); err != nil {
		return errors.Wrap(err, "failed to delete prior exemplars")
	}

	if len(exemplars) > 0 {
		now := time.Now().Unix()
		const cols = 10
		valueRows := make([]string, 0, len(exemplars))
		args := make([]any, 0, len(exemplars)*cols)
		for i, e := range exemplars {
			valueRows = append(valueRows, "("+placeholderRange(i*cols+1, cols)+")")
			args = append(args,
				scope.CaseID,
				string(scope.Question),
				scope.ScoreBucket,
				e.ClusterID,
				e.ClusterSize,
				pgvector.NewVector(e.Centroid),
				e.ResponseID,
				e.DistanceToCentroid,
				e.Model,
				now,
			)
		}

		insertStmt := `
			INSERT INTO cluster_exemplar (
				case_id, question, score_bucket, cluster_id, cluster_size,
				centroid, response_id, distance_to_centroid, model, created_ts
			)
			VALUES ` + strings.Join(valueRows, ", ")
		if _, err := tx.ExecContext(ctx, insertStmt, args...); err != nil {
			return errors.Wrap(err, "failed to insert exemplars")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit exemplar replacement")
	}
	return nil
}

// ListClusterExemplars lists the current exemplar set for a scope.
func (d *DB) ListClusterExemplars(ctx context.Context, scope *store.ExemplarScope) ([]*store.ClusterExemplar, error) {
	query := `
		SELECT id, case_id, question, score_bucket, cluster_id, cluster_size,
			centroid, response_id, distance_to_centroid, model, created_ts
		FROM cluster_exemplar
		WHERE case_id = $1 AND question = $2 AND score_bucket = $3
		ORDER BY cluster_id
	`
	rows, err := d.db.QueryContext(ctx, query, scope.CaseID, string(scope.Question), scope.ScoreBucket)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cluster exemplars")
	}
	defer rows.Close()

	list := []*store.ClusterExemplar{}
	for rows.Next() {
		var e store.ClusterExemplar
		var question string
		var centroid pgvector.Vector
		err := rows.Scan(
			&e.ID,
			&e.CaseID,
			&question,
			&e.ScoreBucket,
			&e.ClusterID,
			&e.ClusterSize,
			&centroid,
			&e.ResponseID,
			&e.DistanceToCentroid,
			&e.Model,
			&e.CreatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan cluster exemplar")
		}
		e.Question = store.Question(question)
		e.Centroid = centroid.Slice()
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
