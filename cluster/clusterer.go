// Package cluster implements the exemplar clusterer: it groups a score
// bucket's stored embeddings with k-means in cosine space and selects one
// representative answer (the medoid) per cluster.
package cluster

import (
	"context"
	"log/slog"
	"math"

	"github.com/pkg/errors"

	"github.com/hrygo/scorelens/internal/metrics"
	"github.com/hrygo/scorelens/internal/vecmath"
	"github.com/hrygo/scorelens/store"
)

// ExemplarStore is the persistence surface the clusterer needs.
// *store.Store satisfies this.
type ExemplarStore interface {
	ListResponseEmbeddings(ctx context.Context, find *store.FindResponseEmbedding) ([]*store.ResponseEmbedding, error)
	GetScoredAnswer(ctx context.Context, caseID, responseID string, question store.Question) (*store.ScoredAnswer, error)
	ReplaceClusterExemplars(ctx context.Context, scope *store.ExemplarScope, exemplars []*store.ClusterExemplar) error
}

// Config holds configuration for the clusterer.
type Config struct {
	// MaxClusters is the default cap on clusters per scope; the hard
	// ceiling of 6 applies regardless.
	MaxClusters int
	// Iterations is the fixed k-means iteration count.
	Iterations int
	// Seed makes the k-means initialization deterministic.
	Seed int64
}

// DefaultConfig returns the default clusterer configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxClusters: 3,
		Iterations:  20,
		Seed:        1,
	}
}

// RebuildResult summarizes one exemplar rebuild.
type RebuildResult struct {
	Clusters int `json:"clusters"`
	Points   int `json:"points"`
}

// Clusterer rebuilds exemplar sets. It is stateless per invocation;
// concurrent rebuilds for the same scope must be serialized by the
// caller.
type Clusterer struct {
	store  ExemplarStore
	config *Config
}

// NewClusterer creates a new clusterer.
func NewClusterer(store ExemplarStore, config *Config) *Clusterer {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxClusters <= 0 {
		config.MaxClusters = 3
	}
	if config.Iterations <= 0 {
		config.Iterations = 20
	}
	return &Clusterer{store: store, config: config}
}

// clusterCount scales sub-linearly with corpus size and is hard-capped to
// keep representative sets small and human-reviewable.
func clusterCount(n, maxClusters int) int {
	ceiling := maxClusters
	if ceiling > 6 {
		ceiling = 6
	}
	k := int(math.Round(math.Sqrt(float64(n) / 10)))
	if k < 1 {
		k = 1
	}
	if k > ceiling {
		k = ceiling
	}
	return k
}

// RebuildExemplars replaces the exemplar set for one (case, question,
// bucket) scope. An empty scope clears any existing exemplars and
// returns {0, 0}. Pass maxClusters <= 0 for the configured default.
func (c *Clusterer) RebuildExemplars(ctx context.Context, caseID string, question store.Question, bucket int, maxClusters int) (RebuildResult, error) {
	if maxClusters <= 0 {
		maxClusters = c.config.MaxClusters
	}
	scope := &store.ExemplarScope{CaseID: caseID, Question: question, ScoreBucket: bucket}

	embeddings, err := c.store.ListResponseEmbeddings(ctx, &store.FindResponseEmbedding{
		CaseID:      &caseID,
		Question:    &question,
		ScoreBucket: &bucket,
	})
	if err != nil {
		return RebuildResult{}, errors.Wrap(err, "failed to list embeddings for scope")
	}

	if len(embeddings) == 0 {
		if err := c.store.ReplaceClusterExemplars(ctx, scope, nil); err != nil {
			return RebuildResult{}, err
		}
		return RebuildResult{}, nil
	}

	vectors := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		vectors[i] = e.Embedding
	}

	k := clusterCount(len(vectors), maxClusters)
	result := vecmath.KMeans(vectors, k, c.config.Iterations, c.config.Seed)

	exemplars := make([]*store.ClusterExemplar, 0, k)
	for j, centroid := range result.Centroids {
		size := 0
		for _, a := range result.Assignments {
			if a == j {
				size++
			}
		}
		if size == 0 {
			continue
		}

		medoidIdx, dist := vecmath.Medoid(vectors, result.Assignments, centroid, j)
		if medoidIdx < 0 {
			continue
		}
		medoid := embeddings[medoidIdx]

		answer, err := c.store.GetScoredAnswer(ctx, medoid.CaseID, medoid.ResponseID, medoid.Question)
		if err != nil || answer == nil {
			// A missing underlying record drops this single exemplar,
			// never the whole rebuild.
			slog.Warn("dropping exemplar with unresolvable medoid",
				"case_id", medoid.CaseID,
				"response_id", medoid.ResponseID,
				"question", medoid.Question,
				"error", err,
			)
			continue
		}

		exemplars = append(exemplars, &store.ClusterExemplar{
			CaseID:             caseID,
			Question:           question,
			ScoreBucket:        bucket,
			ClusterID:          j,
			ClusterSize:        size,
			Centroid:           centroid,
			ResponseID:         medoid.ResponseID,
			DistanceToCentroid: dist,
			Model:              medoid.Model,
		})
	}

	if err := c.store.ReplaceClusterExemplars(ctx, scope, exemplars); err != nil {
		return RebuildResult{}, err
	}

	metrics.ExemplarRebuilds.WithLabelValues(string(question)).Inc()
	slog.Info("exemplar set rebuilt",
		"case_id", caseID,
		"question", question,
		"bucket", bucket,
		"clusters", len(exemplars),
		"points", len(embeddings),
	)
	return RebuildResult{Clusters: len(exemplars), Points: len(embeddings)}, nil
}
