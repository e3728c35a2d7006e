package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/scorelens/internal/metrics"
	"github.com/hrygo/scorelens/internal/version"
	"github.com/hrygo/scorelens/scoring"
	"github.com/hrygo/scorelens/store"
)

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.String(),
	})
}

type ingestAnswerRequest struct {
	CaseID           string         `json:"case_id"`
	ResponseID       string         `json:"response_id"`
	Question         string         `json:"question"`
	AnswerText       string         `json:"answer_text"`
	ProblemStatement string         `json:"problem_statement"`
	SolutionProposal string         `json:"solution_proposal"`
	LessonsLearned   string         `json:"lessons_learned"`
	Scores           store.ScoreSet `json:"scores"`
	Comment          string         `json:"comment"`
}

// ingestAnswer stores a scored answer in the corpus; its embedding job is
// enqueued in the same transaction.
func (s *Server) ingestAnswer(c echo.Context) error {
	var req ingestAnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	answer, err := s.Store.CreateScoredAnswer(c.Request().Context(), &store.ScoredAnswer{
		CaseID:           req.CaseID,
		ResponseID:       req.ResponseID,
		Question:         store.Question(req.Question),
		AnswerText:       req.AnswerText,
		ProblemStatement: req.ProblemStatement,
		SolutionProposal: req.SolutionProposal,
		LessonsLearned:   req.LessonsLearned,
		Scores:           req.Scores,
		Comment:          req.Comment,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, answer)
}

type predictRequest struct {
	AnswerText string `json:"answer_text"`
}

func (s *Server) predict(c echo.Context) error {
	caseID := c.Param("caseId")
	question := store.Question(c.Param("question"))
	if !question.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown question identifier")
	}

	var req predictRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.AnswerText == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "answer_text is required")
	}

	start := time.Now()
	prediction, err := s.Predictor.Predict(c.Request().Context(), caseID, question, req.AnswerText)
	metrics.PredictionLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		switch err.(type) {
		case *scoring.NoSimilarDataError:
			metrics.PredictionRequests.WithLabelValues("no_similar_data").Inc()
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case *scoring.LowSimilarityError:
			metrics.PredictionRequests.WithLabelValues("low_similarity").Inc()
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		default:
			metrics.PredictionRequests.WithLabelValues("error").Inc()
			return echo.NewHTTPError(http.StatusInternalServerError, "prediction failed")
		}
	}

	outcome := "ok"
	if !prediction.IsValid {
		outcome = "invalid_answer"
	}
	metrics.PredictionRequests.WithLabelValues(outcome).Inc()
	return c.JSON(http.StatusOK, prediction)
}

type processJobsRequest struct {
	Limit int `json:"limit"`
}

func (s *Server) processJobs(c echo.Context) error {
	var req processJobsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Limit <= 0 {
		req.Limit = 100
	}

	result, err := s.Processor.ProcessBatch(c.Request().Context(), req.Limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "job processing failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) rebuildExemplars(c echo.Context) error {
	caseID := c.Param("caseId")
	question := store.Question(c.Param("question"))
	if !question.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown question identifier")
	}
	bucket, err := strconv.Atoi(c.Param("bucket"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid score bucket")
	}
	maxClusters := 0
	if raw := c.QueryParam("maxClusters"); raw != "" {
		if maxClusters, err = strconv.Atoi(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid maxClusters")
		}
	}

	ctx := c.Request().Context()
	lock := s.scopeLock(fmt.Sprintf("%s/%s/%d", caseID, question, bucket))
	if err := lock.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "rebuild cancelled")
	}
	defer lock.Release(1)

	result, err := s.Clusterer.RebuildExemplars(ctx, caseID, question, bucket, maxClusters)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "exemplar rebuild failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) listExemplars(c echo.Context) error {
	caseID := c.Param("caseId")
	question := store.Question(c.Param("question"))
	if !question.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown question identifier")
	}
	bucket, err := strconv.Atoi(c.Param("bucket"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid score bucket")
	}

	exemplars, err := s.Store.ListClusterExemplars(c.Request().Context(), &store.ExemplarScope{
		CaseID:      caseID,
		Question:    question,
		ScoreBucket: bucket,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list exemplars")
	}
	return c.JSON(http.StatusOK, exemplars)
}

func (s *Server) corpusStats(c echo.Context) error {
	caseID := c.Param("caseId")
	question := store.Question(c.Param("question"))
	if !question.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown question identifier")
	}

	count, err := s.Store.CountResponseEmbeddings(c.Request().Context(), caseID, question)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count embeddings")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"case_id":    caseID,
		"question":   question,
		"embeddings": count,
	})
}
