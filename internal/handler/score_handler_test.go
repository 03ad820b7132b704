package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	internalmiddleware "github.com/noah-isme/sma-score-api/internal/middleware"
	"github.com/noah-isme/sma-score-api/internal/models"
	"github.com/noah-isme/sma-score-api/internal/service"
	appErrors "github.com/noah-isme/sma-score-api/pkg/errors"
	"github.com/noah-isme/sma-score-api/pkg/export"
)

type scoreServiceMock struct {
	added       []service.ScoreInput
	batch       *service.BatchScoresRequest
	batchErr    error
	updatedID   string
	deletedID   string
	recalc      *models.RankScope
	stats       *models.Statistics
	statsHit    bool
	statsErr    error
	ranked      []models.Score
	listFilter  models.ScoreFilter
	exportScope models.RankScope
	exportFmt   export.Format
}

func (m *scoreServiceMock) AddScore(ctx context.Context, in service.ScoreInput) (*models.Score, error) {
	m.added = append(m.added, in)
	return &models.Score{ID: "score-1", ExamID: in.ExamID, StudentID: in.StudentID, CourseID: in.CourseID, GradeRank: null.IntFrom(1)}, nil
}

func (m *scoreServiceMock) BatchAddScores(ctx context.Context, req service.BatchScoresRequest) ([]models.Score, error) {
	m.batch = &req
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	return make([]models.Score, len(req.Scores)), nil
}

func (m *scoreServiceMock) UpdateScore(ctx context.Context, id string, in service.ScoreInput) (*models.Score, error) {
	m.updatedID = id
	return &models.Score{ID: id}, nil
}

func (m *scoreServiceMock) DeleteScore(ctx context.Context, id string) error {
	if id == "missing" {
		return appErrors.ErrNotFound
	}
	m.deletedID = id
	return nil
}

func (m *scoreServiceMock) RecalculateScope(ctx context.Context, scope models.RankScope) (int, error) {
	m.recalc = &scope
	return 3, nil
}

func (m *scoreServiceMock) GetStatistics(ctx context.Context, scope models.RankScope) (*models.Statistics, bool, error) {
	if m.statsErr != nil {
		return nil, false, m.statsErr
	}
	return m.stats, m.statsHit, nil
}

func (m *scoreServiceMock) GetScoresByScope(ctx context.Context, scope models.RankScope) ([]models.Score, error) {
	return m.ranked, nil
}

func (m *scoreServiceMock) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, *models.Pagination, error) {
	m.listFilter = filter
	return []models.Score{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (m *scoreServiceMock) Get(ctx context.Context, id string) (*models.Score, error) {
	if id == "missing" {
		return nil, appErrors.ErrNotFound
	}
	return &models.Score{ID: id}, nil
}

func (m *scoreServiceMock) StudentScores(ctx context.Context, studentID, examID string) (*models.StudentScoreReport, error) {
	return &models.StudentScoreReport{StudentID: studentID, ExamID: examID, Scores: []models.Score{}}, nil
}

func (m *scoreServiceMock) Export(ctx context.Context, scope models.RankScope, format export.Format) (*service.ExportFile, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	m.exportScope = scope
	m.exportFmt = format
	return &service.ExportFile{Filename: "scores_mid_math.csv", ContentType: format.ContentType(), Payload: []byte("Grade Rank\n1\n")}, nil
}

func buildScoreRouter(svc scoreService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID: "test-user",
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})
	secured := router.Group("/api/v1")
	secured.Use(func(c *gin.Context) {
		if _, ok := c.Get(internalmiddleware.ContextUserKey); !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	})
	RegisterScoreRoutes(secured, NewScoreHandler(svc))
	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, role, body string) *http.Request {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	return req
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestScoreRoutesCreate(t *testing.T) {
	svc := &scoreServiceMock{}
	router := buildScoreRouter(svc)
	payload := `{"exam_id":"mid","student_id":"st1","course_id":"math","score":88.5}`

	t.Run("teacher defaults to own id", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/scores", string(models.RoleTeacher), payload))
		require.Equal(t, http.StatusCreated, resp.Code)
		require.Len(t, svc.added, 1)
		assert.Equal(t, "test-user", svc.added[0].TeacherID)
		require.NotNil(t, svc.added[0].Score)
		assert.Equal(t, 88.5, *svc.added[0].Score)
	})

	t.Run("admin keeps payload teacher", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/scores", string(models.RoleAdmin),
			`{"exam_id":"mid","student_id":"st1","course_id":"math","teacher_id":"t-9"}`))
		require.Equal(t, http.StatusCreated, resp.Code)
		assert.Equal(t, "t-9", svc.added[len(svc.added)-1].TeacherID)
	})

	t.Run("student forbidden", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/scores", string(models.RoleStudent), payload))
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/scores", "", payload))
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("malformed payload", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/scores", string(models.RoleAdmin), `{"exam_id":`))
		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "VALIDATION_ERROR")
	})
}

func TestScoreRoutesBatchReportsIndex(t *testing.T) {
	svc := &scoreServiceMock{
		batchErr: appErrors.WithDetail(appErrors.Clone(appErrors.ErrValidation, "item 2: score exceeds course full score"), "index", 2),
	}
	router := buildScoreRouter(svc)
	payload := `{"scores":[{"exam_id":"e","student_id":"a","course_id":"c"},{"exam_id":"e","student_id":"b","course_id":"c"},{"exam_id":"e","student_id":"c","course_id":"c","score":150}]}`

	resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/scores/batch", string(models.RoleTeacher), payload))
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body struct {
		Error struct {
			Code    string                 `json:"code"`
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.EqualValues(t, 2, body.Error.Details["index"])
	require.NotNil(t, svc.batch)
	for _, entry := range svc.batch.Scores {
		assert.Equal(t, "test-user", entry.TeacherID)
	}
}

func TestScoreRoutesBatchSuccess(t *testing.T) {
	svc := &scoreServiceMock{}
	router := buildScoreRouter(svc)
	payload := `{"scores":[{"exam_id":"e","student_id":"a","course_id":"c"},{"exam_id":"e","student_id":"b","course_id":"c"}]}`

	resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/scores/batch", string(models.RoleAdmin), payload))
	require.Equal(t, http.StatusCreated, resp.Code)
	body := decodeEnvelope(t, resp)
	assert.JSONEq(t, `{"count":2}`, string(body["meta"]))
}

func TestScoreRoutesStatistics(t *testing.T) {
	passRate := 66.67
	svc := &scoreServiceMock{
		stats:    &models.Statistics{TotalCount: 3, ValidCount: 3, PassRate: &passRate},
		statsHit: true,
	}
	router := buildScoreRouter(svc)

	t.Run("cache hit surfaces in meta", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/statistics?examId=mid&courseId=math", string(models.RoleStudent), ""))
		require.Equal(t, http.StatusOK, resp.Code)
		body := decodeEnvelope(t, resp)
		var meta map[string]interface{}
		require.NoError(t, json.Unmarshal(body["meta"], &meta))
		assert.Equal(t, true, meta["cache_hit"])
		assert.Contains(t, string(body["data"]), `"pass_rate":66.67`)
	})

	t.Run("scope required", func(t *testing.T) {
		resp := performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/statistics?examId=mid", string(models.RoleAdmin), ""))
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("thresholds missing", func(t *testing.T) {
		svc.statsErr = appErrors.ErrConfigurationMissing
		defer func() { svc.statsErr = nil }()
		resp := performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/statistics?examId=mid&courseId=art", string(models.RoleAdmin), ""))
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), "CONFIGURATION_MISSING")
	})

	t.Run("busy scope", func(t *testing.T) {
		svc.statsErr = appErrors.ErrConcurrencyConflict
		defer func() { svc.statsErr = nil }()
		resp := performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/statistics?examId=mid&courseId=math", string(models.RoleAdmin), ""))
		require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})

	t.Run("unexpected error is internal", func(t *testing.T) {
		svc.statsErr = errors.New("boom")
		defer func() { svc.statsErr = nil }()
		resp := performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/statistics?examId=mid&courseId=math", string(models.RoleAdmin), ""))
		require.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestScoreRoutesReadAndDelete(t *testing.T) {
	svc := &scoreServiceMock{ranked: []models.Score{{ID: "a", GradeRank: null.IntFrom(1)}, {ID: "b"}}}
	router := buildScoreRouter(svc)

	resp := performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores?examId=mid&classId=x1&page=2&limit=5", string(models.RoleStudent), ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, models.ScoreFilter{ExamID: "mid", ClassID: "x1", Page: 2, PageSize: 5}, svc.listFilter)

	resp = performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/ranking?examId=mid&courseId=math", string(models.RoleStudent), ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"grade_rank":null`)

	resp = performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/missing", string(models.RoleAdmin), ""))
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/students/st1?examId=mid", string(models.RoleStudent), ""))
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/students/test-user?examId=mid", string(models.RoleStudent), ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"exam_id":"mid"`)

	resp = performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/students/st1", string(models.RoleTeacher), ""))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = performRequest(router, jsonRequest(http.MethodPut, "/api/v1/scores/score-1", string(models.RoleTeacher), `{"exam_id":"mid","student_id":"st1","course_id":"math","score":70}`))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "score-1", svc.updatedID)

	resp = performRequest(router, jsonRequest(http.MethodDelete, "/api/v1/scores/score-1", string(models.RoleTeacher), ""))
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = performRequest(router, jsonRequest(http.MethodDelete, "/api/v1/scores/score-1", string(models.RoleAdmin), ""))
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "score-1", svc.deletedID)

	resp = performRequest(router, jsonRequest(http.MethodDelete, "/api/v1/scores/missing", string(models.RoleSuperAdmin), ""))
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestScoreRoutesExportAndRecalculate(t *testing.T) {
	svc := &scoreServiceMock{}
	router := buildScoreRouter(svc)

	resp := performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/export?examId=mid&courseId=math&classId=x1&format=CSV", string(models.RoleTeacher), ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, export.FormatCSV, svc.exportFmt)
	assert.Equal(t, models.RankScope{ExamID: "mid", CourseID: "math", ClassID: "x1"}, svc.exportScope)
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "scores_mid_math.csv")

	resp = performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/export?examId=mid&courseId=math&format=xlsx", string(models.RoleAdmin), ""))
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = performRequest(router, jsonRequest(http.MethodGet, "/api/v1/scores/export?examId=mid&courseId=math", string(models.RoleStudent), ""))
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = performRequest(router, jsonRequest(http.MethodPost, "/api/v1/scores/recalculate", string(models.RoleTeacher), `{"exam_id":"mid","course_id":"math"}`))
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = performRequest(router, jsonRequest(http.MethodPost, "/api/v1/scores/recalculate", string(models.RoleAdmin), `{"exam_id":"mid","course_id":"math"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.recalc)
	assert.Equal(t, models.RankScope{ExamID: "mid", CourseID: "math"}, *svc.recalc)
	assert.Contains(t, resp.Body.String(), `"changed":3`)

	resp = performRequest(router, jsonRequest(http.MethodPost, "/api/v1/scores/recalculate", string(models.RoleAdmin), `{"exam_id":"mid"}`))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
