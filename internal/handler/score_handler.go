package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-api/internal/middleware"
	"github.com/noah-isme/sma-score-api/internal/models"
	"github.com/noah-isme/sma-score-api/internal/service"
	appErrors "github.com/noah-isme/sma-score-api/pkg/errors"
	"github.com/noah-isme/sma-score-api/pkg/export"
	"github.com/noah-isme/sma-score-api/pkg/response"
)

type scoreService interface {
	AddScore(ctx context.Context, in service.ScoreInput) (*models.Score, error)
	BatchAddScores(ctx context.Context, req service.BatchScoresRequest) ([]models.Score, error)
	UpdateScore(ctx context.Context, id string, in service.ScoreInput) (*models.Score, error)
	DeleteScore(ctx context.Context, id string) error
	RecalculateScope(ctx context.Context, scope models.RankScope) (int, error)
	GetStatistics(ctx context.Context, scope models.RankScope) (*models.Statistics, bool, error)
	GetScoresByScope(ctx context.Context, scope models.RankScope) ([]models.Score, error)
	List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Score, error)
	StudentScores(ctx context.Context, studentID, examID string) (*models.StudentScoreReport, error)
	Export(ctx context.Context, scope models.RankScope, format export.Format) (*service.ExportFile, error)
}

// ScoreHandler exposes score entry, ranking and statistics endpoints.
type ScoreHandler struct {
	scores scoreService
}

// NewScoreHandler constructs the handler.
func NewScoreHandler(scores scoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// RecalculateRequest names the cohort to re-rank.
type RecalculateRequest struct {
	ExamID   string `json:"exam_id" binding:"required"`
	CourseID string `json:"course_id" binding:"required"`
}

// List godoc
// @Summary List scores
// @Tags Scores
// @Produce json
// @Param examId query string false "Filter by exam"
// @Param studentId query string false "Filter by student"
// @Param courseId query string false "Filter by course"
// @Param classId query string false "Filter by class"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /scores [get]
func (h *ScoreHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := models.ScoreFilter{
		ExamID:    pickQuery(c, "examId", "exam_id"),
		StudentID: pickQuery(c, "studentId", "student_id"),
		CourseID:  pickQuery(c, "courseId", "course_id"),
		ClassID:   pickQuery(c, "classId", "class_id"),
		Page:      page,
		PageSize:  size,
	}
	scores, pagination, err := h.scores.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, pagination)
}

// Get godoc
// @Summary Get score
// @Tags Scores
// @Produce json
// @Param id path string true "Score ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scores/{id} [get]
func (h *ScoreHandler) Get(c *gin.Context) {
	score, err := h.scores.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// Create godoc
// @Summary Record a score
// @Description Records one score and recomputes the class and grade ranks of its cohort.
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.ScoreInput true "Score payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /scores [post]
func (h *ScoreHandler) Create(c *gin.Context) {
	var req service.ScoreInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	defaultTeacher(c, &req)
	score, err := h.scores.AddScore(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, score)
}

// Batch godoc
// @Summary Record a batch of scores
// @Description All entries are committed together or not at all. A rejected batch reports the failing entry in error.details.index.
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.BatchScoresRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scores/batch [post]
func (h *ScoreHandler) Batch(c *gin.Context) {
	var req service.BatchScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	for i := range req.Scores {
		defaultTeacher(c, &req.Scores[i])
	}
	scores, err := h.scores.BatchAddScores(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, scores, nil, map[string]interface{}{"count": len(scores)})
}

// Update godoc
// @Summary Correct a score
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path string true "Score ID"
// @Param payload body service.ScoreInput true "Score payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scores/{id} [put]
func (h *ScoreHandler) Update(c *gin.Context) {
	var req service.ScoreInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	defaultTeacher(c, &req)
	score, err := h.scores.UpdateScore(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// Delete godoc
// @Summary Delete a score
// @Tags Scores
// @Param id path string true "Score ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /scores/{id} [delete]
func (h *ScoreHandler) Delete(c *gin.Context) {
	if err := h.scores.DeleteScore(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Ranking godoc
// @Summary Ranked scores of a scope
// @Description Ordered by class rank when classId is given, otherwise by grade rank. Unranked rows come last.
// @Tags Scores
// @Produce json
// @Param examId query string true "Exam ID"
// @Param courseId query string true "Course ID"
// @Param classId query string false "Class ID"
// @Success 200 {object} response.Envelope
// @Router /scores/ranking [get]
func (h *ScoreHandler) Ranking(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	scores, err := h.scores.GetScoresByScope(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, nil)
}

// Statistics godoc
// @Summary Score statistics of a scope
// @Tags Scores
// @Produce json
// @Param examId query string true "Exam ID"
// @Param courseId query string true "Course ID"
// @Param classId query string false "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /scores/statistics [get]
func (h *ScoreHandler) Statistics(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, cacheHit, err := h.scores.GetStatistics(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// StudentScores godoc
// @Summary Score report of a student
// @Description Students may only read their own report.
// @Tags Scores
// @Produce json
// @Param studentId path string true "Student ID"
// @Param examId query string false "Restrict to one exam"
// @Success 200 {object} response.Envelope
// @Router /scores/students/{studentId} [get]
func (h *ScoreHandler) StudentScores(c *gin.Context) {
	report, err := h.scores.StudentScores(c.Request.Context(), c.Param("studentId"), pickQuery(c, "examId", "exam_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Download a ranked score sheet
// @Tags Scores
// @Produce text/csv
// @Produce application/pdf
// @Param examId query string true "Exam ID"
// @Param courseId query string true "Course ID"
// @Param classId query string false "Class ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /scores/export [get]
func (h *ScoreHandler) Export(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := export.Format(strings.ToLower(c.DefaultQuery("format", string(export.FormatCSV))))
	file, err := h.scores.Export(c.Request.Context(), scope, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// Recalculate godoc
// @Summary Recompute ranks of a cohort
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body RecalculateRequest true "Cohort"
// @Success 200 {object} response.Envelope
// @Router /scores/recalculate [post]
func (h *ScoreHandler) Recalculate(c *gin.Context) {
	var req RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	scope := models.RankScope{ExamID: req.ExamID, CourseID: req.CourseID}
	changed, err := h.scores.RecalculateScope(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "recalculated", "changed": changed}, nil)
}

func parseScope(c *gin.Context) (models.RankScope, error) {
	scope := models.RankScope{
		ExamID:   pickQuery(c, "examId", "exam_id"),
		CourseID: pickQuery(c, "courseId", "course_id"),
		ClassID:  pickQuery(c, "classId", "class_id"),
	}
	if scope.ExamID == "" || scope.CourseID == "" {
		return scope, appErrors.Clone(appErrors.ErrValidation, "examId and courseId are required")
	}
	return scope, nil
}

// defaultTeacher attributes entries submitted by a teacher to that teacher when the payload omits it.
func defaultTeacher(c *gin.Context, in *service.ScoreInput) {
	if in.TeacherID != "" {
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleTeacher {
		in.TeacherID = claims.UserID
	}
}
