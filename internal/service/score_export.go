package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-api/internal/models"
	appErrors "github.com/noah-isme/sma-score-api/pkg/errors"
	"github.com/noah-isme/sma-score-api/pkg/export"
)

var scoreSheetHeaders = []string{"Grade Rank", "Class Rank", "Student Code", "Student", "Class", "Score", "Grade"}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered score sheet ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// Export renders the ranked score sheet of a scope as CSV or PDF.
func (s *ScoreService) Export(ctx context.Context, scope models.RankScope, format export.Format) (*ExportFile, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	exam, err := s.exams.FindByID(ctx, scope.ExamID)
	if err != nil {
		return nil, referenceError(err, "exam", scope.ExamID)
	}
	course, err := s.courses.FindByID(ctx, scope.CourseID)
	if err != nil {
		return nil, referenceError(err, "course", scope.CourseID)
	}
	scores, err := s.GetScoresByScope(ctx, scope)
	if err != nil {
		return nil, err
	}

	refs := newReferenceCache()
	rows := make([]map[string]string, 0, len(scores))
	for _, score := range scores {
		row := map[string]string{
			"Grade Rank": rankLabel(score.GradeRank.Int, score.GradeRank.Valid),
			"Class Rank": rankLabel(score.ClassRank.Int, score.ClassRank.Valid),
			"Student":    score.StudentID,
			"Class":      score.ClassID,
			"Grade":      score.GradeLevel.String,
		}
		switch {
		case score.Absent:
			row["Score"] = "absent"
		case score.Score.Valid:
			row["Score"] = strconv.FormatFloat(score.Score.Float64, 'f', 1, 64)
		}
		if student, err := refs.student(ctx, s.students, score.StudentID); err == nil {
			row["Student Code"] = student.Code
			row["Student"] = student.FullName
		}
		rows = append(rows, row)
	}

	title := fmt.Sprintf("%s - %s", exam.Name, course.Name)
	if scope.IsClass() {
		title += " - class " + scope.ClassID
	}
	data := export.Dataset{Title: title, Headers: scoreSheetHeaders, Rows: rows}

	var renderer datasetRenderer = export.NewCSVExporter()
	if format == export.FormatPDF {
		renderer = export.NewPDFExporter("Grade Rank", "Class Rank", "Score")
	}
	start := time.Now()
	payload, err := renderer.Render(data)
	if err != nil {
		s.logger.Error("score sheet render failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render score sheet")
	}
	s.logger.Debug("score sheet rendered",
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
		zap.Duration("duration", time.Since(start)),
	)

	name := fmt.Sprintf("scores_%s_%s", exam.Code, course.Code)
	if scope.IsClass() {
		name += "_" + scope.ClassID
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s.%s", name, format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

func rankLabel(rank int, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.Itoa(rank)
}
