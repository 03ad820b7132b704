package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-api/internal/models"
)

func recalculateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recalculate",
		Short: "Recompute class and grade ranks for one exam and course",
		RunE:  runRecalculate,
	}
	f := cmd.Flags()
	f.String("exam", "", "exam id (required)")
	f.String("course", "", "course id (required)")
	_ = cmd.MarkFlagRequired("exam")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}

func runRecalculate(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.wire(); err != nil {
		return err
	}

	examID, _ := cmd.Flags().GetString("exam")
	courseID, _ := cmd.Flags().GetString("course")
	changed, err := a.scores.RecalculateScope(cmd.Context(), models.RankScope{ExamID: examID, CourseID: courseID})
	if err != nil {
		a.logger.Error("recalculation failed", zap.String("exam_id", examID), zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exam %s course %s: %d rank rows updated\n", examID, courseID, changed)
	return nil
}
