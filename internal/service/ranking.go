package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/sma-score-api/internal/models"
	appErrors "github.com/noah-isme/sma-score-api/pkg/errors"
)

// RankLevel selects which rank column a ranking pass assigns.
type RankLevel int

const (
	// RankLevelCohort ranks across every class of an exam+course.
	RankLevelCohort RankLevel = iota
	// RankLevelClass ranks within a single class.
	RankLevelClass
)

func (l RankLevel) String() string {
	if l == RankLevelClass {
		return "class"
	}
	return "cohort"
}

// ComputeRanks orders scores descending and assigns the dense sequence 1..N to the
// participating records. Equal scores keep their input order and still get distinct ranks.
// Absent or unscored records get a null rank. The input slice is not modified.
func ComputeRanks(scores []models.Score, level RankLevel) ([]models.Score, error) {
	if len(scores) == 0 {
		return []models.Score{}, nil
	}
	if err := checkRankScope(scores, level); err != nil {
		return nil, err
	}

	ranked := make([]models.Score, len(scores))
	copy(ranked, scores)

	order := make([]int, 0, len(ranked))
	for i := range ranked {
		setRank(&ranked[i], level, null.Int{})
		if ranked[i].Participating() {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return tenths(ranked[order[a]].Score.Float64) > tenths(ranked[order[b]].Score.Float64)
	})
	for pos, idx := range order {
		setRank(&ranked[idx], level, null.IntFrom(pos+1))
	}
	return ranked, nil
}

// RankCohort assigns grade ranks over the whole exam+course population and class ranks
// within each class partition of it.
func RankCohort(scores []models.Score) ([]models.Score, error) {
	ranked, err := ComputeRanks(scores, RankLevelCohort)
	if err != nil {
		return nil, err
	}

	partitions := make(map[string][]int)
	var classOrder []string
	for i, score := range ranked {
		if _, ok := partitions[score.ClassID]; !ok {
			classOrder = append(classOrder, score.ClassID)
		}
		partitions[score.ClassID] = append(partitions[score.ClassID], i)
	}

	for _, classID := range classOrder {
		idxs := partitions[classID]
		subset := make([]models.Score, len(idxs))
		for j, idx := range idxs {
			subset[j] = ranked[idx]
		}
		classRanked, err := ComputeRanks(subset, RankLevelClass)
		if err != nil {
			return nil, err
		}
		for j, idx := range idxs {
			ranked[idx].ClassRank = classRanked[j].ClassRank
		}
	}
	return ranked, nil
}

// RankAssignments extracts the rank columns for write-back.
func RankAssignments(scores []models.Score) []models.RankAssignment {
	assignments := make([]models.RankAssignment, 0, len(scores))
	for _, score := range scores {
		assignments = append(assignments, models.RankAssignment{
			ScoreID:   score.ID,
			ClassRank: score.ClassRank,
			GradeRank: score.GradeRank,
		})
	}
	return assignments
}

func checkRankScope(scores []models.Score, level RankLevel) error {
	first := scores[0]
	for i, score := range scores[1:] {
		mismatch := score.ExamID != first.ExamID || score.CourseID != first.CourseID
		if level == RankLevelClass && score.ClassID != first.ClassID {
			mismatch = true
		}
		if mismatch {
			return appErrors.Clone(appErrors.ErrScopeMismatch, fmt.Sprintf("%s ranking: score %d (%s) outside scope of %s", level, i+1, score.ID, first.ID))
		}
	}
	return nil
}

func setRank(score *models.Score, level RankLevel, rank null.Int) {
	if level == RankLevelClass {
		score.ClassRank = rank
		return
	}
	score.GradeRank = rank
}

// tenths converts a one-decimal score into an exact integer number of tenths.
func tenths(v float64) int64 {
	return int64(math.Round(v * 10))
}
