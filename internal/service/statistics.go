package service

import (
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/sma-score-api/internal/models"
	appErrors "github.com/noah-isme/sma-score-api/pkg/errors"
)

// Summarize computes counts, extremes, mean and threshold rates for a score population.
// Means and rates are rounded half up to two decimals; rates are percentages of the valid count.
func Summarize(scores []models.Score, profile *models.ThresholdProfile) (*models.Statistics, error) {
	if profile == nil {
		return nil, appErrors.ErrConfigurationMissing
	}

	stats := &models.Statistics{TotalCount: len(scores)}
	valid := make([]int64, 0, len(scores))
	for _, score := range scores {
		if score.Absent {
			stats.AbsentCount++
			continue
		}
		if score.Score.Valid {
			valid = append(valid, tenths(score.Score.Float64))
		}
	}
	stats.ValidCount = len(valid)
	if stats.ValidCount == 0 {
		return stats, nil
	}

	maxT, minT := valid[0], valid[0]
	var sum int64
	for _, v := range valid {
		if v > maxT {
			maxT = v
		}
		if v < minT {
			minT = v
		}
		sum += v
	}
	n := int64(stats.ValidCount)
	stats.MaxScore = floatPtr(float64(maxT) / 10)
	stats.MinScore = floatPtr(float64(minT) / 10)
	stats.MeanScore = floatPtr(float64(divRoundHalfUp(sum*10, n)) / 100)

	stats.PassCount, stats.PassRate = thresholdRate(valid, profile.PassScore)
	stats.GoodCount, stats.GoodRate = thresholdRate(valid, profile.GoodScore)
	stats.ExcellentCount, stats.ExcellentRate = thresholdRate(valid, profile.ExcellentScore)
	return stats, nil
}

func thresholdRate(valid []int64, threshold null.Float64) (*int, *float64) {
	if !threshold.Valid {
		return nil, nil
	}
	cutoff := tenths(threshold.Float64)
	count := 0
	for _, v := range valid {
		if v >= cutoff {
			count++
		}
	}
	rate := float64(divRoundHalfUp(int64(count)*10000, int64(len(valid)))) / 100
	return &count, &rate
}

// divRoundHalfUp divides n by a positive d, rounding halves away from zero.
func divRoundHalfUp(n, d int64) int64 {
	if n < 0 {
		return -((-2*n + d) / (2 * d))
	}
	return (2*n + d) / (2 * d)
}

func floatPtr(v float64) *float64 {
	return &v
}
