package models

// Statistics summarises a score population. Pointer fields are omitted when not applicable.
type Statistics struct {
	Scope          RankScope `json:"scope"`
	TotalCount     int       `json:"total_count"`
	ValidCount     int       `json:"valid_count"`
	AbsentCount    int       `json:"absent_count"`
	MaxScore       *float64  `json:"max_score,omitempty"`
	MinScore       *float64  `json:"min_score,omitempty"`
	MeanScore      *float64  `json:"mean_score,omitempty"`
	PassCount      *int      `json:"pass_count,omitempty"`
	PassRate       *float64  `json:"pass_rate,omitempty"`
	GoodCount      *int      `json:"good_count,omitempty"`
	GoodRate       *float64  `json:"good_rate,omitempty"`
	ExcellentCount *int      `json:"excellent_count,omitempty"`
	ExcellentRate  *float64  `json:"excellent_rate,omitempty"`
}
