package compliance

import "context"

// DefaultWindow 最近提交记录的展示周数
const DefaultWindow = 10

// HistorySource 读取诊所的每周提交记录（按时间从旧到新）
type HistorySource interface {
	FetchSubmissionHistory(ctx context.Context, officeID int64) ([]bool, error)
}

// Record 诊所周数据提交合规情况
type Record struct {
	OfficeID   int64  `json:"officeId"`
	OfficeName string `json:"officeName"`
	DFO        string `json:"dfo"`

	TotalWeeks        int     `json:"totalWeeks"`
	SubmittedWeeks    int     `json:"submittedWeeks"`
	ComplianceRate    float64 `json:"complianceRate"`
	CurrentStreak     int     `json:"currentStreak"`
	LongestStreak     int     `json:"longestStreak"`
	RecentSubmissions []int   `json:"recentSubmissions"` // 1=已提交 0=未提交，从旧到新
}

// Track 统计提交历史
//
// RecentSubmissions 取最后 window 周；历史不足 window 周时返回实际周数，不做补齐。
func Track(history []bool, window int) Record {
	if window <= 0 {
		window = DefaultWindow
	}

	r := Record{TotalWeeks: len(history)}

	run := 0
	for _, submitted := range history {
		if !submitted {
			run = 0
			continue
		}
		r.SubmittedWeeks++
		run++
		if run > r.LongestStreak {
			r.LongestStreak = run
		}
	}
	// 循环结束时的连续段即以最近一周结尾的连续段
	r.CurrentStreak = run

	if r.TotalWeeks > 0 {
		r.ComplianceRate = float64(r.SubmittedWeeks) / float64(r.TotalWeeks) * 100
	}

	start := len(history) - window
	if start < 0 {
		start = 0
	}
	r.RecentSubmissions = make([]int, 0, len(history)-start)
	for _, submitted := range history[start:] {
		if submitted {
			r.RecentSubmissions = append(r.RecentSubmissions, 1)
		} else {
			r.RecentSubmissions = append(r.RecentSubmissions, 0)
		}
	}

	return r
}
