package ranking

import (
	"sort"

	"github.com/samber/lo"
)

// NoData 无可排名数据时统计值的占位
const NoData = "N/A"

// Input 某诊所在选定指标上的取值（Value 为空表示无数据）
type Input struct {
	OfficeID   int64    `json:"officeId"`
	OfficeName string   `json:"officeName"`
	DFO        string   `json:"dfo"`
	State      string   `json:"state"`
	Value      *float64 `json:"value"`
}

// Entry 排名条目
type Entry struct {
	OfficeID   int64   `json:"officeId"`
	OfficeName string  `json:"officeName"`
	DFO        string  `json:"dfo"`
	State      string  `json:"state"`
	Value      float64 `json:"value"`
	Rank       int     `json:"rank"`
}

// Stats 排名统计（已按指标格式化）
type Stats struct {
	Best    string `json:"best"`
	Average string `json:"average"`
	Worst   string `json:"worst"`
	Count   int    `json:"count"`
}

// Result 排名结果
type Result struct {
	Metric  Metric  `json:"metric"`
	Entries []Entry `json:"entries"`
	Stats   Stats   `json:"stats"`
}

// Rank 过滤无值诊所后按指标方向稳定排序，依次分配 1..N 名次
//
// 相同数值不并列，保持输入顺序。
func Rank(metric Metric, inputs []Input) Result {
	present := lo.Filter(inputs, func(in Input, _ int) bool { return in.Value != nil })

	entries := lo.Map(present, func(in Input, _ int) Entry {
		return Entry{
			OfficeID:   in.OfficeID,
			OfficeName: in.OfficeName,
			DFO:        in.DFO,
			State:      in.State,
			Value:      *in.Value,
		}
	})

	sort.SliceStable(entries, func(i, j int) bool {
		if metric.Direction == LowerIsBetter {
			return entries[i].Value < entries[j].Value
		}
		return entries[i].Value > entries[j].Value
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return Result{
		Metric:  metric,
		Entries: entries,
		Stats:   summarize(metric, entries),
	}
}

func summarize(metric Metric, entries []Entry) Stats {
	if len(entries) == 0 {
		return Stats{Best: NoData, Average: NoData, Worst: NoData}
	}

	total := lo.SumBy(entries, func(e Entry) float64 { return e.Value })
	return Stats{
		Best:    metric.FormatValue(entries[0].Value),
		Average: metric.FormatValue(total / float64(len(entries))),
		Worst:   metric.FormatValue(entries[len(entries)-1].Value),
		Count:   len(entries),
	}
}
