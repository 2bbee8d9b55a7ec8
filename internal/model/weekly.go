package model

// WeeklyVolumeColumns 周业务量明细列（顺序即导入/存储顺序）
var WeeklyVolumeColumns = []string{
	// 技工室积压
	"lab_setups", "lab_fixed_cases", "lab_over_denture", "lab_processes", "lab_finishes",
	// 诊室积压
	"clinic_wax_tryin", "clinic_delivery", "clinic_outside_lab", "clinic_on_hold",
	// 产出单位
	"immediate_units", "economy_units", "economy_plus_units", "premium_units", "ultimate_units",
	"repair_units", "reline_units", "partial_units", "retry_units", "remake_units", "bite_block_units",
}

const (
	labColumnsEnd    = 5
	clinicColumnsEnd = 9
)

// WeeklyVolume 某诊所某周的业务量
type WeeklyVolume struct {
	OfficeID int64 `json:"officeId"`
	Year     int   `json:"year"`
	Week     int   `json:"weekNumber"`
	Counts   []int `json:"counts"` // 与 WeeklyVolumeColumns 一一对应
}

// Totals 计算技工室积压、诊室积压与产出单位合计
func Totals(counts []int) (backlogInLab, backlogInClinic, totalUnits int) {
	for i, v := range counts {
		switch {
		case i < labColumnsEnd:
			backlogInLab += v
		case i < clinicColumnsEnd:
			backlogInClinic += v
		default:
			totalUnits += v
		}
	}
	return backlogInLab, backlogInClinic, totalUnits
}

// weekMonthBounds 每月最后一周（1-4 周为 1 月，5-8 周为 2 月 ...）
var weekMonthBounds = [12]int{4, 8, 13, 17, 22, 26, 30, 35, 39, 43, 48, 53}

// MonthOfWeek 按固定周-月对照表返回周所属月份；周号非法时返回 0
func MonthOfWeek(week int) int {
	if week < 1 || week > 53 {
		return 0
	}
	for i, last := range weekMonthBounds {
		if week <= last {
			return i + 1
		}
	}
	return 12
}

// WeekRange 返回某月对应的周号区间
func WeekRange(month int) (first, last int, ok bool) {
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	first = 1
	if month > 1 {
		first = weekMonthBounds[month-2] + 1
	}
	return first, weekMonthBounds[month-1], true
}
