package model

// Domain 数据域
type Domain string

const (
	DomainFinancial  Domain = "financial"
	DomainOperations Domain = "operations"
	DomainVolume     Domain = "volume"
	DomainNotes      Domain = "notes"
)

// MonthlyRecord 某诊所某月某数据域的一条记录
//
// 与 Domain 对应的字段组非空，其余为 nil。
type MonthlyRecord struct {
	OfficeID int64  `json:"officeId"`
	Domain   Domain `json:"domain"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`

	Financial  *FinancialFields  `json:"financial,omitempty"`
	Operations *OperationsFields `json:"operations,omitempty"`
	Volume     *VolumeFields     `json:"volume,omitempty"`
	Note       string            `json:"note,omitempty"`
}

// Key 返回可比较的年月键 (year*100+month)
func (r MonthlyRecord) Key() int {
	return r.Year*100 + r.Month
}

// FinancialFields 月度财务数据
type FinancialFields struct {
	Revenue           *float64 `json:"revenue"`
	LabExpNoOutside   *float64 `json:"labExpNoOutside"`
	LabExpWithOutside *float64 `json:"labExpWithOutside"`
	OutsideLabSpend   *float64 `json:"outsideLabSpend"`
	PersonnelExp      *float64 `json:"personnelExp"`
	OvertimeExp       *float64 `json:"overtimeExp"`
	BonusExp          *float64 `json:"bonusExp"`
}

// OperationsFields 月度运营数据
type OperationsFields struct {
	BacklogCaseCount *int     `json:"backlogCaseCount"`
	OvertimeValue    *float64 `json:"overtimeValue"`
	CurrentStaff     *float64 `json:"currentStaff"`
	RequiredStaff    *float64 `json:"requiredStaff"`
}

// VolumeFields 月度业务量（由周数据汇总）
type VolumeFields struct {
	BacklogInLab     int `json:"backlogInLab"`
	BacklogInClinic  int `json:"backlogInClinic"`
	TotalWeeklyUnits int `json:"totalWeeklyUnits"`
}
