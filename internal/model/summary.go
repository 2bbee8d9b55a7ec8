package model

// OfficeSummary 某诊所在一个时间段内的汇总结果（每次切换时间段重新计算，不落库）
type OfficeSummary struct {
	OfficeID   int64          `json:"officeId"`
	OfficeName string         `json:"officeName"`
	Model      OperatingModel `json:"model"`
	DFO        string         `json:"dfo"`
	State      string         `json:"state"`

	LatestYear  *int `json:"latestYear"`  // 全部历史中最近有数据的年份
	LatestMonth *int `json:"latestMonth"` // 全部历史中最近有数据的月份

	// 财务
	Revenue          *float64 `json:"revenue"`
	LabExpense       *float64 `json:"labExpense"`
	PersonnelExpense *float64 `json:"personnelExpense"`
	OvertimeExpense  *float64 `json:"overtimeExpense"`
	LabExpPercent    *float64 `json:"labExpPercent"`
	PersonnelPercent *float64 `json:"personnelPercent"`
	OvertimePercent  *float64 `json:"overtimePercent"`

	// 运营
	BacklogCount *int `json:"backlogCount"`

	// 业务量
	BacklogInLab     *float64 `json:"backlogInLab"`
	BacklogInClinic  *float64 `json:"backlogInClinic"`
	TotalWeeklyUnits *float64 `json:"totalWeeklyUnits"`

	// 数据完整度（财务+业务量月份覆盖率 %），无数据时为 0 而非缺失
	DataCompleteness *float64 `json:"dataCompleteness"`

	HasFinancial  bool `json:"hasFinancial"`
	HasOperations bool `json:"hasOperations"`
	HasVolume     bool `json:"hasVolume"`
	HasNotes      bool `json:"hasNotes"`
}

// Completeness 数据完整度分类
type Completeness string

const (
	CompletenessComplete Completeness = "complete"
	CompletenessPartial  Completeness = "partial"
	CompletenessNone     Completeness = "none"
)

// Severity 告警级别
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert 告警
type Alert struct {
	Metric   string   `json:"metric,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}
