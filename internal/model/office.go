package model

import "strings"

// OperatingModel 诊所运营模式
type OperatingModel string

const (
	ModelPO   OperatingModel = "PO"   // 直营
	ModelPLLC OperatingModel = "PLLC" // 合伙
)

// Office 诊所（办公室）目录信息
type Office struct {
	ID                    int64          `json:"officeId"`
	Name                  string         `json:"officeName"`
	Model                 OperatingModel `json:"model"`
	Address               string         `json:"address"`
	Phone                 string         `json:"phone"`
	ManagingDentist       string         `json:"managingDentist"`
	DFO                   string         `json:"dfo"`
	StandardizationStatus string         `json:"standardizationStatus"`
}

// State 从名称后缀推导所在州，如 "Plano, TX" / "Plano TX" -> "TX"
func (o Office) State() string {
	name := strings.TrimSpace(o.Name)
	if name == "" {
		return ""
	}

	idx := strings.LastIndexAny(name, " ,-")
	if idx < 0 {
		return ""
	}
	suffix := strings.TrimSpace(name[idx+1:])
	if len(suffix) != 2 {
		return ""
	}
	for _, r := range suffix {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return suffix
}

// OfficeFilter 目录筛选条件（空字符串表示不过滤）
type OfficeFilter struct {
	State string `json:"state"`
	DFO   string `json:"dfo"`
	Model string `json:"model"`
}

// Match 判断诊所是否满足筛选条件
func (f OfficeFilter) Match(o Office) bool {
	if f.State != "" && !strings.EqualFold(f.State, o.State()) {
		return false
	}
	if f.DFO != "" && !strings.EqualFold(f.DFO, o.DFO) {
		return false
	}
	if f.Model != "" && !strings.EqualFold(f.Model, string(o.Model)) {
		return false
	}
	return true
}

// FilterValues 可选筛选值
type FilterValues struct {
	States []string `json:"states"`
	DFOs   []string `json:"dfos"`
	Models []string `json:"models"`
}
