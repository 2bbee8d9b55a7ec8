package calculator

import "labpulse/internal/model"

// Classify 根据财务/运营/业务量三个数据域的有无判断完整度（备注不计入）
func Classify(s model.OfficeSummary) model.Completeness {
	n := 0
	for _, has := range []bool{s.HasFinancial, s.HasOperations, s.HasVolume} {
		if has {
			n++
		}
	}
	switch n {
	case 3:
		return model.CompletenessComplete
	case 0:
		return model.CompletenessNone
	default:
		return model.CompletenessPartial
	}
}
