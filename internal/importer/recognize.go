package importer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"labpulse/internal/model"
)

// minConfidence 判定导入类型所需的最低匹配比例
const minConfidence = 0.5

// Recognition 工作表识别结果
type Recognition struct {
	SheetName  string           `json:"sheetName"`
	Type       model.ImportType `json:"importType"`
	Confidence float64          `json:"confidence"` // 0-1
}

// 各导入类型的关键表头，"|" 分隔同义词
var headerSignatures = []struct {
	importType model.ImportType
	fields     []string
}{
	{model.ImportWeeklyVolume, []string{"office_id", "year", "week|week_number", "lab_setups", "clinic_delivery", "immediate_units", "premium_units", "remake_units"}},
	{model.ImportFinancials, []string{"office_id", "year", "month", "revenue", "lab_exp_no_outside", "lab_exp_with_outside", "personnel_exp", "bonus_exp"}},
	{model.ImportOffices, []string{"office_id", "office_name|name", "model", "address", "phone", "managing_dentist", "dfo"}},
}

// NormalizeHeader 规范化表头：小写，空白与连字符转下划线
func NormalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.NewReplacer(" ", "_", "-", "_", "\n", "_", "#", "").Replace(h)
	for strings.Contains(h, "__") {
		h = strings.ReplaceAll(h, "__", "_")
	}
	return strings.Trim(h, "_")
}

func matchField(header, field string) bool {
	for _, alt := range strings.Split(field, "|") {
		if header == alt {
			return true
		}
	}
	return false
}

// Recognize 根据工作表名与表头识别导入类型
func Recognize(sheetName string, headers []string) Recognition {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	best := Recognition{SheetName: sheetName}
	for _, sig := range headerSignatures {
		matched := 0
		for _, field := range sig.fields {
			for _, h := range normalized {
				if matchField(h, field) {
					matched++
					break
				}
			}
		}
		confidence := float64(matched) / float64(len(sig.fields))

		// 工作表名辅助判定
		if sig.importType == model.ImportFinancials && NormalizeHeader(sheetName) == FinancialsSheet {
			confidence += 0.2
		}
		if confidence > 1 {
			confidence = 1
		}
		if confidence > best.Confidence {
			best.Type = sig.importType
			best.Confidence = confidence
		}
	}

	if best.Confidence < minConfidence {
		best.Type = ""
	}
	return best
}

// recognizeWorkbook 依次识别各工作表，返回置信度最高的结果
func recognizeWorkbook(f *excelize.File) (Recognition, error) {
	var best Recognition
	for _, sheet := range f.GetSheetList() {
		rows, err := f.Rows(sheet)
		if err != nil {
			return Recognition{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		var headers []string
		if rows.Next() {
			headers, err = rows.Columns()
		}
		rows.Close()
		if err != nil {
			return Recognition{}, fmt.Errorf("failed to read header of %q: %w", sheet, err)
		}

		if r := Recognize(sheet, headers); r.Type != "" && r.Confidence > best.Confidence {
			best = r
		}
	}
	if best.Type == "" {
		return best, fmt.Errorf("unable to recognize workbook layout")
	}
	return best, nil
}
