package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"labpulse/internal/model"
	"labpulse/internal/period"
	"labpulse/internal/service/dashboard"
)

// selectorParams 时间段与筛选参数（query 与 JSON body 共用）
type selectorParams struct {
	Period       string      `form:"period" json:"period"`
	Year         json.Number `form:"year" json:"year"`
	Month        json.Number `form:"month" json:"month"`
	State        string      `form:"state" json:"state"`
	DFO          string      `form:"dfo" json:"dfo"`
	Model        string      `form:"model" json:"model"`
	Completeness string      `form:"completeness" json:"completeness"`
}

func (p selectorParams) request(fallback period.Kind) (dashboard.Request, error) {
	kind, err := period.ParseKind(p.Period, fallback)
	if err != nil {
		return dashboard.Request{}, err
	}
	sel := period.Selector{Kind: kind}
	if kind == period.Custom {
		if sel.Year, err = atoiParam("year", p.Year.String()); err != nil {
			return dashboard.Request{}, err
		}
		if sel.Month, err = atoiParam("month", p.Month.String()); err != nil {
			return dashboard.Request{}, err
		}
	}

	req := dashboard.Request{
		Selector: sel,
		Filter: model.OfficeFilter{
			State: strings.TrimSpace(p.State),
			DFO:   strings.TrimSpace(p.DFO),
			Model: strings.TrimSpace(p.Model),
		},
	}
	switch c := model.Completeness(strings.ToLower(strings.TrimSpace(p.Completeness))); c {
	case "", model.CompletenessComplete, model.CompletenessPartial, model.CompletenessNone:
		req.Completeness = c
	default:
		return dashboard.Request{}, fmt.Errorf("%w: unknown completeness %q", errBadRequest, p.Completeness)
	}
	return req, nil
}

func atoiParam(name, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", period.ErrInvalidPeriodSelector, name)
	}
	return v, nil
}

// bindRequest 从 query 解析看板请求
func (h *Handler) bindRequest(c *gin.Context) (dashboard.Request, error) {
	var p selectorParams
	if err := c.ShouldBindQuery(&p); err != nil {
		return dashboard.Request{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return p.request(h.dashboard.DefaultPeriod())
}
