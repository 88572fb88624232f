package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"llm-crypto-trader/internal/types"
)

// flexFloat accepts 0.8 as well as "0.8"; models are not consistent.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type rawDecision struct {
	Action              string    `json:"action"`
	Confidence          flexFloat `json:"confidence"`
	PositionSizePercent flexFloat `json:"position_size_percent"`
	ReasonCode          string    `json:"reason_code"`
	StopLossPrice       flexFloat `json:"stop_loss_price"`
	TakeProfitPrice     flexFloat `json:"take_profit_price"`
	LimitPrice          flexFloat `json:"limit_price"`
}

// ParseDecision extracts the first JSON object from a model reply and
// validates it. Anything that cannot be read as a decision object is
// types.ErrMalformedResponse.
func ParseDecision(text string) (types.Decision, error) {
	obj, ok := firstObject(stripFences(text))
	if !ok {
		return types.Decision{}, fmt.Errorf("%w: no JSON object in reply", types.ErrMalformedResponse)
	}
	var raw rawDecision
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return types.Decision{}, fmt.Errorf("%w: %v", types.ErrMalformedResponse, err)
	}
	return normalizeDecision(raw), nil
}

func normalizeDecision(raw rawDecision) types.Decision {
	d := types.Decision{
		Action:              types.ParseAction(raw.Action),
		Confidence:          float64(raw.Confidence),
		PositionSizePercent: float64(raw.PositionSizePercent),
		Reason:              types.ReasonCode(strings.ToUpper(strings.TrimSpace(raw.ReasonCode))),
		StopLossPrice:       float64(raw.StopLossPrice),
		TakeProfitPrice:     float64(raw.TakeProfitPrice),
		LimitPrice:          float64(raw.LimitPrice),
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		d.Confidence = 0
	}
	if d.PositionSizePercent < 0 {
		d.PositionSizePercent = 0
	}
	if d.Reason == "" {
		d.Reason = types.ReasonUnknown
	}
	return d
}

func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimPrefix(t, "json")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

// firstObject returns the first balanced {...} in s, ignoring braces inside strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inStr, esc := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
