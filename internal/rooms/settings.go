package rooms

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Settings struct {
	TargetLength int
	TimeLimit    int
}

func DefaultSettings() Settings {
	return Settings{
		TargetLength: 4,
		TimeLimit:    30,
	}
}

// ParseSettings reads a createRoom payload. Each field may be a number or a
// string; absent, non-numeric and non-positive values take the default.
func ParseSettings(raw json.RawMessage, defaults Settings) Settings {
	out := defaults
	var in struct {
		TargetLength json.RawMessage `json:"targetLength"`
		TimeLimit    json.RawMessage `json:"timeLimit"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &in) != nil {
		return out
	}
	if v, ok := parseLeadingInt(in.TargetLength); ok && v > 0 {
		out.TargetLength = v
	}
	if v, ok := parseLeadingInt(in.TimeLimit); ok && v > 0 {
		out.TimeLimit = v
	}
	return out
}

// parseLeadingInt accepts 5, 5.9, "5" and "5 cells" alike, truncating toward zero.
func parseLeadingInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return int(num), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}
