package gateway

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Ordered-fallback field extraction over decoded JSON. Paths are dotted
// ("key.id"); numeric segments index into arrays ("messages.0.id").

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func lookup(v any, path string) (any, bool) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// scalarString renders strings and numbers; objects, arrays and bools yield
// "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func pickString(v any, paths ...string) string {
	for _, p := range paths {
		if raw, ok := lookup(v, p); ok {
			if s := scalarString(raw); s != "" {
				return s
			}
		}
	}
	return ""
}

func toBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(lower(t))
		return b, err == nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return false, false
		}
		return n != 0, true
	case float64:
		return t != 0, true
	}
	return false, false
}

func pickBool(v any, paths ...string) (bool, bool) {
	for _, p := range paths {
		if raw, ok := lookup(v, p); ok {
			if b, ok := toBool(raw); ok {
				return b, true
			}
		}
	}
	return false, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func pickInt(v any, paths ...string) (int, bool) {
	for _, p := range paths {
		if raw, ok := lookup(v, p); ok {
			if f, ok := toFloat(raw); ok && !math.IsNaN(f) {
				return int(f), true
			}
		}
	}
	return 0, false
}

// Epoch values above this are taken as milliseconds. It corresponds to the
// year 5138 in seconds and to 1973 in milliseconds.
const millisThreshold = 1e11

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTime accepts epoch seconds, epoch milliseconds (numbers or digit
// strings) and ISO-8601 strings.
func parseTime(v any) (time.Time, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	f, ok := toFloat(v)
	if !ok || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return time.Time{}, false
	}
	if f >= millisThreshold {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

func pickTime(v any, paths ...string) (time.Time, bool) {
	for _, p := range paths {
		if raw, ok := lookup(v, p); ok {
			if t, ok := parseTime(raw); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// digits keeps only ASCII digits.
func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// phoneFromID strips provider suffixes ("@s.whatsapp.net", "@c.us", "@g.us")
// and device parts (":12") from an identifier and keeps the digits.
func phoneFromID(id string) string {
	user := id
	if i := strings.Index(user, "@"); i >= 0 {
		user = user[:i]
	}
	if i := strings.Index(user, ":"); i >= 0 {
		user = user[:i]
	}
	return digits(user)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
