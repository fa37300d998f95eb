package pocketbase

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the datetime format the service uses for created/updated and date fields.
const DateLayout = "2006-01-02 15:04:05.000Z"

// Record is a weakly typed backend record as decoded from JSON.
type Record map[string]any

func (r Record) ID() string {
	return r.String("id")
}

func (r Record) CollectionName() string {
	return r.String("collectionName")
}

// String returns the field as a string. Numbers are formatted, anything else yields "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Strings returns a multi-value field. A single non-empty string becomes a one-element slice.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return []string{}
		}
		return []string{v}
	default:
		return []string{}
	}
}

func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case float64:
		return v != 0
	default:
		return false
	}
}

// Float reads numeric fields, accepting numbers stored as text (e.g. "62.5" or "62,5%").
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		s = strings.ReplaceAll(s, ",", ".")
		f, _ := strconv.ParseFloat(s, 64)
		return f
	default:
		return 0
	}
}

func (r Record) Int(key string) int {
	return int(r.Float(key))
}

// Time parses a datetime field. The zero time is returned for empty or malformed values.
func (r Record) Time(key string) time.Time {
	s := r.String(key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05Z", time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Expand returns the related records inlined under expand.<key>, whether single or multiple.
func (r Record) Expand(key string) []Record {
	expand, ok := r["expand"].(map[string]any)
	if !ok {
		return nil
	}
	switch v := expand[key].(type) {
	case map[string]any:
		return []Record{Record(v)}
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Record(m))
			}
		}
		return out
	default:
		return nil
	}
}

// Decode converts the record into a typed struct using its JSON tags.
func (r Record) Decode(v any) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
