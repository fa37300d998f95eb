package pocketbase

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Filter replaces {:name} placeholders in expr with escaped literals from params.
//
//	Filter("name = {:name} && do_publish = {:pub}", map[string]any{"name": "O'Neil", "pub": true})
//	// name = 'O\'Neil' && do_publish = true
func Filter(expr string, params map[string]any) string {
	if len(params) == 0 {
		return expr
	}
	// Longest names first so {:tag} never clobbers {:tags}.
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	for _, k := range keys {
		expr = strings.ReplaceAll(expr, "{:"+k+"}", literal(params[k]))
	}
	return expr
}

func literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return quote(val.UTC().Format(DateLayout))
	case fmt.Stringer:
		return quote(val.String())
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return "null"
		}
		return quote(string(raw))
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
