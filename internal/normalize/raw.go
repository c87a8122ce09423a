package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// isoLayout matches what the portal API emits: UTC, millisecond precision.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Raw is a decoded JSON object of unknown shape
type Raw map[string]any

func asRaw(v any) Raw {
	switch m := v.(type) {
	case Raw:
		return m
	case map[string]any:
		return Raw(m)
	}
	return Raw{}
}

// path addresses a value through nested objects, one key per level
type path []string

func at(keys ...string) path {
	return keys
}

// get walks p and reports whether a non-null value sits at its end.
func (r Raw) get(p path) (any, bool) {
	var cur any = map[string]any(r)
	for _, key := range p {
		obj, ok := cur.(map[string]any)
		if !ok {
			if rr, isRaw := cur.(Raw); isRaw {
				obj, ok = rr, true
			}
		}
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// str returns the first accessor in paths that yields a non-empty scalar.
func (r Raw) str(paths ...path) string {
	for _, p := range paths {
		if v, ok := r.get(p); ok {
			if s := scalarString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// num returns the first accessor in paths that yields a number, else 0.
func (r Raw) num(paths ...path) float64 {
	for _, p := range paths {
		if v, ok := r.get(p); ok {
			if f, ok := number(v); ok {
				return f
			}
		}
	}
	return 0
}

func (r Raw) truthy(p path) bool {
	v, ok := r.get(p)
	return ok && truthy(v)
}

func (r Raw) list(p path) []any {
	v, ok := r.get(p)
	if !ok {
		return nil
	}
	items, _ := v.([]any)
	return items
}

func (r Raw) obj(p path) (Raw, bool) {
	v, ok := r.get(p)
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case map[string]any:
		return Raw(m), true
	case Raw:
		return m, true
	}
	return nil, false
}

// timestamp returns the first accessor in paths that yields a time,
// falling back to now.
func (r Raw) timestamp(now time.Time, paths ...path) string {
	for _, p := range paths {
		v, ok := r.get(p)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case time.Time:
			return formatTime(t)
		default:
			// epoch milliseconds
			if ms, ok := number(v); ok && ms > 0 {
				return formatTime(time.UnixMilli(int64(ms)))
			}
		}
	}
	return formatTime(now)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// scalarString stringifies ids and text. Objects yield "" unless they
// carry a Mongo extended-JSON ObjectID.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case primitive.ObjectID:
		if t.IsZero() {
			return ""
		}
		return t.Hex()
	case map[string]any:
		return objectIDHex(t)
	case Raw:
		return objectIDHex(t)
	}
	return ""
}

func objectIDHex(m map[string]any) string {
	s, ok := m["$oid"].(string)
	if !ok {
		return ""
	}
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return oid.Hex()
}

func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// truthy follows JSON-client truthiness: zero, "", false and null are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number, float64, float32, int, int64:
		f, ok := number(t)
		return ok && f != 0
	}
	return true
}
