package filter

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"

	"leadsync/internal/shared/biztime"
)

const (
	fromSuffix = "_from"
	toSuffix   = "_to"
)

// Decode reads the schema fields from values. Unknown keys are ignored and
// malformed values are dropped one field at a time, never the whole set.
func Decode(values url.Values, schema Schema) Set {
	set := make(Set)
	for _, f := range schema {
		if v, ok := decodeField(values, f); ok {
			set[f.Key] = v
		}
	}
	return set
}

// DecodeQuery parses a raw query string and decodes it. Undecodable pairs
// are skipped.
func DecodeQuery(rawQuery string, schema Schema) Set {
	// ParseQuery keeps every pair it could read alongside the first error
	values, _ := url.ParseQuery(rawQuery)
	return Decode(values, schema)
}

func decodeField(values url.Values, f Field) (any, bool) {
	switch f.Kind {
	case KindString:
		v := values.Get(f.Key)
		return v, v != ""
	case KindBool:
		switch values.Get(f.Key) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return nil, false
	case KindList:
		list := nonEmpty(values[f.Key])
		return list, len(list) > 0
	case KindNumericList:
		var list []string
		for _, raw := range values[f.Key] {
			if n, ok := normalizeNumber(raw); ok {
				list = append(list, n)
			}
		}
		return list, len(list) > 0
	case KindDateRange:
		r := Range{
			From: keepIf(values.Get(f.Key+fromSuffix), biztime.IsDate),
			To:   keepIf(values.Get(f.Key+toSuffix), biztime.IsDate),
		}
		return r, !r.IsEmpty()
	case KindNumberRange:
		r := Range{
			From: keepIf(values.Get(f.Key+fromSuffix), isNumber),
			To:   keepIf(values.Get(f.Key+toSuffix), isNumber),
		}
		return r, !r.IsEmpty()
	}
	return nil, false
}

// Encode writes the set back as query values. Lists become repeated keys,
// ranges become {key}_from and {key}_to, empty values are omitted.
func Encode(set Set, schema Schema) url.Values {
	values := make(url.Values)
	for _, f := range schema {
		v, ok := set[f.Key]
		if !ok || isEmptyValue(v) {
			continue
		}
		switch val := v.(type) {
		case []string:
			for _, item := range val {
				if item != "" {
					values.Add(f.Key, item)
				}
			}
		case Range:
			if val.From != "" {
				values.Set(f.Key+fromSuffix, val.From)
			}
			if val.To != "" {
				values.Set(f.Key+toSuffix, val.To)
			}
		case bool:
			values.Set(f.Key, strconv.FormatBool(val))
		case string:
			values.Set(f.Key, val)
		default:
			values.Set(f.Key, fmt.Sprint(val))
		}
	}
	return values
}

// Canonical encodes the set with keys and repeated values sorted, so equal
// filter sets always produce the same string.
func Canonical(set Set, schema Schema) string {
	values := Encode(set, schema)
	for k := range values {
		slices.Sort(values[k])
	}
	return values.Encode()
}

func normalizeNumber(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

func isNumber(s string) bool {
	_, ok := normalizeNumber(s)
	return ok
}

func keepIf(s string, valid func(string) bool) string {
	if s == "" || !valid(s) {
		return ""
	}
	return s
}

func nonEmpty(in []string) []string {
	var out []string
	for _, v := range in {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
