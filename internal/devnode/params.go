package devnode

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
)

// Params is a decoded request body. Numbers may arrive as strings or as JSON
// numbers, the same way a real node accepts them.
type Params map[string]any

func (p Params) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Uint parses key as an unsigned integer, returning def when it is absent.
func (p Params) Uint(key string, def uint64) (uint64, bool) {
	if !p.Has(key) {
		return def, true
	}
	v, err := strconv.ParseUint(strings.TrimSpace(p.String(key)), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (p Params) Bool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	}
	return false
}

func (p Params) Strings(key string) []string {
	raw, ok := p[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (p Params) Amount(key string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(p.String(key), 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// orEmpty renders empty collections as "", matching node output.
func orEmpty[T any](v []T) any {
	if len(v) == 0 {
		return ""
	}
	return v
}

func orEmptyMap[V any](v map[string]V) any {
	if len(v) == 0 {
		return ""
	}
	return v
}
