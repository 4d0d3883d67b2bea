package middleware

import (
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	formDepthLimit     = 5
	formParameterLimit = 1000
	formArrayLimit     = 20
)

var errTooManyParameters = errors.New("too many parameters")

// parseExtendedForm decodes a url-encoded body using bracket syntax:
//
//	user[name]=Ann&user[roles][]=admin&tags=a&tags=b
//	=> {"user": {"name": "Ann", "roles": ["admin"]}, "tags": ["a", "b"]}
//
// Maps whose keys are all small indexes (a[0]=x&a[1]=y) become lists.
func parseExtendedForm(raw string) (map[string]any, error) {
	result := map[string]any{}
	if raw == "" {
		return result, nil
	}

	count := 0
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		count++
		if count > formParameterLimit {
			return nil, errTooManyParameters
		}

		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key := unescapeFormText(rawKey)
		value := unescapeFormText(rawValue)
		if key == "" {
			continue
		}
		setFormValue(result, splitFormKey(key), value)
	}

	for k, v := range result {
		result[k] = compactForm(v)
	}
	return result, nil
}

// unescapeFormText decodes one key or value. Invalid escapes such as
// "%ZZ" are kept as written.
func unescapeFormText(raw string) string {
	plain := strings.ReplaceAll(raw, "+", " ")
	decoded, err := url.PathUnescape(plain)
	if err != nil {
		return plain
	}
	return decoded
}

// splitFormKey turns "a[b][]" into ["a", "b", ""]. Segments beyond the
// depth limit are kept together as one literal segment.
func splitFormKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.Contains(key[open:], "]") {
		return []string{key}
	}

	segments := []string{key[:open]}
	rest := key[open:]
	for depth := 0; depth < formDepthLimit && strings.HasPrefix(rest, "["); depth++ {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		segments = append(segments, rest[1:end])
		rest = rest[end+1:]
	}
	if rest != "" {
		segments = append(segments, rest)
	}
	return segments
}

func setFormValue(m map[string]any, segments []string, value string) {
	key := segments[0]
	rest := segments[1:]

	if len(rest) == 0 {
		m[key] = mergeFormValue(m[key], value)
		return
	}

	if rest[0] == "" {
		// a[b]=1&a[]=2 => {"a": {"b": "1", "0": "2"}}
		if obj, ok := m[key].(map[string]any); ok {
			idx := nextFormIndex(obj)
			if _, merge := obj["0"].(map[string]any); merge && len(rest) > 1 {
				idx = "0"
			}
			setFormValue(obj, append([]string{idx}, rest[1:]...), value)
			return
		}

		list := asFormList(m[key])
		if len(rest) == 1 {
			m[key] = append(list, value)
			return
		}
		// items[][name]=a&items[][qty]=1 => {"items": [{"name": "a", "qty": "1"}]}
		if len(list) > 0 {
			if first, ok := list[0].(map[string]any); ok {
				setFormValue(first, rest[1:], value)
				m[key] = list
				return
			}
		}
		child := map[string]any{}
		setFormValue(child, rest[1:], value)
		m[key] = append(list, child)
		return
	}

	child, ok := m[key].(map[string]any)
	if !ok {
		child = asFormMap(m[key])
		m[key] = child
	}
	setFormValue(child, rest, value)
}

// nextFormIndex returns the smallest index key not yet used in m.
func nextFormIndex(m map[string]any) string {
	for i := 0; ; i++ {
		k := strconv.Itoa(i)
		if _, taken := m[k]; !taken {
			return k
		}
	}
}

func mergeFormValue(existing any, value string) any {
	switch v := existing.(type) {
	case nil:
		return value
	case []any:
		return append(v, value)
	default:
		return []any{v, value}
	}
}

func asFormList(existing any) []any {
	switch v := existing.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	default:
		return []any{v}
	}
}

func asFormMap(existing any) map[string]any {
	m := map[string]any{}
	switch v := existing.(type) {
	case nil:
	case []any:
		for i, item := range v {
			m[strconv.Itoa(i)] = item
		}
	default:
		m["0"] = v
	}
	return m
}

// compactForm converts index-keyed maps into lists, recursively.
func compactForm(v any) any {
	switch node := v.(type) {
	case map[string]any:
		indexes := make([]int, 0, len(node))
		for k, child := range node {
			node[k] = compactForm(child)
			if i, err := strconv.Atoi(k); err == nil && i >= 0 && i <= formArrayLimit && strconv.Itoa(i) == k {
				indexes = append(indexes, i)
			}
		}
		if len(indexes) == 0 || len(indexes) != len(node) {
			return node
		}
		sort.Ints(indexes)
		list := make([]any, 0, len(indexes))
		for _, i := range indexes {
			list = append(list, node[strconv.Itoa(i)])
		}
		return list
	case []any:
		for i, child := range node {
			node[i] = compactForm(child)
		}
		return node
	}
	return v
}
