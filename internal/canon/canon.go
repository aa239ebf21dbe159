// Package canon produces deterministic JSON for transcripts, golden files,
// and stored document bodies.
//
// The encoding follows RFC 8785 where it matters for byte-stable output:
// object keys are sorted by UTF-16 code units, strings are NFC normalized,
// HTML characters are not escaped, and U+2028/U+2029 stay literal. Unlike a
// hashing-grade canonicalizer it accepts null and floats, since rendered
// intent fields and results may legitimately contain both.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Marshal renders v as deterministic JSON.
//
// Strings, bools, integers, floats, []any, and map[string]any are encoded
// directly. Other slice and string-keyed map types are handled reflectively.
// Anything else falls back to encoding/json, which is deterministic for
// struct types.
func Marshal(v any) ([]byte, error) {
	return marshal(v)
}

func marshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case string:
		return marshalString(val)
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int8:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int16:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int32:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int64:
		return strconv.AppendInt(nil, val, 10), nil
	case uint:
		return strconv.AppendUint(nil, uint64(val), 10), nil
	case uint8:
		return strconv.AppendUint(nil, uint64(val), 10), nil
	case uint16:
		return strconv.AppendUint(nil, uint64(val), 10), nil
	case uint32:
		return strconv.AppendUint(nil, uint64(val), 10), nil
	case uint64:
		return strconv.AppendUint(nil, val, 10), nil
	case float32:
		return marshalFloat(float64(val))
	case float64:
		return marshalFloat(val)
	case []byte:
		// Matches encoding/json: byte slices render as base64 strings.
		data, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return data, nil
	case []any:
		return marshalArray(val)
	case map[string]any:
		return marshalObject(val)
	}
	return marshalReflect(v)
}

// marshalReflect handles typed slices and string-keyed maps, then falls back
// to encoding/json for everything else.
func marshalReflect(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		arr := make([]any, rv.Len())
		for i := range arr {
			arr[i] = rv.Index(i).Interface()
		}
		return marshalArray(arr)
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			obj := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				obj[iter.Key().String()] = iter.Value().Interface()
			}
			return marshalObject(obj)
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return []byte("null"), nil
		}
		return marshal(rv.Elem().Interface())
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canon: %T: %w", v, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalFloat(f float64) ([]byte, error) {
	// encoding/json implements the shortest round-trip rendering and rejects
	// NaN and infinities, both of which we want here.
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("canon: float %v: %w", f, err)
	}
	return data, nil
}

// marshalString encodes a string with NFC normalization and without the HTML
// and U+2028/U+2029 escaping that encoding/json applies by default.
func marshalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	result := bytes.TrimRight(buf.Bytes(), "\n")
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators rewrites \u2028 and \u2029 escape sequences back to
// their literal characters. The scan consumes both bytes of a \\ escape, so a
// literal backslash followed by "u2028" text stays escaped.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if data[i] == '\\' && i+1 < len(data) {
			if i+6 <= len(data) && data[i+1] == 'u' && bytes.HasPrefix(data[i+2:], []byte("202")) &&
				(data[i+5] == '8' || data[i+5] == '9') {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 6
				continue
			}
			out = append(out, data[i], data[i+1])
			i += 2
			continue
		}
		out = append(out, data[i])
		i++
	}
	return out
}

func marshalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshal(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalObject(obj map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	keys := sortedKeys(obj)
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshal(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// sortedKeys returns keys in UTF-16 code unit order per RFC 8785.
// Go's sort.Strings compares UTF-8 bytes, which orders some key sets
// differently.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
