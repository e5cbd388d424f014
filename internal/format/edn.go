package format

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// instKeys are map keys whose RFC3339 string values are written as #inst literals.
var instKeys = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"at":        true,
	"ts":        true,
}

// WriteEDN writes v as EDN. Values go through encoding/json first so json tags decide the
// key names; JSON keys become keywords.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}

	var buf bytes.Buffer
	e := ednWriter{buf: &buf, pretty: pretty}
	e.value(x, "", 0)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

type ednWriter struct {
	buf    *bytes.Buffer
	pretty bool
}

func (e ednWriter) newline(level int) {
	if e.pretty {
		e.buf.WriteByte('\n')
		e.buf.WriteString(strings.Repeat("  ", level))
	} else {
		e.buf.WriteByte(' ')
	}
}

func (e ednWriter) value(v any, key string, level int) {
	switch t := v.(type) {
	case nil:
		e.buf.WriteString("nil")
	case bool:
		e.buf.WriteString(strconv.FormatBool(t))
	case json.Number:
		e.buf.WriteString(t.String())
	case string:
		if instKeys[key] {
			if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
				e.buf.WriteString("#inst ")
				e.buf.WriteString(strconv.Quote(ts.UTC().Format("2006-01-02T15:04:05.000Z07:00")))
				return
			}
		}
		e.buf.WriteString(strconv.Quote(t))
	case []any:
		e.buf.WriteByte('[')
		for i, it := range t {
			if i > 0 || e.pretty {
				e.newline(level + 1)
			}
			e.value(it, "", level+1)
		}
		if e.pretty && len(t) > 0 {
			e.buf.WriteByte('\n')
			e.buf.WriteString(strings.Repeat("  ", level))
		}
		e.buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 || e.pretty {
				e.newline(level + 1)
			}
			e.buf.WriteByte(':')
			e.buf.WriteString(keyword(k))
			e.buf.WriteByte(' ')
			e.value(t[k], k, level+1)
		}
		if e.pretty && len(keys) > 0 {
			e.buf.WriteByte('\n')
			e.buf.WriteString(strings.Repeat("  ", level))
		}
		e.buf.WriteByte('}')
	default:
		e.buf.WriteString(strconv.Quote("?"))
	}
}

// keyword maps a JSON key to a valid EDN keyword name.
func keyword(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "_")
	s = strings.ReplaceAll(s, " ", "-")
	if s == "" {
		return "_"
	}
	return s
}
