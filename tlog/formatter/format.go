// Package formatter renders JSON log lines produced by zap as human-readable
// console lines.
//
// Formatting never drops data: malformed special keys are printed with a
// marker instead of failing the whole line.
package formatter

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap/buffer"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var bufferPool = buffer.NewPool()

var errForeign = errors.New("JSON log line without a zap timestamp")

// takeKey removes key from the message and returns it as a string
func takeKey(msg map[string]any, key string) (string, bool) {
	val, ok := msg[key]
	if !ok {
		return "", false
	}
	delete(msg, key)
	if s, ok := val.(string); ok {
		return s, true
	}
	return fmt.Sprintf("<MALFORMED %v OF TYPE %T>", val, val), true
}

func mustTakeKey(msg map[string]any, key string) string {
	if val, ok := takeKey(msg, key); ok {
		return val
	}
	return "<MISSING " + key + ">"
}

// JSONLogMessage formats one JSON log line.
//
// prevTimestamp is the timestamp of the previous line: the part of the
// current timestamp it shares is dimmed when color is on. The returned
// buffer must be freed by the caller.
func JSONLogMessage(line []byte, prevTimestamp string, color bool) (*buffer.Buffer, string, error) {
	var msg map[string]any
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, "", err
	}
	if _, ok := msg["ts"]; !ok {
		return nil, "", errForeign
	}

	level := mustTakeKey(msg, "level")
	ts := mustTakeKey(msg, "ts")
	caller := mustTakeKey(msg, "caller")
	text := mustTakeKey(msg, "msg")
	logger, _ := takeKey(msg, "logger")
	errText, hasErr := takeKey(msg, "error")
	multilineErr := hasErr && strings.Contains(errText, "\n")

	buf := bufferPool.Get()
	style := styleFor(color)

	if dateTimeRx.MatchString(ts) {
		formatTimestamp(buf, ts, style, prevTimestamp)
	} else {
		formatString(buf, ts)
	}
	buf.AppendByte(' ')
	formatLevel(buf, level, style)
	buf.AppendByte(' ')
	style(buf, messageColor, text)

	keys := maps.Keys(msg)
	slices.Sort(keys)

	var multiline []string
	for _, key := range keys {
		if s, ok := msg[key].(string); ok && strings.Contains(s, "\n") {
			multiline = append(multiline, key)
			continue
		}
		buf.AppendByte(' ')
		style(buf, fieldColor, key+"=")
		formatValue(buf, msg[key], style)
	}
	if hasErr && !multilineErr {
		buf.AppendByte(' ')
		style(buf, errorColor, "error=")
		formatString(buf, errText)
	}

	buf.AppendString(" [")
	buf.AppendString(logger)
	buf.AppendString("] (")
	style(buf, callerColor, caller)
	buf.AppendString(")\n")

	if multilineErr {
		formatMultiline(buf, "error", errText, style, errorColor)
	}
	for _, key := range multiline {
		formatMultiline(buf, key, msg[key].(string), style, fieldColor)
	}
	if multilineErr || len(multiline) > 0 {
		style(buf, fieldColor, "----------")
		buf.AppendByte('\n')
	}
	return buf, ts, nil
}

func formatLevel(buf *buffer.Buffer, level string, style styleFn) {
	switch level {
	case "debug":
		style(buf, debugColor, "DBG")
	case "info":
		style(buf, infoColor, "INF")
	case "warn":
		style(buf, warnColor, "WRN")
	default:
		abbr := strings.ToUpper(level)
		if len(abbr) > 3 {
			abbr = abbr[:3]
		}
		style(buf, errorColor, abbr)
	}
}

func formatValue(buf *buffer.Buffer, value any, style styleFn) {
	switch v := value.(type) {
	case float64:
		fmt.Fprintf(buf, "%.22g", v) // integers stay integers
	case bool:
		fmt.Fprintf(buf, "%t", v)
	case nil:
		buf.AppendString("null")
	case string:
		if dateTimeRx.MatchString(v) {
			formatTimestamp(buf, v, style, "")
		} else {
			formatString(buf, v)
		}
	case map[string]any:
		style(buf, objectPunctColor, "{")
		keys := maps.Keys(v)
		slices.Sort(keys)
		for i, key := range keys {
			if i > 0 {
				style(buf, objectPunctColor, ", ")
			}
			style(buf, subFieldColor, key)
			style(buf, objectPunctColor, ":")
			buf.AppendByte(' ')
			formatValue(buf, v[key], style)
		}
		style(buf, objectPunctColor, "}")
	case []any:
		style(buf, arrayPunctColor, "[")
		for i, elem := range v {
			if i > 0 {
				style(buf, arrayPunctColor, ", ")
			}
			formatValue(buf, elem, style)
		}
		style(buf, arrayPunctColor, "]")
	default:
		fmt.Fprintf(buf, "%v", v)
	}
}

var dateTimeRx = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})T(\d{2}:\d{2}:\d{2}(?:.\d+)?)(Z|[+-]\d{2}:?\d{2})$`)

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func splitAt(s string, pos int) (string, string) {
	pos = max(0, min(pos, len(s)))
	return s[:pos], s[pos:]
}

func formatTimestamp(buf *buffer.Buffer, ts string, style styleFn, prev string) {
	m := dateTimeRx.FindStringSubmatch(ts)
	same := commonPrefix(ts, prev)

	repeated, fresh := splitAt(m[1], same)
	style(buf, repeatedTSColor, repeated)
	buf.AppendString(fresh)
	style(buf, separatorColor, "T")

	repeated, fresh = splitAt(m[2], same-len(m[1])-1)
	style(buf, repeatedTSColor, repeated)
	buf.AppendString(fresh)

	if m[3] == "Z" {
		style(buf, separatorColor, "Z")
	} else {
		buf.AppendString(m[3])
	}
}

func formatString(buf *buffer.Buffer, s string) {
	if strings.ContainsAny(s, "\"\\") {
		fmt.Fprintf(buf, "%#q", s)
		return
	}
	fmt.Fprintf(buf, "%q", s)
}

func formatMultiline(buf *buffer.Buffer, key, value string, style styleFn, c color) {
	style(buf, c, "----- "+key+" -----")
	buf.AppendByte('\n')
	buf.AppendString(value)
	if !strings.HasSuffix(value, "\n") {
		buf.AppendByte('\n')
	}
}
