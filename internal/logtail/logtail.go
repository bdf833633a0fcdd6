package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/parkhub/parkhub-tui/internal/brtime"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Record is one structured log line.
type Record struct {
	Time    time.Time
	Level   string
	Message string
	Fields  []Field
	Raw     string
}

// Field is an extra key/value pair of a record, in key order.
type Field struct {
	Key   string
	Value string
}

// Fields written by every record and shown elsewhere in the formatted line.
var skipped = map[string]bool{
	"time":    true,
	"level":   true,
	"message": true,
	"service": true,
	"version": true,
}

// ParseLine decodes a JSON log line. Lines that are not JSON objects come back
// with only Raw set and ok=false.
func ParseLine(line string) (Record, bool) {
	rec := Record{Raw: line}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return rec, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return rec, false
	}

	if s, ok := raw["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			rec.Time = t
		}
	}
	rec.Level, _ = raw["level"].(string)
	rec.Message, _ = raw["message"].(string)

	for key, value := range raw {
		if skipped[key] {
			continue
		}
		rec.Fields = append(rec.Fields, Field{Key: key, Value: stringify(value)})
	}
	sort.Slice(rec.Fields, func(i, j int) bool { return rec.Fields[i].Key < rec.Fields[j].Key })
	return rec, true
}

// FormatLine renders a JSON log line as
// "10/03/2024 12:00 WRN message key=value". Other lines are returned as is.
func FormatLine(line string) string {
	rec, ok := ParseLine(line)
	if !ok {
		return line
	}
	var b strings.Builder
	if !rec.Time.IsZero() {
		b.WriteString(brtime.FormatTime(rec.Time, true))
		b.WriteByte(' ')
	}
	b.WriteString(LevelTag(rec.Level))
	if rec.Message != "" {
		b.WriteByte(' ')
		b.WriteString(rec.Message)
	}
	for _, f := range rec.Fields {
		b.WriteByte(' ')
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}

// FormatLines applies FormatLine to each line.
func FormatLines(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = FormatLine(line)
	}
	return out
}

// LevelTag returns the three-letter tag of a zerolog level name.
func LevelTag(level string) string {
	switch strings.ToLower(level) {
	case "trace":
		return "TRC"
	case "debug":
		return "DBG"
	case "info":
		return "INF"
	case "warn":
		return "WRN"
	case "error":
		return "ERR"
	case "fatal":
		return "FTL"
	case "panic":
		return "PNC"
	default:
		return "???"
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case nil:
		return "null"
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}
