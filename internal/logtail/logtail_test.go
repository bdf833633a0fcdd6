package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFileIsEmpty(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "missing.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestFormatLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty line",
			input:    "",
			expected: "",
		},
		{
			name:     "console line passes through",
			input:    "2024-03-10T15:00:00Z INF signed in profile_type=driver",
			expected: "2024-03-10T15:00:00Z INF signed in profile_type=driver",
		},
		{
			name:     "broken json passes through",
			input:    `{"level":"info"`,
			expected: `{"level":"info"`,
		},
		{
			name:     "warn with fields in Brasilia time",
			input:    `{"level":"warn","service":"parkhub-tui","version":"0.1.0","consecutive_failures":2,"error":"execute request: dial tcp: connection refused","time":"2024-03-10T15:00:00Z","message":"refresh failed"}`,
			expected: `10/03/2024 12:00 WRN refresh failed consecutive_failures=2 error="execute request: dial tcp: connection refused"`,
		},
		{
			name:     "no time",
			input:    `{"level":"debug","message":"page loaded","skip":10}`,
			expected: "DBG page loaded skip=10",
		},
		{
			name:     "unknown level",
			input:    `{"message":"odd"}`,
			expected: "??? odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatLine(tt.input)
			if result != tt.expected {
				t.Errorf("FormatLine() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestFormatLines(t *testing.T) {
	input := []string{
		`{"level":"info","time":"2024-03-10T02:30:00Z","message":"signed in"}`,
		"plain text",
	}

	expected := []string{
		"09/03/2024 23:30 INF signed in",
		"plain text",
	}

	result := FormatLines(input)

	if len(result) != len(expected) {
		t.Errorf("FormatLines() returned %d lines, want %d", len(result), len(expected))
	}

	for i, line := range result {
		if line != expected[i] {
			t.Errorf("FormatLines()[%d] = %q, want %q", i, line, expected[i])
		}
	}
	if FormatLines(nil) != nil {
		t.Errorf("FormatLines(nil) should be nil")
	}
}

func TestParseLine_Fields(t *testing.T) {
	rec, ok := ParseLine(`{"level":"error","plate":"ABC1234","lot":3,"message":"exit failed"}`)
	if !ok {
		t.Fatalf("ParseLine ok = false, want true")
	}
	want := []Field{{Key: "lot", Value: "3"}, {Key: "plate", Value: "ABC1234"}}
	if !reflect.DeepEqual(rec.Fields, want) {
		t.Errorf("Fields = %v, want %v", rec.Fields, want)
	}
	if rec.Level != "error" || rec.Message != "exit failed" {
		t.Errorf("rec = %#v", rec)
	}
}
