package clientrun

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/edev/sira/internal/action"
)

// runLineInFile edits a.Path according to spec.md §4.D's precedence:
// pattern, then after, then presence-check, then append. Writes are atomic
// via temp-file-plus-rename.
func runLineInFile(a *action.LineInFileAction) error {
	contents, err := os.ReadFile(a.Path)
	if err != nil {
		return &ioError{err: fmt.Errorf("reading %s: %w", a.Path, err)}
	}
	original := string(contents)
	lines := strings.Split(original, "\n")

	if linePresent(lines, a.Line, a.Indent) &&
		(a.Pattern == "" || lastMatchingIndex(lines, a.Pattern) < 0) &&
		(a.After == "" || lastMatchingIndex(lines, a.After) < 0) {
		return nil
	}

	var result string
	switch {
	case a.Pattern != "":
		idx := lastMatchingIndex(lines, a.Pattern)
		if idx < 0 {
			result = appendLine(original, a.Line)
		} else {
			result = replaceLine(lines, idx, a.Line, a.Indent)
		}
	case a.After != "":
		idx := lastMatchingIndex(lines, a.After)
		if idx < 0 {
			result = appendLine(original, a.Line)
		} else {
			line := a.Line
			if a.Indent {
				line = leadingWhitespace(lines[idx]) + strings.TrimLeft(line, " \t")
			}
			result = insertAfter(lines, idx, line)
		}
	default:
		result = appendLine(original, a.Line)
	}

	return atomicWrite(a.Path, []byte(result))
}

func linePresent(lines []string, line string, indent bool) bool {
	want := strings.TrimRight(line, " \t")
	if indent {
		want = strings.TrimLeft(want, " \t")
	}
	for _, l := range lines {
		got := strings.TrimRight(l, " \t")
		if indent {
			got = strings.TrimLeft(got, " \t")
		}
		if got == want {
			return true
		}
	}
	return false
}

func lastMatchingIndex(lines []string, needle string) int {
	idx := -1
	for i, l := range lines {
		if strings.Contains(l, needle) {
			idx = i
		}
	}
	return idx
}

func leadingWhitespace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}

func replaceLine(lines []string, idx int, line string, indent bool) string {
	out := make([]string, len(lines))
	copy(out, lines)
	if indent {
		line = leadingWhitespace(lines[idx]) + strings.TrimLeft(line, " \t")
	}
	out[idx] = line
	return strings.Join(out, "\n")
}

func insertAfter(lines []string, idx int, line string) string {
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:idx+1]...)
	out = append(out, line)
	out = append(out, lines[idx+1:]...)
	return strings.Join(out, "\n")
}

func appendLine(original, line string) string {
	if strings.TrimSpace(original) == "" {
		return line + "\n"
	}
	if !strings.HasSuffix(original, "\n") {
		original += "\n"
	}
	return original + line + "\n"
}

// atomicWrite writes data to a temp file in path's directory and renames it
// over path, so a crash mid-write never leaves a partial file in place.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".sira-line-*")
	if err != nil {
		return &ioError{err: fmt.Errorf("creating temp file in %s: %w", dir, err)}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &ioError{err: fmt.Errorf("writing temp file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &ioError{err: fmt.Errorf("closing temp file: %w", err)}
	}
	info, statErr := os.Stat(path)
	if statErr == nil {
		os.Chmod(tmpPath, info.Mode())
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &ioError{err: fmt.Errorf("renaming temp file over %s: %w", path, err)}
	}
	return nil
}
