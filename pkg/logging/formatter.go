package logging

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// SourceFormatter replaces the full caller with a short file:line field.
type SourceFormatter struct {
	Underlying logrus.Formatter
	// AddSpace appends a blank line after every entry.
	AddSpace bool
}

// Format renders a single log entry.
func (f *SourceFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry.HasCaller() {
		// e.g. x_file_source="recognizer.go:120"
		entry.Data["x_file_source"] = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	formatted, err := f.Underlying.Format(entry)
	if err != nil {
		return nil, err
	}
	if f.AddSpace {
		return append(formatted, '\n'), nil
	}
	return formatted, nil
}
