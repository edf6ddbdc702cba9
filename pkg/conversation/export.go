package conversation

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatYAML ExportFormat = "yaml"
)

// FormatFromFilename picks the export format from a file extension, defaulting
// to JSON.
func FormatFromFilename(filename string) ExportFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return ExportFormatYAML
	default:
		return ExportFormatJSON
	}
}

// Export writes the whole transcript, system message included.
func (s *Store) Export(w io.Writer, format ExportFormat) error {
	msgs := s.Messages()
	switch format {
	case ExportFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(msgs)
	case ExportFormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(msgs); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return errors.Errorf("unsupported export format %q", format)
	}
}

func (s *Store) ExportToFile(filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "could not create %s", dir)
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", filename)
	}

	format := FormatFromFilename(filename)
	return errors.Wrapf(writeAndClose(f, func(w io.Writer) error {
		return s.Export(w, format)
	}), "could not export to %s", filename)
}

// writeAndClose always closes wc. A close error is returned when the write
// itself succeeded, since buffered data may not have been flushed.
func writeAndClose(wc io.WriteCloser, write func(w io.Writer) error) error {
	if err := write(wc); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}
