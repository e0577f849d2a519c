package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"

	"github.com/githarvest/githarvest/pkg/model"
)

// Supported file encodings.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func init() {
	Register("file", newFileSink)
}

// fileSink writes one record per document to a local file: JSON lines or a
// YAML document stream, optionally lz4-compressed.
type fileSink struct {
	file    *os.File
	lz4     *lz4.Writer
	out     io.Writer
	format  string
	encoded int
}

func newFileSink(cfg Config) (Sink, error) {
	switch cfg.Format {
	case FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unsupported file format: %q", cfg.Format)
	}

	file, err := os.Create(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	s := &fileSink{file: file, out: file, format: cfg.Format}

	if cfg.Compress {
		s.lz4 = lz4.NewWriter(file)
		s.out = s.lz4
	}

	return s, nil
}

// Name returns the backend name.
func (s *fileSink) Name() string {
	return "file"
}

// AddCommit appends one record to the output stream.
func (s *fileSink) AddCommit(_ context.Context, record *model.CommitRecord) error {
	switch s.format {
	case FormatJSON:
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode commit %s: %w", record.Hash, err)
		}

		data = append(data, '\n')

		if _, err := s.out.Write(data); err != nil {
			return fmt.Errorf("write commit %s: %w", record.Hash, err)
		}
	case FormatYAML:
		if s.encoded > 0 {
			if _, err := io.WriteString(s.out, "---\n"); err != nil {
				return fmt.Errorf("write document separator: %w", err)
			}
		}

		data, err := yaml.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode commit %s: %w", record.Hash, err)
		}

		if _, err := s.out.Write(data); err != nil {
			return fmt.Errorf("write commit %s: %w", record.Hash, err)
		}
	}

	s.encoded++

	return nil
}

// Close flushes the compressor, if any, and closes the file.
func (s *fileSink) Close() error {
	if s.lz4 != nil {
		if err := s.lz4.Close(); err != nil {
			_ = s.file.Close()

			return fmt.Errorf("flush lz4 stream: %w", err)
		}
	}

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}

	return nil
}
