package dataio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/parquet-go/parquet-go"
)

// Format identifies a dataset encoding.
type Format string

// Supported formats, selected by file extension.
const (
	FormatJSON    Format = "json"
	FormatJSONL   Format = "jsonl"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".csv":
		return FormatCSV
	case ".parquet":
		return FormatParquet
	default:
		return ""
	}
}

// ReadRecords loads every row at path, decoded by the path's extension.
// A .json file holding objects rather than an array is read as JSON lines.
func ReadRecords[T any](ctx context.Context, store Store, path string) ([]T, error) {
	format := formatOf(path)
	if format == "" {
		return nil, &FormatError{Path: path, Message: "unsupported file extension"}
	}
	data, err := store.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	rows, err := Decode[T](format, data)
	if err != nil {
		return nil, &FormatError{Path: path, Message: fmt.Sprintf("failed to decode %s", format), Cause: err}
	}
	return rows, nil
}

// WriteRecords encodes rows by the path's extension and writes them.
func WriteRecords[T any](ctx context.Context, store Store, path string, rows []T) error {
	format := formatOf(path)
	if format == "" {
		return &FormatError{Path: path, Message: "unsupported file extension"}
	}
	data, err := Encode(format, rows)
	if err != nil {
		return &FormatError{Path: path, Message: fmt.Sprintf("failed to encode %s", format), Cause: err}
	}
	return store.Write(ctx, path, data)
}

// Decode parses data in the given format.
func Decode[T any](format Format, data []byte) ([]T, error) {
	rows := []T{}
	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 {
			return rows, nil
		}
		if trimmed[0] != '[' {
			return decodeJSONLines[T](trimmed)
		}
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	case FormatJSONL:
		return decodeJSONLines[T](data)
	case FormatCSV:
		if len(bytes.TrimSpace(data)) == 0 {
			return rows, nil
		}
		if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	case FormatParquet:
		out, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		if out == nil {
			return rows, nil
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Encode serializes rows in the given format.
func Encode[T any](format Format, rows []T) ([]byte, error) {
	if rows == nil {
		rows = []T{}
	}
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatJSONL:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for i := range rows {
			if err := enc.Encode(rows[i]); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}
		return buf.Bytes(), nil
	case FormatCSV:
		return gocsv.MarshalBytes(&rows)
	case FormatParquet:
		var buf bytes.Buffer
		if err := parquet.Write(&buf, rows); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func decodeJSONLines[T any](data []byte) ([]T, error) {
	rows := []T{}
	dec := json.NewDecoder(bytes.NewReader(data))
	for line := 1; ; line++ {
		var row T
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}
