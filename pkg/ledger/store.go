package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrStoreIO marks a store read or write failure that ends the operation.
var ErrStoreIO = errors.New("store I/O failure")

// Repository defines the operations on a single flat-file store.
type Repository interface {
	// Path returns the file backing the store
	Path() string

	// Exists checks if the store file exists
	Exists() bool

	// Read reads the header and all rows. A missing file reads as an empty table.
	Read() (Table, error)

	// Append appends rows, creating the file with its header if needed
	Append(rows ...Row) error

	// Rewrite replaces the whole store atomically
	Rewrite(header []string, rows []Row) error
}

// Store is a CSV file implementation of Repository.
type Store struct {
	path   string
	schema Schema
}

// NewStore creates a Store for the given file and schema.
func NewStore(path string, schema Schema) *Store {
	return &Store{
		path:   path,
		schema: schema,
	}
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// Schema returns the store's fixed column order.
func (s *Store) Schema() Schema {
	return s.schema
}

// Exists checks if the store file exists.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Read reads the header and every row of the store.
// Returns an empty table with the schema header if the file doesn't exist.
func (s *Store) Read() (Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Table{Header: append([]string(nil), s.schema...)}, nil
		}
		return Table{}, fmt.Errorf("failed to open store %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return Table{Header: append([]string(nil), s.schema...)}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("failed to read header from %s: %w", s.path, err)
	}
	header = normalizeHeader(header)

	table := Table{Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read row from %s: %w", s.path, err)
		}
		if isBlank(record) {
			continue
		}

		row := make(Row, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			} else {
				row[column] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// Append appends rows to the store in the column order found on disk.
// It creates the file with the schema header if it doesn't exist.
func (s *Store) Append(rows ...Row) error {
	if !s.Exists() {
		if err := s.create(); err != nil {
			return err
		}
	}

	header, err := s.readHeader()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open store for appending: %w", err)
	}
	defer f.Close()

	// Hand-edited files may lack a trailing newline.
	if err := ensureTrailingNewline(f); err != nil {
		return fmt.Errorf("failed to prepare %s for appending: %w", s.path, err)
	}

	writer := csv.NewWriter(f)
	for _, row := range rows {
		if err := writer.Write(row.values(header)); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", s.path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", s.path, err)
	}

	return nil
}

// Rewrite replaces the store content with header and rows.
// The content is written to a temporary file in the same directory which is
// then renamed over the store, so readers never observe a partial file.
func (s *Store) Rewrite(header []string, rows []Row) error {
	if len(header) == 0 {
		header = s.schema
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", s.path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", tmpPath, err)
	}
	for _, row := range rows {
		if err := writer.Write(row.values(header)); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", tmpPath, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", tmpPath, err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	committed = true

	return nil
}

// create writes a new store file containing only the schema header.
func (s *Store) create() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("failed to create store %s: %w", s.path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(s.schema); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", s.path, err)
	}
	writer.Flush()
	return writer.Error()
}

func (s *Store) readHeader() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", s.path, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err == io.EOF {
		return s.schema, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", s.path, err)
	}
	return normalizeHeader(header), nil
}

func (r Row) values(header []string) []string {
	out := make([]string, len(header))
	for i, column := range header {
		out[i] = r[column]
	}
	return out
}

func ensureTrailingNewline(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	_, err = f.Write([]byte("\n"))
	return err
}

// normalizeHeader strips a UTF-8 BOM and surrounding whitespace from column names.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, column := range header {
		if i == 0 {
			column = strings.TrimPrefix(column, "\ufeff")
		}
		out[i] = strings.TrimSpace(column)
	}
	return out
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
