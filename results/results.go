// Package results writes extracted records to CSV or XLSX files and serves
// the listing and lookup of saved files.
package results

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// Format is the on-disk result format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrNotFound is returned by Path for a name that is not a saved result file.
var ErrNotFound = errors.New("result file not found")

// Columns is the header row of every result file.
var Columns = []string{"Instrument", "Date Recorded", "Document Type", "Grantor", "Grantee", "Image Link"}

const sheetName = "Records"

var reUnsafe = regexp.MustCompile(`[^\w\s-]`)

// Store saves result files into one directory.
type Store struct {
	dir    string
	format Format
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Store writing format files into dir. The directory is
// created on the first save.
func New(dir, format string, logger *slog.Logger) (*Store, error) {
	f := Format(strings.ToLower(strings.TrimSpace(format)))
	if f == "" {
		f = FormatCSV
	}
	if f != FormatCSV && f != FormatXLSX {
		return nil, fmt.Errorf("results: unsupported format %q", format)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, format: f, logger: logger, now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// Filename builds "<type>_<YYYYMMDD_HHMMSS>.<ext>" with punctuation removed
// from the document type and spaces turned into underscores.
func Filename(documentType string, t time.Time, ext string) string {
	safe := strings.ReplaceAll(strings.TrimSpace(reUnsafe.ReplaceAllString(documentType, "")), " ", "_")
	if safe == "" {
		safe = "documents"
	}
	return fmt.Sprintf("%s_%s.%s", safe, t.Format("20060102_150405"), ext)
}

// Save writes records to a new file and returns its name. Zero records
// write nothing and return "".
func (s *Store) Save(_ context.Context, documentType string, records []models.Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("results: create directory: %w", err)
	}

	out, name, err := s.create(Filename(documentType, s.now(), string(s.format)))
	if err != nil {
		return "", err
	}
	path := out.Name()

	switch s.format {
	case FormatXLSX:
		err = writeXLSX(out, records)
	default:
		err = writeCSV(out, records)
	}
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("results: close %s: %w", path, cerr)
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}

	s.logger.Info("results saved", "file", name, "records", len(records), "document_type", documentType)
	return name, nil
}

// create opens a file that did not exist before, appending a counter to the
// name while one of the same name is already there.
func (s *Store) create(name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 2; ; i++ {
		f, err := os.OpenFile(filepath.Join(s.dir, candidate), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, candidate, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("results: create %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
}

func row(r models.Record) []string {
	return []string{r.Instrument, r.RecordedDate, r.DocumentType, r.Grantor, r.Grantee, r.ImageLink}
}

func writeCSV(out io.Writer, records []models.Record) error {
	w := csv.NewWriter(out)
	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("results: write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(row(r)); err != nil {
			return fmt.Errorf("results: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("results: flush csv: %w", err)
	}
	return nil
}

func writeXLSX(out io.Writer, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("results: name sheet: %w", err)
	}

	write := func(col, line int, v string) {
		cell, _ := excelize.CoordinatesToCellName(col, line)
		_ = f.SetCellValue(sheetName, cell, v)
	}
	for i, h := range Columns {
		write(i+1, 1, h)
	}
	for n, r := range records {
		for i, v := range row(r) {
			write(i+1, n+2, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 16) // instrument
	_ = f.SetColWidth(sheetName, "B", "B", 14) // date
	_ = f.SetColWidth(sheetName, "C", "C", 22) // type
	_ = f.SetColWidth(sheetName, "D", "E", 36) // parties
	_ = f.SetColWidth(sheetName, "F", "F", 80) // link

	if err := f.Write(out); err != nil {
		return fmt.Errorf("results: write xlsx: %w", err)
	}
	return nil
}

// List returns the saved result files, newest first.
func (s *Store) List() ([]models.ResultFile, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []models.ResultFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("results: read directory: %w", err)
	}

	type item struct {
		file models.ResultFile
		mod  time.Time
	}
	items := make([]item, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isResultFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, item{
			file: models.ResultFile{
				Filename: e.Name(),
				SizeKB:   math.Round(float64(info.Size())/1024*100) / 100,
				Created:  info.ModTime().UTC().Format(time.RFC3339),
			},
			mod: info.ModTime(),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].mod.After(items[j].mod) })

	files := make([]models.ResultFile, len(items))
	for i, it := range items {
		files[i] = it.file
	}
	return files, nil
}

// Path resolves a bare file name to its path inside the results directory.
// Names with directory components are rejected.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", ErrNotFound
	}
	if !isResultFile(name) {
		return "", ErrNotFound
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

func isResultFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == "."+string(FormatCSV) || ext == "."+string(FormatXLSX)
}
