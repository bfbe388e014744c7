package dataset

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/exodash/exodash/internal/errors"
	"github.com/exodash/exodash/internal/fileutil"
	"github.com/exodash/exodash/internal/logger"
)

// Export kinds.
const (
	ExportFiltered    = "filtered"
	ExportCategorized = "categorized"
	ExportSubset      = "subset"
)

// WriteFiltered writes every canonical row with a leading 1-based ID column.
func (s *Snapshot) WriteFiltered(w io.Writer) error {
	return s.writeRows(w, s.records, false)
}

// WriteCategorized writes the filtered table plus a trailing category column.
func (s *Snapshot) WriteCategorized(w io.Writer) error {
	return s.writeRows(w, s.records, true)
}

// WriteSubset writes the records for method in the categorized layout.
func (s *Snapshot) WriteSubset(w io.Writer, method string) error {
	return s.writeRows(w, s.Filter(method), true)
}

func (s *Snapshot) writeRows(w io.Writer, records []Record, withCategory bool) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(s.header)+2)
	header = append(header, ColID)
	header = append(header, s.header...)
	if withCategory {
		header = append(header, ColCategory)
	}
	if err := cw.Write(header); err != nil {
		return exportError(err, "write_header")
	}

	line := make([]string, 0, len(header))
	for i := range records {
		r := &records[i]
		line = line[:0]
		line = append(line, strconv.Itoa(r.ID))
		line = append(line, r.row...)
		if withCategory {
			line = append(line, string(r.Category))
		}
		if err := cw.Write(line); err != nil {
			return exportError(err, "write_row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return exportError(err, "flush")
	}
	return nil
}

// ExportFile writes one export kind to path through a temporary file in the
// same directory, so readers never see a partial file.
func (s *Snapshot) ExportFile(path, kind string) error {
	var write func(io.Writer) error
	switch kind {
	case ExportFiltered:
		write = s.WriteFiltered
	case ExportCategorized:
		write = s.WriteCategorized
	default:
		return errors.Newf("unsupported export kind %q", kind).
			Category(errors.CategoryValidation).
			Build()
	}

	if err := fileutil.WriteAtomic(path, fileutil.DefaultFilePerm, write); err != nil {
		return err
	}

	getLogger().Debug("Export written",
		logger.String("kind", kind),
		logger.String("path", path),
		logger.Int("records", len(s.records)))
	return nil
}

func exportError(err error, op string) error {
	return errors.New(err).
		Category(errors.CategoryFileIO).
		Context("operation", op).
		Build()
}
