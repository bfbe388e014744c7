package dataset

import (
	"encoding/csv"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/exodash/exodash/internal/classify"
	"github.com/exodash/exodash/internal/errors"
	"github.com/exodash/exodash/internal/logger"
)

// Archive column names.
const (
	ColDefaultFlag   = "default_flag"
	ColName          = "pl_name"
	ColRadius        = "pl_rade"
	ColMassEarth     = "pl_bmasse"
	ColMassJupiter   = "pl_bmassj"
	ColOrbitSMA      = "pl_orbsmax"
	ColEqTemp        = "pl_eqt"
	ColMethod        = "discoverymethod"
	ColHostName      = "hostname"
	ColSpectralType  = "st_spectype"
	ColStellarTeff   = "st_teff"
	ColCategory      = "category"
	ColID            = "ID"
	utf8BOM          = "\ufeff"
	commentCharacter = '#'
)

// RequiredColumns must be present in every snapshot header.
var RequiredColumns = []string{
	ColDefaultFlag, ColName, ColRadius, ColMassEarth, ColMassJupiter,
	ColOrbitSMA, ColEqTemp, ColMethod, ColHostName, ColSpectralType, ColStellarTeff,
}

// LoadFile parses the snapshot at path.
func LoadFile(path string) (*Snapshot, error) {
	start := time.Now()

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.New(err).
				Category(errors.CategoryNotFound).
				Context("operation", "load_snapshot").
				FileContext(path, 0).
				Build()
		}
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "stat_snapshot").
			FileContext(path, 0).
			Build()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "open_snapshot").
			FileContext(path, info.Size()).
			Build()
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			getLogger().Warn("Failed to close snapshot file",
				logger.String("path", path),
				logger.Error(cerr))
		}
	}()

	snap, err := Parse(f)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("operation", "parse_snapshot").
			FileContext(path, info.Size()).
			Build()
	}

	snap.source = path
	snap.modTime = info.ModTime()

	getLogger().Info("Snapshot loaded",
		logger.String("path", path),
		logger.Int("records", len(snap.records)),
		logger.Int("skipped_rows", snap.skipped),
		logger.Duration("elapsed", time.Since(start)))

	return snap, nil
}

// Parse reads an archive CSV and keeps only canonical rows. Lines starting
// with '#' are skipped. Rows with the wrong number of fields are skipped
// and counted.
func Parse(r io.Reader) (*Snapshot, error) {
	cr := csv.NewReader(r)
	cr.Comment = commentCharacter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.Newf("snapshot is empty").
			Category(errors.CategoryFileParsing).
			Build()
	}
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("line", 1).
			Build()
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		header:   header,
		columns:  cols,
		byKey:    make(map[string]int),
		loadedAt: time.Now(),
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, errors.New(err).
				Category(errors.CategoryFileParsing).
				Context("line", line).
				Build()
		}
		if len(row) != len(header) {
			snap.skipped++
			continue
		}
		if !isCanonical(row[cols[ColDefaultFlag]]) {
			continue
		}
		snap.add(newRecord(row, cols))
	}

	categories := classify.ClassifyAll(snap.records)
	for i := range snap.records {
		snap.records[i].Category = categories[i]
	}
	snap.buildMethods()

	return snap, nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Newf("snapshot header is missing required columns: %s", strings.Join(missing, ", ")).
			Category(errors.CategoryValidation).
			Context("missing_columns", missing).
			Build()
	}
	return cols, nil
}

func isCanonical(flag string) bool {
	v := parseNumber(flag)
	return Known(v) && v > 0
}

func newRecord(row []string, cols map[string]int) Record {
	name := strings.TrimSpace(row[cols[ColName]])
	return Record{
		Name:                name,
		Key:                 normalizeKey(name),
		Radius:              parseNumber(row[cols[ColRadius]]),
		MassEarth:           parseNumber(row[cols[ColMassEarth]]),
		MassJupiter:         parseNumber(row[cols[ColMassJupiter]]),
		OrbitSemiMajorAxis:  parseNumber(row[cols[ColOrbitSMA]]),
		EquilibriumTemp:     parseNumber(row[cols[ColEqTemp]]),
		DetectionMethod:     strings.TrimSpace(row[cols[ColMethod]]),
		HostName:            strings.TrimSpace(row[cols[ColHostName]]),
		StellarSpectralType: strings.TrimSpace(row[cols[ColSpectralType]]),
		StellarTeff:         parseNumber(row[cols[ColStellarTeff]]),
		row:                 row,
	}
}

// parseNumber returns NaN for empty or malformed cells.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
