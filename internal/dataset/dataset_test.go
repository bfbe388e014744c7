package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exodash/exodash/internal/classify"
	"github.com/exodash/exodash/internal/errors"
)

const header = "pl_name,hostname,default_flag,discoverymethod,pl_orbsmax,pl_rade,pl_bmasse,pl_bmassj,pl_eqt,st_spectype,st_teff,disc_year"

// sampleCSV has two non-canonical rows, one malformed row and an archive
// comment header.
const sampleCSV = `# This file was produced by the NASA Exoplanet Archive
# COLUMN pl_name: Planet Name
` + header + `
Big One,Star A,1,Transit,5.2,5.0,,,,G2 V,5700,2001
Big One,Star A,0,Transit,5.3,4.9,,,,G2 V,5700,2001
Neptunish,Star B,1,Radial Velocity,0.9,3.0,,,,K1,5000,2005
Superb,Star C,1,Transit,0.1,1.5,,,,,,2010
Earthy,Star D,1,Imaging,1.0,0.5,0.4,,288,M3,3400,2015
Dust,Star E,1,Radial Velocity,0.01,0.05,,,,,,2020
broken,row
Ghost,Star F,0,Imaging,1,1,1,,,,,2021
`

func parseSample(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return snap
}

func TestParseKeepsCanonicalRows(t *testing.T) {
	t.Parallel()

	snap := parseSample(t)
	require.Equal(t, 5, snap.Len())
	assert.Equal(t, 1, snap.Skipped())

	records := snap.Records()
	names := make([]string, 0, len(records))
	for i, r := range records {
		assert.Equal(t, i+1, r.ID)
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Big One", "Neptunish", "Superb", "Earthy", "Dust"}, names)
}

func TestParseClassifiesRecords(t *testing.T) {
	t.Parallel()

	snap := parseSample(t)
	var got []classify.Category
	for _, r := range snap.Records() {
		got = append(got, r.Category)
	}
	want := []classify.Category{
		classify.GasGiant, classify.IceGiant, classify.SuperEarth, classify.Terrestrial, classify.Unclassified,
	}
	assert.Equal(t, want, got)
}

func TestParseUnknownNumbersAreNaN(t *testing.T) {
	t.Parallel()

	snap := parseSample(t)
	r, ok := snap.Lookup("Superb")
	require.True(t, ok)
	assert.InDelta(t, 1.5, r.Radius, 1e-9)
	assert.True(t, math.IsNaN(r.MassEarth))
	assert.True(t, math.IsNaN(r.StellarTeff))
	assert.Empty(t, r.StellarSpectralType)
}

func TestParseBadNumberDoesNotAbort(t *testing.T) {
	t.Parallel()

	data := header + "\nOdd,Star,1,Transit,abc,2.0,n/a,,,,,2000\n"
	snap, err := Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())

	r := snap.Records()[0]
	assert.True(t, math.IsNaN(r.OrbitSemiMajorAxis))
	assert.True(t, math.IsNaN(r.MassEarth))
	assert.Equal(t, classify.SuperEarth, r.Category)
}

func TestParseMissingColumns(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("pl_name,hostname\nA,B\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Contains(t, err.Error(), "default_flag")
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)
}

func TestParseStripsBOM(t *testing.T) {
	t.Parallel()

	data := "\ufeff" + header + "\nA,S,1,Transit,1,1,1,,,,,2000\n"
	snap, err := Parse(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "pl_name", snap.Header()[0])
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	snap := parseSample(t)
	for _, q := range []string{"neptunish", "NEPTUNISH", "  Neptunish  "} {
		r, ok := snap.Lookup(q)
		require.True(t, ok, q)
		assert.Equal(t, "Neptunish", r.Name)
	}

	_, ok := snap.Lookup("Ghost")
	assert.False(t, ok, "non-canonical rows are not indexed")
	_, ok = snap.Lookup("nope")
	assert.False(t, ok)
}

func TestMethodsReverseFirstAppearance(t *testing.T) {
	t.Parallel()

	snap := parseSample(t)
	assert.Equal(t, []string{"All", "Imaging", "Radial Velocity", "Transit"}, snap.Methods())
	assert.True(t, snap.HasMethod("Imaging"))
	assert.False(t, snap.HasMethod("Microlensing"))
}

func TestFilter(t *testing.T) {
	t.Parallel()

	snap := parseSample(t)
	assert.Len(t, snap.Filter(AllMethods), 5)
	assert.Len(t, snap.Filter("Radial Velocity"), 2)
	assert.Empty(t, snap.Filter("Microlensing"))

	// filtered records keep their snapshot IDs
	rv := snap.Filter("Radial Velocity")
	assert.Equal(t, 2, rv[0].ID)
	assert.Equal(t, 5, rv[1].ID)
}

func TestRecordsReturnsCopy(t *testing.T) {
	t.Parallel()

	snap := parseSample(t)
	records := snap.Records()
	records[0].Name = "changed"
	assert.Equal(t, "Big One", snap.Records()[0].Name)
}

func TestRecordJSONUsesNullForUnknown(t *testing.T) {
	t.Parallel()

	snap := parseSample(t)
	r, ok := snap.Lookup("earthy")
	require.True(t, ok)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["pl_bmassj"])
	assert.InDelta(t, 0.4, decoded["pl_bmasse"], 1e-9)
	assert.Equal(t, "terrestrial", decoded["category"])
	assert.Equal(t, "Terrestrial", decoded["category_label"])
}

func TestField(t *testing.T) {
	t.Parallel()

	snap := parseSample(t)
	r, ok := snap.Lookup("Earthy")
	require.True(t, ok)

	tests := []struct {
		column string
		want   FieldValue
	}{
		{"pl_rade", FieldValue{Column: "pl_rade", Value: 0.5, Typed: true}},
		{"pl_bmassj", FieldValue{Column: "pl_bmassj", Value: nil, Typed: true}},
		{"discoverymethod", FieldValue{Column: "discoverymethod", Value: "Imaging", Typed: true}},
		{"category", FieldValue{Column: "category", Value: "terrestrial", Typed: true}},
		{"disc_year", FieldValue{Column: "disc_year", Value: "2015"}},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got, err := snap.Field(r, tt.column)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Field(%q) mismatch (-want +got):\n%s", tt.column, diff)
			}
		})
	}

	_, err := snap.Field(r, "no_such_column")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestKnownFieldsSorted(t *testing.T) {
	t.Parallel()

	fields := KnownFields()
	assert.Contains(t, fields, "pl_rade")
	assert.Contains(t, fields, "category")
	assert.IsIncreasing(t, fields)
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteFiltered(t *testing.T) {
	t.Parallel()

	snap := parseSample(t)
	var buf bytes.Buffer
	require.NoError(t, snap.WriteFiltered(&buf))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 6)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "pl_name", rows[0][1])
	assert.Len(t, rows[0], len(snap.Header())+1)
	assert.Equal(t, []string{"1", "Big One"}, rows[1][:2])
	assert.Equal(t, "5", rows[5][0])
}

func TestWriteCategorizedAndSubset(t *testing.T) {
	t.Parallel()

	snap := parseSample(t)

	var all bytes.Buffer
	require.NoError(t, snap.WriteCategorized(&all))
	rows := readCSV(t, all.Bytes())
	last := len(rows[0]) - 1
	assert.Equal(t, "category", rows[0][last])
	assert.Equal(t, "gas_giant", rows[1][last])
	assert.Equal(t, "unclassified", rows[5][last])

	var subset bytes.Buffer
	require.NoError(t, snap.WriteSubset(&subset, "Imaging"))
	rows = readCSV(t, subset.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, "4", rows[1][0])
	assert.Equal(t, "Earthy", rows[1][1])
}

func TestExportFileAndLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "snapshot.csv")
	require.NoError(t, os.WriteFile(src, []byte(sampleCSV), 0o600))

	snap, err := LoadFile(src)
	require.NoError(t, err)
	assert.Equal(t, src, snap.Source())
	assert.False(t, snap.ModTime().IsZero())

	out := filepath.Join(dir, "exports", "confirmed_exoplanets_data.csv")
	require.NoError(t, snap.ExportFile(out, ExportFiltered))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "ID,pl_name,"))

	err = snap.ExportFile(out, "bogus")
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
