package export

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exodash/exodash/internal/dataset"
	"github.com/exodash/exodash/internal/errors"
)

const table = "pl_name,hostname,default_flag,discoverymethod,pl_orbsmax,pl_rade,pl_bmasse,pl_bmassj,pl_eqt,st_spectype,st_teff\n" +
	"Big One,Star A,1,Transit,5.2,5.0,,,,G2 V,5700\n" +
	"Superb,Star C,1,Transit,0.1,1.5,,,,,\n" +
	"Earthy,Star D,1,Imaging,1.0,0.5,0.4,,288,M3,3400\n"

func snapshot(t *testing.T) *dataset.Snapshot {
	t.Helper()
	snap, err := dataset.Parse(strings.NewReader(table))
	require.NoError(t, err)
	return snap
}

func TestWriteCSVKinds(t *testing.T) {
	t.Parallel()
	snap := snapshot(t)

	tests := []struct {
		kind      string
		method    string
		wantLines int
		wantCat   bool
	}{
		{dataset.ExportFiltered, "", 4, false},
		{dataset.ExportCategorized, "", 4, true},
		{dataset.ExportSubset, "Imaging", 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, snap, Options{Kind: tt.kind, Method: tt.method}))

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			assert.Len(t, lines, tt.wantLines)
			assert.Equal(t, tt.wantCat, strings.HasSuffix(lines[0], ",category"))
		})
	}
}

func TestWritePNGKinds(t *testing.T) {
	t.Parallel()
	snap := snapshot(t)

	for _, opts := range []Options{
		{Kind: KindPie, Method: dataset.AllMethods},
		{Kind: KindScatter, Category: "super_earth"},
	} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, snap, opts), opts.Kind)
		_, err := png.Decode(&buf)
		require.NoError(t, err, opts.Kind)
	}
}

func TestWriteRejectsBadOptions(t *testing.T) {
	t.Parallel()
	snap := snapshot(t)

	err := Write(&bytes.Buffer{}, snap, Options{Kind: dataset.ExportSubset, Method: "Astrometry"})
	assert.True(t, errors.IsNotFound(err))

	err = Write(&bytes.Buffer{}, snap, Options{Kind: KindScatter, Category: "dwarf"})
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	err = Write(&bytes.Buffer{}, snap, Options{Kind: "xlsx"})
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}
