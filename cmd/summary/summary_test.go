package summary

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exodash/exodash/internal/aggregate"
	"github.com/exodash/exodash/internal/classify"
)

func sample() aggregate.Summary {
	gas := aggregate.Entry{Category: classify.GasGiant, Label: "Gas Giant", Count: 3, Share: 75}
	ice := aggregate.Entry{Category: classify.IceGiant, Label: "Ice Giant", Count: 1, Share: 25}
	return aggregate.Summary{
		Method:  "Transit",
		Total:   5,
		Entries: []aggregate.Entry{gas, ice, {Category: classify.Unclassified, Label: "Unclassified", Count: 1}},
		Chart:   []aggregate.Entry{gas, ice},
	}
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), FormatTable))

	out := buf.String()
	assert.Contains(t, out, "Method: Transit")
	assert.Regexp(t, `Gas Giant\s+3\s+75\.0%`, out)
	assert.Regexp(t, `Unclassified\s+1\s+-`, out)
	assert.Regexp(t, `Total\s+5`, out)
	assert.Contains(t, out, "In Earth masses and Earth radii")
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), FormatJSON))

	var got aggregate.Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 5, got.Total)
	assert.Len(t, got.Chart, 2)
}

func TestWriteUnknownFormat(t *testing.T) {
	t.Parallel()

	require.Error(t, Write(&bytes.Buffer{}, sample(), "xml"))
}
