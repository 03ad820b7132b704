package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Math - Midterm",
		Headers: []string{"Rank", "Student", "Score"},
		Rows: []map[string]string{
			{"Rank": "1", "Student": "Ana", "Score": "90.0"},
			{"Rank": "", "Student": "Budi", "Score": "absent"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Rank,Student,Score\n1,Ana,90.0\n,Budi,absent\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter("Rank", "Score").Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestFormat(t *testing.T) {
	assert.True(t, FormatCSV.Valid())
	assert.False(t, Format("xlsx").Valid())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}
