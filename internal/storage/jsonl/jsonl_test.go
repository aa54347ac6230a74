package jsonl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
)

func sampleRecord(upc string) catalog.Record {
	return catalog.Record{
		UPC:          upc,
		ProductType:  "Books",
		PriceExclTax: "£10.00",
		PriceInclTax: "£10.00",
		Tax:          "£0.00",
		Availability: "In stock (3 available)",
		Reviews:      "0",
		Title:        "Sharp Objects & <Friends>",
		Rating:       "Four",
		Description:  "A line with \"quotes\"",
	}
}

func TestRecordWriterRoundTrip(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "raw")
	w, err := CreateRecordWriter(dir)
	require.NoError(t, err)
	require.NoError(t, w.WriteRecord(sampleRecord("a")))
	require.NoError(t, w.WriteRecord(sampleRecord("b")))
	assert.Equal(t, 2, w.Count())
	require.NoError(t, w.Close())

	// #nosec G304 -- test reads from the controlled temp directory.
	raw, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"Price (excl. tax)":"£10.00"`)
	assert.Contains(t, lines[0], `Sharp Objects & <Friends>`)

	records, err := ReadRecords(w.Path(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []catalog.Record{sampleRecord("a"), sampleRecord("b")}, records)
}

func TestCreateRecordWriterTruncates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := CreateRecordWriter(dir)
	require.NoError(t, err)
	require.NoError(t, w.WriteRecord(sampleRecord("old")))
	require.NoError(t, w.Close())

	w, err = CreateRecordWriter(dir)
	require.NoError(t, err)
	require.NoError(t, w.WriteRecord(sampleRecord("new")))
	require.NoError(t, w.Close())

	records, err := ReadRecords(filepath.Join(dir, RawStoreFile), nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].UPC)
}

func TestReadRecordsSkipsBlankLinesAndTruncatedTail(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), RawStoreFile)
	content := `{"UPC":"a","Rating":"One"}` + "\n\n" + `{"UPC":"b","Rating":"Two"}` + "\n" + `{"UPC":"c","Rat`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	records, err := ReadRecords(path, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[1].UPC)
	assert.Equal(t, "Two", records[1].Rating)
}

func TestReadRecordsRejectsCorruptMiddleLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), RawStoreFile)
	content := `{"UPC":"a"}` + "\n" + `not json` + "\n" + `{"UPC":"b"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := ReadRecords(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadRecordsMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadRecords(filepath.Join(t.TempDir(), "absent.jsonl"), nil)
	require.Error(t, err)
}

func TestAuditLogAppendsAcrossOpens(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	log, err := OpenAuditLog(dir)
	require.NoError(t, err)
	require.NoError(t, log.Append(context.Background(), catalog.FetchOutcome{RunDatetime: ts, Status: catalog.StatusSuccess, URL: "http://x/1"}))
	require.NoError(t, log.Close())

	log, err = OpenAuditLog(dir)
	require.NoError(t, err)
	require.NoError(t, log.Append(context.Background(), catalog.FetchOutcome{RunDatetime: ts, Status: catalog.StatusFailed, URL: "http://x/2"}))
	require.NoError(t, log.Close())

	// #nosec G304 -- test reads from the controlled temp directory.
	raw, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	assert.Equal(t,
		`{"run_datetime":"2024-05-01T12:30:00Z","status":"Success","url":"http://x/1"}`+"\n"+
			`{"run_datetime":"2024-05-01T12:30:00Z","status":"failed","url":"http://x/2"}`+"\n",
		string(raw))

	outcomes, err := ReadAuditLog(log.Path(), nil)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, catalog.StatusFailed, outcomes[1].Status)
	assert.True(t, outcomes[0].RunDatetime.Equal(ts))
}
