package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAttribute(t *testing.T) {
	t.Parallel()

	var rec Record
	require.True(t, rec.SetAttribute(KeyUPC, "a897fe39b1053632"))
	require.True(t, rec.SetAttribute(KeyPriceExclTax, "£51.77"))
	require.True(t, rec.SetAttribute(KeyReviews, "0"))
	require.False(t, rec.SetAttribute("Shelf", "B2"))

	assert.Equal(t, "a897fe39b1053632", rec.UPC)
	assert.Equal(t, "£51.77", rec.PriceExclTax)
	assert.Equal(t, "0", rec.Reviews)
}

func TestRecordJSONUsesCanonicalKeys(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Record{UPC: "u", PriceInclTax: "£1.00", Rating: "Four"})
	require.NoError(t, err)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields, 10)
	assert.Equal(t, "£1.00", fields[KeyPriceInclTax])
	assert.Equal(t, "Four", fields[KeyRating])
	assert.Contains(t, fields, KeyReviews)
}

func TestResultStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusSuccess, Result{URL: "u"}.Status())
	assert.Equal(t, StatusFailed, Result{URL: "u", Err: errors.New("boom")}.Status())
}

func TestErrorsUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	fetchErr := &FetchError{URL: "http://example.com", Attempts: 3, Err: cause}
	require.ErrorIs(t, fetchErr, cause)
	assert.Contains(t, fetchErr.Error(), "after 3 attempts")

	extractErr := &ExtractionError{URL: "http://example.com/b", Err: ErrTableMissing}
	require.ErrorIs(t, extractErr, ErrTableMissing)

	var target *ExtractionError
	require.True(t, errors.As(error(extractErr), &target))

	parseErr := &ParseError{Field: KeyTax, Value: "abc", Err: cause}
	require.ErrorIs(t, parseErr, cause)
	assert.Contains(t, parseErr.Error(), `"abc"`)
}

func TestFixMojibake(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "£51.77", FixMojibake("Â£51.77"))
	assert.Equal(t, "£51.77", FixMojibake("£51.77"))
	assert.Equal(t, "In stock", FixMojibake("In stock"))
}
