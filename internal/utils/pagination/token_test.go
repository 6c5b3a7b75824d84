package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	id := "9b2e8f00-1c2d-4a5b-8e9f-001122334455"

	token := EncodeCursor(createdAt, id)

	gotTime, gotID, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.True(t, gotTime.Equal(createdAt))
	assert.Equal(t, id, gotID)
}

func TestDecodeCursor_InvalidBase64(t *testing.T) {
	_, _, err := DecodeCursor("not-base64!!!")
	assert.Error(t, err)
}

func TestDecodeCursor_MissingSeparator(t *testing.T) {
	token := EncodeMultiFieldToken("only-one-field")
	_, _, err := DecodeCursor(token)
	assert.Error(t, err)
}

func TestDecodeCursor_BadTimestamp(t *testing.T) {
	token := EncodeMultiFieldToken("yesterday", "some-id")
	_, _, err := DecodeCursor(token)
	assert.Error(t, err)
}

func TestMultiFieldTokenRoundTrip(t *testing.T) {
	fields := []string{"2026-03-14T09:26:53Z", "txn-123", "extra"}

	token := EncodeMultiFieldToken(fields...)

	got, err := DecodeMultiFieldToken(token)
	require.NoError(t, err)
	assert.Equal(t, fields, got)
}
