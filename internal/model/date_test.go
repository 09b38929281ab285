package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	t.Run("marshals as date only", func(t *testing.T) {
		d := NewDate(time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC))

		b, err := json.Marshal(d)

		require.NoError(t, err)
		assert.Equal(t, `"2026-09-01"`, string(b))
	})

	t.Run("normalizes to UTC before truncating", func(t *testing.T) {
		loc := time.FixedZone("KST", 9*60*60)
		d := NewDate(time.Date(2026, 9, 2, 1, 0, 0, 0, loc)) // 2026-09-01 16:00 UTC

		b, err := json.Marshal(d)

		require.NoError(t, err)
		assert.Equal(t, `"2026-09-01"`, string(b))
	})

	t.Run("unmarshal roundtrip", func(t *testing.T) {
		var d Date
		err := json.Unmarshal([]byte(`"2026-09-01"`), &d)

		require.NoError(t, err)
		assert.Equal(t, 2026, d.Year())
		assert.Equal(t, time.September, d.Month())
		assert.Equal(t, 1, d.Day())
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		var d Date
		err := json.Unmarshal([]byte(`"01/09/2026"`), &d)

		assert.Error(t, err)
	})
}

func TestDocumentCreatedAtWireFormat(t *testing.T) {
	doc := Document{
		ID:        "doc-uuid",
		Category:  "general",
		Title:     "Notice",
		CreatedAt: NewDate(time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)),
	}

	b, err := json.Marshal(doc)

	require.NoError(t, err)
	assert.Contains(t, string(b), `"created_at":"2026-09-01"`)
}

func TestUserCreatedAtWireFormat(t *testing.T) {
	u := User{
		ID:           "user-uuid",
		Name:         "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$12$hash",
		CreatedAt:    NewDate(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)),
	}

	b, err := json.Marshal(u)

	require.NoError(t, err)
	assert.Contains(t, string(b), `"created_at":"2026-09-01"`)
	assert.NotContains(t, string(b), "$2a$12$hash")
}

func TestDateScan(t *testing.T) {
	now := time.Now().UTC()

	var d Date
	require.NoError(t, d.Scan(now))
	assert.True(t, d.Equal(now))

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan("2026-09-01"))
}
