package dbx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnixRoundTrip(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	ts := time.Date(2024, 3, 10, 8, 30, 15, 123456789, loc)

	got := FromUnix(ToUnix(ts))
	assert.True(t, ts.Equal(got))
	assert.Equal(t, time.UTC, got.Location())
}

func TestNullUnix(t *testing.T) {
	assert.False(t, ToNullUnix(nil).Valid)
	assert.Nil(t, FromNullUnix(ToNullUnix(nil)))

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := ToNullUnix(&ts)
	assert.True(t, n.Valid)
	assert.True(t, ts.Equal(*FromNullUnix(n)))
}
