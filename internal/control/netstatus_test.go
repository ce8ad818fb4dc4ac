package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRouterStatus = `r testnode ASNFZ4mrze8BI0VniavN7wEjRWc 7kNnJ8N1Mlq6q4d0YbqJMsGHCbA 2024-05-01 12:00:00 192.0.2.10 9001 0
s Fast Guard Running Stable Valid
w Bandwidth=5120
p reject 1-65535`

func TestParseRouterStatus(t *testing.T) {
	rs, err := ParseRouterStatus(sampleRouterStatus)
	require.NoError(t, err)

	assert.Equal(t, "testnode", rs.Nickname)
	assert.Equal(t, "192.0.2.10", rs.Address)
	assert.Equal(t, 9001, rs.ORPort)
	assert.Equal(t, []string{"Fast", "Guard", "Running", "Stable", "Valid"}, rs.Flags)
	assert.Equal(t, int64(5120), rs.Bandwidth)
}

func TestParseRouterStatus_CRLFAndNoFlags(t *testing.T) {
	doc := "r testnode id digest 2024-05-01 12:00:00 192.0.2.10 9001 0\r\nw Bandwidth=20\r\n"

	rs, err := ParseRouterStatus(doc)
	require.NoError(t, err)
	assert.Empty(t, rs.Flags)
	assert.Equal(t, int64(20), rs.Bandwidth)
}

func TestParseRouterStatus_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "no r line", doc: "s Running Valid\n"},
		{name: "short r line", doc: "r testnode id\ns Running\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRouterStatus(tt.doc)
			assert.Error(t, err)
		})
	}
}
