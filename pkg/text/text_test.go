package text

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_Print(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("It is just past midnight.").Print(&buf))
	assert.Equal(t, "It is just past midnight.\n", buf.String())
}

func TestText_PrintWithPrefix(t *testing.T) {
	tests := []struct {
		name     string
		prefix   any
		expected string
	}{
		{name: "string prefix", prefix: "Narrator", expected: "Narrator : Keep driving\n"},
		{name: "int prefix", prefix: 2, expected: "2 : Keep driving\n"},
		{name: "int64 prefix", prefix: int64(7), expected: "7 : Keep driving\n"},
		{name: "text prefix", prefix: New("Stop the car"), expected: "Stop the car : Keep driving\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, New("Keep driving").PrintWithPrefix(&buf, tt.prefix))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestText_Prefixed(t *testing.T) {
	assert.Equal(t, "1 : Take the first path", New("Take the first path").Prefixed(1))
	assert.True(t, New("").IsEmpty())
	assert.False(t, New("x").IsEmpty())
}
