package upload

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReaderReportsEachPercentOnce(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 200)
	var calls []int
	pr := newProgressReader(bytes.NewReader(data), int64(len(data)), func(pct int) {
		calls = append(calls, pct)
	})

	buf := make([]byte, 2) // 1% per read
	for {
		_, err := pr.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	seen := make(map[int]bool)
	last := -1
	for _, pct := range calls {
		assert.False(t, seen[pct], "percent %d reported twice", pct)
		seen[pct] = true
		assert.Greater(t, pct, last, "progress went backwards")
		last = pct
	}
	assert.Equal(t, 100, last)
}

func TestProgressReaderSkipsCoarseReads(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1000)
	var calls []int
	pr := newProgressReader(bytes.NewReader(data), int64(len(data)), func(pct int) {
		calls = append(calls, pct)
	})

	// half the file in one read: a single callback at 50
	buf := make([]byte, 500)
	_, err := pr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []int{50}, calls)
}

func TestProgressReaderClampsOverDeclaredSize(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 100)
	var last int
	pr := newProgressReader(bytes.NewReader(data), 50, func(pct int) { last = pct })

	_, err := io.Copy(io.Discard, pr)
	require.NoError(t, err)
	assert.Equal(t, 100, last)
}
