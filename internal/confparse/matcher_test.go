package confparse

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchLine(t *testing.T) {
	re := regexp.MustCompile(`^interface (\S+)`)

	m := MatchLine(re, "interface Gi0/1")
	assert.True(t, m.Matched)
	assert.Equal(t, "interface Gi0/1", m.Text)
	require.Len(t, m.Captures, 1)
	assert.Equal(t, "Gi0/1", m.Captures[0])

	m = MatchLine(re, "hostname x")
	assert.False(t, m.Matched)
	assert.Empty(t, m.Captures)
}

func TestPatternCache_Compile(t *testing.T) {
	cache := NewPatternCache()

	re1, err := cache.Compile(`^interface`)
	require.NoError(t, err)

	re2, err := cache.Compile(`^interface`)
	require.NoError(t, err)
	assert.Same(t, re1, re2)

	_, err = cache.Compile(`[unclosed`)
	require.Error(t, err)
}

func TestPatternCache_ConcurrentAccess(t *testing.T) {
	cache := NewPatternCache()
	patterns := []string{`^a`, `^b`, `^c`, `^d`}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, p := range patterns {
				re, err := cache.Compile(p)
				assert.NoError(t, err)
				assert.NotNil(t, re)
			}
		}()
	}
	wg.Wait()
}
