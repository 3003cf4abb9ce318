package confparse

import (
	"regexp"
	"sync"
)

// Match is the result of applying a pattern to a single line.
type Match struct {
	Matched  bool
	Text     string   // full matched text
	Captures []string // capture groups, in order
}

// MatchLine applies a compiled pattern to one line of text. Pure function.
func MatchLine(re *regexp.Regexp, text string) Match {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return Match{}
	}
	return Match{Matched: true, Text: m[0], Captures: m[1:]}
}

// PatternCache compiles patterns once and reuses them across blocks and
// documents. Safe for concurrent use by evaluation workers.
type PatternCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

// NewPatternCache creates an empty cache.
func NewPatternCache() *PatternCache {
	return &PatternCache{compiled: make(map[string]*regexp.Regexp)}
}

// Compile returns the compiled form of pattern, caching successes.
// Compilation failures are not cached; they are rare and rule authors fix them.
func (c *PatternCache) Compile(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	re, ok := c.compiled[pattern]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.compiled[pattern] = re
	c.mu.Unlock()
	return re, nil
}
