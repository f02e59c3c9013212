// Package tokens provides tiktoken-based token estimation for providers that
// do not report usage themselves (and for the mock model).
package tokens

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	once  sync.Once
	codec tokenizer.Codec
)

func load() tokenizer.Codec {
	once.Do(func() {
		// Claude and most hosted models tokenize close enough to the GPT-4
		// encoding for accounting purposes.
		c, err := tokenizer.ForModel(tokenizer.GPT4)
		if err == nil {
			codec = c
		}
	})
	return codec
}

// Count returns the estimated number of tokens in text. It falls back to a
// character based estimate (4 chars ≈ 1 token) if the codec is unavailable.
func Count(text string) int {
	if text == "" {
		return 0
	}
	c := load()
	if c == nil {
		return estimate(text)
	}
	n, err := c.Count(text)
	if err != nil {
		return estimate(text)
	}
	return n
}

func estimate(text string) int {
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}
