// Package tokenizer wraps tiktoken BPE codecs for token counting,
// splitting completions into per-token stream deltas, and truncation.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Codec counts, splits, and truncates text in model tokens.
type Codec struct {
	enc tokenizer.Codec
}

var (
	mu    sync.Mutex
	cache = map[tokenizer.Encoding]*Codec{}
)

func get(encoding tokenizer.Encoding) (*Codec, error) {
	mu.Lock()
	defer mu.Unlock()
	if c, ok := cache[encoding]; ok {
		return c, nil
	}
	enc, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("load %s codec: %w", encoding, err)
	}
	c := &Codec{enc: enc}
	cache[encoding] = c
	return c, nil
}

// ForModel returns the BPE codec a model family uses: o200k_base for the
// gpt-5 family, gpt-4o, and the o-series; cl100k_base for everything else
// (gpt-4, claude, custom IDs).
func ForModel(model string) (*Codec, error) {
	for _, prefix := range []string{"gpt-5", "gpt-4o", "o1", "o3", "o4"} {
		if strings.HasPrefix(model, prefix) {
			return get(tokenizer.O200kBase)
		}
	}
	return get(tokenizer.Cl100kBase)
}

// Count returns the number of BPE tokens in text.
func (c *Codec) Count(text string) int {
	ids, _, err := c.enc.Encode(text)
	if err != nil {
		// BPE encoding of valid UTF-8 does not fail in practice; fall
		// back to a word count so callers keep working.
		return len(strings.Fields(text))
	}
	return len(ids)
}

// Split returns the token substrings of text, in order. Concatenating the
// result reproduces text exactly.
func (c *Codec) Split(text string) []string {
	_, tokens, err := c.enc.Encode(text)
	if err != nil {
		return strings.SplitAfter(text, " ")
	}
	return tokens
}

// Truncate cuts text to at most maxTokens tokens.
func (c *Codec) Truncate(text string, maxTokens int) string {
	if maxTokens < 0 {
		maxTokens = 0
	}
	ids, _, err := c.enc.Encode(text)
	if err != nil || len(ids) <= maxTokens {
		return text
	}
	out, err := c.enc.Decode(ids[:maxTokens])
	if err != nil {
		return text
	}
	return out
}
