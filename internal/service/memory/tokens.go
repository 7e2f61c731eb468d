package memory

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

// EstimateTokens counts cl100k_base tokens for the turn's token-count
// estimate. Falls back to a whitespace word count if the encoding cannot be
// loaded; the estimate is advisory, not a billing figure.
func EstimateTokens(text string) int {
	tkOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tk = enc
		}
	})

	if tk == nil {
		return len(strings.Fields(text))
	}
	return len(tk.Encode(text, nil, nil))
}
