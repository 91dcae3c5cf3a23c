package llm

import (
	"errors"
	"fmt"
)

// ErrUnsupportedProvider is returned for a provider name the factory does not know.
type ErrUnsupportedProvider struct {
	Provider string
}

func (e ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported LLM provider: %s", e.Provider)
}

var ErrMissingAPIKey = errors.New("llm api key missing")
