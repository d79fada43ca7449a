package providers

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Reads environment variables referenced as NAME or NAME:-fallback. Unset
// variables without a fallback are left out of the result.
type EnvProvider struct {
	LookupEnv func(string) (string, bool)
}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{
		LookupEnv: os.LookupEnv,
	}
}

func (p *EnvProvider) Read(ctx context.Context, ids map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(ids))
	for name, id := range ids {
		variable, fallback, hasFallback := strings.Cut(id, ":-")

		value, ok := p.LookupEnv(variable)
		switch {
		case ok && value != "":
			values[name] = value
		case hasFallback:
			values[name] = fallback
		default:
			log.Debug().Str("entry", name).Str("env", variable).Msg("env variable is not set")
		}
	}
	return values, nil
}
