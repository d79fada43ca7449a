package providers

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Reads values from files, without the trailing line break
type FileProvider struct{}

func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

func (p *FileProvider) Read(ctx context.Context, ids map[string]string) (map[string]string, error) {
	result := make(map[string]string)
	for name, path := range ids {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("entry", name).Str("file", path).Msg("failed to read file")
			continue
		}
		result[name] = strings.TrimRight(string(content), "\r\n")
	}
	return result, nil
}
