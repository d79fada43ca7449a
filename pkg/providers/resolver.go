// Package providers resolves seed entries from literal strings, environment
// variables, files, AWS SSM parameters and Kubernetes secrets.
package providers

import (
	"context"
	"fmt"
	"sort"

	"github.com/ezoidc/apiprobe/pkg/models"
	"github.com/rs/zerolog/log"
)

// Reads values by entry name, given provider-specific ids by entry name.
type ValueProvider interface {
	Read(ctx context.Context, ids map[string]string) (map[string]string, error)
}

type Saver interface {
	Save(key, value string) error
}

type Resolver struct {
	providers map[string]ValueProvider
}

func NewResolver() *Resolver {
	return &Resolver{
		providers: map[string]ValueProvider{},
	}
}

// Registers the built-in providers. namespace is the default for Kubernetes
// secret references that omit one.
func (r *Resolver) WithDefaultProviders(namespace string) *Resolver {
	r.Add("env", NewEnvProvider())
	r.Add("string", NewStringProvider())
	r.Add("file", NewFileProvider())
	r.Add("aws.ssm", NewSSMProvider())
	r.Add("kubernetes.secret", NewKubernetesProvider(namespace))
	return r
}

func (r *Resolver) Add(id string, provider ValueProvider) {
	r.providers[id] = provider
}

func (r *Resolver) ForEntry(e models.Entry) (ValueProvider, string) {
	return r.providers[e.Value.Provider], e.Value.ID
}

// Resolve reads every entry through its provider. Entries with an unknown
// provider or no value are left out. The result is sorted by name.
func (r *Resolver) Resolve(ctx context.Context, entries []models.Entry) ([]models.Entry, error) {
	byProvider := map[ValueProvider]map[string]string{}
	byName := map[string]models.Entry{}

	for _, e := range entries {
		provider, id := r.ForEntry(e)
		if provider == nil {
			log.Warn().
				Str("entry", e.Name).
				Str("provider", e.Value.Provider).
				Msg("unknown value provider")
			continue
		}

		if byProvider[provider] == nil {
			byProvider[provider] = map[string]string{}
		}

		byProvider[provider][e.Name] = id
		byName[e.Name] = e
	}

	resolved := make([]models.Entry, 0, len(entries))
	for provider, ids := range byProvider {
		values, err := provider.Read(ctx, ids)
		if err != nil {
			return nil, err
		}

		for name, value := range values {
			if _, ok := byName[name]; !ok {
				continue
			}
			resolved = append(resolved, byName[name].Resolve(value))
		}
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].Name < resolved[j].Name
	})
	return resolved, nil
}

// Import resolves entries and saves each value under its entry name.
func (r *Resolver) Import(ctx context.Context, entries []models.Entry, s Saver) ([]string, error) {
	resolved, err := r.Resolve(ctx, entries)
	if err != nil {
		return nil, err
	}

	saved := make([]string, 0, len(resolved))
	for _, e := range resolved {
		if e.Value.String == "" {
			log.Warn().Str("entry", e.Name).Msg("skipping empty value")
			continue
		}
		if err := s.Save(e.Name, e.Value.String); err != nil {
			return saved, fmt.Errorf("failed to import %s: %w", e.Name, err)
		}
		saved = append(saved, e.Name)
	}
	return saved, nil
}
