package models

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func init() {
	log.Logger = zerolog.Nop()
}

func TestReadSeed(t *testing.T) {
	cases := []struct {
		path     string
		expected *Seed
	}{
		{
			path:     "empty.yaml",
			expected: &Seed{},
		},
		{
			path: "seed.yaml",
			expected: &Seed{
				Namespace: "staging",
				Entries: Entries{
					{Name: "admin_email", Value: EntryValue{Provider: "string", ID: "admin@example.com"}},
					{Name: "admin_password", Value: EntryValue{Provider: "env", ID: "ADMIN_PASSWORD"}},
					{Name: "access_token", Value: EntryValue{Provider: "file", ID: "testdata/token.txt"}},
					{Name: "api_key", Value: EntryValue{Provider: "aws.ssm", ID: "/staging/api/key"}},
					{Name: "smtp_password", Value: EntryValue{Provider: "kubernetes.secret", ID: "mail/smtp/password"}},
				},
			},
		},
	}

	for _, c := range cases {
		actual, err := ReadSeed("testdata/" + c.path)
		assert.NoError(t, err, c.path)
		assert.Equal(t, c.expected, actual, c.path)
	}
}

func TestReadSeedErrors(t *testing.T) {
	_, err := ReadSeed("testdata/invalid.yaml")
	assert.ErrorContains(t, err, "only one value provider can be specified")

	_, err = ReadSeed("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestEntryResolve(t *testing.T) {
	e := Entry{
		Name: "test",
		Value: EntryValue{
			Provider: "env",
			ID:       "foo",
		},
	}
	e2 := e.Resolve("bar")

	assert.Equal(t, e.Name, e2.Name)
	assert.Equal(t, EntryValue{String: "bar"}, e2.Value)
	assert.Equal(t, "foo", e.Value.ID)
}
