package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	valid error
}

func (s *sample) Validate() error { return s.valid }

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "lectern")
	path := writeFile(t, "name: ${SAMPLE_NAME}\n")

	s := sample{Port: 8080}
	require.NoError(t, Load(path, &s))
	assert.Equal(t, "lectern", s.Name)
	assert.Equal(t, 8080, s.Port)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeFile(t, "nmae: typo\n")

	err := Load(path, &sample{})
	assert.ErrorContains(t, err, "failed to parse")
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "")

	s := sample{Name: "default"}
	require.NoError(t, Load(path, &s))
	assert.Equal(t, "default", s.Name)
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeFile(t, "port: 1\n")
	boom := errors.New("boom")

	err := Load(path, &sample{valid: boom})
	assert.ErrorIs(t, err, boom)
}

func TestLoad_MissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "absent.yaml"), &sample{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOptional(t *testing.T) {
	s := sample{Name: "default"}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "default", s.Name)

	boom := errors.New("boom")
	_, err = LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &sample{valid: boom})
	assert.ErrorIs(t, err, boom, "defaults are still validated")

	found, err = LoadOptional(writeFile(t, "name: file\n"), &s)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "file", s.Name)
}
