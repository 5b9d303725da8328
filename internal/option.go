package internal

import (
	"io"

	"github.com/starford/lectern/internal/docstore"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	store  docstore.Store
	logOut io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStore uses store instead of opening the one named in the config.
// The application still closes it on exit.
func WithStore(store docstore.Store) Option {
	return func(a *application) {
		a.store = store
	}
}

// WithLogOutput redirects the JSON log. The MCP mode uses stderr because
// stdout carries the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}
