package ingress

import (
	"github.com/google/uuid"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/storage"
)

const videoNamespace = "videos"

type implIngress struct {
	store  storage.Backend
	logger logger.Logger
	newKey func() string
}

// Option configures an Ingress.
type Option func(*implIngress)

// WithKeyFunc replaces the request key generator.
func WithKeyFunc(fn func() string) Option {
	return func(i *implIngress) {
		i.newKey = fn
	}
}

// New creates an Ingress writing uploads to store.
func New(store storage.Backend, log logger.Logger, opts ...Option) Ingress {
	i := &implIngress{
		store:  store,
		logger: log,
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}
