package datasource

import (
	"context"
	"fmt"
)

// AdapterFactory opens scoped connections to target databases.
type AdapterFactory interface {
	// Open returns a connected handle. The caller must Close it.
	Open(ctx context.Context, engine, descriptor string) (Connection, error)

	// Probe opens a connection, runs TestConnection and closes it.
	Probe(ctx context.Context, engine, descriptor string) error

	// Validate checks a descriptor without connecting.
	Validate(engine, descriptor string) error

	// ListTypes returns info for all registered adapter types.
	ListTypes() []AdapterInfo
}

type registryFactory struct {
	opts Options
}

// NewAdapterFactory returns a factory backed by the global registry.
func NewAdapterFactory(opts Options) AdapterFactory {
	return &registryFactory{opts: opts}
}

func (f *registryFactory) lookup(engine string) (AdapterRegistration, error) {
	reg, ok := Lookup(engine)
	if !ok {
		return AdapterRegistration{}, fmt.Errorf("unsupported database engine: %s", engine)
	}
	return reg, nil
}

func (f *registryFactory) Open(ctx context.Context, engine, descriptor string) (Connection, error) {
	reg, err := f.lookup(engine)
	if err != nil {
		return nil, err
	}
	return reg.Open(ctx, descriptor, f.opts)
}

func (f *registryFactory) Probe(ctx context.Context, engine, descriptor string) error {
	conn, err := f.Open(ctx, engine, descriptor)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.TestConnection(ctx)
}

func (f *registryFactory) Validate(engine, descriptor string) error {
	reg, err := f.lookup(engine)
	if err != nil {
		return err
	}
	if reg.Validate == nil {
		return nil
	}
	return reg.Validate(descriptor)
}

func (f *registryFactory) ListTypes() []AdapterInfo {
	return RegisteredAdapters()
}

var _ AdapterFactory = (*registryFactory)(nil)
