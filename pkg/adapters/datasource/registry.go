package datasource

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AdapterInfo describes a registered engine.
type AdapterInfo struct {
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// Options bound the work a connection may do.
type Options struct {
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	Logger         *zap.Logger
}

// AdapterRegistration contains info and constructors for one engine.
type AdapterRegistration struct {
	Info AdapterInfo
	// Validate checks a connection descriptor without connecting.
	Validate func(descriptor string) error
	// Open parses the descriptor and returns a connected, pinged handle.
	Open func(ctx context.Context, descriptor string, opts Options) (Connection, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// Lookup returns the registration for an engine.
func Lookup(engine string) (AdapterRegistration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[engine]
	return reg, ok
}

// RegisteredAdapters returns info for all registered adapters sorted by type.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}
