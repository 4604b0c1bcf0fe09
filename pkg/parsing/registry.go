package parsing

import (
	"fmt"
	"sync"
)

// registry holds Parser implementations registered by name, the same
// register-by-name-at-init-time shape as database/sql drivers or
// image.RegisterFormat: this package never implements a parser itself, so
// a production binary links one in via a blank import whose init() calls
// Register, then looks it up by name at startup.
var (
	registryMu sync.RWMutex
	registry   = map[string]Parser{}
)

// Register makes a Parser available under name. Called from a parser
// implementation's init() function. Panics on a duplicate name, the same
// contract sql.Register uses, since a duplicate registration is always a
// build-time mistake, never a runtime condition to recover from.
func Register(name string, p Parser) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("parsing: Register called twice for parser %q", name))
	}

	registry[name] = p
}

// Lookup returns the Parser registered under name, if any.
func Lookup(name string) (Parser, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[name]

	return p, ok
}

// Names returns every registered parser name, for a --help listing or a
// "no parser registered" error message.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	return names
}
