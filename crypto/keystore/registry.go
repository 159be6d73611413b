package keystore

import (
	"fmt"
	"sort"
	"sync"
)

// FacilityFactory is a function that creates a new KeyFacility instance.
//
// Factory functions are registered with RegisterFacility and are called when
// a facility for that platform is needed.
type FacilityFactory func(opts Options) (KeyFacility, error)

var (
	// registry stores facility factories by platform identifier
	registry = make(map[string]FacilityFactory)
	// registryMu protects concurrent access to the registry
	registryMu sync.RWMutex
)

// RegisterFacility registers a facility factory for a given platform identifier.
//
// This should be called from init() functions in platform-specific implementations.
// The platform parameter should match runtime.GOOS values (e.g., "darwin", "linux", "windows").
//
// Example:
//
//	func init() {
//	    RegisterFacility("darwin", newKeychainFacility)
//	}
func RegisterFacility(platform string, factory FacilityFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[platform] = factory
}

// GetFacilityFactory retrieves a facility factory for the given platform.
//
// Returns an error if no factory is registered for the platform.
func GetFacilityFactory(platform string) (FacilityFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[platform]
	if !ok {
		return nil, fmt.Errorf("no key facility registered for platform: %s", platform)
	}
	return factory, nil
}

// ListRegisteredPlatforms returns all registered platform identifiers, sorted.
func ListRegisteredPlatforms() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	platforms := make([]string, 0, len(registry))
	for platform := range registry {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)
	return platforms
}
