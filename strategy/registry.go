package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// DefaultName is the strategy used when none is configured.
const DefaultName = "CSRT"

// legacyNames are trackers from the OpenCV 3 tracking API that the gocv
// bindings do not expose.
var legacyNames = map[string]bool{
	"BOOSTING":   true,
	"TLD":        true,
	"MEDIANFLOW": true,
	"MOSSE":      true,
}

// Registry maps strategy names to constructors. Lookups are
// case-insensitive.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of OpenCV-backed strategies.
func Default() *Registry {
	defaultOnce.Do(func() {
		r := NewRegistry()
		r.Register("MIL", newMIL)
		r.Register("GOTURN", newGOTURN)
		r.Register("KCF", newKCF)
		r.Register("CSRT", newCSRT)
		defaultRegistry = r
	})
	return defaultRegistry
}

func canonical(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Register adds or replaces a constructor.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[canonical(name)] = ctor
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup validates name and returns its constructor without building
// anything.
func (r *Registry) Lookup(name string) (Constructor, error) {
	key := canonical(name)

	r.mu.RLock()
	ctor, ok := r.constructors[key]
	r.mu.RUnlock()
	if ok {
		return ctor, nil
	}

	available := strings.Join(r.Names(), ", ")
	if legacyNames[key] {
		return nil, errors.Wrapf(ErrUnavailableStrategy, "%q (available: %s)", name, available)
	}
	return nil, errors.Wrapf(ErrUnknownStrategy, "%q (available: %s)", name, available)
}

// New constructs a fresh strategy by name.
func (r *Registry) New(name string) (Strategy, error) {
	ctor, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	s, err := ctor()
	if err != nil {
		return nil, errors.Wrapf(err, "constructing %s strategy", canonical(name))
	}
	if s == nil {
		return nil, errors.Errorf("constructor for %s returned no strategy", canonical(name))
	}
	debugMsg("STRATEGY", fmt.Sprintf("constructed %s (%s)", s.Info().Name, s.Info().Package))
	return s, nil
}
