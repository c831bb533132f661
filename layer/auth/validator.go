package auth

import (
	"sync"

	"weft/werror"
)

// Validator is a Store backed by an in-memory set of keys, matching
// the teacher's APIKeyValidator.
type Validator struct {
	mu   sync.RWMutex
	keys map[string]*Info
}

// NewValidator builds a Validator seeded with keys.
func NewValidator(keys []*Info) *Validator {
	m := make(map[string]*Info, len(keys))
	for _, k := range keys {
		m[k.Key] = k
	}
	return &Validator{keys: m}
}

// Validate implements Store.
func (v *Validator) Validate(key string) (*Info, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	info, ok := v.keys[key]
	if !ok {
		return nil, werror.New(werror.KindConfigInvalid, "auth: invalid API key")
	}
	if !info.Enabled {
		return nil, werror.New(werror.KindConfigInvalid, "auth: API key disabled")
	}
	return info, nil
}

// List implements Store.
func (v *Validator) List() []*Info {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]*Info, 0, len(v.keys))
	for _, k := range v.keys {
		out = append(out, k)
	}
	return out
}

// Add registers or replaces a key.
func (v *Validator) Add(info *Info) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[info.Key] = info
}

// Remove deletes a key.
func (v *Validator) Remove(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.keys, key)
}
