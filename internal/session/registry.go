package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Factory builds the controller for a new session id.
type Factory func(id string) *Controller

// Registry keeps live sessions in memory. A session expires after ttl
// without being looked up.
type Registry struct {
	cache   *cache.Cache
	factory Factory
}

func NewRegistry(ttl time.Duration, factory Factory) *Registry {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Registry{
		cache:   cache.New(ttl, cleanup),
		factory: factory,
	}
}

func (r *Registry) Create() *Controller {
	id := uuid.NewString()
	ctrl := r.factory(id)
	r.cache.SetDefault(id, ctrl)
	return ctrl
}

// Get returns the session and extends its lifetime.
func (r *Registry) Get(id string) (*Controller, bool) {
	v, found := r.cache.Get(id)
	if !found {
		return nil, false
	}
	ctrl, ok := v.(*Controller)
	if !ok {
		return nil, false
	}
	r.cache.SetDefault(id, ctrl)
	return ctrl, true
}

// Exists reports whether id is live without extending its lifetime.
func (r *Registry) Exists(id string) bool {
	_, found := r.cache.Get(id)
	return found
}

func (r *Registry) Delete(id string) bool {
	if _, found := r.cache.Get(id); !found {
		return false
	}
	r.cache.Delete(id)
	return true
}

func (r *Registry) Count() int {
	return r.cache.ItemCount()
}

// OnEvicted registers fn to run when a session expires or is deleted.
func (r *Registry) OnEvicted(fn func(id string)) {
	r.cache.OnEvicted(func(key string, _ interface{}) {
		fn(key)
	})
}
