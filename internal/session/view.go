package session

import (
	"sync"

	"learning-session/internal/models"
)

// ViewController selects which workflow the presentation layer shows.
// Switching views never touches any other part of the session.
type ViewController struct {
	mu     sync.RWMutex
	active models.View
}

func NewViewController() *ViewController {
	return &ViewController{active: models.ViewUpload}
}

func (v *ViewController) Active() models.View {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.active
}

func (v *ViewController) Select(view models.View) error {
	if !isKnownView(view) {
		return models.NewValidationError("view", "Unknown view: "+string(view))
	}

	v.mu.Lock()
	v.active = view
	v.mu.Unlock()
	return nil
}

func isKnownView(view models.View) bool {
	for _, known := range models.Views {
		if view == known {
			return true
		}
	}
	return false
}
