package repository

import (
	"context"
	"errors"
	"sync"
)

// KeyValueStore es el almacenamiento local del panel: pocas claves, valores JSON.
type KeyValueStore interface {
	SetItem(ctx context.Context, key string, value any) error
	// GetItem decodifica el valor en out; devuelve false si la clave no existe.
	GetItem(ctx context.Context, key string, out any) (bool, error)
	RemoveItem(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Watch(ctx context.Context) <-chan StorageEvent
}

// StorageEvent se emite en cada escritura, borrado o limpieza.
type StorageEvent struct {
	Key     string
	Value   any
	Cleared bool
}

var ErrEmptyKey = errors.New("storage key is empty")

// watchers reparte eventos a los suscriptores sin bloquear al que escribe.
type watchers struct {
	mu   sync.Mutex
	subs map[chan StorageEvent]struct{}
}

func (w *watchers) subscribe(ctx context.Context) <-chan StorageEvent {
	ch := make(chan StorageEvent, 8)
	w.mu.Lock()
	if w.subs == nil {
		w.subs = make(map[chan StorageEvent]struct{})
	}
	w.subs[ch] = struct{}{}
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.mu.Lock()
		delete(w.subs, ch)
		close(ch)
		w.mu.Unlock()
	}()
	return ch
}

func (w *watchers) publish(event StorageEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
