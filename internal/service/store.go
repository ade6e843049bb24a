package service

import (
	"context"
	"sync"

	"riskadvisor/internal/metrics"
)

// Store guarda el ultimo valor de un estado y lo difunde a sus suscriptores.
// Un suscriptor nuevo recibe primero el valor actual. Los suscriptores lentos
// solo ven el valor mas reciente; el que escribe nunca se bloquea.
type Store[T any] struct {
	name  string
	mu    sync.Mutex
	value T
	subs  map[chan T]struct{}
}

func NewStore[T any](name string, initial T) *Store[T] {
	return &Store[T]{name: name, value: initial, subs: make(map[chan T]struct{})}
}

func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set reemplaza el valor (gana la ultima escritura) y lo publica.
func (s *Store[T]) Set(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.broadcast()
}

// Update aplica fn al valor actual bajo el lock y publica el resultado.
func (s *Store[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = fn(s.value)
	s.broadcast()
	return s.value
}

// Subscribe devuelve un canal con el valor actual; se cierra cuando ctx termina.
func (s *Store[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)
	s.mu.Lock()
	ch <- s.value
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	metrics.StoreSubscribers.WithLabelValues(s.name).Inc()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
		metrics.StoreSubscribers.WithLabelValues(s.name).Dec()
	}()
	return ch
}

// SubscriberCount es util para tests y para /metrics.
func (s *Store[T]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// broadcast requiere s.mu tomado.
func (s *Store[T]) broadcast() {
	metrics.StoreBroadcasts.WithLabelValues(s.name).Inc()
	for ch := range s.subs {
		select {
		case ch <- s.value:
			continue
		default:
		}
		// canal lleno: descartar el valor viejo y dejar el nuevo
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.value:
		default:
		}
	}
}
