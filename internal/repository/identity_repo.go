package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	KeyCompanyNumber = "company_number"
	KeyUserID        = "user_id"

	DefaultCompanyNumber = "default_company"
)

// Identity son los dos valores que viajan como headers en cada llamada.
type Identity struct {
	CompanyNumber string `json:"company_number"`
	UserID        string `json:"user_id"`
}

// IdentityRepository lee y guarda la identidad local del usuario.
type IdentityRepository interface {
	Load(ctx context.Context) (Identity, error)
	Save(ctx context.Context, identity Identity) error
	// Watch emite la identidad cada vez que cambia alguna de sus claves; se cierra con ctx.
	Watch(ctx context.Context) <-chan Identity
}

type kvIdentityRepository struct {
	store KeyValueStore
	now   func() time.Time
	// mu serializa Load para que llamadas concurrentes no generen ids distintos.
	mu sync.Mutex
}

func NewIdentityRepository(store KeyValueStore) IdentityRepository {
	return &kvIdentityRepository{store: store, now: time.Now}
}

// Load devuelve la identidad guardada. Sin empresa usa default_company; sin
// usuario genera user_<unix-ms> y lo persiste para que sea estable.
func (r *kvIdentityRepository) Load(ctx context.Context) (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var identity Identity
	if _, err := r.store.GetItem(ctx, KeyCompanyNumber, &identity.CompanyNumber); err != nil {
		return Identity{}, fmt.Errorf("load company number: %w", err)
	}
	if _, err := r.store.GetItem(ctx, KeyUserID, &identity.UserID); err != nil {
		return Identity{}, fmt.Errorf("load user id: %w", err)
	}
	if strings.TrimSpace(identity.CompanyNumber) == "" {
		identity.CompanyNumber = DefaultCompanyNumber
	}
	if strings.TrimSpace(identity.UserID) == "" {
		identity.UserID = fmt.Sprintf("user_%d", r.now().UnixMilli())
		if err := r.store.SetItem(ctx, KeyUserID, identity.UserID); err != nil {
			return identity, fmt.Errorf("persist generated user id: %w", err)
		}
	}
	return identity, nil
}

func (r *kvIdentityRepository) Save(ctx context.Context, identity Identity) error {
	if v := strings.TrimSpace(identity.CompanyNumber); v != "" {
		if err := r.store.SetItem(ctx, KeyCompanyNumber, v); err != nil {
			return fmt.Errorf("save company number: %w", err)
		}
	}
	if v := strings.TrimSpace(identity.UserID); v != "" {
		if err := r.store.SetItem(ctx, KeyUserID, v); err != nil {
			return fmt.Errorf("save user id: %w", err)
		}
	}
	return nil
}

func (r *kvIdentityRepository) Watch(ctx context.Context) <-chan Identity {
	events := r.store.Watch(ctx)
	out := make(chan Identity, 1)
	go func() {
		defer close(out)
		for ev := range events {
			if !ev.Cleared && ev.Key != KeyCompanyNumber && ev.Key != KeyUserID {
				continue
			}
			identity, err := r.Load(ctx)
			if err != nil {
				continue
			}
			select {
			case out <- identity:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
