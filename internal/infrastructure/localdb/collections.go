package localdb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	appsession "github.com/tripoloni/epi-manager-api/internal/application/session"
	appsync "github.com/tripoloni/epi-manager-api/internal/application/sync"
	"github.com/tripoloni/epi-manager-api/internal/domain"
	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
)

var _ appsync.LocalStore = (*Store)(nil)
var _ appsession.Store = (*Store)(nil)

// ReplaceEmployees vacía y repuebla la cache de colaboradores (clave: ID).
func (s *Store) ReplaceEmployees(_ context.Context, items []entity.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replaceCollection(s, appsync.CollectionEmployees, items, func(e entity.Employee) string { return e.ID })
}

// Employees devuelve la cache completa; vacía si nunca se pobló.
func (s *Store) Employees(_ context.Context) ([]entity.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readCollection[entity.Employee](s, appsync.CollectionEmployees)
}

// ReplaceEquipment vacía y repuebla el catálogo de EPIs (clave: ID).
func (s *Store) ReplaceEquipment(_ context.Context, items []entity.Equipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replaceCollection(s, appsync.CollectionEquipment, items, func(e entity.Equipment) string { return e.ID })
}

// Equipment devuelve el catálogo completo.
func (s *Store) Equipment(_ context.Context) ([]entity.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readCollection[entity.Equipment](s, appsync.CollectionEquipment)
}

// ReplaceStock vacía y repuebla la foto de stock (clave: id de EPI).
func (s *Store) ReplaceStock(_ context.Context, items []entity.StockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replaceCollection(s, appsync.CollectionStock, items, func(r entity.StockRecord) string { return r.EquipmentID })
}

// Stock devuelve la foto de stock completa.
func (s *Store) Stock(_ context.Context) ([]entity.StockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readCollection[entity.StockRecord](s, appsync.CollectionStock)
}

// ReplaceUsers vacía y repuebla la cache de usuarios (clave: ID).
func (s *Store) ReplaceUsers(_ context.Context, items []entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replaceCollection(s, appsync.CollectionUsers, items, func(u entity.User) string { return u.ID })
}

// Users devuelve la cache de usuarios.
func (s *Store) Users(_ context.Context) ([]entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readCollection[entity.User](s, appsync.CollectionUsers)
}

// ReplaceMovementHistory vacía y repuebla el histórico (clave: id de asiento).
func (s *Store) ReplaceMovementHistory(_ context.Context, rows []entity.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replaceCollection(s, appsync.CollectionMovements, rows, entity.MovementHistoryID)
}

// MovementHistory devuelve el histórico cacheado.
func (s *Store) MovementHistory(_ context.Context) ([]entity.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readCollection[entity.Row](s, appsync.CollectionMovements)
}

// Enqueue agrega un movimiento al final del outbox. Un id ya presente es
// ErrDuplicateKey: jamás se pisa un pendiente en silencio.
func (s *Store) Enqueue(_ context.Context, mov entity.PendingMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, err := readCollection[entity.PendingMovement](s, appsync.CollectionOutbox)
	if err != nil {
		return err
	}
	for _, p := range pending {
		if p.ID == mov.ID {
			return fmt.Errorf("%w: movimiento %s ya está en el outbox", domain.ErrDuplicateKey, mov.ID)
		}
	}
	pending = append(pending, mov)
	return s.writeFile(appsync.CollectionOutbox+".json", pending)
}

// Pending devuelve el outbox completo en orden de encolado.
func (s *Store) Pending(_ context.Context) ([]entity.PendingMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readCollection[entity.PendingMovement](s, appsync.CollectionOutbox)
}

// DequeueConfirmed borra los ids confirmados; los ausentes son no-ops.
func (s *Store) DequeueConfirmed(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, err := readCollection[entity.PendingMovement](s, appsync.CollectionOutbox)
	if err != nil {
		return err
	}
	confirmed := make(map[string]bool, len(ids))
	for _, id := range ids {
		confirmed[id] = true
	}
	remaining := pending[:0]
	for _, p := range pending {
		if !confirmed[p.ID] {
			remaining = append(remaining, p)
		}
	}
	return s.writeFile(appsync.CollectionOutbox+".json", remaining)
}

// PendingCount cantidad actual de pendientes (el contador visible en la UI).
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	pending, err := s.Pending(ctx)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

const sessionFile = "session.json"

// Save persiste la sesión activa.
func (s *Store) Save(_ context.Context, sess *appsession.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFile(sessionFile, sess)
}

// Load restaura la sesión guardada; ErrNotFound si no hay ninguna.
func (s *Store) Load(_ context.Context) (*appsession.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sess appsession.Session
	err := s.readFile(sessionFile, &sess)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Clear borra la sesión persistida (logout).
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path("session")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: borrar sesión: %v", domain.ErrStorage, err)
	}
	return nil
}
