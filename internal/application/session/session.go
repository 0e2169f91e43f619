package session

import (
	"context"

	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
)

// Session contexto explícito de usuario y obra. Sustituye al estado global de
// página del cliente original: se carga al arrancar, se persiste al entrar y
// se limpia al salir, y se pasa como argumento a quien lo necesite.
type Session struct {
	User         entity.User `json:"user"`
	Construction string      `json:"construction"`
	SheetID      string      `json:"sheetId"`
}

// ObraFilter devuelve el filtro de obra para el pull de datos: vacío para
// Admin (ve todas las obras), la obra de la sesión para el resto.
func (s *Session) ObraFilter() string {
	if s.User.IsAdmin() {
		return ""
	}
	return s.Construction
}

// Store ciclo de vida persistido de la sesión. Load devuelve
// domain.ErrNotFound si no hay sesión guardada.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context) (*Session, error)
	Clear(ctx context.Context) error
}
