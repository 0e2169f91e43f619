package sync

import (
	"context"

	"github.com/tripoloni/epi-manager-api/internal/application/dto"
	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
)

// Colecciones del almacén local durable.
const (
	CollectionEmployees = "employees"
	CollectionEquipment = "epis"
	CollectionStock     = "stock"
	CollectionUsers     = "users"
	CollectionMovements = "movements"
	CollectionOutbox    = "pending_movements"
)

// LocalStore es el almacén durable del cliente: caches de referencia de
// reemplazo total y el outbox de movimientos pendientes. Debe sobrevivir
// reinicios del proceso.
type LocalStore interface {
	// Caches de referencia: se vacían y repueblan completos en cada pull.
	ReplaceEmployees(ctx context.Context, items []entity.Employee) error
	Employees(ctx context.Context) ([]entity.Employee, error)
	ReplaceEquipment(ctx context.Context, items []entity.Equipment) error
	Equipment(ctx context.Context) ([]entity.Equipment, error)
	ReplaceStock(ctx context.Context, items []entity.StockRecord) error
	Stock(ctx context.Context) ([]entity.StockRecord, error)
	ReplaceUsers(ctx context.Context, items []entity.User) error
	Users(ctx context.Context) ([]entity.User, error)
	ReplaceMovementHistory(ctx context.Context, rows []entity.Row) error
	MovementHistory(ctx context.Context) ([]entity.Row, error)

	// Outbox: append con rechazo de id duplicado, borrado solo por
	// confirmación explícita. Ids ausentes en DequeueConfirmed son no-ops.
	Enqueue(ctx context.Context, mov entity.PendingMovement) error
	Pending(ctx context.Context) ([]entity.PendingMovement, error)
	DequeueConfirmed(ctx context.Context, ids []string) error
	PendingCount(ctx context.Context) (int, error)
}

// RemoteGateway es el protocolo contra el servidor de planillas.
type RemoteGateway interface {
	GetConstructions(ctx context.Context) ([]entity.Construction, error)
	GetData(ctx context.Context, sheetID, obra string) (*dto.DataPayload, error)
	ValidateUser(ctx context.Context, sheetID, email string) (*entity.User, error)
	RequestAccess(ctx context.Context, req entity.AccessRequest) error
	SyncTransactions(ctx context.Context, sheetID string, batch []entity.PendingMovement) (processed []string, rejected []dto.ItemError, err error)
}
