package repository

import (
	"context"

	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
)

// Pestañas de cada planilla de obra. La planilla central solo tiene Obras.
const (
	TabEmployees     = "Funcionários"
	TabUsers         = "Usuários"
	TabEquipment     = "EPIs"
	TabStock         = "Estoque Principal"
	TabMovements     = "Movimentações"
	TabConstructions = "Obras"
)

// SheetReader acceso de solo lectura a una pestaña de planilla.
// Una pestaña inexistente devuelve lista vacía, no error.
type SheetReader interface {
	ReadTable(ctx context.Context, sheetID, tab string) ([]entity.Row, error)
}

// SheetTx operaciones sobre una planilla dentro de una sección exclusiva.
type SheetTx interface {
	ReadTable(tab string) ([]entity.Row, error)
	AppendRows(tab string, rows []entity.Row) error
	ReplaceTable(tab string, rows []entity.Row) error
}

// SheetTxRunner ejecuta fn con acceso exclusivo a la planilla indicada.
// Garantiza que un lote de sincronización no se entrelace con otro sobre la
// misma obra; el candado cubre el lote entero.
type SheetTxRunner interface {
	Run(ctx context.Context, sheetID string, fn func(tx SheetTx) error) error
}
