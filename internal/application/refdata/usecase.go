package refdata

import (
	"context"
	"fmt"

	"github.com/tripoloni/epi-manager-api/internal/application/dto"
	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/internal/domain/repository"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

// UseCase arma los datos de referencia que el cliente cachea: colaboradores,
// catálogo de EPIs, stock, usuarios e histórico de movimientos.
type UseCase struct {
	reader          repository.SheetReader
	registrySheetID string
	log             *logger.Logger
}

// NewUseCase construye el caso de uso. registrySheetID es la planilla central
// con la pestaña de obras.
func NewUseCase(reader repository.SheetReader, registrySheetID string, log *logger.Logger) *UseCase {
	return &UseCase{reader: reader, registrySheetID: registrySheetID, log: log}
}

// GetConstructions lista las obras del registro central. Las filas sin nombre
// resoluble se descartan con aviso.
func (uc *UseCase) GetConstructions(ctx context.Context) ([]entity.Construction, error) {
	rows, err := uc.reader.ReadTable(ctx, uc.registrySheetID, repository.TabConstructions)
	if err != nil {
		return nil, fmt.Errorf("leer registro de obras: %w", err)
	}
	out, dropped := entity.NormalizeConstructions(rows)
	for _, r := range dropped {
		uc.log.Warn().Interface("row", r).Msg("fila de obra sin nombre, descartada")
	}
	return out, nil
}

// GetData devuelve las cinco colecciones de una obra. Con obra no vacía,
// colaboradores y stock se filtran por esa obra (los usuarios Admin piden
// sin filtro y reciben todas las obras). Las filas viajan crudas; la
// normalización tipada ocurre en el cliente.
func (uc *UseCase) GetData(ctx context.Context, sheetID, obra string) (*dto.DataPayload, error) {
	employees, err := uc.reader.ReadTable(ctx, sheetID, repository.TabEmployees)
	if err != nil {
		return nil, fmt.Errorf("leer colaboradores: %w", err)
	}
	epis, err := uc.reader.ReadTable(ctx, sheetID, repository.TabEquipment)
	if err != nil {
		return nil, fmt.Errorf("leer catálogo de EPIs: %w", err)
	}
	stock, err := uc.reader.ReadTable(ctx, sheetID, repository.TabStock)
	if err != nil {
		return nil, fmt.Errorf("leer stock: %w", err)
	}
	users, err := uc.reader.ReadTable(ctx, sheetID, repository.TabUsers)
	if err != nil {
		return nil, fmt.Errorf("leer usuarios: %w", err)
	}
	movements, err := uc.reader.ReadTable(ctx, sheetID, repository.TabMovements)
	if err != nil {
		return nil, fmt.Errorf("leer histórico: %w", err)
	}

	if obra != "" {
		employees = filterBySite(employees, obra)
		stock = filterBySite(stock, obra)
	}

	return &dto.DataPayload{
		Employees: emptyIfNil(employees),
		Epis:      emptyIfNil(epis),
		Stock:     emptyIfNil(stock),
		Users:     emptyIfNil(users),
		Movements: emptyIfNil(movements),
	}, nil
}

// filterBySite conserva las filas de la obra pedida. Una fila sin columna de
// obra pasa el filtro: planillas de obra única no etiquetan cada fila.
func filterBySite(rows []entity.Row, obra string) []entity.Row {
	out := make([]entity.Row, 0, len(rows))
	for _, r := range rows {
		if site := r.First(entity.ColSite, "obra"); site == "" || site == obra {
			out = append(out, r)
		}
	}
	return out
}

func emptyIfNil(rows []entity.Row) []entity.Row {
	if rows == nil {
		return []entity.Row{}
	}
	return rows
}
