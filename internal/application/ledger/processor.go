package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/internal/domain/repository"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

// Processor asienta lotes de movimientos pendientes: asigna ids de asiento
// monótonos, recalcula el stock por EPI+obra y persiste asientos y stock en
// una sola pasada al final del lote.
//
// El lote entero corre dentro de la sección exclusiva del SheetTxRunner, así
// que dos sincronizaciones sobre la misma obra no se entrelazan.
type Processor struct {
	txRunner   repository.SheetTxRunner
	signatures repository.SignatureStore
	log        *logger.Logger
	now        func() time.Time
}

// NewProcessor construye el procesador de asientos.
func NewProcessor(txRunner repository.SheetTxRunner, signatures repository.SignatureStore, log *logger.Logger) *Processor {
	return &Processor{
		txRunner:   txRunner,
		signatures: signatures,
		log:        log,
		now:        time.Now,
	}
}

// Result resultado de un lote: ids confirmados y rechazos por ítem.
type Result struct {
	Processed []string
	Errors    []ItemError
}

// ItemError rechazo de un ítem del lote; el ítem queda en el outbox del cliente.
type ItemError struct {
	ID     string
	Reason string
}

// stockEntry fila de stock en el conjunto de trabajo del lote. La cantidad se
// lee una vez y cada movimiento del lote ve el total corrido del anterior.
type stockEntry struct {
	row    entity.Row
	qtyCol string
	qty    int
	dirty  bool
}

// SyncTransactions procesa el lote en orden de llegada. Un ítem inválido o
// sin fila de stock se reporta como error de ítem y el lote continúa.
// Los ids ya asentados antes se confirman sin re-aplicar su efecto.
func (p *Processor) SyncTransactions(ctx context.Context, sheetID string, batch []entity.PendingMovement) (*Result, error) {
	res := &Result{Processed: []string{}, Errors: []ItemError{}}
	if len(batch) == 0 {
		return res, nil
	}

	err := p.txRunner.Run(ctx, sheetID, func(tx repository.SheetTx) error {
		ledgerRows, err := tx.ReadTable(repository.TabMovements)
		if err != nil {
			return fmt.Errorf("leer libro de movimientos: %w", err)
		}
		stockRows, err := tx.ReadTable(repository.TabStock)
		if err != nil {
			return fmt.Errorf("leer stock: %w", err)
		}

		seq := nextSeq(ledgerRows)
		ledgered := ledgeredMovementIDs(ledgerRows)
		stock := buildStockIndex(stockRows)

		var newRows []entity.Row
		for _, mov := range batch {
			// Reenvío de un id ya asentado: confirmar sin duplicar efecto.
			if ledgered[mov.ID] {
				p.log.Debug().Str("movement_id", mov.ID).Msg("id ya asentado, se confirma sin re-aplicar")
				res.Processed = append(res.Processed, mov.ID)
				continue
			}

			if reason := validate(mov); reason != "" {
				res.Errors = append(res.Errors, ItemError{ID: mov.ID, Reason: reason})
				continue
			}

			entry := lookupStock(stock, mov.EquipmentID, mov.SiteID)
			if entry == nil {
				res.Errors = append(res.Errors, ItemError{ID: mov.ID, Reason: "equipment/stock row not found"})
				continue
			}

			// Total corrido dentro del lote: cada ítem lee el resultado del anterior.
			entry.qty += entity.StockDelta(mov.Kind, mov.Quantity)
			entry.dirty = true

			ledgerID := entity.FormatLedgerID(seq + 1)
			seq++

			newRows = append(newRows, p.buildLedgerRow(ctx, ledgerID, mov))
			ledgered[mov.ID] = true
			res.Processed = append(res.Processed, mov.ID)
		}

		// Una sola pasada de commit para stock y asientos.
		if err := commitStock(tx, stockRows, stock); err != nil {
			return err
		}
		if len(newRows) > 0 {
			if err := tx.AppendRows(repository.TabMovements, newRows); err != nil {
				return fmt.Errorf("asentar movimientos: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.log.Info().
		Str("sheet_id", sheetID).
		Int("batch", len(batch)).
		Int("processed", len(res.Processed)).
		Int("errors", len(res.Errors)).
		Msg("lote de sincronización asentado")
	return res, nil
}

// buildLedgerRow arma la fila desnormalizada del asiento. La firma se guarda
// fuera de la planilla como best-effort; si falla, se degrada a una anotación
// en la propia fila y el asiento sigue siendo válido.
func (p *Processor) buildLedgerRow(ctx context.Context, ledgerID string, mov entity.PendingMovement) entity.Row {
	origin, destination, condition := entity.DeriveLabels(mov.Kind, mov.EmployeeID)

	sigRef := ""
	if mov.Signature != "" {
		ref, err := p.signatures.Save(ctx, mov.ID, mov.Signature)
		if err != nil {
			p.log.Warn().Err(err).Str("movement_id", mov.ID).Msg("no se pudo guardar la firma")
			sigRef = "signature error: " + err.Error()
		} else {
			sigRef = ref
		}
	}

	return entity.Row{
		entity.ColLedgerID:    ledgerID,
		entity.ColMovementID:  mov.ID,
		entity.ColDate:        mov.Timestamp,
		entity.ColUser:        mov.UserID,
		entity.ColEmployeeID:  mov.EmployeeID,
		entity.ColEquipmentID: mov.EquipmentID,
		entity.ColKind:        mov.Kind,
		entity.ColQuantity:    strconv.Itoa(mov.Quantity),
		entity.ColSite:        mov.SiteID,
		entity.ColOrigin:      origin,
		entity.ColDestination: destination,
		entity.ColCondition:   condition,
		entity.ColSignature:   sigRef,
	}
}

// validate aplica las invariantes del movimiento del lado servidor.
// ADJUSTMENT admite cantidad con signo; el resto exige cantidad positiva.
func validate(mov entity.PendingMovement) string {
	if mov.ID == "" {
		return "missing movement id"
	}
	if !entity.ValidKind(mov.Kind) {
		return "invalid movement kind"
	}
	if mov.EquipmentID == "" {
		return "missing equipment id"
	}
	if mov.Kind == entity.KindAdjustment {
		if mov.Quantity == 0 {
			return "invalid quantity"
		}
	} else if mov.Quantity <= 0 {
		return "invalid quantity"
	}
	return ""
}

// nextSeq deriva el contador del último asiento existente. Sin filas previas
// o con id irreconocible arranca en cero (el primer asiento será LNC00001).
func nextSeq(ledgerRows []entity.Row) int {
	for i := len(ledgerRows) - 1; i >= 0; i-- {
		if id := ledgerRows[i].First(entity.ColLedgerID); id != "" {
			if n, ok := entity.ParseLedgerSeq(id); ok {
				return n
			}
			return 0
		}
	}
	return 0
}

// ledgeredMovementIDs ids de cliente ya presentes en el libro.
func ledgeredMovementIDs(ledgerRows []entity.Row) map[string]bool {
	out := make(map[string]bool, len(ledgerRows))
	for _, r := range ledgerRows {
		if id := r.First(entity.ColMovementID); id != "" {
			out[id] = true
		}
	}
	return out
}

// buildStockIndex indexa las filas de stock por EPI+obra. Se toleran filas
// con cantidad no numérica: quedan fuera del índice y el ítem que las toque
// se reporta como no encontrado.
func buildStockIndex(stockRows []entity.Row) map[string]*stockEntry {
	idx := make(map[string]*stockEntry, len(stockRows))
	qtyAliases := []string{entity.ColQuantity, "quantidade", "QTD", "Qtd"}
	idAliases := []string{entity.ColEquipmentID, "id_epi", "ID do EPI", "ID EPI"}

	for _, r := range stockRows {
		id := r.First(idAliases...)
		if id == "" {
			continue
		}
		qtyCol := ""
		for _, a := range qtyAliases {
			if _, ok := r[a]; ok {
				qtyCol = a
				break
			}
		}
		if qtyCol == "" {
			continue
		}
		qty, err := strconv.Atoi(r.First(qtyCol))
		if err != nil {
			continue
		}
		site := r.First(entity.ColSite, "obra")
		idx[entity.StockKey(id, site)] = &stockEntry{row: r, qtyCol: qtyCol, qty: qty}
	}
	return idx
}

// lookupStock busca primero la fila exacta EPI+obra; si la planilla no
// distingue obras, cae a la fila sin obra.
func lookupStock(idx map[string]*stockEntry, equipmentID, siteID string) *stockEntry {
	if e, ok := idx[entity.StockKey(equipmentID, siteID)]; ok {
		return e
	}
	if e, ok := idx[entity.StockKey(equipmentID, "")]; ok {
		return e
	}
	return nil
}

// commitStock vuelca los totales corridos a las filas y reescribe la pestaña
// una sola vez, solo si algo cambió.
func commitStock(tx repository.SheetTx, stockRows []entity.Row, idx map[string]*stockEntry) error {
	changed := false
	for _, e := range idx {
		if e.dirty {
			e.row[e.qtyCol] = strconv.Itoa(e.qty)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := tx.ReplaceTable(repository.TabStock, stockRows); err != nil {
		return fmt.Errorf("actualizar stock: %w", err)
	}
	return nil
}
