package sync

import (
	"context"
	"sync/atomic"

	"github.com/tripoloni/epi-manager-api/internal/application/session"
	"github.com/tripoloni/epi-manager-api/internal/domain"
	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

// Engine ejecuta el ciclo de sincronización: vacía el outbox contra el
// servidor (push) y reemplaza las caches de referencia con datos frescos
// (pull). Entrega al-menos-una-vez: los ítems solo salen del outbox cuando el
// servidor confirma su id, y el servidor detecta reenvíos por ese mismo id.
type Engine struct {
	store  LocalStore
	remote RemoteGateway
	log    *logger.Logger

	// Un ciclo a la vez; los disparos re-entrantes se descartan, no se encolan.
	inProgress atomic.Bool
}

// NewEngine construye el motor de sincronización.
func NewEngine(store LocalStore, remote RemoteGateway, log *logger.Logger) *Engine {
	return &Engine{store: store, remote: remote, log: log}
}

// Report resumen de un ciclo. PushErr y PullErr registran fallos transitorios
// que no corrompen nada: con PushErr el outbox queda intacto; con PullErr las
// caches siguen sirviendo datos viejos.
type Report struct {
	Pushed       int
	Confirmed    int
	Rejected     int
	Pulled       bool
	PendingAfter int
	PushErr      error
	PullErr      error
}

// Sync corre un ciclo completo IDLE → PUSHING → PULLING → IDLE. Si ya hay un
// ciclo en curso devuelve ErrSyncInProgress sin hacer nada. Un fallo de push
// no bloquea el pull.
func (e *Engine) Sync(ctx context.Context, sess *session.Session) (*Report, error) {
	if !e.inProgress.CompareAndSwap(false, true) {
		return nil, domain.ErrSyncInProgress
	}
	defer e.inProgress.Store(false)

	rep := &Report{}

	if err := e.push(ctx, sess, rep); err != nil {
		return nil, err
	}
	e.pull(ctx, sess, rep)

	count, err := e.store.PendingCount(ctx)
	if err != nil {
		return nil, err
	}
	rep.PendingAfter = count

	e.log.Info().
		Int("pushed", rep.Pushed).
		Int("confirmed", rep.Confirmed).
		Int("rejected", rep.Rejected).
		Bool("pulled", rep.Pulled).
		Int("pending", rep.PendingAfter).
		Msg("ciclo de sincronización terminado")
	return rep, nil
}

// push envía el outbox completo en una sola petición y borra del outbox
// exactamente los ids que el servidor confirmó. Los rechazados quedan para el
// próximo ciclo. Un fallo de red deja el outbox intacto.
func (e *Engine) push(ctx context.Context, sess *session.Session, rep *Report) error {
	pending, err := e.store.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	rep.Pushed = len(pending)

	processed, rejected, err := e.remote.SyncTransactions(ctx, sess.SheetID, pending)
	if err != nil {
		e.log.Warn().Err(err).Int("pending", len(pending)).Msg("push falló, el outbox queda intacto")
		rep.PushErr = err
		return nil
	}

	if err := e.store.DequeueConfirmed(ctx, processed); err != nil {
		return err
	}
	rep.Confirmed = len(processed)
	rep.Rejected = len(rejected)
	for _, it := range rejected {
		e.log.Warn().Str("movement_id", it.ID).Str("reason", it.Error).Msg("ítem rechazado por el servidor, se reintentará")
	}
	return nil
}

// pull trae los datos de referencia y reemplaza las caches colección por
// colección. Solo se reemplaza tras una descarga exitosa: un pull fallido no
// borra nada y la interfaz sigue con datos cacheados.
func (e *Engine) pull(ctx context.Context, sess *session.Session, rep *Report) {
	payload, err := e.remote.GetData(ctx, sess.SheetID, sess.ObraFilter())
	if err != nil {
		e.log.Warn().Err(err).Msg("pull falló, se conservan las caches actuales")
		rep.PullErr = err
		return
	}

	employees, dropped := entity.NormalizeEmployees(payload.Employees)
	e.warnDropped(CollectionEmployees, dropped)
	equipment, dropped := entity.NormalizeEquipment(payload.Epis)
	e.warnDropped(CollectionEquipment, dropped)
	stock, dropped := entity.NormalizeStock(payload.Stock)
	e.warnDropped(CollectionStock, dropped)
	users, dropped := entity.NormalizeUsers(payload.Users)
	e.warnDropped(CollectionUsers, dropped)

	history := make([]entity.Row, 0, len(payload.Movements))
	var droppedHistory []entity.Row
	for _, r := range payload.Movements {
		if entity.MovementHistoryID(r) == "" {
			droppedHistory = append(droppedHistory, r)
			continue
		}
		history = append(history, r)
	}
	e.warnDropped(CollectionMovements, droppedHistory)

	if err := e.store.ReplaceEmployees(ctx, employees); err != nil {
		rep.PullErr = err
		return
	}
	if err := e.store.ReplaceEquipment(ctx, equipment); err != nil {
		rep.PullErr = err
		return
	}
	if err := e.store.ReplaceStock(ctx, stock); err != nil {
		rep.PullErr = err
		return
	}
	if err := e.store.ReplaceUsers(ctx, users); err != nil {
		rep.PullErr = err
		return
	}
	if err := e.store.ReplaceMovementHistory(ctx, history); err != nil {
		rep.PullErr = err
		return
	}
	rep.Pulled = true
}

// warnDropped deja constancia de filas de referencia descartadas por no traer
// id resoluble. Aviso, no fallo: el resto de la colección se cachea igual.
func (e *Engine) warnDropped(collection string, rows []entity.Row) {
	for _, r := range rows {
		e.log.Warn().Str("collection", collection).Interface("row", r).Msg("fila sin id descartada del cache")
	}
}
