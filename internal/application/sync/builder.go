package sync

import (
	"context"
	"strconv"
	"time"

	"github.com/tripoloni/epi-manager-api/internal/application/session"
	"github.com/tripoloni/epi-manager-api/internal/domain"
	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

// Builder arma un movimiento normalizado a partir de la entrada del usuario y
// lo encola en el outbox. La validación ocurre antes de tocar el almacén; un
// fallo de validación no deja rastro.
type Builder struct {
	store LocalStore
	log   *logger.Logger
	now   func() time.Time
}

// NewBuilder construye el builder.
func NewBuilder(store LocalStore, log *logger.Logger) *Builder {
	return &Builder{store: store, log: log, now: time.Now}
}

// MovementInput entrada cruda del registro de un movimiento.
type MovementInput struct {
	EmployeeID  string
	EquipmentID string
	Kind        string
	Quantity    int
	Signature   string // data-URL; obligatoria para ISSUE y RETURN
}

// Register valida la entrada, construye el movimiento (id basado en reloj,
// timestamp del cliente) y lo encola. Devuelve el total de pendientes tras
// encolar, para que el contador visible se actualice en el acto.
func (b *Builder) Register(ctx context.Context, sess *session.Session, in MovementInput) (pendingCount int, err error) {
	if err := b.validate(ctx, in); err != nil {
		return 0, err
	}

	now := b.now()
	mov := entity.PendingMovement{
		ID:          strconv.FormatInt(now.UnixNano(), 10),
		Timestamp:   now.Format(time.RFC3339),
		UserID:      sess.User.ID,
		EmployeeID:  in.EmployeeID,
		EquipmentID: in.EquipmentID,
		Kind:        in.Kind,
		Quantity:    in.Quantity,
		Signature:   in.Signature,
		SiteID:      sess.Construction,
	}

	if err := b.store.Enqueue(ctx, mov); err != nil {
		return 0, err
	}
	count, err := b.store.PendingCount(ctx)
	if err != nil {
		return 0, err
	}
	b.log.Info().
		Str("movement_id", mov.ID).
		Str("kind", mov.Kind).
		Int("pending", count).
		Msg("movimiento guardado localmente")
	return count, nil
}

// validate exige selecciones resueltas a ids conocidos (no texto libre),
// cantidad válida y firma cuando el tipo la requiere.
func (b *Builder) validate(ctx context.Context, in MovementInput) error {
	if !entity.ValidKind(in.Kind) {
		return domain.NewValidationError("kind", "no es un tipo de movimiento válido")
	}

	if in.Kind == entity.KindAdjustment {
		if in.Quantity == 0 {
			return domain.NewValidationError("quantity", "no puede ser cero")
		}
	} else if in.Quantity <= 0 {
		return domain.NewValidationError("quantity", "debe ser un entero positivo")
	}

	if entity.SignatureRequired(in.Kind) {
		if in.Signature == "" {
			return domain.NewValidationError("signature", "es obligatoria para este tipo")
		}
		if in.EmployeeID == "" {
			return domain.NewValidationError("employeeId", "es obligatorio para este tipo")
		}
	}

	if in.EquipmentID == "" {
		return domain.NewValidationError("equipmentId", "es obligatorio")
	}
	equipment, err := b.store.Equipment(ctx)
	if err != nil {
		return err
	}
	if !containsEquipment(equipment, in.EquipmentID) {
		return domain.NewValidationError("equipmentId", "no corresponde a un EPI del catálogo")
	}

	if in.EmployeeID != "" {
		employees, err := b.store.Employees(ctx)
		if err != nil {
			return err
		}
		if !containsEmployee(employees, in.EmployeeID) {
			return domain.NewValidationError("employeeId", "no corresponde a un colaborador conocido")
		}
	}
	return nil
}

func containsEquipment(items []entity.Equipment, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func containsEmployee(items []entity.Employee, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}
