package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/tripoloni/epi-manager-api/internal/domain"
	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/internal/domain/repository"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

// UseCase resuelve usuarios contra la pestaña Usuários de la obra y reenvía
// solicitudes de acceso al administrador. La verificación del credential de
// Google es del proveedor de identidad, no de este servicio.
type UseCase struct {
	reader   repository.SheetReader
	notifier repository.AccessNotifier
	log      *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(reader repository.SheetReader, notifier repository.AccessNotifier, log *logger.Logger) *UseCase {
	return &UseCase{reader: reader, notifier: notifier, log: log}
}

// ValidateUser busca el email (insensible a mayúsculas y espacios) entre los
// usuarios autorizados de la planilla. Devuelve ErrUserNotFound si no está.
func (uc *UseCase) ValidateUser(ctx context.Context, sheetID, email string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domain.NewValidationError("email", "es obligatorio")
	}

	rows, err := uc.reader.ReadTable(ctx, sheetID, repository.TabUsers)
	if err != nil {
		return nil, fmt.Errorf("leer usuarios: %w", err)
	}
	users, dropped := entity.NormalizeUsers(rows)
	for _, r := range dropped {
		uc.log.Warn().Interface("row", r).Msg("fila de usuario sin id, descartada")
	}

	for _, u := range users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// RequestAccess valida la solicitud y se la pasa al notificador. El motivo es
// opcional, igual que en el formulario original.
func (uc *UseCase) RequestAccess(ctx context.Context, req entity.AccessRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return domain.NewValidationError("name", "es obligatorio")
	case strings.TrimSpace(req.Email) == "":
		return domain.NewValidationError("email", "es obligatorio")
	case strings.TrimSpace(req.Position) == "":
		return domain.NewValidationError("position", "es obligatorio")
	}
	if req.Reason == "" {
		req.Reason = "No reason provided"
	}
	if err := uc.notifier.NotifyAccessRequest(ctx, req); err != nil {
		return fmt.Errorf("notificar solicitud de acceso: %w", err)
	}
	uc.log.Info().Str("email", req.Email).Msg("solicitud de acceso reenviada al administrador")
	return nil
}
