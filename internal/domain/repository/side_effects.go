package repository

import (
	"context"

	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
)

// SignatureStore guarda la imagen de la firma fuera de la planilla y devuelve
// una referencia. Es un efecto best-effort: su fallo no invalida el asiento.
type SignatureStore interface {
	Save(ctx context.Context, movementID, dataURL string) (ref string, err error)
}

// AccessNotifier avisa al administrador de una solicitud de acceso.
// El envío real de correo es un colaborador externo.
type AccessNotifier interface {
	NotifyAccessRequest(ctx context.Context, req entity.AccessRequest) error
}
