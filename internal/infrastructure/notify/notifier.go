// Package notify implementa el aviso al administrador de solicitudes de
// acceso. El envío de correo real es un colaborador externo; este adaptador
// renderiza el mismo mensaje que mandaba el backend original y lo registra.
package notify

import (
	"context"
	"fmt"

	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/internal/domain/repository"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

var _ repository.AccessNotifier = (*AdminNotifier)(nil)

// AdminNotifier notificador de solicitudes de acceso.
type AdminNotifier struct {
	adminEmail string
	log        *logger.Logger
}

// NewAdminNotifier construye el notificador.
func NewAdminNotifier(adminEmail string, log *logger.Logger) *AdminNotifier {
	return &AdminNotifier{adminEmail: adminEmail, log: log}
}

// NotifyAccessRequest registra la solicitud con el mensaje que recibiría el
// administrador.
func (n *AdminNotifier) NotifyAccessRequest(ctx context.Context, req entity.AccessRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject := fmt.Sprintf("[EPI App] Solicitação de Acesso: %s", req.Name)
	body := fmt.Sprintf(
		"Nova Solicitação de Acesso:\n\nNome: %s\nEmail: %s\nCargo: %s\nMotivo: %s\n\nAcesse a planilha 'Usuários' da obra correspondente para liberar o acesso.",
		req.Name, req.Email, req.Position, req.Reason,
	)
	n.log.Info().
		Str("to", n.adminEmail).
		Str("subject", subject).
		Str("body", body).
		Msg("solicitud de acceso para el administrador")
	return nil
}
