package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tripoloni/epi-manager-api/internal/application/auth"
	"github.com/tripoloni/epi-manager-api/internal/application/ledger"
	"github.com/tripoloni/epi-manager-api/internal/application/refdata"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RefData   *refdata.UseCase
	Processor *ledger.Processor
	AuthUC    *auth.UseCase
	Log       *logger.Logger
}

// Router registra las rutas del protocolo. Un solo endpoint, al estilo del
// web app original: lecturas por query string, escrituras por cuerpo JSON.
func Router(app *fiber.App, deps RouterDeps) {
	h := NewExecHandler(deps.RefData, deps.Processor, deps.AuthUC, deps.Log)
	app.Get("/exec", h.Get)
	app.Post("/exec", h.Post)
}
