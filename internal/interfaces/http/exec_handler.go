package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tripoloni/epi-manager-api/internal/application/auth"
	"github.com/tripoloni/epi-manager-api/internal/application/dto"
	"github.com/tripoloni/epi-manager-api/internal/application/ledger"
	"github.com/tripoloni/epi-manager-api/internal/application/refdata"
	"github.com/tripoloni/epi-manager-api/internal/domain"
	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/pkg/idtoken"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

// ExecHandler atiende el endpoint único del protocolo. Compatibilidad con el
// cliente original: siempre HTTP 200 con sobre JSON; el estado va en result.
type ExecHandler struct {
	refdata   *refdata.UseCase
	processor *ledger.Processor
	auth      *auth.UseCase
	log       *logger.Logger
}

// NewExecHandler construye el handler.
func NewExecHandler(rd *refdata.UseCase, proc *ledger.Processor, authUC *auth.UseCase, log *logger.Logger) *ExecHandler {
	return &ExecHandler{refdata: rd, processor: proc, auth: authUC, log: log}
}

// Get godoc
// @Summary      Lecturas del protocolo (action por query string)
// @Description  Acciones: ping, getConstructions, getData, validateUser.
// @Tags         exec
// @Produce      json
// @Param        action   query  string  true   "ping | getConstructions | getData | validateUser"
// @Param        sheetId  query  string  false  "Planilla de la obra (obligatoria salvo ping y getConstructions)"
// @Param        obra     query  string  false  "Filtro de obra; omitido por usuarios Admin"
// @Param        email    query  string  false  "Email a validar (validateUser)"
// @Param        credential  query  string  false  "Credential JWT de Google Identity, alternativa a email (validateUser)"
// @Success      200  {object}  dto.Envelope
// @Router       /exec [get]
func (h *ExecHandler) Get(c *fiber.Ctx) error {
	action := c.Query("action")
	if action == "" {
		return c.JSON(dto.Err("No action specified"))
	}

	switch action {
	case "ping":
		return c.JSON(dto.OK())

	case "getConstructions":
		list, err := h.refdata.GetConstructions(c.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("getConstructions")
			return c.JSON(dto.Err(err.Error()))
		}
		return c.JSON(dto.ConstructionsResponse{Envelope: dto.OK(), Data: list})
	}

	sheetID := c.Query("sheetId")
	if sheetID == "" {
		return c.JSON(dto.Err("Missing sheetId"))
	}

	switch action {
	case "getData":
		payload, err := h.refdata.GetData(c.Context(), sheetID, c.Query("obra"))
		if err != nil {
			h.log.Error().Err(err).Str("sheet_id", sheetID).Msg("getData")
			return c.JSON(dto.Err(err.Error()))
		}
		return c.JSON(dto.GetDataResponse{Envelope: dto.OK(), Data: payload})

	case "validateUser":
		email := c.Query("email")
		if email == "" {
			// Flujo de login: el cliente manda el credential de Google
			// Identity y el email se extrae de sus claims.
			cred := c.Query("credential")
			if cred == "" {
				return c.JSON(dto.Err("Email is required"))
			}
			parsed, err := idtoken.ParseEmail(cred)
			if err != nil {
				return c.JSON(dto.Err("Invalid credential"))
			}
			email = parsed
		}
		user, err := h.auth.ValidateUser(c.Context(), sheetID, email)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return c.JSON(dto.Err("User not found"))
			}
			h.log.Error().Err(err).Str("sheet_id", sheetID).Msg("validateUser")
			return c.JSON(dto.Err(err.Error()))
		}
		return c.JSON(dto.ValidateUserResponse{Envelope: dto.OK(), User: user})
	}

	return c.JSON(dto.Err("Invalid action"))
}

// Post godoc
// @Summary      Escrituras del protocolo (action en el cuerpo JSON)
// @Description  Acciones: requestAccess, syncTransactions.
// @Tags         exec
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostBody  true  "action + payload"
// @Success      200  {object}  dto.Envelope
// @Router       /exec [post]
func (h *ExecHandler) Post(c *fiber.Ctx) error {
	var body dto.PostBody
	if err := c.BodyParser(&body); err != nil {
		return c.JSON(dto.Err("Invalid request body"))
	}
	if body.Action == "" {
		return c.JSON(dto.Err("No action specified"))
	}

	switch body.Action {
	case "requestAccess":
		req := entity.AccessRequest{
			Name:     body.Name,
			Email:    body.Email,
			Position: body.Position,
			Reason:   body.Reason,
		}
		if err := h.auth.RequestAccess(c.Context(), req); err != nil {
			if errors.Is(err, domain.ErrValidation) {
				return c.JSON(dto.Err(err.Error()))
			}
			h.log.Error().Err(err).Msg("requestAccess")
			return c.JSON(dto.Err(err.Error()))
		}
		return c.JSON(dto.OK())

	case "syncTransactions":
		if body.SheetID == "" {
			return c.JSON(dto.Err("Missing sheetId"))
		}
		res, err := h.processor.SyncTransactions(c.Context(), body.SheetID, body.Transactions)
		if err != nil {
			h.log.Error().Err(err).Str("sheet_id", body.SheetID).Msg("syncTransactions")
			return c.JSON(dto.Err(err.Error()))
		}
		out := dto.SyncResponse{Envelope: dto.OK(), Processed: res.Processed, Errors: make([]dto.ItemError, 0, len(res.Errors))}
		for _, it := range res.Errors {
			out.Errors = append(out.Errors, dto.ItemError{ID: it.ID, Error: it.Reason})
		}
		return c.JSON(out)
	}

	return c.JSON(dto.Err("Invalid action"))
}
