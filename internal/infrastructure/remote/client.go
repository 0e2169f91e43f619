// Package remote implementa el RemoteGateway sobre HTTP con resty. El
// protocolo es un único endpoint con action por query string para lecturas y
// un cuerpo JSON con action para escrituras; el estado real viaja en el campo
// result del sobre, no en el código HTTP.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tripoloni/epi-manager-api/internal/application/dto"
	appsync "github.com/tripoloni/epi-manager-api/internal/application/sync"
	"github.com/tripoloni/epi-manager-api/internal/domain"
	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

var _ appsync.RemoteGateway = (*Client)(nil)

// Client gateway HTTP contra el servidor de planillas.
type Client struct {
	rc  *resty.Client
	url string
	log *logger.Logger
}

// New construye el cliente. timeout acota toda petición para que el agente
// nunca quede colgado de una petición estancada.
func New(apiURL string, timeout time.Duration, log *logger.Logger) *Client {
	rc := resty.New().SetTimeout(timeout)
	return &Client{rc: rc, url: apiURL, log: log}
}

// GetConstructions lista las obras disponibles y su planilla.
func (c *Client) GetConstructions(ctx context.Context) ([]entity.Construction, error) {
	var out dto.ConstructionsResponse
	if err := c.get(ctx, map[string]string{"action": "getConstructions"}, &out); err != nil {
		return nil, err
	}
	if out.Result != dto.ResultSuccess {
		return nil, fmt.Errorf("getConstructions: %s", out.Error)
	}
	return out.Data, nil
}

// GetData trae las colecciones de referencia; obra vacía = todas las obras.
func (c *Client) GetData(ctx context.Context, sheetID, obra string) (*dto.DataPayload, error) {
	params := map[string]string{"action": "getData", "sheetId": sheetID}
	if obra != "" {
		params["obra"] = obra
	}
	var out dto.GetDataResponse
	if err := c.get(ctx, params, &out); err != nil {
		return nil, err
	}
	if out.Result != dto.ResultSuccess || out.Data == nil {
		return nil, fmt.Errorf("getData: %s", out.Error)
	}
	return out.Data, nil
}

// ValidateUser resuelve el email contra los usuarios autorizados de la obra.
func (c *Client) ValidateUser(ctx context.Context, sheetID, email string) (*entity.User, error) {
	params := map[string]string{"action": "validateUser", "sheetId": sheetID, "email": email}
	var out dto.ValidateUserResponse
	if err := c.get(ctx, params, &out); err != nil {
		return nil, err
	}
	if out.Result != dto.ResultSuccess || out.User == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, out.Error)
	}
	return out.User, nil
}

// RequestAccess envía la solicitud de acceso del formulario de registro.
func (c *Client) RequestAccess(ctx context.Context, req entity.AccessRequest) error {
	body := dto.PostBody{
		Action:   "requestAccess",
		Name:     req.Name,
		Email:    req.Email,
		Position: req.Position,
		Reason:   req.Reason,
	}
	var out dto.Envelope
	if err := c.post(ctx, body, &out); err != nil {
		return err
	}
	if out.Result != dto.ResultSuccess {
		return fmt.Errorf("requestAccess: %s", out.Error)
	}
	return nil
}

// SyncTransactions empuja el outbox completo en un solo lote.
func (c *Client) SyncTransactions(ctx context.Context, sheetID string, batch []entity.PendingMovement) ([]string, []dto.ItemError, error) {
	body := dto.PostBody{Action: "syncTransactions", SheetID: sheetID, Transactions: batch}
	var out dto.SyncResponse
	if err := c.post(ctx, body, &out); err != nil {
		return nil, nil, err
	}
	if out.Result != dto.ResultSuccess {
		return nil, nil, fmt.Errorf("syncTransactions: %s", out.Error)
	}
	return out.Processed, out.Errors, nil
}

// Probe viaje liviano de ida y vuelta para el monitor de conexión.
func (c *Client) Probe(ctx context.Context) (time.Duration, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("action", "ping").
		Get(c.url)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	if !resp.IsSuccess() {
		return resp.Time(), fmt.Errorf("%w: HTTP %d", domain.ErrNetwork, resp.StatusCode())
	}
	return resp.Time(), nil
}

func (c *Client) get(ctx context.Context, params map[string]string, out any) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(c.url)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: HTTP %d", domain.ErrNetwork, resp.StatusCode())
	}
	return nil
}

func (c *Client) post(ctx context.Context, body, out any) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(out).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: HTTP %d", domain.ErrNetwork, resp.StatusCode())
	}
	return nil
}
