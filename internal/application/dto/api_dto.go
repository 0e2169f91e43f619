package dto

import "github.com/tripoloni/epi-manager-api/internal/domain/entity"

// El protocolo remoto responde siempre HTTP 200; el estado real viaja en el
// campo result del sobre JSON.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Envelope sobre común de toda respuesta.
type Envelope struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Err construye un sobre de error.
func Err(msg string) Envelope {
	return Envelope{Result: ResultError, Error: msg}
}

// OK sobre de éxito sin datos.
func OK() Envelope {
	return Envelope{Result: ResultSuccess}
}

// ConstructionsResponse respuesta de action=getConstructions.
type ConstructionsResponse struct {
	Envelope
	Data []entity.Construction `json:"data,omitempty"`
}

// DataPayload colecciones de referencia que devuelve action=getData.
// Las filas viajan crudas (encabezado -> valor); el cliente las normaliza
// en el borde de su almacén local.
type DataPayload struct {
	Employees []entity.Row `json:"employees"`
	Epis      []entity.Row `json:"epis"`
	Stock     []entity.Row `json:"stock"`
	Users     []entity.Row `json:"users"`
	Movements []entity.Row `json:"movements"`
}

// GetDataResponse respuesta de action=getData.
type GetDataResponse struct {
	Envelope
	Data *DataPayload `json:"data,omitempty"`
}

// ValidateUserResponse respuesta de action=validateUser.
type ValidateUserResponse struct {
	Envelope
	User *entity.User `json:"user,omitempty"`
}

// ItemError rechazo por ítem dentro de un lote de sincronización.
type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// SyncResponse respuesta de action=syncTransactions. Processed enumera los
// ids asentados (o ya asentados antes); Errors los rechazados, que el
// cliente conserva en su outbox para el próximo ciclo.
type SyncResponse struct {
	Envelope
	Processed []string    `json:"processed"`
	Errors    []ItemError `json:"errors"`
}

// PostBody cuerpo unión de los POST del protocolo (requestAccess y
// syncTransactions comparten endpoint y se distinguen por action).
type PostBody struct {
	Action  string `json:"action"`
	SheetID string `json:"sheetId,omitempty"`

	// syncTransactions
	Transactions []entity.PendingMovement `json:"transactions,omitempty"`

	// requestAccess
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Position string `json:"position,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
