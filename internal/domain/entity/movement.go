package entity

// Tipos de movimiento de EPI. El signo del efecto sobre el stock lo decide
// el tipo, no el usuario (salvo ADJUSTMENT, que admite cantidad con signo).
const (
	KindIssue      = "ISSUE"      // entrega al colaborador
	KindReturn     = "RETURN"     // devolución al almacén central
	KindPurchase   = "PURCHASE"   // compra a proveedor
	KindAdjustment = "ADJUSTMENT" // ajuste manual
)

// ValidKind indica si el tipo de movimiento es uno de los cuatro admitidos.
func ValidKind(kind string) bool {
	switch kind {
	case KindIssue, KindReturn, KindPurchase, KindAdjustment:
		return true
	}
	return false
}

// SignatureRequired indica si el tipo exige firma del colaborador.
// Compras y ajustes no involucran a un colaborador que firme.
func SignatureRequired(kind string) bool {
	return kind == KindIssue || kind == KindReturn
}

// StockDelta devuelve el efecto del movimiento sobre la cantidad en stock.
func StockDelta(kind string, quantity int) int {
	switch kind {
	case KindIssue:
		return -quantity
	case KindReturn, KindPurchase:
		return quantity
	case KindAdjustment:
		return quantity // ya viene con signo
	}
	return 0
}

// PendingMovement es una transacción en el outbox local, pendiente de
// confirmación del servidor. Se crea al registrar y se borra solo cuando el
// servidor confirma su id; nunca se muta.
type PendingMovement struct {
	ID          string `json:"id"`        // generado en cliente, clave de idempotencia
	Timestamp   string `json:"timestamp"` // instante ISO del reloj del cliente
	UserID      string `json:"userId"`
	EmployeeID  string `json:"employeeId"`
	EquipmentID string `json:"equipmentId"`
	Kind        string `json:"kind"`
	Quantity    int    `json:"quantity"`
	Signature   string `json:"signature,omitempty"` // data-URL de la firma
	SiteID      string `json:"siteId"`
}
