package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Etiquetas desnormalizadas que se fijan al escribir el asiento.
const (
	LabelCentralStock     = "central stock"
	LabelSupplier         = "supplier"
	LabelManualAdjustment = "manual adjustment"
	ConditionUsed         = "used"
	ConditionNew          = "new"
)

const ledgerIDPrefix = "LNC"

// LedgerEntry es un asiento del libro de movimientos, solo-añadir y propiedad
// del servidor. MovementID conserva el id del cliente para detectar reenvíos.
type LedgerEntry struct {
	LedgerID    string
	MovementID  string
	Timestamp   string
	UserID      string
	EmployeeID  string
	EquipmentID string
	Kind        string
	Quantity    int
	SiteID      string
	Origin      string
	Destination string
	Condition   string
	Signature   string // referencia al artefacto, o anotación de error
	ProcessedAt time.Time
}

// FormatLedgerID genera el id con contador monótono: LNC00001, LNC00002, ...
func FormatLedgerID(seq int) string {
	return fmt.Sprintf("%s%05d", ledgerIDPrefix, seq)
}

// ParseLedgerSeq extrae el sufijo numérico de un id de asiento.
// Devuelve false si el formato no es reconocible.
func ParseLedgerSeq(id string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(id), ledgerIDPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// DeriveLabels fija origen/destino/condición según el tipo de movimiento.
func DeriveLabels(kind, employeeID string) (origin, destination, condition string) {
	switch kind {
	case KindIssue:
		return LabelCentralStock, employeeID, ""
	case KindReturn:
		return employeeID, LabelCentralStock, ConditionUsed
	case KindPurchase:
		return LabelSupplier, LabelCentralStock, ConditionNew
	case KindAdjustment:
		return LabelManualAdjustment, "", ""
	}
	return "", "", ""
}
