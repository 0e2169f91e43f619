package entity

// StockRecord es la cantidad actual de un EPI en una obra. Mutable, propiedad
// del servidor. La cantidad puede quedar negativa tras un ajuste; no se recorta.
type StockRecord struct {
	EquipmentID string `json:"equipmentId"`
	SiteID      string `json:"siteId"`
	Quantity    int    `json:"quantity"`
}

// Key identifica la fila de stock dentro de un lote (EPI + obra).
func (s StockRecord) Key() string {
	return s.EquipmentID + "|" + s.SiteID
}

// StockKey construye la clave de lote sin instanciar el registro.
func StockKey(equipmentID, siteID string) string {
	return equipmentID + "|" + siteID
}
