package entity

import (
	"strconv"
	"strings"
)

// Row es una fila cruda de una pestaña de planilla: encabezado -> valor.
// Las planillas reales traen los encabezados escritos de varias formas; la
// tabla de alias por entidad se resuelve una sola vez aquí, en el borde del
// almacén, y las filas sin id se descartan (fail closed).
type Row map[string]string

// First devuelve el primer valor no vacío entre los alias dados, en orden.
func (r Row) First(aliases ...string) string {
	for _, a := range aliases {
		if v, ok := r[a]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Encabezados canónicos que escribe el servidor en cada pestaña.
const (
	ColID          = "ID"
	ColName        = "Nome"
	ColRole        = "Cargo"
	ColSite        = "Obra"
	ColDescription = "Descrição"
	ColCA          = "CA"
	ColEmail       = "Email"
	ColUserType    = "Tipo"
	ColEquipmentID = "ID_EPI"
	ColQuantity    = "Quantidade"
	ColSheetID     = "Sheet ID"

	ColLedgerID    = "ID Lançamento"
	ColMovementID  = "ID Transação"
	ColDate        = "Data"
	ColUser        = "Usuário"
	ColEmployeeID  = "ID Funcionário"
	ColKind        = "Tipo"
	ColOrigin      = "Origem"
	ColDestination = "Destino"
	ColCondition   = "Condição"
	ColSignature   = "Assinatura"
)

// Alias aceptados por entidad, en orden de preferencia.
var (
	employeeIDAliases  = []string{"ID", "id", "ID do Funcionário", "ID Funcionario", "ID Funcionário"}
	employeeNameAlias  = []string{"Nome", "NOME", "nome"}
	equipmentIDAliases = []string{"ID", "id", "ID do EPI", "ID EPI", "ID do Epi"}
	equipmentDescAlias = []string{"Descrição", "DESCRICAO", "descricao", "Nome"}
	stockIDAliases     = []string{"ID_EPI", "id_epi", "ID do EPI", "ID EPI"}
	stockQtyAliases    = []string{"Quantidade", "quantidade", "QTD", "Qtd"}
	siteAliases        = []string{"Obra", "obra"}
	userIDAliases      = []string{"ID", "id", "Id", "Email"}
	userEmailAliases   = []string{"Email", "E-mail", "email", "usuario"}
	userTypeAliases    = []string{"Tipo", "tipo", "Perfil"}
	constructionName   = []string{"Obra", "Nome", "Name"}
	constructionSheet  = []string{"Sheet ID", "sheetId", "SheetId"}
	ledgerIDAliases    = []string{"ID Lançamento", "ID", "id"}
)

// NormalizeEmployees convierte filas crudas en colaboradores tipados.
// Devuelve además las filas descartadas por no traer id resoluble.
func NormalizeEmployees(rows []Row) (out []Employee, dropped []Row) {
	for _, r := range rows {
		id := r.First(employeeIDAliases...)
		if id == "" {
			dropped = append(dropped, r)
			continue
		}
		out = append(out, Employee{
			ID:     id,
			Name:   r.First(employeeNameAlias...),
			Role:   r.First(ColRole, "cargo", "Função"),
			SiteID: r.First(siteAliases...),
		})
	}
	return out, dropped
}

// NormalizeEquipment convierte filas crudas en ítems del catálogo de EPIs.
func NormalizeEquipment(rows []Row) (out []Equipment, dropped []Row) {
	for _, r := range rows {
		id := r.First(equipmentIDAliases...)
		if id == "" {
			dropped = append(dropped, r)
			continue
		}
		out = append(out, Equipment{
			ID:          id,
			Description: r.First(equipmentDescAlias...),
			CA:          r.First(ColCA, "ca"),
		})
	}
	return out, dropped
}

// NormalizeStock convierte filas crudas en registros de stock. Una cantidad
// no numérica descarta la fila igual que un id ausente.
func NormalizeStock(rows []Row) (out []StockRecord, dropped []Row) {
	for _, r := range rows {
		id := r.First(stockIDAliases...)
		if id == "" {
			dropped = append(dropped, r)
			continue
		}
		qty, err := strconv.Atoi(r.First(stockQtyAliases...))
		if err != nil {
			dropped = append(dropped, r)
			continue
		}
		out = append(out, StockRecord{
			EquipmentID: id,
			SiteID:      r.First(siteAliases...),
			Quantity:    qty,
		})
	}
	return out, dropped
}

// NormalizeUsers convierte filas crudas en usuarios; el email hace de id de reserva.
func NormalizeUsers(rows []Row) (out []User, dropped []Row) {
	for _, r := range rows {
		id := r.First(userIDAliases...)
		if id == "" {
			dropped = append(dropped, r)
			continue
		}
		out = append(out, User{
			ID:    id,
			Email: strings.ToLower(r.First(userEmailAliases...)),
			Name:  r.First(employeeNameAlias...),
			Type:  r.First(userTypeAliases...),
		})
	}
	return out, dropped
}

// NormalizeConstructions convierte filas de la planilla central en obras.
func NormalizeConstructions(rows []Row) (out []Construction, dropped []Row) {
	for _, r := range rows {
		name := r.First(constructionName...)
		if name == "" {
			dropped = append(dropped, r)
			continue
		}
		out = append(out, Construction{
			Name:    name,
			SheetID: r.First(constructionSheet...),
		})
	}
	return out, dropped
}

// MovementHistoryID resuelve el id de una fila del histórico de movimientos.
func MovementHistoryID(r Row) string {
	return r.First(ledgerIDAliases...)
}
