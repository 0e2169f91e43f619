package entity

// Employee colaborador de la obra (cache de referencia, solo lectura en cliente).
type Employee struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	SiteID string `json:"siteId,omitempty"`
}

// Equipment ítem del catálogo de EPIs.
type Equipment struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	CA          string `json:"ca,omitempty"` // certificado de aprobación
}

// User usuario autorizado de la aplicación.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Type  string `json:"type,omitempty"` // "Admin" ve todas las obras
}

// IsAdmin indica si el usuario puede consultar datos de todas las obras.
func (u User) IsAdmin() bool {
	return u.Type == "Admin"
}

// Construction una obra registrada en la planilla central.
type Construction struct {
	Name    string `json:"name"`
	SheetID string `json:"sheetRef"`
}

// AccessRequest solicitud de acceso de un usuario no registrado.
type AccessRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Position string `json:"position"`
	Reason   string `json:"reason"`
}
