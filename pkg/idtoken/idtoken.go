package idtoken

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims del credential de Google Identity que nos interesan.
// El token llega ya verificado por el proveedor de identidad; aquí solo
// se extraen los claims para resolver el usuario contra la pestaña Usuários.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ParseEmail decodifica el credential JWT sin verificar firma y devuelve el email normalizado.
func ParseEmail(credential string) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", fmt.Errorf("idtoken: credential vacío")
	}
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(credential, &claims); err != nil {
		return "", fmt.Errorf("idtoken: decodificar credential: %w", err)
	}
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return "", fmt.Errorf("idtoken: el credential no trae claim email")
	}
	return email, nil
}
