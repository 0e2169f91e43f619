package sheetfile

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tripoloni/epi-manager-api/internal/domain/repository"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

var _ repository.SignatureStore = (*SignatureStore)(nil)

// SignatureStore guarda las firmas (data-URL del canvas) como PNG en disco y
// devuelve el nombre del artefacto. Best-effort por contrato: el procesador
// degrada cualquier fallo de acá a una anotación en el asiento.
type SignatureStore struct {
	dir string
	log *logger.Logger
}

// NewSignatureStore prepara el directorio de artefactos.
func NewSignatureStore(dir string, log *logger.Logger) (*SignatureStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de firmas %s: %v", dir, err)
	}
	return &SignatureStore{dir: dir, log: log}, nil
}

// Save decodifica el data-URL y escribe el PNG con nombre único.
func (s *SignatureStore) Save(ctx context.Context, movementID, dataURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	payload := dataURL
	if idx := strings.Index(dataURL, ","); idx >= 0 {
		payload = dataURL[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("firma de %s no es base64 válido: %v", movementID, err)
	}

	name := uuid.New().String() + ".png"
	if err := os.WriteFile(filepath.Join(s.dir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("escribir firma de %s: %v", movementID, err)
	}
	s.log.Debug().Str("movement_id", movementID).Str("artifact", name).Msg("firma guardada")
	return name, nil
}
