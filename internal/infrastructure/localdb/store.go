// Package localdb implementa el almacén durable del cliente sobre archivos
// JSON: un archivo por colección, escritura atómica (tmp + rename) y un mutex
// por almacén. Es el reemplazo del IndexedDB del cliente original: las caches
// de referencia se reemplazan completas y el outbox solo crece o se confirma.
package localdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tripoloni/epi-manager-api/internal/domain"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

// SchemaVersion se incrementa solo cuando cambian las rutas de clave de las
// colecciones. Un cambio de versión descarta las caches (el outbox no: los
// movimientos sin sincronizar nunca se tiran por migración).
const SchemaVersion = 1

const metaFile = "meta.json"

type meta struct {
	SchemaVersion int `json:"schemaVersion"`
}

// Store almacén local durable.
type Store struct {
	dir string
	mu  sync.Mutex
	log *logger.Logger
}

// Open prepara el directorio de datos y aplica la migración de esquema si la
// versión guardada no coincide. Un directorio inutilizable es ErrStorage: el
// cliente degrada a modo solo-online.
func Open(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: crear directorio %s: %v", domain.ErrStorage, dir, err)
	}
	s := &Store{dir: dir, log: log}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var m meta
	err := s.readFile(metaFile, &m)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Primer arranque.
	case err != nil:
		return err
	case m.SchemaVersion == SchemaVersion:
		return nil
	default:
		s.log.Warn().Int("from", m.SchemaVersion).Int("to", SchemaVersion).Msg("versión de esquema distinta, se descartan las caches")
		for _, name := range []string{"employees", "epis", "stock", "users", "movements"} {
			if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: descartar colección %s: %v", domain.ErrStorage, name, err)
			}
		}
	}
	return s.writeFile(metaFile, meta{SchemaVersion: SchemaVersion})
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// readFile decodifica un archivo JSON; propaga fs.ErrNotExist para que el
// caller distinga "colección vacía" de un fallo real.
func (s *Store) readFile(name string, out any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return fmt.Errorf("%w: leer %s: %v", domain.ErrStorage, name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decodificar %s: %v", domain.ErrStorage, name, err)
	}
	return nil
}

// writeFile persiste con escritura atómica: tmp en el mismo directorio y
// rename, para que un corte a mitad de escritura no deje el archivo a medias.
func (s *Store) writeFile(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: codificar %s: %v", domain.ErrStorage, name, err)
	}
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: escribir %s: %v", domain.ErrStorage, name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("%w: renombrar %s: %v", domain.ErrStorage, name, err)
	}
	return nil
}

// readCollection carga una colección; archivo ausente = colección vacía.
func readCollection[T any](s *Store, collection string) ([]T, error) {
	var items []T
	err := s.readFile(collection+".json", &items)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

// replaceCollection vacía y repuebla una colección deduplicando por la clave
// primaria declarada (gana la última aparición, como el put de IndexedDB).
func replaceCollection[T any](s *Store, collection string, items []T, key func(T) string) error {
	seen := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if idx, ok := seen[k]; ok {
			out[idx] = it
			continue
		}
		seen[k] = len(out)
		out = append(out, it)
	}
	return s.writeFile(collection+".json", out)
}
