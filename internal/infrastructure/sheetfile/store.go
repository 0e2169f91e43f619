// Package sheetfile implementa el almacén de planillas sobre archivos JSON:
// un archivo por planilla, cada uno con sus pestañas de filas crudas. El
// backend de planillas real queda como colaborador externo detrás de los
// mismos puertos; este adaptador existe para que el servidor corra y el
// procesador de asientos sea verificable de punta a punta.
package sheetfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/internal/domain/repository"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

var _ repository.SheetReader = (*Store)(nil)
var _ repository.SheetTxRunner = (*Store)(nil)

// document una planilla completa: pestaña -> filas.
type document struct {
	Tabs map[string][]entity.Row `json:"tabs"`
}

// Store almacén de planillas en disco.
type Store struct {
	dir string
	log *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // candado por planilla
}

// New prepara el directorio del almacén.
func New(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de planillas %s: %v", dir, err)
	}
	return &Store{dir: dir, log: log, locks: map[string]*sync.Mutex{}}, nil
}

func (s *Store) sheetLock(sheetID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sheetID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sheetID] = l
	}
	return l
}

func (s *Store) path(sheetID string) string {
	return filepath.Join(s.dir, sheetID+".json")
}

// load lee la planilla; ausente = planilla vacía.
func (s *Store) load(sheetID string) (*document, error) {
	data, err := os.ReadFile(s.path(sheetID))
	if errors.Is(err, fs.ErrNotExist) {
		return &document{Tabs: map[string][]entity.Row{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer planilla %s: %v", sheetID, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decodificar planilla %s: %v", sheetID, err)
	}
	if doc.Tabs == nil {
		doc.Tabs = map[string][]entity.Row{}
	}
	return &doc, nil
}

// persist escribe la planilla con tmp + rename.
func (s *Store) persist(sheetID string, doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("codificar planilla %s: %v", sheetID, err)
	}
	tmp := s.path(sheetID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("escribir planilla %s: %v", sheetID, err)
	}
	if err := os.Rename(tmp, s.path(sheetID)); err != nil {
		return fmt.Errorf("renombrar planilla %s: %v", sheetID, err)
	}
	return nil
}

// ReadTable lectura de una pestaña fuera de transacción. Pestaña inexistente
// devuelve lista vacía, no error.
func (s *Store) ReadTable(ctx context.Context, sheetID, tab string) ([]entity.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := s.sheetLock(sheetID)
	l.Lock()
	defer l.Unlock()

	doc, err := s.load(sheetID)
	if err != nil {
		return nil, err
	}
	return copyRows(doc.Tabs[tab]), nil
}

// Run ejecuta fn con acceso exclusivo a la planilla. Las mutaciones quedan en
// memoria y se persisten de una sola vez si fn termina sin error; con error
// se descartan (commit o rollback, como una transacción).
func (s *Store) Run(ctx context.Context, sheetID string, fn func(tx repository.SheetTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := s.sheetLock(sheetID)
	l.Lock()
	defer l.Unlock()

	doc, err := s.load(sheetID)
	if err != nil {
		return err
	}
	tx := &fileTx{doc: doc}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}
	return s.persist(sheetID, doc)
}

// fileTx vista transaccional de una planilla cargada en memoria.
type fileTx struct {
	doc   *document
	dirty bool
}

func (t *fileTx) ReadTable(tab string) ([]entity.Row, error) {
	return copyRows(t.doc.Tabs[tab]), nil
}

func (t *fileTx) AppendRows(tab string, rows []entity.Row) error {
	if len(rows) == 0 {
		return nil
	}
	t.doc.Tabs[tab] = append(t.doc.Tabs[tab], copyRows(rows)...)
	t.dirty = true
	return nil
}

func (t *fileTx) ReplaceTable(tab string, rows []entity.Row) error {
	t.doc.Tabs[tab] = copyRows(rows)
	t.dirty = true
	return nil
}

// copyRows copia profunda para que el caller no aliasee el estado interno.
func copyRows(rows []entity.Row) []entity.Row {
	out := make([]entity.Row, len(rows))
	for i, r := range rows {
		cp := make(entity.Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}
