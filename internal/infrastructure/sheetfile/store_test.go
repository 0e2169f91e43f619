package sheetfile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/internal/domain/repository"
	"github.com/tripoloni/epi-manager-api/internal/infrastructure/sheetfile"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

func newStore(t *testing.T) *sheetfile.Store {
	t.Helper()
	store, err := sheetfile.New(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	return store
}

func TestReadTable_PlanillaOPestanaInexistente(t *testing.T) {
	store := newStore(t)
	rows, err := store.ReadTable(context.Background(), "no-existe", repository.TabStock)
	require.NoError(t, err)
	assert.Empty(t, rows, "pestaña inexistente es lista vacía, no error")
}

func TestRun_CommitPersisteTodoJunto(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.Run(ctx, "obra-a", func(tx repository.SheetTx) error {
		if err := tx.AppendRows(repository.TabMovements, []entity.Row{{"ID Lançamento": "LNC00001"}}); err != nil {
			return err
		}
		return tx.ReplaceTable(repository.TabStock, []entity.Row{{"ID_EPI": "EPI01", "Quantidade": "5"}})
	})
	require.NoError(t, err)

	movements, err := store.ReadTable(ctx, "obra-a", repository.TabMovements)
	require.NoError(t, err)
	assert.Len(t, movements, 1)

	stock, err := store.ReadTable(ctx, "obra-a", repository.TabStock)
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, "5", stock[0]["Quantidade"])
}

func TestRun_ErrorDescartaLasMutaciones(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Run(ctx, "obra-a", func(tx repository.SheetTx) error {
		return tx.ReplaceTable(repository.TabStock, []entity.Row{{"ID_EPI": "EPI01", "Quantidade": "10"}})
	}))

	boom := errors.New("boom")
	err := store.Run(ctx, "obra-a", func(tx repository.SheetTx) error {
		if err := tx.ReplaceTable(repository.TabStock, []entity.Row{{"ID_EPI": "EPI01", "Quantidade": "999"}}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stock, err := store.ReadTable(ctx, "obra-a", repository.TabStock)
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, "10", stock[0]["Quantidade"], "rollback: la mutación fallida no se persiste")
}

func TestRun_LecturaDentroDeTxVeMutacionesPropias(t *testing.T) {
	store := newStore(t)

	err := store.Run(context.Background(), "obra-a", func(tx repository.SheetTx) error {
		require.NoError(t, tx.AppendRows(repository.TabMovements, []entity.Row{{"ID Lançamento": "LNC00001"}}))
		rows, err := tx.ReadTable(repository.TabMovements)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestReadTable_DevuelveCopia(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Run(ctx, "obra-a", func(tx repository.SheetTx) error {
		return tx.ReplaceTable(repository.TabStock, []entity.Row{{"ID_EPI": "EPI01", "Quantidade": "5"}})
	}))

	rows, err := store.ReadTable(ctx, "obra-a", repository.TabStock)
	require.NoError(t, err)
	rows[0]["Quantidade"] = "mutado"

	again, err := store.ReadTable(ctx, "obra-a", repository.TabStock)
	require.NoError(t, err)
	assert.Equal(t, "5", again[0]["Quantidade"], "mutar lo leído no toca el almacén")
}
