package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripoloni/epi-manager-api/internal/application/session"
	appsync "github.com/tripoloni/epi-manager-api/internal/application/sync"
	"github.com/tripoloni/epi-manager-api/internal/domain"
	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/internal/infrastructure/localdb"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

func newBuilderStore(t *testing.T) *localdb.Store {
	t.Helper()
	store, err := localdb.Open(t.TempDir(), logger.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.ReplaceEquipment(ctx, []entity.Equipment{
		{ID: "EPI01", Description: "Capacete"},
		{ID: "EPI02", Description: "Luva"},
	}))
	require.NoError(t, store.ReplaceEmployees(ctx, []entity.Employee{
		{ID: "F001", Name: "João Silva"},
	}))
	return store
}

func testSession() *session.Session {
	return &session.Session{
		User:         entity.User{ID: "U1", Email: "obra@empresa.com"},
		Construction: "Obra A",
		SheetID:      "sheet-a",
	}
}

func TestRegister_EncolaYDevuelvePendientes(t *testing.T) {
	store := newBuilderStore(t)
	b := appsync.NewBuilder(store, logger.Nop())
	ctx := context.Background()

	count, err := b.Register(ctx, testSession(), appsync.MovementInput{
		EmployeeID:  "F001",
		EquipmentID: "EPI01",
		Kind:        entity.KindIssue,
		Quantity:    2,
		Signature:   "data:image/png;base64,ZmlybWE=",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	mov := pending[0]
	assert.NotEmpty(t, mov.ID)
	assert.NotEmpty(t, mov.Timestamp)
	assert.Equal(t, "U1", mov.UserID)
	assert.Equal(t, "F001", mov.EmployeeID)
	assert.Equal(t, "EPI01", mov.EquipmentID)
	assert.Equal(t, "Obra A", mov.SiteID)
}

func TestRegister_ValidacionNoDejaRastro(t *testing.T) {
	store := newBuilderStore(t)
	b := appsync.NewBuilder(store, logger.Nop())
	ctx := context.Background()

	cases := []struct {
		name  string
		input appsync.MovementInput
		field string
	}{
		{
			name:  "tipo desconocido",
			input: appsync.MovementInput{EquipmentID: "EPI01", Kind: "REGALO", Quantity: 1},
			field: "kind",
		},
		{
			name:  "cantidad cero",
			input: appsync.MovementInput{EquipmentID: "EPI01", Kind: entity.KindPurchase, Quantity: 0},
			field: "quantity",
		},
		{
			name:  "ajuste cero",
			input: appsync.MovementInput{EquipmentID: "EPI01", Kind: entity.KindAdjustment, Quantity: 0},
			field: "quantity",
		},
		{
			name:  "entrega sin firma",
			input: appsync.MovementInput{EmployeeID: "F001", EquipmentID: "EPI01", Kind: entity.KindIssue, Quantity: 1},
			field: "signature",
		},
		{
			name:  "entrega sin colaborador",
			input: appsync.MovementInput{EquipmentID: "EPI01", Kind: entity.KindIssue, Quantity: 1, Signature: "data:,x"},
			field: "employeeId",
		},
		{
			name:  "EPI fuera del catálogo",
			input: appsync.MovementInput{EquipmentID: "FANTASMA", Kind: entity.KindPurchase, Quantity: 1},
			field: "equipmentId",
		},
		{
			name:  "colaborador desconocido",
			input: appsync.MovementInput{EmployeeID: "F999", EquipmentID: "EPI01", Kind: entity.KindReturn, Quantity: 1, Signature: "data:,x"},
			field: "employeeId",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.Register(ctx, testSession(), tc.input)
			require.ErrorIs(t, err, domain.ErrValidation)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "un fallo de validación no encola nada")
}

func TestRegister_AjusteNegativoEsValido(t *testing.T) {
	store := newBuilderStore(t)
	b := appsync.NewBuilder(store, logger.Nop())

	count, err := b.Register(context.Background(), testSession(), appsync.MovementInput{
		EquipmentID: "EPI02",
		Kind:        entity.KindAdjustment,
		Quantity:    -3,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegister_CompraSinColaboradorNiFirma(t *testing.T) {
	store := newBuilderStore(t)
	b := appsync.NewBuilder(store, logger.Nop())

	count, err := b.Register(context.Background(), testSession(), appsync.MovementInput{
		EquipmentID: "EPI01",
		Kind:        entity.KindPurchase,
		Quantity:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
