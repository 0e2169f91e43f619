package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripoloni/epi-manager-api/internal/application/dto"
	"github.com/tripoloni/epi-manager-api/internal/domain"
	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/internal/infrastructure/remote"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

func newClient(t *testing.T, handler http.HandlerFunc) *remote.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return remote.New(srv.URL, 2*time.Second, logger.Nop())
}


// writeJSON fija el Content-Type para que el cliente decodifique el sobre.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetConstructions(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "getConstructions", r.URL.Query().Get("action"))
		writeJSON(w, dto.ConstructionsResponse{
			Envelope: dto.OK(),
			Data:     []entity.Construction{{Name: "Obra A", SheetID: "sheet-a"}},
		})
	})

	list, err := c.GetConstructions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Obra A", list[0].Name)
}

func TestGetData_SobreDeErrorConHTTP200(t *testing.T) {
	// El protocolo responde 200 incluso en error; el estado va en result.
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dto.Err("Missing sheetId"))
	})

	_, err := c.GetData(context.Background(), "sheet-a", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing sheetId")
}

func TestGetData_PropagaObra(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Obra A", r.URL.Query().Get("obra"))
		assert.Equal(t, "sheet-a", r.URL.Query().Get("sheetId"))
		writeJSON(w, dto.GetDataResponse{
			Envelope: dto.OK(),
			Data:     &dto.DataPayload{Employees: []entity.Row{{"ID": "F001"}}},
		})
	})

	payload, err := c.GetData(context.Background(), "sheet-a", "Obra A")
	require.NoError(t, err)
	require.Len(t, payload.Employees, 1)
}

func TestValidateUser_NoEncontrado(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dto.Err("User not found"))
	})

	_, err := c.ValidateUser(context.Background(), "sheet-a", "intruso@empresa.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSyncTransactions_IdaYVuelta(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body dto.PostBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "syncTransactions", body.Action)
		assert.Equal(t, "sheet-a", body.SheetID)
		require.Len(t, body.Transactions, 2)

		writeJSON(w, dto.SyncResponse{
			Envelope:  dto.OK(),
			Processed: []string{"m1"},
			Errors:    []dto.ItemError{{ID: "m2", Error: "invalid quantity"}},
		})
	})

	processed, rejected, err := c.SyncTransactions(context.Background(), "sheet-a", []entity.PendingMovement{
		{ID: "m1", EquipmentID: "EPI01", Kind: entity.KindPurchase, Quantity: 1},
		{ID: "m2", EquipmentID: "EPI01", Kind: entity.KindPurchase, Quantity: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, processed)
	require.Len(t, rejected, 1)
	assert.Equal(t, "m2", rejected[0].ID)
}

func TestClient_ServidorCaidoEsErrNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // puerto muerto
	c := remote.New(srv.URL, 500*time.Millisecond, logger.Nop())

	_, err := c.GetConstructions(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)

	_, _, err = c.SyncTransactions(context.Background(), "sheet-a", nil)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestProbe_MideLatencia(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ping", r.URL.Query().Get("action"))
		writeJSON(w, dto.OK())
	})

	latency, err := c.Probe(context.Background())
	require.NoError(t, err)
	assert.Greater(t, latency, time.Duration(0))
}

func TestProbe_HTTPNoExitosoEsErrNetwork(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Probe(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)
}
