package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripoloni/epi-manager-api/internal/application/auth"
	"github.com/tripoloni/epi-manager-api/internal/application/dto"
	"github.com/tripoloni/epi-manager-api/internal/application/ledger"
	"github.com/tripoloni/epi-manager-api/internal/application/refdata"
	"github.com/tripoloni/epi-manager-api/internal/domain/entity"
	"github.com/tripoloni/epi-manager-api/internal/domain/repository"
	"github.com/tripoloni/epi-manager-api/internal/infrastructure/notify"
	"github.com/tripoloni/epi-manager-api/internal/infrastructure/sheetfile"
	httpRouter "github.com/tripoloni/epi-manager-api/internal/interfaces/http"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

const (
	registrySheet = "registro-central"
	obraSheet     = "sheet-obra-a"
)

func newApp(t *testing.T) (*fiber.App, *sheetfile.Store) {
	t.Helper()
	log := logger.Nop()

	sheets, err := sheetfile.New(t.TempDir(), log)
	require.NoError(t, err)
	signatures, err := sheetfile.NewSignatureStore(t.TempDir(), log)
	require.NoError(t, err)

	app := fiber.New()
	httpRouter.Router(app, httpRouter.RouterDeps{
		RefData:   refdata.NewUseCase(sheets, registrySheet, log),
		Processor: ledger.NewProcessor(sheets, signatures, log),
		AuthUC:    auth.NewUseCase(sheets, notify.NewAdminNotifier("admin@empresa.com", log), log),
		Log:       log,
	})
	return app, sheets
}

func seedSheet(t *testing.T, store *sheetfile.Store, sheetID, tab string, rows []entity.Row) {
	t.Helper()
	err := store.Run(context.Background(), sheetID, func(tx repository.SheetTx) error {
		return tx.ReplaceTable(tab, rows)
	})
	require.NoError(t, err)
}

func doGet(t *testing.T, app *fiber.App, target string, out any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	resp, err := app.Test(req)
	require.NoError(t, err)
	decodeBody(t, resp.Body, out)
	require.Equal(t, http.StatusOK, resp.StatusCode, "el protocolo responde siempre HTTP 200")
}

func doPost(t *testing.T, app *fiber.App, body any, out any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, "/exec", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	decodeBody(t, resp.Body, out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func decodeBody(t *testing.T, body io.ReadCloser, out any) {
	t.Helper()
	defer body.Close()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestExec_SinAction(t *testing.T) {
	app, _ := newApp(t)
	var env dto.Envelope
	doGet(t, app, "/exec", &env)
	assert.Equal(t, dto.ResultError, env.Result)
	assert.Equal(t, "No action specified", env.Error)
}

func TestExec_ActionDesconocida(t *testing.T) {
	app, _ := newApp(t)
	var env dto.Envelope
	doGet(t, app, "/exec?action=volar&sheetId=x", &env)
	assert.Equal(t, dto.ResultError, env.Result)
	assert.Equal(t, "Invalid action", env.Error)
}

func TestExec_Ping(t *testing.T) {
	app, _ := newApp(t)
	var env dto.Envelope
	doGet(t, app, "/exec?action=ping", &env)
	assert.Equal(t, dto.ResultSuccess, env.Result)
}

func TestExec_SinSheetID(t *testing.T) {
	app, _ := newApp(t)
	var env dto.Envelope
	doGet(t, app, "/exec?action=getData", &env)
	assert.Equal(t, dto.ResultError, env.Result)
	assert.Equal(t, "Missing sheetId", env.Error)
}

func TestExec_GetConstructions(t *testing.T) {
	app, sheets := newApp(t)
	seedSheet(t, sheets, registrySheet, repository.TabConstructions, []entity.Row{
		{"Obra": "Obra A", "Sheet ID": obraSheet},
	})

	var out dto.ConstructionsResponse
	doGet(t, app, "/exec?action=getConstructions", &out)
	require.Equal(t, dto.ResultSuccess, out.Result)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "Obra A", out.Data[0].Name)
	assert.Equal(t, obraSheet, out.Data[0].SheetID)
}

func TestExec_GetDataFiltraPorObra(t *testing.T) {
	app, sheets := newApp(t)
	seedSheet(t, sheets, obraSheet, repository.TabEmployees, []entity.Row{
		{"ID": "F001", "Nome": "João", "Obra": "Obra A"},
		{"ID": "F002", "Nome": "Maria", "Obra": "Obra B"},
	})
	seedSheet(t, sheets, obraSheet, repository.TabEquipment, []entity.Row{
		{"ID": "EPI01", "Descrição": "Capacete"},
	})

	var out dto.GetDataResponse
	doGet(t, app, "/exec?action=getData&sheetId="+obraSheet+"&obra=Obra+A", &out)
	require.Equal(t, dto.ResultSuccess, out.Result)
	require.NotNil(t, out.Data)
	require.Len(t, out.Data.Employees, 1, "el filtro de obra descarta a los de otras obras")
	assert.Equal(t, "F001", out.Data.Employees[0]["ID"])
	assert.Len(t, out.Data.Epis, 1)
	assert.NotNil(t, out.Data.Stock, "colecciones ausentes viajan como listas vacías")
}

func TestExec_ValidateUser(t *testing.T) {
	app, sheets := newApp(t)
	seedSheet(t, sheets, obraSheet, repository.TabUsers, []entity.Row{
		{"Email": "Obra@Empresa.com", "Nome": "Usuária", "Tipo": "Almoxarife"},
	})

	var out dto.ValidateUserResponse
	doGet(t, app, "/exec?action=validateUser&sheetId="+obraSheet+"&email=obra%40empresa.com", &out)
	require.Equal(t, dto.ResultSuccess, out.Result)
	require.NotNil(t, out.User)
	assert.Equal(t, "obra@empresa.com", out.User.Email)

	var notFound dto.Envelope
	doGet(t, app, "/exec?action=validateUser&sheetId="+obraSheet+"&email=intruso%40empresa.com", &notFound)
	assert.Equal(t, dto.ResultError, notFound.Result)
	assert.Equal(t, "User not found", notFound.Error)
}

func TestExec_RequestAccess(t *testing.T) {
	app, _ := newApp(t)

	var env dto.Envelope
	doPost(t, app, dto.PostBody{
		Action:   "requestAccess",
		Name:     "Pedro",
		Email:    "pedro@empresa.com",
		Position: "Almoxarife",
	}, &env)
	assert.Equal(t, dto.ResultSuccess, env.Result)

	// Sin nombre: error de validación dentro del sobre.
	doPost(t, app, dto.PostBody{Action: "requestAccess", Email: "x@y.com", Position: "z"}, &env)
	assert.Equal(t, dto.ResultError, env.Result)
}

func TestExec_SyncTransactions(t *testing.T) {
	app, sheets := newApp(t)
	seedSheet(t, sheets, obraSheet, repository.TabStock, []entity.Row{
		{"ID_EPI": "EPI01", "Quantidade": "20"},
	})

	var out dto.SyncResponse
	doPost(t, app, dto.PostBody{
		Action:  "syncTransactions",
		SheetID: obraSheet,
		Transactions: []entity.PendingMovement{
			{ID: "m1", EquipmentID: "EPI01", Kind: entity.KindPurchase, Quantity: 5},
			{ID: "m2", EquipmentID: "FANTASMA", Kind: entity.KindPurchase, Quantity: 1},
		},
	}, &out)

	require.Equal(t, dto.ResultSuccess, out.Result)
	assert.Equal(t, []string{"m1"}, out.Processed)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "m2", out.Errors[0].ID)
	assert.Equal(t, "equipment/stock row not found", out.Errors[0].Error)

	stock, err := sheets.ReadTable(context.Background(), obraSheet, repository.TabStock)
	require.NoError(t, err)
	assert.Equal(t, "25", stock[0]["Quantidade"])
}

func TestExec_SyncTransactionsSinSheetID(t *testing.T) {
	app, _ := newApp(t)
	var env dto.Envelope
	doPost(t, app, dto.PostBody{Action: "syncTransactions"}, &env)
	assert.Equal(t, dto.ResultError, env.Result)
	assert.Equal(t, "Missing sheetId", env.Error)
}

func TestExec_PostSinAction(t *testing.T) {
	app, _ := newApp(t)
	var env dto.Envelope
	doPost(t, app, map[string]string{}, &env)
	assert.Equal(t, dto.ResultError, env.Result)
	assert.Equal(t, "No action specified", env.Error)
}

func TestExec_ValidateUserConCredential(t *testing.T) {
	app, sheets := newApp(t)
	seedSheet(t, sheets, obraSheet, repository.TabUsers, []entity.Row{
		{"Email": "obra@empresa.com", "Nome": "Usuária", "Tipo": "Almoxarife"},
	})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "Obra@Empresa.com"})
	cred, err := token.SignedString([]byte("clave-de-prueba"))
	require.NoError(t, err)

	var out dto.ValidateUserResponse
	doGet(t, app, "/exec?action=validateUser&sheetId="+obraSheet+"&credential="+cred, &out)
	require.Equal(t, dto.ResultSuccess, out.Result)
	require.NotNil(t, out.User)
	assert.Equal(t, "obra@empresa.com", out.User.Email)

	var bad dto.Envelope
	doGet(t, app, "/exec?action=validateUser&sheetId="+obraSheet+"&credential=no-es-jwt", &bad)
	assert.Equal(t, dto.ResultError, bad.Result)
	assert.Equal(t, "Invalid credential", bad.Error)
}
