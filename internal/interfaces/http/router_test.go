package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/loads"
	"github.com/jhoicas/logistica-api/internal/application/shipping"
	"github.com/jhoicas/logistica-api/internal/domain/barcode"
	"github.com/jhoicas/logistica-api/internal/domain/guide"
	"github.com/jhoicas/logistica-api/internal/infrastructure/memory"
	"github.com/jhoicas/logistica-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/logistica-api/internal/interfaces/http"
	"github.com/jhoicas/logistica-api/pkg/logger"
	pkgjwt "github.com/jhoicas/logistica-api/pkg/jwt"
)

type apiFixture struct {
	app  *fiber.App
	acme int64
	sur  int64
}

// newAPI arma la API completa sobre el almacenamiento en memoria con datos de demo.
func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	store.SeedDemo() // clientes 1 (Acme) y 2 (Sur), proveedor 1, producto 1

	log := logger.Nop()
	tx := memory.NewTxRunner(store)
	shipmentRepo := memory.NewShipmentRepository(store)
	guides := guide.NewGenerator(nil)

	app := fiber.New()
	app.Use(apphttp.RequestLogger(log))
	apphttp.Router(app, apphttp.RouterDeps{
		LoadUC: loads.NewLoadUseCase(tx,
			memory.NewLoadRepository(store), memory.NewUnitRepository(store),
			memory.NewClientRepository(store), memory.NewSupplierRepository(store),
			loads.NewUnitMaterializer(tx, barcode.NewGenerator(), log),
			pdf.NewLabelGenerator(100, 80)),
		ShipmentUC: shipping.NewShipmentUseCase(tx, shipmentRepo, memory.NewUnitRepository(store), guides, log),
		DeliveryUC: shipping.NewDeliveryUseCase(tx, shipmentRepo, log),
		IntakeUC:   shipping.NewIntakeUseCase(tx, guides, log),
		JWTSecret:  testJWTSecret,
	})
	return &apiFixture{app: app, acme: 1, sur: 2}
}

func (f *apiFixture) call(t *testing.T, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenFor(t, role))
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

// createLoad carga materializada de n unidades; devuelve los códigos.
func (f *apiFixture) createLoad(t *testing.T, clientID int64, n int) (int64, []string) {
	t.Helper()
	resp, body := f.call(t, http.MethodPost, "/api/loads", "operador", dto.CreateLoadRequest{
		ClientID: clientID, SupplierID: 1, Remision: "REM-1",
		Items: []dto.LoadItemRequest{{ProductID: 1, Quantity: n}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var load dto.LoadResponse
	require.NoError(t, json.Unmarshal(body, &load))
	assert.Equal(t, n, load.TotalUnits)

	resp, body = f.call(t, http.MethodGet, fmt.Sprintf("/api/loads/%d/units", load.ID), "operador", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var units []dto.UnitResponse
	require.NoError(t, json.Unmarshal(body, &units))
	codes := make([]string, 0, len(units))
	for _, u := range units {
		codes = append(codes, u.Barcode)
	}
	return load.ID, codes
}

func priced(codes ...string) []dto.ShipmentItemRequest {
	out := make([]dto.ShipmentItemRequest, 0, len(codes))
	for _, c := range codes {
		out = append(out, dto.ShipmentItemRequest{Barcode: c, UnitPrice: decimal.NewFromInt(1000)})
	}
	return out
}

func TestHealth(t *testing.T) {
	f := newAPI(t)
	resp, body := f.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestAPI_FlujoCompleto(t *testing.T) {
	f := newAPI(t)
	_, codes := f.createLoad(t, f.acme, 2)

	resp, body := f.call(t, http.MethodPost, "/api/shipments", "operador", dto.CreateShipmentRequest{
		ClientID: f.acme, Driver: "Pedro", Plate: "abc123", Items: priced(codes...),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var s dto.ShipmentResponse
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, "pendiente", s.Status)
	assert.True(t, decimal.NewFromInt(2000).Equal(s.TotalValue))
	assert.NotEmpty(t, resp.Header.Get(apphttp.HeaderRequestID))

	base := fmt.Sprintf("/api/shipments/%d", s.ID)
	resp, _ = f.call(t, http.MethodPost, base+"/dispatch", "conductor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.call(t, http.MethodPost, base+"/scan", "conductor", dto.ScanRequest{Barcode: codes[0]})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodGet, base+"/pending-items", "operador", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pending []dto.ShipmentItemResponse
	require.NoError(t, json.Unmarshal(body, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, codes[1], pending[0].Barcode)

	resp, body = f.call(t, http.MethodPost, base+"/scan", "conductor", dto.ScanRequest{Barcode: codes[1]})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var scan dto.ScanResponse
	require.NoError(t, json.Unmarshal(body, &scan))
	assert.True(t, scan.Completed)
	assert.Equal(t, "entregado", scan.Status)

	resp, body = f.call(t, http.MethodGet, base+"/verification", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st dto.VerificationStatusResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, 100.0, st.Percentage)
	assert.NotNil(t, st.VerifiedAt)
}

func TestAPI_LoteRechazadoListaCodigos(t *testing.T) {
	f := newAPI(t)
	_, codes := f.createLoad(t, f.acme, 2)
	_, others := f.createLoad(t, f.sur, 1)

	resp, body := f.call(t, http.MethodPost, "/api/shipments", "operador", dto.CreateShipmentRequest{ClientID: f.acme})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var s dto.ShipmentResponse
	require.NoError(t, json.Unmarshal(body, &s))

	resp, body = f.call(t, http.MethodPost, fmt.Sprintf("/api/shipments/%d/items", s.ID), "operador",
		dto.AddItemsRequest{Items: priced(codes[0], others[0], "NOEXISTE")})
	// NOT_FOUND tiene precedencia sobre OWNERSHIP_MISMATCH para el estado HTTP
	require.Equal(t, http.StatusNotFound, resp.StatusCode, string(body))

	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	require.Len(t, e.Details, 2)
	assert.Equal(t, others[0], e.Details[0].Barcode)
	assert.Equal(t, "OWNERSHIP_MISMATCH", e.Details[0].Code)
	assert.Equal(t, "NOEXISTE", e.Details[1].Barcode)
	assert.Equal(t, "NOT_FOUND", e.Details[1].Code)
}

func TestAPI_ReservaDuplicada409(t *testing.T) {
	f := newAPI(t)
	_, codes := f.createLoad(t, f.acme, 1)

	resp, _ := f.call(t, http.MethodPost, "/api/shipments", "operador",
		dto.CreateShipmentRequest{ClientID: f.acme, Items: priced(codes...)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := f.call(t, http.MethodPost, "/api/shipments", "operador",
		dto.CreateShipmentRequest{ClientID: f.acme, Items: priced(codes...)})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "ALREADY_ASSIGNED")
}

func TestAPI_Validaciones(t *testing.T) {
	f := newAPI(t)
	_, codes := f.createLoad(t, f.acme, 1)

	resp, body := f.call(t, http.MethodPost, "/api/shipments", "operador", dto.CreateShipmentRequest{
		ClientID: f.acme,
		Items:    []dto.ShipmentItemRequest{{Barcode: codes[0], UnitPrice: decimal.NewFromInt(-5)}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION")

	resp, _ = f.call(t, http.MethodPost, "/api/loads", "operador", dto.CreateLoadRequest{ClientID: f.acme})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.call(t, http.MethodGet, "/api/loads/abc", "operador", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.call(t, http.MethodGet, "/api/shipments/999", "operador", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_PermisosPorRol(t *testing.T) {
	f := newAPI(t)
	loadID, codes := f.createLoad(t, f.acme, 1)

	resp, _ := f.call(t, http.MethodPost, "/api/loads", "conductor", dto.CreateLoadRequest{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.call(t, http.MethodPost, fmt.Sprintf("/api/loads/%d/materialize", loadID), "operador", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.call(t, http.MethodPost, "/api/units/"+codes[0]+"/block", "admin", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// el token de cliente es del cliente 2; la carga es del cliente 1
	resp, _ = f.call(t, http.MethodGet, fmt.Sprintf("/api/loads/%d", loadID), "cliente", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.call(t, http.MethodGet, "/api/loads/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_ForceCompleteSoloAdmin(t *testing.T) {
	f := newAPI(t)
	_, codes := f.createLoad(t, f.acme, 2)
	resp, body := f.call(t, http.MethodPost, "/api/shipments", "operador",
		dto.CreateShipmentRequest{ClientID: f.acme, Items: priced(codes...)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var s dto.ShipmentResponse
	require.NoError(t, json.Unmarshal(body, &s))

	path := fmt.Sprintf("/api/shipments/%d/force-complete", s.ID)
	resp, _ = f.call(t, http.MethodPost, path, "conductor", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = f.call(t, http.MethodPost, path, "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, "entregado", s.Status)
}

func TestAPI_Etiquetas(t *testing.T) {
	f := newAPI(t)
	loadID, _ := f.createLoad(t, f.acme, 2)

	resp, body := f.call(t, http.MethodGet, fmt.Sprintf("/api/loads/%d/labels", loadID), "operador", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), fmt.Sprintf("etiquetas_carga_%d.pdf", loadID))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestAPI_IngresoMasivo(t *testing.T) {
	f := newAPI(t)
	_, acme := f.createLoad(t, f.acme, 2)
	_, sur := f.createLoad(t, f.sur, 1)

	req := dto.BulkIntakeRequest{Barcodes: []string{acme[0], sur[0], acme[1]}}

	// crear envíos es de admin u operador
	resp, _ := f.call(t, http.MethodPost, "/api/shipments/bulk-intake", "conductor", req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := f.call(t, http.MethodPost, "/api/shipments/bulk-intake", "operador", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.BulkIntakeResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Shipments, 2)
	assert.Equal(t, f.acme, out.Shipments[0].ClientID)
	assert.Equal(t, 2, out.Shipments[0].Units)
	assert.Equal(t, f.sur, out.Shipments[1].ClientID)

	resp, body = f.call(t, http.MethodGet, fmt.Sprintf("/api/clients/%d/available-units", f.acme), "operador", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var avail []dto.AvailableLoadResponse
	require.NoError(t, json.Unmarshal(body, &avail))
	assert.Empty(t, avail)
}

func TestAPI_TokenDeOtroSecreto(t *testing.T) {
	f := newAPI(t)
	tok, err := pkgjwt.Generate("otro", 1, "admin", 0, testIssuer, testExpMin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/loads/1", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
