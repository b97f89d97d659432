package shipping_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/loads"
	"github.com/jhoicas/logistica-api/internal/application/shipping"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/barcode"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/guide"
	"github.com/jhoicas/logistica-api/internal/infrastructure/memory"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

var (
	operador  = entity.Actor{UserID: 10, Role: entity.RoleOperador}
	admin     = entity.Actor{UserID: 1, Role: entity.RoleAdmin}
	conductor = entity.Actor{UserID: 20, Role: entity.RoleConductor}
)

type fixture struct {
	store     *memory.Store
	loads     *loads.LoadUseCase
	shipments *shipping.ShipmentUseCase
	delivery  *shipping.DeliveryUseCase
	intake    *shipping.IntakeUseCase
	logs      *bytes.Buffer

	acme, sur int64
	supplier  int64
	product   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{store: store, logs: &bytes.Buffer{}}
	f.acme = store.AddClient("Acme Ltda", "900123456", true)
	f.sur = store.AddClient("Bodegas del Sur", "800987654", true)
	f.supplier = store.AddSupplier("Importadora Andina", "901555111", true)
	f.product = store.AddProduct("CAJA-STD", "Caja estándar")

	log := logger.NewWriter(f.logs, "info")
	tx := memory.NewTxRunner(store)
	mat := loads.NewUnitMaterializer(tx, barcode.NewGenerator(), log)
	f.loads = loads.NewLoadUseCase(tx, memory.NewLoadRepository(store), memory.NewUnitRepository(store),
		memory.NewClientRepository(store), memory.NewSupplierRepository(store), mat, nil)

	guides := guide.NewGenerator(nil)
	shipmentRepo := memory.NewShipmentRepository(store)
	f.shipments = shipping.NewShipmentUseCase(tx, shipmentRepo, memory.NewUnitRepository(store), guides, log)
	f.delivery = shipping.NewDeliveryUseCase(tx, shipmentRepo, log)
	f.intake = shipping.NewIntakeUseCase(tx, guides, log)
	return f
}

// unitsFor crea una carga materializada del cliente y devuelve sus códigos.
func (f *fixture) unitsFor(t *testing.T, clientID int64, n int) []string {
	t.Helper()
	load, err := f.loads.CreateLoad(context.Background(), dto.CreateLoadRequest{
		ClientID:   clientID,
		SupplierID: f.supplier,
		Remision:   "REM",
		Items:      []dto.LoadItemRequest{{ProductID: f.product, Quantity: n}},
	})
	require.NoError(t, err)
	units, err := f.loads.ListUnits(context.Background(), admin, load.ID, 0)
	require.NoError(t, err)
	codes := make([]string, 0, n)
	for _, u := range units {
		codes = append(codes, u.Barcode)
	}
	return codes
}

func (f *fixture) draft(t *testing.T, clientID int64) *dto.ShipmentResponse {
	t.Helper()
	s, err := f.shipments.CreateShipment(context.Background(), operador, dto.CreateShipmentRequest{
		ClientID: clientID, Driver: "Pedro", Plate: "abc123", Origin: "Bogotá",
	})
	require.NoError(t, err)
	return s
}

func items(prices map[string]int64, codes ...string) []dto.ShipmentItemRequest {
	out := make([]dto.ShipmentItemRequest, 0, len(codes))
	for _, c := range codes {
		out = append(out, dto.ShipmentItemRequest{Barcode: c, UnitPrice: decimal.NewFromInt(prices[c])})
	}
	return out
}

func TestCreateShipment_Borrador(t *testing.T) {
	f := newFixture(t)
	s := f.draft(t, f.acme)

	assert.Equal(t, string(entity.ShipmentDraft), s.Status)
	assert.Regexp(t, `^ACM\d{6}$`, s.GuideNumber)
	assert.Equal(t, "ABC123", s.Plate)
	assert.True(t, s.TotalValue.IsZero())
}

func TestAddItems_ReservaYPasaAPendiente(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 2)
	s := f.draft(t, f.acme)

	prices := map[string]int64{codes[0]: 1500, codes[1]: 2500}
	got, err := f.shipments.AddItems(ctx, operador, s.ID, items(prices, codes...))
	require.NoError(t, err)

	assert.Equal(t, string(entity.ShipmentPending), got.Status)
	assert.True(t, decimal.NewFromInt(4000).Equal(got.TotalValue), got.TotalValue.String())
	require.Len(t, got.Items, 2)
	for _, c := range codes {
		assert.Equal(t, entity.UnitReserved, f.store.UnitStatus(c))
	}
}

func TestAddItems_RechazaLoteSiUnaYaEstaAsignada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 2)

	other := f.draft(t, f.acme)
	_, err := f.shipments.AddItems(ctx, operador, other.ID, items(nil, codes[1]))
	require.NoError(t, err)

	s := f.draft(t, f.acme)
	_, err = f.shipments.AddItems(ctx, operador, s.ID, items(map[string]int64{codes[0]: 100}, codes[0], codes[1]))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)

	var batch *domain.BatchError
	require.True(t, errors.As(err, &batch))
	assert.Equal(t, []string{codes[1]}, batch.Barcodes())

	assert.Equal(t, entity.UnitAvailable, f.store.UnitStatus(codes[0]))
	got, err := f.shipments.GetShipment(ctx, operador, s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ShipmentDraft), got.Status)
	assert.Empty(t, got.Items)
	assert.True(t, got.TotalValue.IsZero())
}

func TestAddItems_RecolectaTodosLosFallos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mine := f.unitsFor(t, f.acme, 3)
	theirs := f.unitsFor(t, f.sur, 1)

	_, err := f.loads.BlockUnit(ctx, mine[1])
	require.NoError(t, err)

	s := f.draft(t, f.acme)
	_, err = f.shipments.AddItems(ctx, operador, s.ID, items(nil,
		"NOEXISTE", theirs[0], mine[1], mine[0], mine[0], mine[2],
	))
	var batch *domain.BatchError
	require.True(t, errors.As(err, &batch))
	require.Len(t, batch.Failures, 4)

	assert.ErrorIs(t, batch.Failures[0], domain.ErrNotFound)
	assert.ErrorIs(t, batch.Failures[1], domain.ErrOwnershipMismatch)
	assert.ErrorIs(t, batch.Failures[2], domain.ErrNotAvailable)
	assert.Equal(t, string(entity.UnitBlocked), batch.Failures[2].Status)
	assert.ErrorIs(t, batch.Failures[3], domain.ErrDuplicateInBatch)
	assert.Equal(t, mine[0], batch.Failures[3].Barcode)

	assert.Equal(t, entity.UnitAvailable, f.store.UnitStatus(mine[0]))
	assert.Equal(t, entity.UnitAvailable, f.store.UnitStatus(mine[2]))
}

func TestAddItems_PrecioNegativo(t *testing.T) {
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 1)
	s := f.draft(t, f.acme)

	_, err := f.shipments.AddItems(context.Background(), operador, s.ID,
		[]dto.ShipmentItemRequest{{Barcode: codes[0], UnitPrice: decimal.NewFromInt(-1)}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAddItems_ClienteSoloSusUnidades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 1)
	s := f.draft(t, f.acme)

	stranger := entity.Actor{UserID: 30, Role: entity.RoleCliente, ClientID: f.sur}
	_, err := f.shipments.AddItems(ctx, stranger, s.ID, items(nil, codes...))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.shipments.CreateShipment(ctx, stranger, dto.CreateShipmentRequest{ClientID: f.acme})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	owner := entity.Actor{UserID: 31, Role: entity.RoleCliente, ClientID: f.acme}
	got, err := f.shipments.AddItems(ctx, owner, s.ID, items(nil, codes...))
	require.NoError(t, err)
	assert.Equal(t, string(entity.ShipmentPending), got.Status)
}

func TestAddItems_EnvioNoEditable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 2)
	s := f.draft(t, f.acme)
	_, err := f.shipments.AddItems(ctx, operador, s.ID, items(nil, codes[0]))
	require.NoError(t, err)
	_, err = f.delivery.StartTransit(ctx, conductor, s.ID)
	require.NoError(t, err)

	_, err = f.shipments.AddItems(ctx, operador, s.ID, items(nil, codes[1]))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCreateShipment_ConItemsFallidosNoCreaNada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.shipments.CreateShipment(ctx, operador, dto.CreateShipmentRequest{
		ClientID: f.acme,
		Items:    items(nil, "NOEXISTE"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.shipments.GetShipment(ctx, operador, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	codes := f.unitsFor(t, f.acme, 1)
	s, err := f.shipments.CreateShipment(ctx, operador, dto.CreateShipmentRequest{
		ClientID: f.acme,
		Items:    items(map[string]int64{codes[0]: 700}, codes...),
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.ShipmentPending), s.Status)
	assert.True(t, decimal.NewFromInt(700).Equal(s.TotalValue))
}

func TestRemoveItem_UnicoItemVuelveABorrador(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 1)
	s := f.draft(t, f.acme)

	got, err := f.shipments.AddItems(ctx, operador, s.ID, items(map[string]int64{codes[0]: 900}, codes...))
	require.NoError(t, err)

	got, err = f.shipments.RemoveItem(ctx, operador, s.ID, got.Items[0].ID)
	require.NoError(t, err)

	assert.Equal(t, entity.UnitAvailable, f.store.UnitStatus(codes[0]))
	assert.Equal(t, string(entity.ShipmentDraft), got.Status)
	assert.True(t, got.TotalValue.IsZero())
	assert.Empty(t, got.Items)

	_, err = f.shipments.RemoveItem(ctx, operador, s.ID, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveItem_RecalculaTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 2)
	s := f.draft(t, f.acme)

	got, err := f.shipments.AddItems(ctx, operador, s.ID, items(map[string]int64{codes[0]: 100, codes[1]: 250}, codes...))
	require.NoError(t, err)

	got, err = f.shipments.RemoveItem(ctx, operador, s.ID, got.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ShipmentPending), got.Status)
	assert.True(t, decimal.NewFromInt(250).Equal(got.TotalValue))
}

func TestScan_CompletaEntrega(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 3)
	s := f.draft(t, f.acme)
	_, err := f.shipments.AddItems(ctx, operador, s.ID, items(nil, codes...))
	require.NoError(t, err)

	r, err := f.delivery.Scan(ctx, conductor, s.ID, codes[0])
	require.NoError(t, err)
	assert.False(t, r.Completed)
	assert.Equal(t, 33.33, r.Progress)

	r, err = f.delivery.Scan(ctx, conductor, s.ID, codes[1])
	require.NoError(t, err)
	assert.Equal(t, 66.67, r.Progress)

	r, err = f.delivery.Scan(ctx, conductor, s.ID, codes[2])
	require.NoError(t, err)
	assert.True(t, r.Completed)
	assert.Equal(t, 100.0, r.Progress)
	assert.Equal(t, string(entity.ShipmentDelivered), r.Status)

	got, err := f.shipments.GetShipment(ctx, operador, s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ShipmentDelivered), got.Status)
	assert.NotNil(t, got.VerifiedAt)
	for _, c := range codes {
		assert.Equal(t, entity.UnitDispatched, f.store.UnitStatus(c))
	}
}

func TestScan_Idempotente(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 2)
	s := f.draft(t, f.acme)
	_, err := f.shipments.AddItems(ctx, operador, s.ID, items(nil, codes...))
	require.NoError(t, err)

	_, err = f.delivery.Scan(ctx, conductor, s.ID, codes[0])
	require.NoError(t, err)
	r, err := f.delivery.Scan(ctx, conductor, s.ID, codes[0])
	require.NoError(t, err)

	assert.True(t, r.AlreadyScanned)
	assert.False(t, r.Completed)
	assert.Equal(t, 1, r.Scanned)
	assert.Equal(t, 1, f.store.ScanCount())

	st, err := f.delivery.VerificationStatus(ctx, operador, s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ShipmentPending), st.Status)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, 50.0, st.Percentage)

	pending, err := f.delivery.PendingItems(ctx, operador, s.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, codes[1], pending[0].Barcode)
}

func TestScan_Rechazos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 2)
	s := f.draft(t, f.acme)

	_, err := f.delivery.Scan(ctx, conductor, s.ID, codes[0])
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "borrador no se escanea")

	_, err = f.shipments.AddItems(ctx, operador, s.ID, items(nil, codes[0]))
	require.NoError(t, err)

	_, err = f.delivery.Scan(ctx, conductor, s.ID, codes[1])
	assert.ErrorIs(t, err, domain.ErrNotInShipment)
	var ue *domain.UnitError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, codes[1], ue.Barcode)

	_, err = f.delivery.Scan(ctx, conductor, 999, codes[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStartTransit_YEscaneoEnTransito(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 1)
	s := f.draft(t, f.acme)

	_, err := f.delivery.StartTransit(ctx, conductor, s.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.shipments.AddItems(ctx, operador, s.ID, items(nil, codes...))
	require.NoError(t, err)
	got, err := f.delivery.StartTransit(ctx, conductor, s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ShipmentInTransit), got.Status)

	r, err := f.delivery.Scan(ctx, conductor, s.ID, codes[0])
	require.NoError(t, err)
	assert.True(t, r.Completed)
}

func TestForceComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 2)
	s := f.draft(t, f.acme)
	_, err := f.shipments.AddItems(ctx, operador, s.ID, items(nil, codes...))
	require.NoError(t, err)

	_, err = f.delivery.ForceComplete(ctx, operador, s.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.delivery.ForceComplete(ctx, admin, s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ShipmentDelivered), got.Status)
	assert.NotNil(t, got.VerifiedAt)
	for _, c := range codes {
		assert.Equal(t, entity.UnitDispatched, f.store.UnitStatus(c))
	}
	assert.Contains(t, f.logs.String(), "entrega completada forzosamente")
	assert.Contains(t, f.logs.String(), `"level":"warn"`)

	_, err = f.delivery.ForceComplete(ctx, admin, s.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelShipment_LiberaUnidades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 2)
	s := f.draft(t, f.acme)
	_, err := f.shipments.AddItems(ctx, operador, s.ID, items(nil, codes...))
	require.NoError(t, err)

	got, err := f.shipments.CancelShipment(ctx, operador, s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ShipmentCancelled), got.Status)
	for _, c := range codes {
		assert.Equal(t, entity.UnitAvailable, f.store.UnitStatus(c))
	}

	// Las unidades liberadas se pueden asignar a otro envío.
	other := f.draft(t, f.acme)
	_, err = f.shipments.AddItems(ctx, operador, other.ID, items(nil, codes...))
	require.NoError(t, err)

	_, err = f.shipments.CancelShipment(ctx, operador, s.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAvailableUnitsByClient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 3)
	f.unitsFor(t, f.sur, 2)

	s := f.draft(t, f.acme)
	_, err := f.shipments.AddItems(ctx, operador, s.ID, items(nil, codes[0]))
	require.NoError(t, err)

	got, err := f.shipments.AvailableUnitsByClient(ctx, operador, f.acme)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Units, 2)
	assert.Equal(t, "REM", got[0].Remision)
	for _, u := range got[0].Units {
		assert.NotEqual(t, codes[0], u.Barcode)
		assert.Equal(t, "CAJA-STD", u.ProductSKU)
	}

	_, err = f.shipments.AvailableUnitsByClient(ctx, entity.Actor{Role: entity.RoleCliente, ClientID: f.sur}, f.acme)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestScanBatch_UnEnvioPorCliente(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	acme := f.unitsFor(t, f.acme, 3)
	sur := f.unitsFor(t, f.sur, 2)

	res, err := f.intake.ScanBatch(ctx, operador, dto.BulkIntakeRequest{
		Barcodes: []string{acme[0], sur[0], acme[1], sur[1], acme[2]},
		Driver:   "Luis", Plate: "XYZ987", Origin: "Cali",
	})
	require.NoError(t, err)
	require.Len(t, res.Shipments, 2)
	assert.NotEmpty(t, res.BatchID)

	owners := map[int64][]string{f.acme: acme, f.sur: sur}
	for _, bs := range res.Shipments {
		s, err := f.shipments.GetShipment(ctx, operador, bs.ShipmentID)
		require.NoError(t, err)
		assert.Equal(t, string(entity.ShipmentPending), s.Status)
		assert.Equal(t, bs.ClientID, s.ClientID)
		assert.Equal(t, res.BatchID, s.IntakeBatchID)
		assert.True(t, s.TotalValue.IsZero())
		require.Len(t, s.Items, len(owners[s.ClientID]))
		for _, it := range s.Items {
			assert.Contains(t, owners[s.ClientID], it.Barcode)
		}
	}
	for _, c := range append(acme, sur...) {
		assert.Equal(t, entity.UnitReserved, f.store.UnitStatus(c))
	}
}

func TestScanBatch_TodoONada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	acme := f.unitsFor(t, f.acme, 2)
	sur := f.unitsFor(t, f.sur, 1)

	_, err := f.loads.BlockUnit(ctx, sur[0])
	require.NoError(t, err)

	_, err = f.intake.ScanBatch(ctx, operador, dto.BulkIntakeRequest{
		Barcodes: []string{acme[0], sur[0], "NOEXISTE", acme[0]},
	})
	var batch *domain.BatchError
	require.True(t, errors.As(err, &batch))
	assert.Equal(t, []string{sur[0], "NOEXISTE", acme[0]}, batch.Barcodes())
	assert.ErrorIs(t, err, domain.ErrDuplicateInBatch)

	assert.Equal(t, entity.UnitAvailable, f.store.UnitStatus(acme[0]))
	_, err = f.shipments.GetShipment(ctx, operador, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.intake.ScanBatch(ctx, operador, dto.BulkIntakeRequest{Barcodes: []string{" "}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestScanBatch_NoDobleReserva(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 1)
	s := f.draft(t, f.acme)
	_, err := f.shipments.AddItems(ctx, operador, s.ID, items(nil, codes...))
	require.NoError(t, err)

	_, err = f.intake.ScanBatch(ctx, operador, dto.BulkIntakeRequest{Barcodes: codes})
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
}

func TestScanBatch_SoloPersonalDeBodega(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 1)

	_, err := f.intake.ScanBatch(ctx, conductor, dto.BulkIntakeRequest{Barcodes: codes})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, entity.UnitAvailable, f.store.UnitStatus(codes[0]))

	res, err := f.intake.ScanBatch(ctx, admin, dto.BulkIntakeRequest{Barcodes: codes})
	require.NoError(t, err)
	assert.Len(t, res.Shipments, 1)
}

func TestScanBatch_ClienteInactivo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	acme := f.unitsFor(t, f.acme, 1)
	sur := f.unitsFor(t, f.sur, 1)
	f.store.SetClientActive(f.sur, false)

	_, err := f.intake.ScanBatch(ctx, operador, dto.BulkIntakeRequest{Barcodes: []string{acme[0], sur[0]}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// todo o nada: tampoco se creó el envío del cliente activo
	assert.Equal(t, entity.UnitAvailable, f.store.UnitStatus(acme[0]))
	_, err = f.shipments.GetShipment(ctx, operador, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveItem_RechazadoTrasIniciarVerificacion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 3)
	s := f.draft(t, f.acme)
	got, err := f.shipments.AddItems(ctx, operador, s.ID, items(nil, codes...))
	require.NoError(t, err)

	_, err = f.delivery.Scan(ctx, conductor, s.ID, codes[0])
	require.NoError(t, err)
	_, err = f.delivery.Scan(ctx, conductor, s.ID, codes[1])
	require.NoError(t, err)

	var last int64
	for _, it := range got.Items {
		if it.Barcode == codes[2] {
			last = it.ID
		}
	}
	_, err = f.shipments.RemoveItem(ctx, operador, s.ID, last)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	st, err := f.delivery.VerificationStatus(ctx, operador, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Scanned)
	assert.Equal(t, entity.UnitReserved, f.store.UnitStatus(codes[2]))

	r, err := f.delivery.Scan(ctx, conductor, s.ID, codes[2])
	require.NoError(t, err)
	assert.True(t, r.Completed)
	assert.Equal(t, string(entity.ShipmentDelivered), r.Status)
}

func TestAddItems_ConcurrentesUnSoloGanador(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	codes := f.unitsFor(t, f.acme, 1)

	const n = 8
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = f.draft(t, f.acme).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.shipments.AddItems(ctx, operador, ids[i], items(nil, codes...))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
	}
	assert.Equal(t, 1, ok)
}

func TestGuideNumbers_Unicos(t *testing.T) {
	f := newFixture(t)
	seen := map[string]bool{}
	for i := 0; i < 60; i++ {
		s := f.draft(t, f.acme)
		assert.False(t, seen[s.GuideNumber], s.GuideNumber)
		seen[s.GuideNumber] = true
	}
}

func TestGuideNumbers_ReintentaColision(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	client := store.AddClient("Acme", "1", true)
	suffixes := []int{123456, 123456, 654321}
	i := 0
	gen := guide.NewGenerator(func() (int, error) {
		v := suffixes[i%len(suffixes)]
		i++
		return v, nil
	})
	uc := shipping.NewShipmentUseCase(memory.NewTxRunner(store), memory.NewShipmentRepository(store),
		memory.NewUnitRepository(store), gen, logger.Nop())

	a, err := uc.CreateShipment(ctx, operador, dto.CreateShipmentRequest{ClientID: client})
	require.NoError(t, err)
	b, err := uc.CreateShipment(ctx, operador, dto.CreateShipmentRequest{ClientID: client})
	require.NoError(t, err)
	assert.Equal(t, "ACM123456", a.GuideNumber)
	assert.Equal(t, "ACM654321", b.GuideNumber)
}
