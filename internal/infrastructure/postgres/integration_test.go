package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
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
	"github.com/jhoicas/logistica-api/internal/infrastructure/postgres"
	"github.com/jhoicas/logistica-api/pkg/config"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// Requiere una base desechable: las tablas se vacían al iniciar cada test.
const dsnEnv = "LOGISTICA_TEST_DATABASE_URL"

type pgFixture struct {
	pool      *pgxpool.Pool
	tx        *postgres.TxRunner
	loads     *loads.LoadUseCase
	shipments *shipping.ShipmentUseCase

	client, supplier, product int64
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s no definido", dsnEnv)
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))

	_, err = pool.Exec(ctx, `TRUNCATE delivery_scans, shipment_items, shipments, units, load_items, loads,
		products, suppliers, clients RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	f := &pgFixture{pool: pool, tx: postgres.NewTxRunner(pool)}
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO clients (name, nit) VALUES ('Acme Ltda', '900123456') RETURNING id`).Scan(&f.client))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO suppliers (name, nit) VALUES ('Importadora Andina', '901555111') RETURNING id`).Scan(&f.supplier))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO products (sku, name) VALUES ('CAJA-STD', 'Caja estándar') RETURNING id`).Scan(&f.product))

	log := logger.Nop()
	units := postgres.NewUnitRepository(pool)
	mat := loads.NewUnitMaterializer(f.tx, barcode.NewGenerator(), log)
	f.loads = loads.NewLoadUseCase(f.tx, postgres.NewLoadRepository(pool), units,
		postgres.NewClientRepository(pool), postgres.NewSupplierRepository(pool), mat, nil)
	f.shipments = shipping.NewShipmentUseCase(f.tx, postgres.NewShipmentRepository(pool), units,
		guide.NewGenerator(nil), log)
	return f
}

func (f *pgFixture) units(t *testing.T, n int) []dto.UnitResponse {
	t.Helper()
	ctx := context.Background()
	load, err := f.loads.CreateLoad(ctx, dto.CreateLoadRequest{
		ClientID:   f.client,
		SupplierID: f.supplier,
		Remision:   "REM-PG",
		Items:      []dto.LoadItemRequest{{ProductID: f.product, Quantity: n}},
	})
	require.NoError(t, err)
	units, err := f.loads.ListUnits(ctx, entity.Actor{UserID: 1, Role: entity.RoleAdmin}, load.ID, 0)
	require.NoError(t, err)
	require.Len(t, units, n)
	return units
}

func (f *pgFixture) pendingShipment(t *testing.T, guideNumber string) *entity.Shipment {
	t.Helper()
	s := &entity.Shipment{
		GuideNumber: guideNumber,
		ClientID:    f.client,
		Status:      entity.ShipmentPending,
		TotalValue:  decimal.Zero,
	}
	require.NoError(t, postgres.NewShipmentRepository(f.pool).Create(context.Background(), s))
	return s
}

func TestShipmentRepo_ReservaActivaPorIndiceParcial(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	repo := postgres.NewShipmentRepository(f.pool)

	unit, err := postgres.NewUnitRepository(f.pool).GetByBarcode(ctx, f.units(t, 1)[0].Barcode)
	require.NoError(t, err)
	a := f.pendingShipment(t, "ACM100001")
	b := f.pendingShipment(t, "ACM100002")

	price := decimal.NewFromInt(1000)
	require.NoError(t, repo.AddItem(ctx, &entity.ShipmentItem{ShipmentID: a.ID, UnitID: unit.ID, UnitPrice: price, Active: true}))

	// el segundo ítem activo choca con shipment_items_active_unit_uq
	err = repo.AddItem(ctx, &entity.ShipmentItem{ShipmentID: b.ID, UnitID: unit.ID, UnitPrice: price, Active: true})
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)

	held, err := repo.FindActiveItemByUnit(ctx, unit.ID)
	require.NoError(t, err)
	require.NotNil(t, held)
	assert.Equal(t, a.ID, held.ShipmentID)

	// cancelar libera la reserva
	require.NoError(t, repo.UpdateStatus(ctx, a.ID, entity.ShipmentCancelled, nil))
	held, err = repo.FindActiveItemByUnit(ctx, unit.ID)
	require.NoError(t, err)
	assert.Nil(t, held)

	require.NoError(t, repo.AddItem(ctx, &entity.ShipmentItem{ShipmentID: b.ID, UnitID: unit.ID, UnitPrice: price, Active: true}))

	// reactivar A chocaría con la reserva de B
	err = repo.UpdateStatus(ctx, a.ID, entity.ShipmentPending, nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Active)
	assert.True(t, got.Items[0].UnitPrice.Equal(price))
}

func TestShipmentRepo_MismaUnidadDosVecesEnElEnvio(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	repo := postgres.NewShipmentRepository(f.pool)

	unit, err := postgres.NewUnitRepository(f.pool).GetByBarcode(ctx, f.units(t, 1)[0].Barcode)
	require.NoError(t, err)
	a := f.pendingShipment(t, "ACM200001")

	require.NoError(t, repo.AddItem(ctx, &entity.ShipmentItem{ShipmentID: a.ID, UnitID: unit.ID, Active: true}))
	require.NoError(t, repo.UpdateStatus(ctx, a.ID, entity.ShipmentCancelled, nil))

	// inactivo, pero el par (envío, unidad) sigue siendo único
	err = repo.AddItem(ctx, &entity.ShipmentItem{ShipmentID: a.ID, UnitID: unit.ID, Active: false})
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)

	n, err := repo.CountItems(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestShipmentRepo_GuiaDuplicada(t *testing.T) {
	f := newPGFixture(t)
	f.pendingShipment(t, "ACM300001")

	err := postgres.NewShipmentRepository(f.pool).Create(context.Background(), &entity.Shipment{
		GuideNumber: "ACM300001", ClientID: f.client, Status: entity.ShipmentDraft,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestAddItems_ConcurrentesSobrePostgres(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	operador := entity.Actor{UserID: 10, Role: entity.RoleOperador}

	units := f.units(t, 2)
	reqs := make([]dto.ShipmentItemRequest, 0, len(units))
	for _, u := range units {
		reqs = append(reqs, dto.ShipmentItemRequest{Barcode: u.Barcode, UnitPrice: decimal.NewFromInt(500)})
	}

	const n = 8
	ids := make([]int64, n)
	for i := range ids {
		s, err := f.shipments.CreateShipment(ctx, operador, dto.CreateShipmentRequest{ClientID: f.client})
		require.NoError(t, err)
		ids[i] = s.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.shipments.AddItems(ctx, operador, ids[i], reqs)
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

	var active int
	require.NoError(t, f.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM shipment_items WHERE active`).Scan(&active))
	assert.Equal(t, len(units), active)

	var reserved int
	require.NoError(t, f.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM units WHERE status = $1`, string(entity.UnitReserved)).Scan(&reserved))
	assert.Equal(t, len(units), reserved)
}
