package loads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

// maxSKUCandidates tope de sufijos -2, -3... al derivar un SKU del nombre.
const maxSKUCandidates = 1000

// LoadUseCase operaciones sobre el agregado de carga (carga → ítems → unidades).
type LoadUseCase struct {
	txRunner     TxRunner
	loadRepo     repository.LoadRepository
	unitRepo     repository.UnitRepository
	clientRepo   repository.ClientRepository
	supplierRepo repository.SupplierRepository
	materializer *UnitMaterializer
	renderer     LabelRenderer
}

// NewLoadUseCase construye el caso de uso.
func NewLoadUseCase(
	txRunner TxRunner,
	loadRepo repository.LoadRepository,
	unitRepo repository.UnitRepository,
	clientRepo repository.ClientRepository,
	supplierRepo repository.SupplierRepository,
	materializer *UnitMaterializer,
	renderer LabelRenderer,
) *LoadUseCase {
	return &LoadUseCase{
		txRunner:     txRunner,
		loadRepo:     loadRepo,
		unitRepo:     unitRepo,
		clientRepo:   clientRepo,
		supplierRepo: supplierRepo,
		materializer: materializer,
		renderer:     renderer,
	}
}

// CreateLoad registra la carga y sus ítems; si auto_generate_units (por defecto true)
// materializa las unidades en la misma transacción.
func (uc *LoadUseCase) CreateLoad(ctx context.Context, in dto.CreateLoadRequest) (*dto.LoadResponse, error) {
	if strings.TrimSpace(in.Remision) == "" {
		return nil, fmt.Errorf("%w: remisión obligatoria", domain.ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: la carga debe tener al menos un ítem", domain.ErrValidation)
	}
	for i, it := range in.Items {
		if err := validateItem(it); err != nil {
			return nil, fmt.Errorf("ítem %d: %w", i+1, err)
		}
	}

	client, err := uc.clientRepo.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: cliente %d", domain.ErrNotFound, in.ClientID)
	}
	if !client.Active {
		return nil, fmt.Errorf("%w: cliente %d inactivo", domain.ErrValidation, in.ClientID)
	}
	supplier, err := uc.supplierRepo.GetByID(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, fmt.Errorf("%w: proveedor %d", domain.ErrNotFound, in.SupplierID)
	}
	if !supplier.Active {
		return nil, fmt.Errorf("%w: proveedor %d inactivo", domain.ErrValidation, in.SupplierID)
	}

	auto := in.AutoGenerateUnits == nil || *in.AutoGenerateUnits
	now := time.Now()

	var out *entity.Load
	err = uc.txRunner.RunLoads(ctx, func(
		loadRepo repository.LoadRepository,
		unitRepo repository.UnitRepository,
		productRepo repository.ProductRepository,
	) error {
		load := &entity.Load{
			ClientID:    in.ClientID,
			SupplierID:  in.SupplierID,
			Remision:    strings.TrimSpace(in.Remision),
			InvoiceFile: in.InvoiceFile,
			Notes:       in.Notes,
			Status:      entity.LoadReceived,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := loadRepo.Create(ctx, load); err != nil {
			return err
		}
		for _, it := range in.Items {
			product, err := resolveProduct(ctx, productRepo, it, now)
			if err != nil {
				return err
			}
			item := &entity.LoadItem{LoadID: load.ID, ProductID: product.ID, Quantity: it.Quantity, CreatedAt: now}
			if err := loadRepo.CreateItem(ctx, item); err != nil {
				return err
			}
		}
		if auto {
			if _, err := uc.materializer.MaterializeInTx(ctx, loadRepo, unitRepo, load.ID); err != nil {
				return err
			}
		}
		var err error
		out, err = loadRepo.GetByID(ctx, load.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toLoadResponse(out), nil
}

// GetLoad obtiene la carga con sus ítems. Un actor cliente solo ve sus cargas.
func (uc *LoadUseCase) GetLoad(ctx context.Context, actor entity.Actor, id int64) (*dto.LoadResponse, error) {
	load, err := uc.getScoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toLoadResponse(load), nil
}

// AddItem agrega un ítem a una carga existente. Las unidades se crean al materializar.
func (uc *LoadUseCase) AddItem(ctx context.Context, loadID int64, in dto.LoadItemRequest) (*dto.LoadResponse, error) {
	if err := validateItem(in); err != nil {
		return nil, err
	}
	var out *entity.Load
	err := uc.txRunner.RunLoads(ctx, func(
		loadRepo repository.LoadRepository,
		_ repository.UnitRepository,
		productRepo repository.ProductRepository,
	) error {
		load, err := loadRepo.GetForUpdate(ctx, loadID)
		if err != nil {
			return err
		}
		if load == nil {
			return fmt.Errorf("%w: carga %d", domain.ErrNotFound, loadID)
		}
		now := time.Now()
		product, err := resolveProduct(ctx, productRepo, in, now)
		if err != nil {
			return err
		}
		item := &entity.LoadItem{LoadID: loadID, ProductID: product.ID, Quantity: in.Quantity, CreatedAt: now}
		if err := loadRepo.CreateItem(ctx, item); err != nil {
			return err
		}
		out, err = loadRepo.GetByID(ctx, loadID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toLoadResponse(out), nil
}

// UpdateItemQuantity cambia la cantidad esperada. No puede quedar por debajo de las unidades ya creadas.
func (uc *LoadUseCase) UpdateItemQuantity(ctx context.Context, loadID, itemID int64, quantity int) (*dto.LoadResponse, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrValidation)
	}
	var out *entity.Load
	err := uc.txRunner.RunLoads(ctx, func(
		loadRepo repository.LoadRepository,
		_ repository.UnitRepository,
		_ repository.ProductRepository,
	) error {
		item, err := lockItem(ctx, loadRepo, loadID, itemID)
		if err != nil {
			return err
		}
		if quantity < item.UnitCount {
			return fmt.Errorf("%w: el ítem ya tiene %d unidades generadas", domain.ErrValidation, item.UnitCount)
		}
		if err := loadRepo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
			return err
		}
		out, err = loadRepo.GetByID(ctx, loadID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toLoadResponse(out), nil
}

// DeleteItem elimina el ítem y sus unidades. Falla si alguna unidad está en un envío.
func (uc *LoadUseCase) DeleteItem(ctx context.Context, loadID, itemID int64) error {
	return uc.txRunner.RunLoads(ctx, func(
		loadRepo repository.LoadRepository,
		unitRepo repository.UnitRepository,
		_ repository.ProductRepository,
	) error {
		if _, err := lockItem(ctx, loadRepo, loadID, itemID); err != nil {
			return err
		}
		n, err := unitRepo.CountReferencedByItem(ctx, itemID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w (%d)", domain.ErrUnitInUse, n)
		}
		return loadRepo.DeleteItem(ctx, itemID)
	})
}

// Materialize genera las unidades faltantes de la carga.
func (uc *LoadUseCase) Materialize(ctx context.Context, loadID int64) (*dto.MaterializeResponse, error) {
	return uc.materializer.Materialize(ctx, loadID)
}

// MarkStored etiquetada → almacenada.
func (uc *LoadUseCase) MarkStored(ctx context.Context, loadID int64) (*dto.LoadResponse, error) {
	var out *entity.Load
	err := uc.txRunner.RunLoads(ctx, func(
		loadRepo repository.LoadRepository,
		_ repository.UnitRepository,
		_ repository.ProductRepository,
	) error {
		load, err := loadRepo.GetForUpdate(ctx, loadID)
		if err != nil {
			return err
		}
		if load == nil {
			return fmt.Errorf("%w: carga %d", domain.ErrNotFound, loadID)
		}
		if !load.Status.CanStore() {
			return fmt.Errorf("%w: carga en estado %s", domain.ErrInvalidTransition, load.Status)
		}
		if err := loadRepo.UpdateStatus(ctx, loadID, entity.LoadStored); err != nil {
			return err
		}
		out, err = loadRepo.GetByID(ctx, loadID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toLoadResponse(out), nil
}

// ListUnits unidades de la carga; itemID 0 = todas.
func (uc *LoadUseCase) ListUnits(ctx context.Context, actor entity.Actor, loadID, itemID int64) ([]dto.UnitResponse, error) {
	if _, err := uc.getScoped(ctx, actor, loadID); err != nil {
		return nil, err
	}
	units, err := uc.unitRepo.ListByLoad(ctx, loadID, itemID)
	if err != nil {
		return nil, err
	}
	return toUnitResponses(units), nil
}

// GetUnitByBarcode busca una unidad por su código.
func (uc *LoadUseCase) GetUnitByBarcode(ctx context.Context, actor entity.Actor, code string) (*dto.UnitResponse, error) {
	unit, err := uc.unitRepo.GetByBarcode(ctx, code)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, &domain.UnitError{Barcode: code, Err: domain.ErrNotFound}
	}
	if !actor.CanActOnClient(unit.ClientID) {
		return nil, &domain.UnitError{Barcode: code, Err: domain.ErrOwnershipMismatch}
	}
	r := toUnitResponse(unit)
	return &r, nil
}

// BlockUnit disponible → bloqueada.
func (uc *LoadUseCase) BlockUnit(ctx context.Context, code string) (*dto.UnitResponse, error) {
	return uc.setUnitStatus(ctx, code, entity.UnitBlocked)
}

// UnblockUnit bloqueada → disponible.
func (uc *LoadUseCase) UnblockUnit(ctx context.Context, code string) (*dto.UnitResponse, error) {
	return uc.setUnitStatus(ctx, code, entity.UnitAvailable)
}

func (uc *LoadUseCase) setUnitStatus(ctx context.Context, code string, next entity.UnitStatus) (*dto.UnitResponse, error) {
	var out *entity.Unit
	err := uc.txRunner.RunLoads(ctx, func(
		_ repository.LoadRepository,
		unitRepo repository.UnitRepository,
		_ repository.ProductRepository,
	) error {
		unit, err := unitRepo.GetByBarcodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if unit == nil {
			return &domain.UnitError{Barcode: code, Err: domain.ErrNotFound}
		}
		// Bloquear o desbloquear solo aplica entre disponible y bloqueada.
		if unit.Status == entity.UnitReserved || unit.Status == entity.UnitDispatched {
			return &domain.UnitError{Barcode: code, Status: string(unit.Status), Err: domain.ErrInvalidTransition}
		}
		if err := unit.TransitionTo(next); err != nil {
			return &domain.UnitError{Barcode: code, Status: string(unit.Status), Err: domain.ErrInvalidTransition}
		}
		if err := unitRepo.UpdateStatus(ctx, []int64{unit.ID}, next); err != nil {
			return err
		}
		out = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	r := toUnitResponse(out)
	return &r, nil
}

// Labels genera el PDF de etiquetas de la carga (todas sus unidades).
func (uc *LoadUseCase) Labels(ctx context.Context, actor entity.Actor, loadID int64) (pdf []byte, filename string, err error) {
	load, err := uc.getScoped(ctx, actor, loadID)
	if err != nil {
		return nil, "", err
	}
	units, err := uc.unitRepo.ListByLoad(ctx, loadID, 0)
	if err != nil {
		return nil, "", err
	}
	if len(units) == 0 {
		return nil, "", fmt.Errorf("%w: la carga %d no tiene unidades", domain.ErrValidation, loadID)
	}
	client, err := uc.clientRepo.GetByID(ctx, load.ClientID)
	if err != nil {
		return nil, "", err
	}
	if client == nil {
		client = &entity.Client{ID: load.ClientID}
	}
	pdf, err = uc.renderer.RenderLabels(ctx, load, client, units)
	if err != nil {
		return nil, "", fmt.Errorf("etiquetas: generación fallida: %w", err)
	}
	return pdf, fmt.Sprintf("etiquetas_carga_%d.pdf", loadID), nil
}

func (uc *LoadUseCase) getScoped(ctx context.Context, actor entity.Actor, id int64) (*entity.Load, error) {
	load, err := uc.loadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if load == nil {
		return nil, fmt.Errorf("%w: carga %d", domain.ErrNotFound, id)
	}
	if !actor.CanActOnClient(load.ClientID) {
		return nil, domain.ErrForbidden
	}
	return load, nil
}

func lockItem(ctx context.Context, loadRepo repository.LoadRepository, loadID, itemID int64) (*entity.LoadItem, error) {
	load, err := loadRepo.GetForUpdate(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if load == nil {
		return nil, fmt.Errorf("%w: carga %d", domain.ErrNotFound, loadID)
	}
	for _, it := range load.Items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return nil, fmt.Errorf("%w: ítem %d en carga %d", domain.ErrNotFound, itemID, loadID)
}

func validateItem(it dto.LoadItemRequest) error {
	if it.Quantity <= 0 {
		return fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrValidation)
	}
	if it.ProductID <= 0 && strings.TrimSpace(it.SKU) == "" && strings.TrimSpace(it.ProductName) == "" {
		return fmt.Errorf("%w: indique product_id, sku o product_name", domain.ErrValidation)
	}
	return nil
}

// resolveProduct ubica el producto por id, por SKU (lo crea si no existe) o crea uno
// nuevo con SKU derivado del nombre.
func resolveProduct(ctx context.Context, productRepo repository.ProductRepository, it dto.LoadItemRequest, now time.Time) (*entity.Product, error) {
	if it.ProductID > 0 {
		p, err := productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %d", domain.ErrNotFound, it.ProductID)
		}
		if !p.Active {
			return nil, fmt.Errorf("%w: producto %s inactivo", domain.ErrValidation, p.SKU)
		}
		return p, nil
	}

	unitMeasure := it.UnitMeasure
	if unitMeasure == "" {
		unitMeasure = entity.DefaultUnitMeasure
	}

	if sku := strings.ToUpper(strings.TrimSpace(it.SKU)); sku != "" {
		p, err := productRepo.GetBySKU(ctx, sku)
		if err != nil {
			return nil, err
		}
		if p != nil {
			if !p.Active {
				return nil, fmt.Errorf("%w: producto %s inactivo", domain.ErrValidation, p.SKU)
			}
			return p, nil
		}
		name := strings.TrimSpace(it.ProductName)
		if name == "" {
			name = sku
		}
		p = &entity.Product{SKU: sku, Name: name, UnitMeasure: unitMeasure, Active: true, CreatedAt: now}
		if err := productRepo.Create(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}

	name := strings.TrimSpace(it.ProductName)
	base := entity.SKUFromName(name)
	for n := 1; n <= maxSKUCandidates; n++ {
		candidate := entity.SKUCandidate(base, n)
		existing, err := productRepo.GetBySKU(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}
		p := &entity.Product{SKU: candidate, Name: name, UnitMeasure: unitMeasure, Active: true, CreatedAt: now}
		err = productRepo.Create(ctx, p)
		if errors.Is(err, domain.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: no hay SKU libre para %q", domain.ErrDuplicate, name)
}

func toLoadResponse(l *entity.Load) *dto.LoadResponse {
	items := make([]dto.LoadItemResponse, 0, len(l.Items))
	total := 0
	for _, it := range l.Items {
		items = append(items, dto.LoadItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductSKU:  it.ProductSKU,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitCount:   it.UnitCount,
		})
		total += it.UnitCount
	}
	return &dto.LoadResponse{
		ID:          l.ID,
		ClientID:    l.ClientID,
		SupplierID:  l.SupplierID,
		Remision:    l.Remision,
		InvoiceFile: l.InvoiceFile,
		Notes:       l.Notes,
		Status:      string(l.Status),
		TotalUnits:  total,
		Items:       items,
		CreatedAt:   l.CreatedAt,
	}
}

func toUnitResponse(u *entity.Unit) dto.UnitResponse {
	return dto.UnitResponse{
		ID:          u.ID,
		Barcode:     u.Barcode,
		Status:      string(u.Status),
		LoadID:      u.LoadID,
		LoadItemID:  u.LoadItemID,
		ClientID:    u.ClientID,
		ProductSKU:  u.ProductSKU,
		ProductName: u.ProductName,
	}
}

func toUnitResponses(units []*entity.Unit) []dto.UnitResponse {
	out := make([]dto.UnitResponse, 0, len(units))
	for _, u := range units {
		out = append(out, toUnitResponse(u))
	}
	return out
}
