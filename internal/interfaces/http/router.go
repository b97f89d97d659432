package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/logistica-api/internal/application/loads"
	"github.com/jhoicas/logistica-api/internal/application/shipping"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LoadUC     *loads.LoadUseCase
	ShipmentUC *shipping.ShipmentUseCase
	DeliveryUC *shipping.DeliveryUseCase
	IntakeUC   *shipping.IntakeUseCase
	JWTSecret  string
}

const (
	admin     = entity.RoleAdmin
	operador  = entity.RoleOperador
	conductor = entity.RoleConductor
	cliente   = entity.RoleCliente
)

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Todo /api requiere Bearer Token; el alcance por cliente se vuelve a verificar en los casos de uso.
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(admin, operador, conductor, cliente)
	staff := RequireRole(admin, operador)
	adminOnly := RequireRole(admin)

	// Cargas
	loadHandler := NewLoadHandler(deps.LoadUC)
	loadsGroup := api.Group("/loads")
	loadsGroup.Post("/", staff, loadHandler.Create)
	loadsGroup.Get("/:id", anyRole, loadHandler.GetByID)
	loadsGroup.Post("/:id/items", staff, loadHandler.AddItem)
	loadsGroup.Patch("/:id/items/:itemId", staff, loadHandler.UpdateItem)
	loadsGroup.Delete("/:id/items/:itemId", adminOnly, loadHandler.DeleteItem)
	loadsGroup.Post("/:id/materialize", adminOnly, loadHandler.Materialize)
	loadsGroup.Post("/:id/store", staff, loadHandler.Store)
	loadsGroup.Get("/:id/units", anyRole, loadHandler.ListUnits)
	loadsGroup.Get("/:id/labels", RequireRole(admin, operador, cliente), loadHandler.Labels)

	// Unidades
	units := api.Group("/units")
	units.Get("/by-barcode/:code", anyRole, loadHandler.UnitByBarcode)
	units.Post("/:code/block", adminOnly, loadHandler.BlockUnit)
	units.Post("/:code/unblock", adminOnly, loadHandler.UnblockUnit)

	// Envíos
	shipmentHandler := NewShipmentHandler(deps.ShipmentUC, deps.IntakeUC)
	deliveryHandler := NewDeliveryHandler(deps.DeliveryUC)
	api.Get("/clients/:id/available-units", RequireRole(admin, operador, cliente), shipmentHandler.AvailableUnits)

	shipments := api.Group("/shipments")
	shipments.Post("/", staff, shipmentHandler.Create)
	shipments.Post("/bulk-intake", staff, shipmentHandler.BulkIntake)
	shipments.Get("/:id", anyRole, shipmentHandler.GetByID)
	shipments.Post("/:id/items", staff, shipmentHandler.AddItems)
	shipments.Delete("/:id/items/:itemId", staff, shipmentHandler.RemoveItem)
	shipments.Post("/:id/cancel", staff, shipmentHandler.Cancel)

	// Entrega
	shipments.Post("/:id/dispatch", RequireRole(admin, conductor), deliveryHandler.Dispatch)
	shipments.Post("/:id/scan", RequireRole(admin, conductor), deliveryHandler.Scan)
	shipments.Post("/:id/force-complete", adminOnly, deliveryHandler.ForceComplete)
	shipments.Get("/:id/verification", anyRole, deliveryHandler.Verification)
	shipments.Get("/:id/pending-items", anyRole, deliveryHandler.PendingItems)
}
