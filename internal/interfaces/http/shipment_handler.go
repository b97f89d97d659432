package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/shipping"
)

// ShipmentHandler armado de envíos e ingreso masivo.
type ShipmentHandler struct {
	uc     *shipping.ShipmentUseCase
	intake *shipping.IntakeUseCase
}

// NewShipmentHandler construye el handler.
func NewShipmentHandler(uc *shipping.ShipmentUseCase, intake *shipping.IntakeUseCase) *ShipmentHandler {
	return &ShipmentHandler{uc: uc, intake: intake}
}

// Create godoc
// @Summary      Crear envío
// @Description  Crea el envío en borrador con número de guía único; si trae ítems los reserva y queda pendiente.
// @Tags         shipments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateShipmentRequest  true  "Envío"
// @Success      201   {object}  dto.ShipmentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/shipments [post]
func (h *ShipmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateShipmentRequest
	if err := bindAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateShipment(c.UserContext(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener envío
// @Tags         shipments
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del envío"
// @Success      200  {object}  dto.ShipmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/shipments/{id} [get]
func (h *ShipmentHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetShipment(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddItems godoc
// @Summary      Agregar unidades al envío
// @Description  Todo o nada: si alguna unidad falla, details lista todos los códigos rechazados.
// @Tags         shipments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                  true  "ID del envío"
// @Param        body  body  dto.AddItemsRequest  true  "Lote"
// @Success      200   {object}  dto.ShipmentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/shipments/{id}/items [post]
func (h *ShipmentHandler) AddItems(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.AddItemsRequest
	if err := bindAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AddItems(c.UserContext(), GetActor(c), id, in.Items)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RemoveItem godoc
// @Summary      Quitar ítem del envío
// @Tags         shipments
// @Security     Bearer
// @Produce      json
// @Param        id      path  int  true  "ID del envío"
// @Param        itemId  path  int  true  "ID del ítem"
// @Success      200     {object}  dto.ShipmentResponse
// @Router       /api/shipments/{id}/items/{itemId} [delete]
func (h *ShipmentHandler) RemoveItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	itemID, err := paramID(c, "itemId")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.RemoveItem(c.UserContext(), GetActor(c), id, itemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar envío
// @Tags         shipments
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del envío"
// @Success      200  {object}  dto.ShipmentResponse
// @Router       /api/shipments/{id}/cancel [post]
func (h *ShipmentHandler) Cancel(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CancelShipment(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AvailableUnits godoc
// @Summary      Unidades disponibles del cliente
// @Tags         shipments
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del cliente"
// @Success      200  {array}  dto.AvailableLoadResponse
// @Router       /api/clients/{id}/available-units [get]
func (h *ShipmentHandler) AvailableUnits(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AvailableUnitsByClient(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// BulkIntake godoc
// @Summary      Ingreso masivo
// @Description  Agrupa los códigos por cliente y crea un envío pendiente por cada uno.
// @Tags         shipments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkIntakeRequest  true  "Códigos"
// @Success      201   {object}  dto.BulkIntakeResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/shipments/bulk-intake [post]
func (h *ShipmentHandler) BulkIntake(c *fiber.Ctx) error {
	var in dto.BulkIntakeRequest
	if err := bindAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.intake.ScanBatch(c.UserContext(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
