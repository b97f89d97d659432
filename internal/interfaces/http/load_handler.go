package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/loads"
)

// LoadHandler cargas, unidades y etiquetas.
type LoadHandler struct {
	uc *loads.LoadUseCase
}

// NewLoadHandler construye el handler.
func NewLoadHandler(uc *loads.LoadUseCase) *LoadHandler {
	return &LoadHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar carga
// @Description  Crea la carga con sus ítems; por defecto genera las unidades en la misma operación.
// @Tags         loads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLoadRequest  true  "Carga"
// @Success      201   {object}  dto.LoadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/loads [post]
func (h *LoadHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateLoadRequest
	if err := bindAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateLoad(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener carga
// @Tags         loads
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la carga"
// @Success      200  {object}  dto.LoadResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/loads/{id} [get]
func (h *LoadHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetLoad(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddItem godoc
// @Summary      Agregar ítem a la carga
// @Tags         loads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                  true  "ID de la carga"
// @Param        body  body  dto.LoadItemRequest  true  "Ítem"
// @Success      201   {object}  dto.LoadResponse
// @Router       /api/loads/{id}/items [post]
func (h *LoadHandler) AddItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.LoadItemRequest
	if err := bindAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AddItem(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateItem godoc
// @Summary      Cambiar cantidad de un ítem
// @Description  La cantidad no puede quedar por debajo de las unidades ya generadas.
// @Tags         loads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  int                            true  "ID de la carga"
// @Param        itemId  path  int                            true  "ID del ítem"
// @Param        body    body  dto.UpdateItemQuantityRequest  true  "Cantidad"
// @Success      200     {object}  dto.LoadResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/loads/{id}/items/{itemId} [patch]
func (h *LoadHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	itemID, err := paramID(c, "itemId")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateItemQuantityRequest
	if err := bindAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateItemQuantity(c.UserContext(), id, itemID, in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteItem godoc
// @Summary      Eliminar ítem y sus unidades
// @Tags         loads
// @Security     Bearer
// @Param        id      path  int  true  "ID de la carga"
// @Param        itemId  path  int  true  "ID del ítem"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/loads/{id}/items/{itemId} [delete]
func (h *LoadHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	itemID, err := paramID(c, "itemId")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.DeleteItem(c.UserContext(), id, itemID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Materialize godoc
// @Summary      Generar unidades faltantes
// @Tags         loads
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la carga"
// @Success      200  {object}  dto.MaterializeResponse
// @Router       /api/loads/{id}/materialize [post]
func (h *LoadHandler) Materialize(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Materialize(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Store godoc
// @Summary      Marcar carga como almacenada
// @Tags         loads
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la carga"
// @Success      200  {object}  dto.LoadResponse
// @Router       /api/loads/{id}/store [post]
func (h *LoadHandler) Store(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.MarkStored(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Labels godoc
// @Summary      Etiquetas PDF de la carga
// @Tags         loads
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID de la carga"
// @Success      200  {file}  binary
// @Router       /api/loads/{id}/labels [get]
func (h *LoadHandler) Labels(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	pdf, filename, err := h.uc.Labels(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// ListUnits godoc
// @Summary      Unidades de la carga
// @Tags         loads
// @Security     Bearer
// @Produce      json
// @Param        id       path   int  true   "ID de la carga"
// @Param        item_id  query  int  false  "Filtrar por ítem"
// @Success      200  {array}  dto.UnitResponse
// @Router       /api/loads/{id}/units [get]
func (h *LoadHandler) ListUnits(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListUnits(c.UserContext(), GetActor(c), id, int64(c.QueryInt("item_id", 0)))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UnitByBarcode godoc
// @Summary      Buscar unidad por código
// @Tags         units
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código de barras"
// @Success      200   {object}  dto.UnitResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/units/by-barcode/{code} [get]
func (h *LoadHandler) UnitByBarcode(c *fiber.Ctx) error {
	out, err := h.uc.GetUnitByBarcode(c.UserContext(), GetActor(c), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// BlockUnit godoc
// @Summary      Bloquear unidad disponible
// @Tags         units
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código de barras"
// @Success      200   {object}  dto.UnitResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/units/{code}/block [post]
func (h *LoadHandler) BlockUnit(c *fiber.Ctx) error {
	out, err := h.uc.BlockUnit(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UnblockUnit godoc
// @Summary      Desbloquear unidad
// @Tags         units
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código de barras"
// @Success      200   {object}  dto.UnitResponse
// @Router       /api/units/{code}/unblock [post]
func (h *LoadHandler) UnblockUnit(c *fiber.Ctx) error {
	out, err := h.uc.UnblockUnit(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
