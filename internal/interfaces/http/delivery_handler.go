package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/shipping"
)

// DeliveryHandler salida y verificación de entrega.
type DeliveryHandler struct {
	uc *shipping.DeliveryUseCase
}

// NewDeliveryHandler construye el handler.
func NewDeliveryHandler(uc *shipping.DeliveryUseCase) *DeliveryHandler {
	return &DeliveryHandler{uc: uc}
}

// Dispatch godoc
// @Summary      Iniciar tránsito
// @Tags         delivery
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del envío"
// @Success      200  {object}  dto.ShipmentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/shipments/{id}/dispatch [post]
func (h *DeliveryHandler) Dispatch(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.StartTransit(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Scan godoc
// @Summary      Escanear unidad en la entrega
// @Description  Repetir un código no duplica el registro. Con el último ítem el envío queda entregado.
// @Tags         delivery
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int              true  "ID del envío"
// @Param        body  body  dto.ScanRequest  true  "Código"
// @Success      200   {object}  dto.ScanResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/shipments/{id}/scan [post]
func (h *DeliveryHandler) Scan(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ScanRequest
	if err := bindAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Scan(c.UserContext(), GetActor(c), id, in.Barcode)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ForceComplete godoc
// @Summary      Completar entrega sin escaneo total (admin)
// @Tags         delivery
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del envío"
// @Success      200  {object}  dto.ShipmentResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/shipments/{id}/force-complete [post]
func (h *DeliveryHandler) ForceComplete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ForceComplete(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Verification godoc
// @Summary      Avance de verificación
// @Tags         delivery
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del envío"
// @Success      200  {object}  dto.VerificationStatusResponse
// @Router       /api/shipments/{id}/verification [get]
func (h *DeliveryHandler) Verification(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.VerificationStatus(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PendingItems godoc
// @Summary      Ítems sin escanear
// @Tags         delivery
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del envío"
// @Success      200  {array}  dto.ShipmentItemResponse
// @Router       /api/shipments/{id}/pending-items [get]
func (h *DeliveryHandler) PendingItems(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.PendingItems(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
