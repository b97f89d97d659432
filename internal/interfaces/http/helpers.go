package http

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain"
)

var validate = validator.New()

func init() {
	// decimal.Decimal como número para que min=0, gt=0 funcionen sobre precios.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate parsea el JSON y aplica las etiquetas validate.
// Los errores envuelven domain.ErrValidation.
func bindAndValidate(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fmt.Errorf("%w: cuerpo inválido", domain.ErrValidation)
	}
	if err := validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
			}
			return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// paramID lee un id numérico de la ruta.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s inválido", domain.ErrValidation, name)
	}
	return id, nil
}

// errorStatus orden de precedencia: el primer sentinel que coincide decide el código.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrValidation, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrDuplicateInBatch, fiber.StatusBadRequest, "DUPLICATE_IN_BATCH"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrOwnershipMismatch, fiber.StatusForbidden, "OWNERSHIP_MISMATCH"},
	{domain.ErrNotInShipment, fiber.StatusUnprocessableEntity, "NOT_IN_SHIPMENT"},
	{domain.ErrAlreadyAssigned, fiber.StatusConflict, "ALREADY_ASSIGNED"},
	{domain.ErrNotAvailable, fiber.StatusConflict, "NOT_AVAILABLE"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrBarcodeExhausted, fiber.StatusServiceUnavailable, "BARCODE_EXHAUSTED"},
}

// errorCode código y estado HTTP para un error de dominio; 500 INTERNAL si no es conocido.
func errorCode(err error) (int, string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError traduce err a dto.ErrorResponse. Los fallos por unidad van en Details.
func writeError(c *fiber.Ctx, err error) error {
	status, code := errorCode(err)
	resp := dto.ErrorResponse{Code: code, Message: err.Error()}

	var batch *domain.BatchError
	var unit *domain.UnitError
	switch {
	case errors.As(err, &batch):
		for _, f := range batch.Failures {
			_, fc := errorCode(f.Err)
			resp.Details = append(resp.Details, dto.ErrorDetail{Barcode: f.Barcode, Code: fc, Status: f.Status})
		}
	case errors.As(err, &unit):
		resp.Details = []dto.ErrorDetail{{Barcode: unit.Barcode, Code: code, Status: unit.Status}}
	}
	if status == fiber.StatusInternalServerError {
		resp.Message = "error interno"
	}
	return c.Status(status).JSON(resp)
}
