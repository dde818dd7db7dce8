package sales

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonflow/backend/api/middleware"
	"github.com/salonflow/backend/api/responses"
	"github.com/salonflow/backend/api/validators"
	internalsales "github.com/salonflow/backend/internal/sales"
	pkgerrors "github.com/salonflow/backend/pkg/errors"
	"github.com/salonflow/backend/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type saleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Qty       int    `json:"qty" validate:"required,gt=0"`
	UnitPrice string `json:"unit_price" validate:"required"`
}

type saleRequest struct {
	ClientID string            `json:"client_id" validate:"required,uuid4"`
	StaffID  string            `json:"staff_id" validate:"omitempty,uuid4"`
	Items    []saleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Create records a sale, reserving stock for every line atomically. Low
// stock warnings ride along in the response without blocking the sale.
func Create(svc internalsales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		var payload saleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildCreateInput(r, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, saleResponse(result))
	}
}

// Update replaces a sale's line items, returning the previously held stock
// before reserving the new lines.
func Update(svc internalsales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		saleID, err := parseSaleID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload saleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		createInput, err := buildCreateInput(r, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), internalsales.UpdateSaleInput{
			SaleID:   saleID,
			ClientID: createInput.ClientID,
			StaffID:  createInput.StaffID,
			Items:    createInput.Items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, saleResponse(result))
	}
}

// Detail returns one sale with its line items.
func Detail(svc internalsales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		saleID, err := parseSaleID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Get(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}

// List returns sales filtered by staff and creation window.
func List(svc internalsales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		filter, err := buildListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func saleResponse(result *internalsales.SaleResult) map[string]any {
	if result == nil {
		return nil
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []internalsales.LowStockWarning{}
	}
	return map[string]any{
		"sale":     result.Sale,
		"warnings": warnings,
	}
}

func buildCreateInput(r *http.Request, payload saleRequest) (internalsales.CreateSaleInput, error) {
	var input internalsales.CreateSaleInput

	clientID, err := uuid.Parse(payload.ClientID)
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client id")
	}
	staffID, err := resolveStaffID(r, payload.StaffID)
	if err != nil {
		return input, err
	}

	items := make([]internalsales.SaleItemInput, 0, len(payload.Items))
	for _, item := range payload.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		unitPrice, err := decimal.NewFromString(strings.TrimSpace(item.UnitPrice))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price")
		}
		items = append(items, internalsales.SaleItemInput{
			ProductID: productID,
			Qty:       item.Qty,
			UnitPrice: unitPrice,
		})
	}

	input = internalsales.CreateSaleInput{
		ClientID: clientID,
		StaffID:  staffID,
		Items:    items,
	}
	return input, nil
}

func buildListFilter(r *http.Request) (internalsales.ListFilter, error) {
	var filter internalsales.ListFilter

	staffID, err := validators.ParseQueryUUID(r, "staff_id")
	if err != nil {
		return filter, err
	}
	filter.StaffID = staffID

	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return filter, err
	}
	filter.From = from

	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return filter, err
	}
	filter.To = to

	limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		return filter, err
	}
	filter.Offset = offset

	return filter, nil
}

// resolveStaffID falls back to the authenticated staff member when the
// request does not name one.
func resolveStaffID(r *http.Request, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = middleware.StaffIDFromContext(r.Context())
	}
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "staff id is required")
	}
	staffID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid staff id")
	}
	return staffID, nil
}

func parseSaleID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "saleId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sale id")
	}
	return id, nil
}
