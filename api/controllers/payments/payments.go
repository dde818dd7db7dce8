package payments

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonflow/backend/api/responses"
	"github.com/salonflow/backend/api/validators"
	internalpayments "github.com/salonflow/backend/internal/payments"
	"github.com/salonflow/backend/pkg/enums"
	pkgerrors "github.com/salonflow/backend/pkg/errors"
	"github.com/salonflow/backend/pkg/logger"
)

type recordPaymentRequest struct {
	Amount string `json:"amount" validate:"required"`
	Method string `json:"method"`
}

// RecordForSale appends a payment to a sale's ledger and returns the
// recomputed projection.
func RecordForSale(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderID, err := parseOrderID(r, "saleId", "sale id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildRecordInput(r, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RecordSalePayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, paymentResponse(orderID, result))
	}
}

// RecordForAppointment appends a payment to an appointment's ledger and
// returns the recomputed projection.
func RecordForAppointment(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderID, err := parseOrderID(r, "appointmentId", "appointment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildRecordInput(r, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RecordAppointmentPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, paymentResponse(orderID, result))
	}
}

// ListForSale returns a sale's ledger entries in append order.
func ListForSale(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderID, err := parseOrderID(r, "saleId", "sale id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForSale(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// ListForAppointment returns an appointment's ledger entries in append order.
func ListForAppointment(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderID, err := parseOrderID(r, "appointmentId", "appointment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForAppointment(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func paymentResponse(orderID uuid.UUID, result *internalpayments.PaymentResult) map[string]any {
	if result == nil {
		return nil
	}
	return map[string]any{
		"order_id":   orderID,
		"payment":    result.Payment,
		"total":      result.Total,
		"paid_total": result.PaidTotal,
		"status":     result.PaymentStatus,
	}
}

func buildRecordInput(r *http.Request, orderID uuid.UUID) (internalpayments.RecordPaymentInput, error) {
	var input internalpayments.RecordPaymentInput

	var payload recordPaymentRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return input, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(payload.Amount))
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}

	// an omitted method falls back to cash downstream
	var method enums.PaymentMethod
	if raw := strings.TrimSpace(payload.Method); raw != "" {
		method, err = enums.ParsePaymentMethod(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid method")
		}
	}

	input = internalpayments.RecordPaymentInput{
		OrderID: orderID,
		Amount:  amount,
		Method:  method,
	}
	return input, nil
}

func parseOrderID(r *http.Request, param, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}
