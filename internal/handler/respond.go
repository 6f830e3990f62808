package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/identity"
	"github.com/kotpos/api/internal/middleware"
	"github.com/kotpos/api/internal/service"
	"github.com/kotpos/api/internal/workflow"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode JSON response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeInternal(w http.ResponseWriter, op string, err error) {
	slog.Error(op, "error", err)
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// callerOr401 returns the identity placed in the context by Authenticate.
func callerOr401(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return identity.Identity{}, false
	}
	return id, true
}

var badRequestErrors = []error{
	service.ErrEmptyItems,
	service.ErrInvalidKotType,
	service.ErrInvalidQuantity,
	service.ErrCustomerNameRequired,
	service.ErrInvalidExpectedTime,
	service.ErrInvalidMenuItemID,
	service.ErrMenuItemInactive,
	service.ErrMenuItemCategory,
	service.ErrInvalidIngredientID,
	service.ErrInvalidStockQuantity,
	service.ErrInvalidCostPerUnit,
	service.ErrRejectionReasonRequired,
	service.ErrInvalidKotID,
	service.ErrReversalReasonMissing,
	service.ErrInvalidDiscount,
	service.ErrInvalidPaymentMethod,
	service.ErrAmountTooLarge,
	service.ErrStockTooLarge,
	workflow.ErrUnknownStatus,
}

var notFoundErrors = []error{
	service.ErrMenuItemNotFound,
	service.ErrKotNotFound,
	service.ErrIngredientNotFound,
	service.ErrStockAdditionNotFound,
	service.ErrReversalNotFound,
	service.ErrBillNotFound,
}

var conflictErrors = []error{
	workflow.ErrInvalidTransition,
	service.ErrKotStatusChanged,
	service.ErrAlreadyDecided,
	service.ErrKotAlreadyReversed,
	service.ErrReversalPending,
	service.ErrKotNotBillable,
	service.ErrKotAlreadyBilled,
	service.ErrBillAlreadyPaid,
}

// errorStatus maps a service error to its HTTP status. Unknown errors map to 500.
func errorStatus(err error) int {
	switch {
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// writeServiceError writes the classified error. Only unexpected errors are
// logged; their text never reaches the client.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		writeInternal(w, op, err)
		return
	}
	writeMessage(w, status, err.Error())
}

// --- Conversion helpers ---

func moneyString(n pgtype.Numeric) string {
	return database.NumericToDecimal(n).StringFixed(2)
}

func stockString(n pgtype.Numeric) string {
	return database.NumericToDecimal(n).StringFixed(3)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func uuidPtr(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
