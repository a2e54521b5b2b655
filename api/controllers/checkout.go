package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nexylabs/nexyshop-backend/api/responses"
	"github.com/nexylabs/nexyshop-backend/api/validators"
	"github.com/nexylabs/nexyshop-backend/internal/checkout"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
	"github.com/nexylabs/nexyshop-backend/pkg/logger"
)

type checkoutRequest struct {
	PackID   string `json:"pack_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=5"`
}

// Checkout opens a pending order and returns the payment intent secret.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		packID, err := uuid.Parse(payload.PackID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pack id"))
			return
		}

		result, err := svc.Checkout(r.Context(), userID, checkout.Input{
			PackID:   packID,
			Quantity: payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
