package controllers

import (
	"net/http"

	"github.com/nexylabs/nexyshop-backend/api/responses"
	"github.com/nexylabs/nexyshop-backend/api/validators"
	"github.com/nexylabs/nexyshop-backend/internal/inventory"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
	"github.com/nexylabs/nexyshop-backend/pkg/logger"
)

type importCodesRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,max=1000"`
}

// AdminImportCodes bulk-loads redemption codes for one pack.
func AdminImportCodes(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		packID, err := parsePathID(r, "packId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload importCodesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		imported, err := svc.ImportCodes(r.Context(), packID, payload.Codes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int{"imported": imported})
	}
}

// AdminRemainingCodes reports how many unused codes are left for one pack.
func AdminRemainingCodes(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		packID, err := parsePathID(r, "packId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		remaining, err := svc.Remaining(r.Context(), packID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int64{"remaining": remaining})
	}
}
