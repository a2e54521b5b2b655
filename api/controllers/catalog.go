package controllers

import (
	"net/http"

	"github.com/nexylabs/nexyshop-backend/api/responses"
	"github.com/nexylabs/nexyshop-backend/internal/catalog"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
	"github.com/nexylabs/nexyshop-backend/pkg/logger"
)

// Packs lists the purchasable currency packs.
func Packs(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		packs, err := svc.Packs(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, packs)
	}
}

// Storefront returns the public landing-page aggregate.
func Storefront(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		storefront, err := svc.Storefront(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, storefront)
	}
}
