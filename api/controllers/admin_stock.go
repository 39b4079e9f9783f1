package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxStockQuery = 100

type stockSaveRequest struct {
	Edits []stock.Edit `json:"edits" validate:"required"`
}

type stockSaveResponse struct {
	Results []stock.RowResult `json:"results"`
	Saved   int               `json:"saved"`
	Failed  int               `json:"failed"`
}

// AdminStockList lists every variant with the branch's quantity, filtered by ?q=.
func AdminStockList(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}
		branchID, err := validators.ParseUUIDParam(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), branchID, validators.SanitizeString(r.URL.Query().Get("q"), maxStockQuery))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminStockSave applies the submitted edits. Negative quantities are dropped and a
// repeated variant keeps its last value, exactly as the editor's buffer behaves.
// Rows that saved stay saved when others fail; the response carries every row's
// outcome and the status reflects the first failure.
func AdminStockSave(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}
		branchID, err := validators.ParseUUIDParam(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req stockSaveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buffer := stock.NewEditBuffer()
		for _, edit := range req.Edits {
			if edit.VariantID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "variantId is required"))
				return
			}
			buffer.Set(edit.VariantID, edit.Quantity)
		}

		results, err := svc.Save(r.Context(), branchID, buffer.Dirty())
		resp := stockSaveResponse{Results: results}
		for _, res := range results {
			if res.OK {
				resp.Saved++
			} else {
				resp.Failed++
			}
		}
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && resp.Failed > 0 {
				err = typed.WithDetails(resp)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if resp.Results == nil {
			resp.Results = []stock.RowResult{}
		}
		responses.WriteSuccess(w, resp)
	}
}
