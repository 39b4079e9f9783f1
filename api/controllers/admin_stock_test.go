package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubStockService struct {
	edits  []stock.Edit
	failID uuid.UUID
}

func (s *stubStockService) List(ctx context.Context, branchID uuid.UUID, query string) ([]stock.Row, error) {
	return []stock.Row{}, nil
}

func (s *stubStockService) Save(ctx context.Context, branchID uuid.UUID, edits []stock.Edit) ([]stock.RowResult, error) {
	s.edits = edits
	results := make([]stock.RowResult, 0, len(edits))
	var firstErr error
	for _, e := range edits {
		res := stock.RowResult{VariantID: e.VariantID, Quantity: e.Quantity, OK: e.VariantID != s.failID}
		if !res.OK {
			res.Error = "upsert failed"
			if firstErr == nil {
				firstErr = pkgerrors.New(pkgerrors.CodeWriteFailed, res.Error)
			}
		}
		results = append(results, res)
	}
	return results, firstErr
}

func stockRequest(branchID uuid.UUID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/api/admin/v1/branches/"+branchID.String()+"/stock", strings.NewReader(body))
	return withURLParams(req, map[string]string{"branchId": branchID.String()})
}

func TestAdminStockSaveBuffersEdits(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	body := fmt.Sprintf(`{"edits":[{"variantId":%q,"quantity":3},{"variantId":%q,"quantity":-2},{"variantId":%q,"quantity":5},{"variantId":%q,"quantity":7}]}`, a, b, c, a)

	svc := &stubStockService{}
	rec := httptest.NewRecorder()
	AdminStockSave(svc, nil).ServeHTTP(rec, stockRequest(uuid.New(), body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	want := []stock.Edit{{VariantID: a, Quantity: 7}, {VariantID: c, Quantity: 5}}
	if len(svc.edits) != len(want) {
		t.Fatalf("expected %d edits, got %+v", len(want), svc.edits)
	}
	for i := range want {
		if svc.edits[i] != want[i] {
			t.Fatalf("edit %d: want %+v got %+v", i, want[i], svc.edits[i])
		}
	}

	var resp stockSaveResponse
	decodeData(t, rec, &resp)
	if resp.Saved != 2 || resp.Failed != 0 {
		t.Fatalf("unexpected counts %+v", resp)
	}
}

func TestAdminStockSaveReportsPartialFailure(t *testing.T) {
	good, bad := uuid.New(), uuid.New()
	body := fmt.Sprintf(`{"edits":[{"variantId":%q,"quantity":1},{"variantId":%q,"quantity":2}]}`, good, bad)

	rec := httptest.NewRecorder()
	AdminStockSave(&stubStockService{failID: bad}, nil).ServeHTTP(rec, stockRequest(uuid.New(), body))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	out := rec.Body.String()
	if !strings.Contains(out, "upsert failed") || !strings.Contains(out, `"saved":1`) || !strings.Contains(out, `"failed":1`) {
		t.Fatalf("expected per-row outcome in details, got %s", out)
	}
}

func TestAdminStockSaveRequiresVariantID(t *testing.T) {
	rec := httptest.NewRecorder()
	AdminStockSave(&stubStockService{}, nil).ServeHTTP(rec, stockRequest(uuid.New(), `{"edits":[{"quantity":1}]}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
