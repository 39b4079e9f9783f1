package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCheckoutService struct {
	orderID uuid.UUID
	err     error
	called  bool
	items   []cart.Item
	form    checkout.Form
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, items []cart.Item, form checkout.Form) (uuid.UUID, error) {
	s.called = true
	s.items = items
	s.form = form
	return s.orderID, s.err
}

const pickupOrder = `{
	"items":[{"branchId":"b1","variantId":"v1","productName":"Rice","variantLabel":"1kg","unitPrice":100,"qty":3}],
	"name":"Ana","email":"ana@example.com","phone":"5551234","deliveryMethod":"pickup","paymentMethod":"cod"
}`

func postCheckout(svc checkout.Service, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)))
	return rec
}

func TestCheckoutPlacesOrderFromSubmittedItems(t *testing.T) {
	svc := &stubCheckoutService{orderID: uuid.New()}
	rec := postCheckout(svc, pickupOrder)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp checkoutResponse
	decodeData(t, rec, &resp)
	if resp.OrderID != svc.orderID {
		t.Fatalf("expected order id %s got %s", svc.orderID, resp.OrderID)
	}
	if len(svc.items) != 1 {
		t.Fatalf("expected one line, got %+v", svc.items)
	}
	line := svc.items[0]
	if line.VariantID != "v1" || line.BranchID != "b1" || line.Qty != 3 || line.UnitPrice.String() != "100" {
		t.Fatalf("line not forwarded intact: %+v", line)
	}
	if svc.form.Email != "ana@example.com" || svc.form.DeliveryMethod != "pickup" || svc.form.PaymentMethod != "cod" {
		t.Fatalf("form not forwarded: %+v", svc.form)
	}
}

func TestCheckoutIgnoresSessionCart(t *testing.T) {
	carts := newMemoryCarts(t)
	CartAddItem(carts, nil).ServeHTTP(httptest.NewRecorder(), withCartToken(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(addRiceBody)), "tok"))

	body := strings.Replace(pickupOrder, `"variantId":"v1"`, `"variantId":"v9"`, 1)
	svc := &stubCheckoutService{orderID: uuid.New()}
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, withCartToken(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)), "tok"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.items) != 1 || svc.items[0].VariantID != "v9" {
		t.Fatalf("expected submitted lines, got %+v", svc.items)
	}
	view, _ := carts.Get(context.Background(), "tok")
	if len(view.Items) != 1 {
		t.Fatalf("checkout must not touch the session cart")
	}
}

func TestCheckoutPassesEmptyCartToService(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")}
	body := `{"name":"Ana","email":"ana@example.com","phone":"5551234","deliveryMethod":"pickup","paymentMethod":"cod"}`
	rec := postCheckout(svc, body)

	if !svc.called || len(svc.items) != 0 {
		t.Fatalf("expected service called with no lines, got %+v", svc.items)
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "cart is empty") {
		t.Fatalf("expected 400 cart is empty, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCheckoutRejectsIncompleteLine(t *testing.T) {
	svc := &stubCheckoutService{}
	body := strings.Replace(pickupOrder, `"branchId":"b1",`, ``, 1)
	rec := postCheckout(svc, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "items[0].branchId") {
		t.Fatalf("expected field path in details, got %s", rec.Body.String())
	}
	if svc.called {
		t.Fatal("service must not run for an invalid body")
	}
}

func TestCheckoutSurfacesWriteFailure(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeWriteFailed, "insert items failed: boom")}
	rec := postCheckout(svc, pickupOrder)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "insert items failed: boom") {
		t.Fatalf("expected raw write error in body, got %s", rec.Body.String())
	}
}

func TestCheckoutRejectsUnknownFields(t *testing.T) {
	rec := postCheckout(&stubCheckoutService{}, `{"email":"ana@example.com","total":"0.01"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
