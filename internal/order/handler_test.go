package order_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/order"
	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
)

func newTestRouter(f *fixture) *chi.Mux {
	h := order.NewHandler(f.orders, aqm.NewNoopLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("cannot encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("cannot decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestNewHandler(t *testing.T) {
	if h := order.NewHandler(nil, nil); h == nil {
		t.Error("NewHandler() returned nil")
	}
}

func TestHandlerCreateOrder(t *testing.T) {
	tests := []struct {
		name           string
		body           func(f *fixture) interface{}
		expectedStatus int
	}{
		{
			name:           "created",
			body:           func(f *fixture) interface{} { return f.twoLineRequest() },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformedJSON",
			body:           func(f *fixture) interface{} { return "{not json" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "validationError",
			body: func(f *fixture) interface{} {
				req := f.twoLineRequest()
				req.Items = nil
				return req
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknownTable",
			body: func(f *fixture) interface{} {
				req := f.twoLineRequest()
				req.TableID = uuid.New()
				return req
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "unavailableVariant",
			body: func(f *fixture) interface{} {
				_, _ = f.menu.ToggleVariantAvailability(context.Background(), f.noodles.ID, f.noodleBowl.ID)
				return f.twoLineRequest()
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			r := newTestRouter(f)

			w := doJSON(t, r, http.MethodPost, "/orders", tt.body(f))

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/orders/") {
				t.Errorf("Location = %q, want /orders/<id>", loc)
			}

			body := decodeBody(t, w)
			data, ok := body["data"].(map[string]interface{})
			if !ok {
				t.Fatalf("response has no data object: %v", body)
			}
			if data["total_amount"] != "21" && data["total_amount"] != "21.00" {
				t.Errorf("total_amount = %v, want 21.00", data["total_amount"])
			}
			if data["status"] != "pending" {
				t.Errorf("status = %v, want pending", data["status"])
			}
			items, ok := data["items"].([]interface{})
			if !ok || len(items) != 2 {
				t.Errorf("items = %v, want 2 lines", data["items"])
			}
		})
	}
}

func TestHandlerValidationErrorListsFields(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)

	req := f.twoLineRequest()
	req.Items[0].Quantity = 0
	req.Items[1].SpiceLevel = "volcanic"

	w := doJSON(t, r, http.MethodPost, "/orders", req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	body := decodeBody(t, w)
	fields, ok := body["errors"].([]interface{})
	if !ok {
		t.Fatalf("response has no errors list: %v", body)
	}
	if len(fields) != 2 {
		t.Errorf("got %d field errors, want 2: %v", len(fields), fields)
	}
}

func TestHandlerGetOrder(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)

	created, err := f.orders.CreateOrder(context.Background(), f.twoLineRequest())
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"found", "/orders/" + created.ID.String(), http.StatusOK},
		{"invalidID", "/orders/not-a-uuid", http.StatusBadRequest},
		{"notFound", "/orders/" + uuid.NewString(), http.StatusNotFound},
		{"history", "/orders/" + created.ID.String() + "/history", http.StatusOK},
		{"historyNotFound", "/orders/" + uuid.NewString() + "/history", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodGet, tt.path, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d, body %s", w.Code, tt.expectedStatus, w.Body.String())
			}
		})
	}
}

func TestHandlerUpdateOrderStatus(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)

	created, err := f.orders.CreateOrder(context.Background(), f.twoLineRequest())
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	path := "/orders/" + created.ID.String() + "/status"

	steps := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{"pendingToReadyRejected", order.TransitionRequest{Status: "ready"}, http.StatusConflict},
		{"unknownStatus", order.TransitionRequest{Status: "eaten"}, http.StatusBadRequest},
		{"malformedJSON", "{", http.StatusBadRequest},
		{"confirm", order.TransitionRequest{Status: "Confirmed"}, http.StatusOK},
		{"cancel", order.TransitionRequest{Status: "cancelled", Note: "guest left"}, http.StatusOK},
		{"cancelAgainRejected", order.TransitionRequest{Status: "cancelled"}, http.StatusConflict},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPatch, path, step.body)
			if w.Code != step.expectedStatus {
				t.Errorf("status = %d, want %d, body %s", w.Code, step.expectedStatus, w.Body.String())
			}
		})
	}

	got, err := f.orders.GetOrder(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if got.Status != orderstatus.Statuses.Cancelled {
		t.Errorf("final status = %s, want cancelled", got.Status)
	}

	w := doJSON(t, r, http.MethodPatch, "/orders/"+uuid.NewString()+"/status", order.TransitionRequest{Status: "confirmed"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown order status = %d, want 404", w.Code)
	}
}

func TestHandlerListOrders(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)

	if _, err := f.orders.CreateOrder(context.Background(), f.twoLineRequest()); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	base := "/restaurants/" + f.restaurantID.String() + "/orders"

	tests := []struct {
		name           string
		query          string
		expectedStatus int
	}{
		{"all", "", http.StatusOK},
		{"byStatus", "?status=pending,confirmed", http.StatusOK},
		{"byTable", "?table=" + f.table.ID.String(), http.StatusOK},
		{"window", "?since=2026-03-14T00:00:00Z&before=2026-03-15T00:00:00Z", http.StatusOK},
		{"paged", "?page=2&limit=5", http.StatusOK},
		{"badStatus", "?status=eaten", http.StatusBadRequest},
		{"badTable", "?table=seven", http.StatusBadRequest},
		{"badSince", "?since=yesterday", http.StatusBadRequest},
		{"badLimit", "?limit=-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodGet, base+tt.query, nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.expectedStatus, w.Body.String())
			}
			decodeBody(t, w)
		})
	}

	w := doJSON(t, r, http.MethodGet, "/restaurants/nope/orders", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid restaurant status = %d, want 400", w.Code)
	}
}
