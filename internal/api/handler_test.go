package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/m/internal/database/databasetest"
	"pharmapos/m/internal/service"
)

type apiResponse struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
	Total   int64             `json:"total"`
	Created *bool             `json:"created"`
}

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := databasetest.Open(t)
	svc := service.New(db, zap.NewNop(), service.Options{Location: time.UTC, BcryptCost: bcrypt.MinCost})
	if _, err := svc.Users.EnsureAdmin(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}
	h := New(db, svc, zap.NewNop(), Options{Secret: "test-secret", TokenTTL: time.Hour})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

func (s *testServer) do(method, path, token string, body any) (int, apiResponse) {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	if err != nil {
		s.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.srv.Client().Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		s.t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	status, resp := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	if status != http.StatusOK {
		s.t.Fatalf("login %s: %d %s", username, status, resp.Error)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil || data.Token == "" {
		s.t.Fatalf("login %s: no token in %s", username, resp.Data)
	}
	return data.Token
}

func decodeData(t *testing.T, resp apiResponse, dest any) {
	t.Helper()
	if err := json.Unmarshal(resp.Data, dest); err != nil {
		t.Fatalf("decode data %s: %v", resp.Data, err)
	}
}

var medicineBody = map[string]any{
	"name":                      "Paracetamol 500mg",
	"generic_name":              "Paracetamol",
	"purchase_price_per_carton": 30,
	"units_per_carton":          10,
	"selling_price_full":        50,
	"selling_price_half":        26,
	"selling_price_single":      6,
	"quantity_in_stock":         100,
	"reorder_level":             20,
	"expiry_date":               "2099-12-31",
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, resp := s.do(http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("health = %d %+v", status, resp)
	}
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	if status != http.StatusUnauthorized || resp.Success {
		t.Fatalf("bad login = %d %+v", status, resp)
	}
	if status, _ := s.do(http.MethodGet, "/api/auth/me", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("me without token = %d", status)
	}
	if status, _ := s.do(http.MethodGet, "/api/auth/me", "not-a-jwt", nil); status != http.StatusUnauthorized {
		t.Fatalf("me with junk token = %d", status)
	}

	token := s.login("admin", "admin123")
	status, resp = s.do(http.MethodGet, "/api/auth/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me = %d %s", status, resp.Error)
	}
	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
		Password string `json:"password"`
	}
	decodeData(t, resp, &me)
	if me.Username != "admin" || me.Role != "admin" || me.Password != "" {
		t.Fatalf("me = %+v", me)
	}
}

func TestMedicineEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login("admin", "admin123")

	status, resp := s.do(http.MethodPost, "/api/medicines", token, medicineBody)
	if status != http.StatusCreated || resp.Created == nil || !*resp.Created {
		t.Fatalf("create = %d %+v", status, resp)
	}
	var m struct {
		ID              int64 `json:"id"`
		QuantityInStock int64 `json:"quantity_in_stock"`
	}
	decodeData(t, resp, &m)

	status, resp = s.do(http.MethodPost, "/api/medicines", token, medicineBody)
	if status != http.StatusOK || resp.Created == nil || *resp.Created {
		t.Fatalf("duplicate create = %d %+v", status, resp)
	}
	var merged struct {
		ID              int64 `json:"id"`
		QuantityInStock int64 `json:"quantity_in_stock"`
	}
	decodeData(t, resp, &merged)
	if merged.ID != m.ID || merged.QuantityInStock != 200 {
		t.Fatalf("merged = %+v, want id %d with 200 units", merged, m.ID)
	}

	status, resp = s.do(http.MethodPost, "/api/medicines", token, map[string]any{"expiry_date": "2099-01-01", "selling_price_single": 1})
	if status != http.StatusBadRequest || resp.Fields["name"] == "" {
		t.Fatalf("missing name = %d %+v", status, resp)
	}
	status, resp = s.do(http.MethodPost, "/api/medicines", token, `{"name":"X","bogus":true}`)
	if status != http.StatusBadRequest {
		t.Fatalf("unknown field = %d %+v", status, resp)
	}

	status, resp = s.do(http.MethodGet, "/api/medicines?search=para&limit=10", token, nil)
	if status != http.StatusOK || resp.Total != 1 {
		t.Fatalf("list = %d total %d", status, resp.Total)
	}
	if status, _ := s.do(http.MethodGet, "/api/medicines?limit=ten", token, nil); status != http.StatusBadRequest {
		t.Fatalf("bad limit = %d", status)
	}

	status, resp = s.do(http.MethodPost, fmt.Sprintf("/api/medicines/%d/adjust-stock", m.ID), token, map[string]any{"change": -250})
	if status != http.StatusConflict {
		t.Fatalf("over-adjust = %d %+v", status, resp)
	}
	status, _ = s.do(http.MethodPost, fmt.Sprintf("/api/medicines/%d/adjust-stock", m.ID), token, map[string]any{"change": -20, "reason": "broken"})
	if status != http.StatusOK {
		t.Fatalf("adjust = %d", status)
	}
	status, resp = s.do(http.MethodGet, fmt.Sprintf("/api/medicines/%d/movements", m.ID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("movements = %d", status)
	}
	var moves []struct {
		MovementType string `json:"movement_type"`
	}
	decodeData(t, resp, &moves)
	if len(moves) != 3 {
		t.Fatalf("movements = %+v, want initial, restock and adjustment", moves)
	}

	if status, _ := s.do(http.MethodGet, "/api/medicines/9999", token, nil); status != http.StatusNotFound {
		t.Fatalf("missing medicine = %d", status)
	}
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	status, resp := s.do(http.MethodPost, "/api/users", admin, map[string]any{"username": "cashier1", "password": "secret1", "role": "cashier"})
	if status != http.StatusCreated {
		t.Fatalf("create cashier = %d %+v", status, resp)
	}
	cashier := s.login("cashier1", "secret1")

	cases := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/medicines", medicineBody},
		{http.MethodPost, "/api/categories", map[string]string{"name": "Vitamins"}},
		{http.MethodGet, "/api/users", nil},
		{http.MethodGet, "/api/purchases", nil},
		{http.MethodGet, "/api/analytics/sales", nil},
		{http.MethodPost, "/api/sales/1/void", nil},
	}
	for _, tc := range cases {
		if status, _ := s.do(tc.method, tc.path, cashier, tc.body); status != http.StatusForbidden {
			t.Fatalf("cashier %s %s = %d, want 403", tc.method, tc.path, status)
		}
	}

	if status, _ := s.do(http.MethodGet, "/api/medicines", cashier, nil); status != http.StatusOK {
		t.Fatalf("cashier list medicines = %d", status)
	}
	if status, _ := s.do(http.MethodGet, "/api/dashboard/stats", cashier, nil); status != http.StatusOK {
		t.Fatalf("cashier dashboard = %d", status)
	}
}

func TestSaleFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	_, resp := s.do(http.MethodPost, "/api/medicines", admin, medicineBody)
	var m struct {
		ID int64 `json:"id"`
	}
	decodeData(t, resp, &m)

	if _, resp := s.do(http.MethodPost, "/api/users", admin, map[string]any{"username": "cashier1", "password": "secret1", "role": "cashier"}); !resp.Success {
		t.Fatalf("create cashier: %s", resp.Error)
	}
	cashier := s.login("cashier1", "secret1")

	sale := map[string]any{
		"items":       []map[string]any{{"medicine_id": m.ID, "unit_type": "full", "quantity": 1}, {"medicine_id": m.ID, "unit_type": "single", "quantity": 2}},
		"amount_paid": 61.99,
	}
	status, resp := s.do(http.MethodPost, "/api/sales", cashier, sale)
	if status != http.StatusBadRequest || resp.Success {
		t.Fatalf("underpaid sale = %d %+v", status, resp)
	}

	sale["amount_paid"] = 70
	status, resp = s.do(http.MethodPost, "/api/sales", cashier, sale)
	if status != http.StatusCreated {
		t.Fatalf("sale = %d %+v", status, resp)
	}
	var created struct {
		ID           int64   `json:"id"`
		TotalAmount  float64 `json:"total_amount"`
		ChangeAmount float64 `json:"change_amount"`
		CashierName  string  `json:"cashier_name"`
		Items        []any   `json:"items"`
	}
	decodeData(t, resp, &created)
	if created.TotalAmount != 62 || created.ChangeAmount != 8 || len(created.Items) != 2 || created.CashierName != "cashier1" {
		t.Fatalf("sale = %+v", created)
	}

	_, resp = s.do(http.MethodGet, fmt.Sprintf("/api/medicines/%d", m.ID), cashier, nil)
	var after struct {
		QuantityInStock int64 `json:"quantity_in_stock"`
	}
	decodeData(t, resp, &after)
	if after.QuantityInStock != 88 {
		t.Fatalf("stock = %d, want 88", after.QuantityInStock)
	}

	status, resp = s.do(http.MethodGet, "/api/analytics/sales", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("analytics = %d %s", status, resp.Error)
	}
	var report struct {
		Summary struct {
			TotalRevenue      float64 `json:"total_revenue"`
			TotalTransactions int64   `json:"total_transactions"`
		} `json:"summary"`
	}
	decodeData(t, resp, &report)
	if report.Summary.TotalRevenue != 62 || report.Summary.TotalTransactions != 1 {
		t.Fatalf("summary = %+v", report.Summary)
	}

	voidPath := fmt.Sprintf("/api/sales/%d/void", created.ID)
	if status, resp := s.do(http.MethodPost, voidPath, admin, nil); status != http.StatusOK {
		t.Fatalf("void = %d %s", status, resp.Error)
	}
	if status, _ := s.do(http.MethodPost, voidPath, admin, map[string]string{"reason": "again"}); status != http.StatusConflict {
		t.Fatalf("second void = %d", status)
	}

	status, resp = s.do(http.MethodGet, "/api/sales?status=voided", cashier, nil)
	if status != http.StatusOK || resp.Total != 1 {
		t.Fatalf("voided sales = %d total %d", status, resp.Total)
	}
}

func TestAdminCannotRemoveThemselves(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	_, resp := s.do(http.MethodGet, "/api/auth/me", admin, nil)
	var me struct {
		ID int64 `json:"id"`
	}
	decodeData(t, resp, &me)

	if status, _ := s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", me.ID), admin, nil); status != http.StatusConflict {
		t.Fatalf("self delete = %d", status)
	}
	if status, resp := s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", me.ID), admin, map[string]string{"role": "cashier"}); status != http.StatusConflict {
		t.Fatalf("demote last admin = %d %+v", status, resp)
	}
}

func (s *testServer) createMedicine(token string, overrides map[string]any) int64 {
	s.t.Helper()
	body := map[string]any{}
	for k, v := range medicineBody {
		body[k] = v
	}
	for k, v := range overrides {
		body[k] = v
	}
	status, resp := s.do(http.MethodPost, "/api/medicines", token, body)
	if status != http.StatusCreated {
		s.t.Fatalf("create medicine %v = %d %s", body["name"], status, resp.Error)
	}
	var m struct {
		ID int64 `json:"id"`
	}
	decodeData(s.t, resp, &m)
	return m.ID
}

func TestMedicineListSalesAggregates(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	para := s.createMedicine(admin, nil)
	amox := s.createMedicine(admin, map[string]any{"name": "Amoxicillin 250mg", "selling_price_single": 12})
	zinc := s.createMedicine(admin, map[string]any{"name": "Zinc 20mg"})

	kept := map[string]any{
		"items": []map[string]any{
			{"medicine_id": para, "unit_type": "full", "quantity": 1},
			{"medicine_id": amox, "unit_type": "single", "quantity": 2},
		},
		"amount_paid": 74,
	}
	if status, resp := s.do(http.MethodPost, "/api/sales", admin, kept); status != http.StatusCreated {
		t.Fatalf("sale = %d %s", status, resp.Error)
	}
	voided := map[string]any{
		"items":       []map[string]any{{"medicine_id": amox, "unit_type": "single", "quantity": 10}},
		"amount_paid": 120,
	}
	_, resp := s.do(http.MethodPost, "/api/sales", admin, voided)
	var sale struct {
		ID int64 `json:"id"`
	}
	decodeData(t, resp, &sale)
	if status, resp := s.do(http.MethodPost, fmt.Sprintf("/api/sales/%d/void", sale.ID), admin, nil); status != http.StatusOK {
		t.Fatalf("void = %d %s", status, resp.Error)
	}

	type row struct {
		ID           int64   `json:"id"`
		TotalSold    int64   `json:"total_sold"`
		TotalRevenue float64 `json:"total_revenue"`
		LastSoldAt   *string `json:"last_sold_at"`
	}
	status, resp := s.do(http.MethodGet, "/api/medicines?sort_by=total_revenue&order=desc", admin, nil)
	if status != http.StatusOK || resp.Total != 3 {
		t.Fatalf("list = %d total %d %s", status, resp.Total, resp.Error)
	}
	var rows []row
	decodeData(t, resp, &rows)
	if len(rows) != 3 || rows[0].ID != para || rows[1].ID != amox || rows[2].ID != zinc {
		t.Fatalf("revenue order = %+v", rows)
	}
	if rows[0].TotalSold != 10 || rows[0].TotalRevenue != 50 || rows[0].LastSoldAt == nil {
		t.Fatalf("paracetamol aggregates = %+v", rows[0])
	}
	// the voided sale of ten units does not count
	if rows[1].TotalSold != 2 || rows[1].TotalRevenue != 24 {
		t.Fatalf("amoxicillin aggregates = %+v", rows[1])
	}
	if rows[2].TotalSold != 0 || rows[2].TotalRevenue != 0 || rows[2].LastSoldAt != nil {
		t.Fatalf("unsold aggregates = %+v", rows[2])
	}

	// unknown sort columns fall back to name order
	_, resp = s.do(http.MethodGet, "/api/medicines?sort_by=name%3B%20DROP%20TABLE%20medicines&order=desc", admin, nil)
	rows = nil
	decodeData(t, resp, &rows)
	if len(rows) != 3 || rows[0].ID != zinc || rows[2].ID != amox {
		t.Fatalf("fallback order = %+v", rows)
	}
}

func TestUpdateMedicineEndpoint(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")
	id := s.createMedicine(admin, nil)

	body := map[string]any{}
	for k, v := range medicineBody {
		body[k] = v
	}
	body["quantity_in_stock"] = 90
	status, resp := s.do(http.MethodPut, fmt.Sprintf("/api/medicines/%d", id), admin, body)
	if status != http.StatusOK {
		t.Fatalf("update = %d %s", status, resp.Error)
	}
	var m struct {
		QuantityInStock int64 `json:"quantity_in_stock"`
	}
	decodeData(t, resp, &m)
	if m.QuantityInStock != 90 {
		t.Fatalf("stock = %d, want 90", m.QuantityInStock)
	}
	if status, _ := s.do(http.MethodPut, "/api/medicines/9999", admin, body); status != http.StatusNotFound {
		t.Fatalf("update missing = %d, want 404", status)
	}
}

func TestTokenFollowsAccountChanges(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	_, resp := s.do(http.MethodPost, "/api/users", admin, map[string]any{"username": "pharma1", "password": "secret1", "role": "pharmacist"})
	var u struct {
		ID int64 `json:"id"`
	}
	decodeData(t, resp, &u)
	token := s.login("pharma1", "secret1")
	if status, _ := s.do(http.MethodGet, "/api/purchases", token, nil); status != http.StatusOK {
		t.Fatalf("pharmacist purchases = %d", status)
	}

	path := fmt.Sprintf("/api/users/%d", u.ID)
	if status, resp := s.do(http.MethodPut, path, admin, map[string]string{"role": "cashier"}); status != http.StatusOK {
		t.Fatalf("demote = %d %s", status, resp.Error)
	}
	if status, _ := s.do(http.MethodGet, "/api/purchases", token, nil); status != http.StatusForbidden {
		t.Fatalf("demoted user purchases = %d, want 403", status)
	}

	if status, resp := s.do(http.MethodPut, path, admin, map[string]any{"is_active": false}); status != http.StatusOK {
		t.Fatalf("deactivate = %d %s", status, resp.Error)
	}
	if status, _ := s.do(http.MethodGet, "/api/auth/me", token, nil); status != http.StatusUnauthorized {
		t.Fatalf("deactivated user me = %d, want 401", status)
	}
}
