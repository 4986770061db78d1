package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"patisserie-backend/models"
)

func TestGetProductsListsOnlyActive(t *testing.T) {
	db := freshDB()
	router := setupProductRouter(db)
	cat := seedCategory(db, "Cakes")
	seedProduct(db, "Visible Cake", cat.ID, 300)
	hidden := seedProduct(db, "Hidden Cake", cat.ID, 300)
	deactivateProduct(db, hidden)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/api/products", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	products := resp["products"].([]interface{})
	if len(products) != 1 {
		t.Fatalf("expected 1 active product, got %d", len(products))
	}
	if int(resp["total"].(float64)) != 1 {
		t.Errorf("expected total 1, got %v", resp["total"])
	}
}

func TestGetProductsFiltersByCategory(t *testing.T) {
	db := freshDB()
	router := setupProductRouter(db)
	cakes := seedCategory(db, "Cakes")
	breads := seedCategory(db, "Breads")
	seedProduct(db, "Gateau", cakes.ID, 400)
	seedProduct(db, "Baguette", breads.ID, 90)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/api/products?category_id="+breads.ID.String(), nil))
	resp := parseResponse(w)
	products := resp["products"].([]interface{})
	if len(products) != 1 {
		t.Fatalf("expected 1 product in category, got %d", len(products))
	}
	p := products[0].(map[string]interface{})
	if p["name"] != "Baguette" {
		t.Errorf("expected Baguette, got %v", p["name"])
	}
}

func TestCreateProductWithVariants(t *testing.T) {
	db := freshDB()
	router := setupProductRouter(db)
	_, adminToken := seedTestUser(db, "prod-admin@test.com", "admin")
	cat := seedCategory(db, "Cookies")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/products", map[string]interface{}{
		"name":        "Almond Biscotti",
		"price":       180,
		"category_id": cat.ID.String(),
		"variants": []map[string]interface{}{
			{"quantity": 250, "measuring_unit": "g", "price": 180, "stock": 20, "is_stock_active": true},
			{"quantity": 500, "measuring_unit": "g", "price": 340, "stock": 12, "is_stock_active": true},
		},
		"is_eggless": true,
	}, adminToken))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	variants := resp["variants"].([]interface{})
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}

	var stored models.Product
	if err := db.Where("name = ?", "Almond Biscotti").First(&stored).Error; err != nil {
		t.Fatalf("product not stored: %v", err)
	}
	if len(stored.Variants) != 2 || stored.Variants[1].Price != 340 {
		t.Errorf("variants not persisted correctly: %+v", stored.Variants)
	}
}

func TestCreateProductForbiddenForCustomer(t *testing.T) {
	db := freshDB()
	router := setupProductRouter(db)
	_, token := seedTestUser(db, "prod-customer@test.com", "customer")
	cat := seedCategory(db, "Cakes")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/products", map[string]interface{}{
		"name":        "Nope",
		"price":       100,
		"category_id": cat.ID.String(),
	}, token))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestCreateProductRejectsBadVariants(t *testing.T) {
	db := freshDB()
	router := setupProductRouter(db)
	_, adminToken := seedTestUser(db, "prod-validate@test.com", "admin")
	cat := seedCategory(db, "Cakes")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/products", map[string]interface{}{
		"name":        "Broken",
		"price":       100,
		"category_id": cat.ID.String(),
		"variants": []map[string]interface{}{
			{"quantity": 1, "measuring_unit": "pcs", "price": 0},
		},
	}, adminToken))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero-price variant, got %d", w.Code)
	}
}

func TestGetProductByID(t *testing.T) {
	db := freshDB()
	router := setupProductRouter(db)
	cat := seedCategory(db, "Cakes")
	prod := seedProduct(db, "Single Cake", cat.ID, 420)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/api/products/"+prod.ID.String(), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp["name"] != "Single Cake" {
		t.Errorf("expected name, got %v", resp["name"])
	}
}
