package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thomasvn/keyforge/pkg/keyforge/models"
	"github.com/thomasvn/keyforge/pkg/keyforge/store"
)

func setupTestStore(t *testing.T) *store.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return store.New(db)
}

func setupTestRouter(s *store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(s)
	authGroup := r.Group("/api/auth")
	handler.RegisterRoutes(authGroup)
	return r
}

func createTestUser(t *testing.T, s *store.Store, username, password string, role models.Role) models.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	user := models.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.CreateUser(&user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func TestPasswordHashing(t *testing.T) {
	password := "testpassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == password {
		t.Error("Hash should not equal plain password")
	}

	if !CheckPassword(password, hash) {
		t.Error("CheckPassword should return true for correct password")
	}

	if CheckPassword("wrongpassword", hash) {
		t.Error("CheckPassword should return false for incorrect password")
	}
}

func TestJWTToken(t *testing.T) {
	token, err := GenerateToken(1, "admin", "admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("Expected UserID 1, got %d", claims.UserID)
	}
	if claims.Username != "admin" {
		t.Errorf("Expected username admin, got %s", claims.Username)
	}
	if claims.Role != "admin" {
		t.Errorf("Expected role admin, got %s", claims.Role)
	}
}

func TestInvalidToken(t *testing.T) {
	_, err := ValidateToken("invalid-token")
	if err == nil {
		t.Error("Expected error for invalid token")
	}
}

func TestLogin(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	createTestUser(t, s, "admin", "changeme123", models.RoleAdmin)

	body := LoginRequest{Username: "admin", Password: "changeme123"}
	jsonBody, _ := json.Marshal(body)

	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var response AuthResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if response.Token == "" {
		t.Error("Expected a token in the response")
	}
	if response.User.Username != "admin" {
		t.Errorf("Expected username admin, got %s", response.User.Username)
	}
}

func TestLoginCaseInsensitiveUsername(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	createTestUser(t, s, "admin", "changeme123", models.RoleAdmin)

	body := LoginRequest{Username: "ADMIN", Password: "changeme123"}
	jsonBody, _ := json.Marshal(body)

	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected case-insensitive login to succeed, got %d", resp.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	createTestUser(t, s, "admin", "changeme123", models.RoleAdmin)

	body := LoginRequest{Username: "admin", Password: "wrong"}
	jsonBody, _ := json.Marshal(body)

	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)

	body := LoginRequest{Username: "ghost", Password: "whatever123"}
	jsonBody, _ := json.Marshal(body)

	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestMe(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	user := createTestUser(t, s, "admin", "changeme123", models.RoleAdmin)

	token, _ := GenerateToken(user.ID, user.Username, string(user.Role))
	req, _ := http.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var response UserResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if response.ID != user.ID {
		t.Errorf("Expected user id %d, got %d", user.ID, response.ID)
	}
}

func TestMeWithoutToken(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)

	req, _ := http.NewRequest("GET", "/api/auth/me", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	user := createTestUser(t, s, "plain", "changeme123", models.RoleUser)

	body := CreateUserRequest{Username: "newbie", Password: "changeme123"}
	jsonBody, _ := json.Marshal(body)

	token, _ := GenerateToken(user.ID, user.Username, string(user.Role))
	req, _ := http.NewRequest("POST", "/api/auth/users", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", resp.Code)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	admin := createTestUser(t, s, "admin", "changeme123", models.RoleAdmin)

	body := CreateUserRequest{Username: "Admin", Password: "changeme123"}
	jsonBody, _ := json.Marshal(body)

	token, _ := GenerateToken(admin.ID, admin.Username, string(admin.Role))
	req, _ := http.NewRequest("POST", "/api/auth/users", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate username, got %d", resp.Code)
	}
}
