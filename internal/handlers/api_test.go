package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/serviza/serviza-backend/internal/auth"
	"github.com/serviza/serviza-backend/internal/handlers"
	"github.com/serviza/serviza-backend/internal/models"
	"github.com/serviza/serviza-backend/internal/repository"
	"github.com/serviza/serviza-backend/internal/router"
	"github.com/serviza/serviza-backend/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// apiServer поднимает полный HTTP-стек поверх памятного хранилища.
type apiServer struct {
	handler  http.Handler
	category models.ServiceCategory
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	store := repository.NewMemoryStore()
	category := models.ServiceCategory{
		ID:        uuid.New().String(),
		Name:      "Electrical",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	store.AddCategory(category)

	logger := log.New(io.Discard, "", 0)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	timeout := 5 * time.Second

	accountService := services.NewAccountService(store.Accounts(), tokens)
	categoryService := services.NewCategoryService(store.Categories(), store.ProviderServices(), store.Accounts())
	requestService := services.NewRequestService(store.Requests(), store.Categories(), store.Accounts())
	proposalService := services.NewProposalService(store.Proposals(), store.Requests())
	lifecycleService := services.NewLifecycleService(store.Lifecycle(), store.Accounts())
	evaluationService := services.NewEvaluationService(store.Evaluations(), store.Requests(), store.Proposals(), store.Accounts())

	handler := router.InitRoutes(router.Handlers{
		Account:    handlers.NewAccountHandler(accountService, logger, timeout),
		Category:   handlers.NewCategoryHandler(categoryService, logger, timeout),
		Request:    handlers.NewRequestHandler(requestService, lifecycleService, logger, timeout),
		Proposal:   handlers.NewProposalHandler(proposalService, lifecycleService, logger, timeout),
		Evaluation: handlers.NewEvaluationHandler(evaluationService, logger, timeout),
	}, tokens)

	return &apiServer{handler: handler, category: category}
}

func (s *apiServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	r := httptest.NewRequest(method, path, reader)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// register создает аккаунт через API и возвращает его ID и токен.
func (s *apiServer) register(t *testing.T, name string, userType models.AccountType) (string, string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"name":      name,
		"email":     name + "@example.com",
		"password":  "secret123",
		"user_type": string(userType),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	account := body["account"].(map[string]interface{})
	return account["id"].(string), body["access_token"].(string)
}

func (s *apiServer) createRequest(t *testing.T, token string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/requests", token, map[string]interface{}{
		"category_id": s.category.ID,
		"title":       "Replace an outlet",
		"description": "Outlet in the kitchen sparks",
		"address":     "12 Main St",
		"city":        "Springfield",
		"state":       "IL",
		"zip_code":    "62701",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(t, w)["id"].(string)
}

func (s *apiServer) submitProposal(t *testing.T, token, requestID string, price float64) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/proposals", token, map[string]interface{}{
		"request_id": requestID,
		"price":      price,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	proposal := decodeBody(t, w)["proposal"].(map[string]interface{})
	return proposal["id"].(string)
}

func TestAPIAuthRequired(t *testing.T) {
	server := newAPIServer(t)

	for _, path := range []string{"/api/auth/me", "/api/requests", "/api/proposals/my-proposals"} {
		w := server.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := server.do(t, http.MethodGet, "/api/requests", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIRegisterAndLogin(t *testing.T) {
	server := newAPIServer(t)
	accountID, token := server.register(t, "alice", models.ClientAccount)

	w := server.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, accountID, decodeBody(t, w)["id"])

	w = server.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, decodeBody(t, w)["access_token"])

	w = server.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "unauthorized", decodeBody(t, w)["kind"])

	// Повторная регистрация на тот же email.
	w = server.do(t, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"name":      "alice again",
		"email":     "alice@example.com",
		"password":  "secret123",
		"user_type": "client",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "conflict", decodeBody(t, w)["kind"])
}

func TestAPICategories(t *testing.T) {
	server := newAPIServer(t)

	w := server.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	categories := decodeBody(t, w)["categories"].([]interface{})
	require.Len(t, categories, 1)
}

func TestAPIProviderServices(t *testing.T) {
	server := newAPIServer(t)
	_, clientToken := server.register(t, "alice", models.ClientAccount)
	_, providerToken := server.register(t, "bob", models.ProviderAccount)

	// Клиент не может публиковать услуги.
	w := server.do(t, http.MethodPost, "/api/provider-services", clientToken, map[string]interface{}{
		"category_id": server.category.ID,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = server.do(t, http.MethodPost, "/api/provider-services", providerToken, map[string]interface{}{
		"category_id": server.category.ID,
		"description": "Wiring and outlets",
		"base_price":  75.0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	service := decodeBody(t, w)["service"].(map[string]interface{})
	require.Equal(t, server.category.ID, service["category_id"])

	// Повторная публикация той же категории.
	w = server.do(t, http.MethodPost, "/api/provider-services", providerToken, map[string]interface{}{
		"category_id": server.category.ID,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "conflict", decodeBody(t, w)["kind"])

	w = server.do(t, http.MethodGet, "/api/provider-services", providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	services := decodeBody(t, w)["services"].([]interface{})
	require.Len(t, services, 1)
}

func TestAPIRequestProposalFlow(t *testing.T) {
	server := newAPIServer(t)
	_, clientToken := server.register(t, "alice", models.ClientAccount)
	_, providerToken := server.register(t, "bob", models.ProviderAccount)
	_, rivalToken := server.register(t, "carol", models.ProviderAccount)

	requestID := server.createRequest(t, clientToken)

	// Клиент не может подать предложение.
	w := server.do(t, http.MethodPost, "/api/proposals", clientToken, map[string]interface{}{
		"request_id": requestID,
		"price":      100.0,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	p1 := server.submitProposal(t, providerToken, requestID, 100)
	p2 := server.submitProposal(t, rivalToken, requestID, 150)

	// Повторная подача от того же исполнителя.
	w = server.do(t, http.MethodPost, "/api/proposals", providerToken, map[string]interface{}{
		"request_id": requestID,
		"price":      90.0,
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// Список предложений виден только владельцу заявки.
	w = server.do(t, http.MethodGet, "/api/proposals/request/"+requestID, providerToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = server.do(t, http.MethodGet, "/api/proposals/request/"+requestID, clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeBody(t, w)["proposals"].([]interface{}), 2)

	// Принять может только владелец.
	w = server.do(t, http.MethodPost, "/api/proposals/"+p1+"/accept", providerToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = server.do(t, http.MethodPost, "/api/proposals/"+p1+"/accept", clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "in_progress", body["request"].(map[string]interface{})["status"])
	require.Equal(t, "accepted", body["proposal"].(map[string]interface{})["status"])
	rejected := body["rejected_proposals"].([]interface{})
	require.Len(t, rejected, 1)
	require.Equal(t, p2, rejected[0].(map[string]interface{})["id"])

	// Повторное принятие по той же заявке.
	w = server.do(t, http.MethodPost, "/api/proposals/"+p2+"/accept", clientToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "invalid_state", decodeBody(t, w)["kind"])

	// Завершение и оценка.
	w = server.do(t, http.MethodPost, "/api/requests/"+requestID+"/complete", clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = server.do(t, http.MethodGet, "/api/proposals/my-proposals", providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decodeBody(t, w)["proposals"].([]interface{})
	require.Len(t, mine, 1)
	acceptedProviderID := mine[0].(map[string]interface{})["provider_id"].(string)

	w = server.do(t, http.MethodPost, "/api/evaluations", clientToken, map[string]interface{}{
		"request_id":   requestID,
		"evaluated_id": acceptedProviderID,
		"rating":       5,
		"comment":      "quick and clean",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = server.do(t, http.MethodGet, "/api/evaluations/user/"+acceptedProviderID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	require.Equal(t, 5.0, body["average_rating"])
	require.Len(t, body["evaluations"].([]interface{}), 1)

	// Сводка клиента: одна выданная оценка, ни одной полученной.
	w = server.do(t, http.MethodGet, "/api/evaluations/my-evaluations", clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	require.Len(t, body["received"].([]interface{}), 0)
	given := body["given"].([]interface{})
	require.Len(t, given, 1)
	require.Equal(t, acceptedProviderID, given[0].(map[string]interface{})["evaluated"].(map[string]interface{})["id"])
}

func TestAPICancelRequest(t *testing.T) {
	server := newAPIServer(t)
	_, clientToken := server.register(t, "alice", models.ClientAccount)
	_, providerToken := server.register(t, "bob", models.ProviderAccount)

	requestID := server.createRequest(t, clientToken)
	server.submitProposal(t, providerToken, requestID, 100)

	w := server.do(t, http.MethodDelete, "/api/requests/"+requestID, clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "cancelled", body["request"].(map[string]interface{})["status"])
	require.Len(t, body["rejected_proposals"].([]interface{}), 1)

	// Подача по отменённой заявке.
	w = server.do(t, http.MethodPost, "/api/proposals", providerToken, map[string]interface{}{
		"request_id": requestID,
		"price":      80.0,
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAPIValidationResponse(t *testing.T) {
	server := newAPIServer(t)
	_, clientToken := server.register(t, "alice", models.ClientAccount)

	w := server.do(t, http.MethodPost, "/api/requests", clientToken, map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "validation", body["kind"])
	require.Contains(t, body["fields"].(map[string]interface{}), "title")
}

// Все клиентские ошибки отдаются в едином формате {"error","kind","fields"}.
func TestAPIErrorShape(t *testing.T) {
	server := newAPIServer(t)
	_, clientToken := server.register(t, "alice", models.ClientAccount)

	t.Run("malformed JSON body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/requests", bytes.NewReader([]byte("{not json")))
		r.Header.Set("Authorization", "Bearer "+clientToken)
		w := httptest.NewRecorder()
		server.handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		require.Equal(t, "validation", body["kind"])
		require.NotEmpty(t, body["error"])
	})

	t.Run("invalid pagination parameter", func(t *testing.T) {
		w := server.do(t, http.MethodGet, "/api/requests?limit=abc", clientToken, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		require.Equal(t, "validation", body["kind"])
		require.Contains(t, body["fields"].(map[string]interface{}), "limit")
	})

	t.Run("missing token", func(t *testing.T) {
		w := server.do(t, http.MethodGet, "/api/requests", "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "unauthorized", decodeBody(t, w)["kind"])
	})
}

func TestAPIPublicProfile(t *testing.T) {
	server := newAPIServer(t)
	accountID, _ := server.register(t, "bob", models.ProviderAccount)

	w := server.do(t, http.MethodGet, "/api/users/"+accountID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "bob", body["name"])
	// Публичная проекция не содержит email.
	require.NotContains(t, body, "email")
}
