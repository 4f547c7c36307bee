package services

import (
	"context"
	"testing"
	"time"

	"github.com/serviza/serviza-backend/internal/models"
	"github.com/serviza/serviza-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store       *repository.MemoryStore
	category    models.ServiceCategory
	accounts    *AccountService
	categories  *CategoryService
	requests    *RequestService
	proposals   *ProposalService
	lifecycle   *LifecycleService
	evaluations *EvaluationService
}

type staticTokens struct{}

func (staticTokens) Issue(accountID string, userType models.AccountType) (string, error) {
	return "token-" + accountID, nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	category := models.ServiceCategory{
		ID:        uuid.New().String(),
		Name:      "Plumbing",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	store.AddCategory(category)

	return &testEnv{
		store:       store,
		category:    category,
		accounts:    NewAccountService(store.Accounts(), staticTokens{}),
		categories:  NewCategoryService(store.Categories(), store.ProviderServices(), store.Accounts()),
		requests:    NewRequestService(store.Requests(), store.Categories(), store.Accounts()),
		proposals:   NewProposalService(store.Proposals(), store.Requests()),
		lifecycle:   NewLifecycleService(store.Lifecycle(), store.Accounts()),
		evaluations: NewEvaluationService(store.Evaluations(), store.Requests(), store.Proposals(), store.Accounts()),
	}
}

func (e *testEnv) createAccount(t *testing.T, name string, userType models.AccountType) *models.Account {
	t.Helper()
	account := &models.Account{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     name + "@example.com",
		UserType:  userType,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, e.store.Accounts().Create(context.Background(), account))
	return account
}

func (e *testEnv) createRequest(t *testing.T, client *models.Account) *models.ServiceRequest {
	t.Helper()
	request, err := e.requests.CreateRequest(context.Background(), client.ID, models.ServiceRequestInput{
		CategoryID:  e.category.ID,
		Title:       "Fix the kitchen sink",
		Description: "The sink is leaking under the counter",
		Address:     "12 Main St",
		City:        "Springfield",
		State:       "IL",
		ZipCode:     "62701",
	})
	require.NoError(t, err)
	return request
}

func (e *testEnv) submitProposal(t *testing.T, provider *models.Account, requestID string, price float64) *models.Proposal {
	t.Helper()
	proposal, err := e.lifecycle.SubmitProposal(context.Background(), provider.ID, models.ProposalInput{
		RequestID: requestID,
		Price:     price,
	})
	require.NoError(t, err)
	return proposal
}

func (e *testEnv) requestStatus(t *testing.T, requestID string) models.RequestStatus {
	t.Helper()
	request, err := e.store.Requests().GetByID(context.Background(), requestID)
	require.NoError(t, err)
	return request.Status
}

func (e *testEnv) proposalStatus(t *testing.T, proposalID string) models.ProposalStatus {
	t.Helper()
	proposal, err := e.store.Proposals().GetByID(context.Background(), proposalID)
	require.NoError(t, err)
	return proposal.Status
}

func requireKind(t *testing.T, err error, kind models.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, kind, appErr.Kind)
}
