package repository

import (
	"context"

	"github.com/serviza/serviza-backend/internal/models"
)

// Адаптеры, открывающие MemoryStore под интерфейсы отдельных репозиториев.
// Сам MemoryStore реализует AccountRepository и LifecycleRepository напрямую.

type memoryCategoryRepo struct{ store *MemoryStore }

func (r memoryCategoryRepo) List(ctx context.Context) ([]models.ServiceCategory, error) {
	return r.store.List(ctx)
}

func (r memoryCategoryRepo) GetByID(ctx context.Context, categoryID string) (*models.ServiceCategory, error) {
	return r.store.GetCategoryByID(ctx, categoryID)
}

func (r memoryCategoryRepo) Exists(ctx context.Context, categoryID string) (bool, error) {
	return r.store.Exists(ctx, categoryID)
}

type memoryProviderServiceRepo struct{ store *MemoryStore }

func (r memoryProviderServiceRepo) Create(ctx context.Context, service *models.ProviderService) error {
	return r.store.CreateProviderService(ctx, service)
}

func (r memoryProviderServiceRepo) ListForProvider(ctx context.Context, providerID string) ([]models.ProviderService, error) {
	return r.store.ListProviderServices(ctx, providerID)
}

type memoryRequestRepo struct{ store *MemoryStore }

func (r memoryRequestRepo) Create(ctx context.Context, request *models.ServiceRequest) error {
	return r.store.CreateRequest(ctx, request)
}

func (r memoryRequestRepo) GetByID(ctx context.Context, requestID string) (*models.ServiceRequest, error) {
	return r.store.GetRequestByID(ctx, requestID)
}

func (r memoryRequestRepo) ListForClient(ctx context.Context, clientID string, limit, offset int) ([]models.ServiceRequest, error) {
	return r.store.ListForClient(ctx, clientID, limit, offset)
}

func (r memoryRequestRepo) ListOpen(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, error) {
	return r.store.ListOpen(ctx, filter)
}

func (r memoryRequestRepo) Update(ctx context.Context, request *models.ServiceRequest) error {
	return r.store.UpdateRequest(ctx, request)
}

type memoryProposalRepo struct{ store *MemoryStore }

func (r memoryProposalRepo) GetByID(ctx context.Context, proposalID string) (*models.Proposal, error) {
	return r.store.GetProposalByID(ctx, proposalID)
}

func (r memoryProposalRepo) ListForRequest(ctx context.Context, requestID string) ([]models.ProposalWithProvider, error) {
	return r.store.ListProposalsForRequest(ctx, requestID)
}

func (r memoryProposalRepo) ListForProvider(ctx context.Context, providerID string) ([]models.ProposalWithRequest, error) {
	return r.store.ListProposalsForProvider(ctx, providerID)
}

func (r memoryProposalRepo) AcceptedForRequest(ctx context.Context, requestID string) (*models.Proposal, error) {
	return r.store.AcceptedForRequest(ctx, requestID)
}

type memoryEvaluationRepo struct{ store *MemoryStore }

func (r memoryEvaluationRepo) Submit(ctx context.Context, evaluation *models.Evaluation) error {
	return r.store.SubmitEvaluation(ctx, evaluation)
}

func (r memoryEvaluationRepo) ExistsForEvaluator(ctx context.Context, evaluatorID, requestID string) (bool, error) {
	return r.store.ExistsForEvaluator(ctx, evaluatorID, requestID)
}

func (r memoryEvaluationRepo) ListForUser(ctx context.Context, userID string) ([]models.EvaluationWithEvaluator, error) {
	return r.store.ListEvaluationsForUser(ctx, userID)
}

func (r memoryEvaluationRepo) ListGivenBy(ctx context.Context, evaluatorID string) ([]models.EvaluationWithEvaluated, error) {
	return r.store.ListEvaluationsGivenBy(ctx, evaluatorID)
}

func (r memoryEvaluationRepo) ListForRequest(ctx context.Context, requestID string) ([]models.EvaluationWithEvaluator, error) {
	return r.store.ListEvaluationsForRequest(ctx, requestID)
}

// Accounts возвращает AccountRepository поверх хранилища.
func (s *MemoryStore) Accounts() AccountRepository { return s }

// Categories возвращает CategoryRepository поверх хранилища.
func (s *MemoryStore) Categories() CategoryRepository { return memoryCategoryRepo{store: s} }

// ProviderServices возвращает ProviderServiceRepository поверх хранилища.
func (s *MemoryStore) ProviderServices() ProviderServiceRepository {
	return memoryProviderServiceRepo{store: s}
}

// Requests возвращает RequestRepository поверх хранилища.
func (s *MemoryStore) Requests() RequestRepository { return memoryRequestRepo{store: s} }

// Proposals возвращает ProposalRepository поверх хранилища.
func (s *MemoryStore) Proposals() ProposalRepository { return memoryProposalRepo{store: s} }

// Evaluations возвращает EvaluationRepository поверх хранилища.
func (s *MemoryStore) Evaluations() EvaluationRepository { return memoryEvaluationRepo{store: s} }

// Lifecycle возвращает LifecycleRepository поверх хранилища.
func (s *MemoryStore) Lifecycle() LifecycleRepository { return s }
