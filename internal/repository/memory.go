package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/serviza/serviza-backend/internal/models"
)

// MemoryStore - реализация всех репозиториев в памяти. Используется в режиме
// STORAGE_DRIVER=memory и в тестах. Сериализация мутаций по заявке
// обеспечивается мьютексом на каждую заявку.
type MemoryStore struct {
	mu          sync.RWMutex
	accounts    map[string]models.Account
	emailIndex  map[string]string
	categories  map[string]models.ServiceCategory
	offerings   map[string]models.ProviderService
	offerPairs  map[string]struct{}
	requests    map[string]models.ServiceRequest
	proposals   map[string]models.Proposal
	evaluations map[string]models.Evaluation
	evalPairs   map[string]struct{}

	lockMu       sync.Mutex
	requestLocks map[string]*sync.Mutex
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[string]models.Account),
		emailIndex:   make(map[string]string),
		categories:   make(map[string]models.ServiceCategory),
		offerings:    make(map[string]models.ProviderService),
		offerPairs:   make(map[string]struct{}),
		requests:     make(map[string]models.ServiceRequest),
		proposals:    make(map[string]models.Proposal),
		evaluations:  make(map[string]models.Evaluation),
		evalPairs:    make(map[string]struct{}),
		requestLocks: make(map[string]*sync.Mutex),
	}
}

func evalPairKey(evaluatorID, requestID string) string {
	return evaluatorID + "|" + requestID
}

func withRating(account models.Account) models.Account {
	if account.RatingCount > 0 {
		account.AverageRating = float64(account.RatingSum) / float64(account.RatingCount)
	}
	return account
}

// --- AccountRepository ---

func (s *MemoryStore) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emailIndex[account.Email]; taken {
		return models.NewConflictError("email is already registered")
	}
	s.accounts[account.ID] = *account
	s.emailIndex[account.Email] = account.ID
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, accountID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, models.NewNotFoundError("account not found")
	}
	account = withRating(account)
	return &account, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.emailIndex[email]
	if !ok {
		return nil, models.NewNotFoundError("account not found")
	}
	account := withRating(s.accounts[accountID])
	return &account, nil
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.accounts[account.ID]
	if !ok {
		return models.NewNotFoundError("account not found")
	}
	current.Name = account.Name
	current.Phone = account.Phone
	current.Address = account.Address
	current.City = account.City
	current.State = account.State
	current.ZipCode = account.ZipCode
	current.Bio = account.Bio
	current.ExperienceYears = account.ExperienceYears
	s.accounts[account.ID] = current
	return nil
}

// --- CategoryRepository ---

// AddCategory добавляет категорию в справочник; вместо сида миграций
// в памятном режиме.
func (s *MemoryStore) AddCategory(category models.ServiceCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[category.ID] = category
}

func (s *MemoryStore) List(ctx context.Context) ([]models.ServiceCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var categories []models.ServiceCategory
	for _, category := range s.categories {
		if category.IsActive {
			categories = append(categories, category)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *MemoryStore) GetCategoryByID(ctx context.Context, categoryID string) (*models.ServiceCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, ok := s.categories[categoryID]
	if !ok {
		return nil, models.NewNotFoundError("category not found")
	}
	return &category, nil
}

func (s *MemoryStore) Exists(ctx context.Context, categoryID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, ok := s.categories[categoryID]
	return ok && category.IsActive, nil
}

// --- ProviderServiceRepository ---

func offerPairKey(providerID, categoryID string) string {
	return providerID + "|" + categoryID
}

func (s *MemoryStore) CreateProviderService(ctx context.Context, service *models.ProviderService) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := offerPairKey(service.ProviderID, service.CategoryID)
	if _, taken := s.offerPairs[key]; taken {
		return models.NewConflictError("you already offer this service")
	}
	s.offerings[service.ID] = *service
	s.offerPairs[key] = struct{}{}
	return nil
}

func (s *MemoryStore) ListProviderServices(ctx context.Context, providerID string) ([]models.ProviderService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var services []models.ProviderService
	for _, service := range s.offerings {
		if service.ProviderID == providerID && service.IsActive {
			services = append(services, service)
		}
	}
	sort.Slice(services, func(i, j int) bool { return services[i].CreatedAt.Before(services[j].CreatedAt) })
	return services, nil
}

// --- RequestRepository ---

func (s *MemoryStore) CreateRequest(ctx context.Context, request *models.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[request.ID] = *request
	return nil
}

func (s *MemoryStore) GetRequestByID(ctx context.Context, requestID string) (*models.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, models.NewNotFoundError("service request not found")
	}
	return &request, nil
}

func (s *MemoryStore) ListForClient(ctx context.Context, clientID string, limit, offset int) ([]models.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var requests []models.ServiceRequest
	for _, request := range s.requests {
		if request.ClientID == clientID {
			requests = append(requests, request)
		}
	}
	sortRequestsByCreated(requests)
	return page(requests, limit, offset), nil
}

func (s *MemoryStore) ListOpen(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var requests []models.ServiceRequest
	for _, request := range s.requests {
		if request.Status != models.OpenRequest {
			continue
		}
		if len(filter.Categories) > 0 && !contains(filter.Categories, request.CategoryID) {
			continue
		}
		if len(filter.Urgencies) > 0 && !contains(filter.Urgencies, string(request.Urgency)) {
			continue
		}
		if filter.City != "" && request.City != filter.City {
			continue
		}
		requests = append(requests, request)
	}
	sortRequestsByCreated(requests)
	return page(requests, filter.Limit, filter.Offset), nil
}

func (s *MemoryStore) UpdateRequest(ctx context.Context, request *models.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[request.ID]
	if !ok {
		return models.NewNotFoundError("service request not found")
	}
	current.Title = request.Title
	current.Description = request.Description
	current.Urgency = request.Urgency
	current.BudgetMin = request.BudgetMin
	current.BudgetMax = request.BudgetMax
	current.PreferredDate = request.PreferredDate
	current.UpdatedAt = request.UpdatedAt
	s.requests[request.ID] = current
	return nil
}

// --- ProposalRepository ---

func (s *MemoryStore) GetProposalByID(ctx context.Context, proposalID string) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[proposalID]
	if !ok {
		return nil, models.NewNotFoundError("proposal not found")
	}
	return &proposal, nil
}

func (s *MemoryStore) ListProposalsForRequest(ctx context.Context, requestID string) ([]models.ProposalWithProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var proposals []models.ProposalWithProvider
	for _, proposal := range s.proposals {
		if proposal.RequestID != requestID {
			continue
		}
		provider := withRating(s.accounts[proposal.ProviderID])
		proposals = append(proposals, models.ProposalWithProvider{Proposal: proposal, Provider: provider.Summary()})
	}
	sort.Slice(proposals, func(i, j int) bool { return proposals[i].CreatedAt.Before(proposals[j].CreatedAt) })
	return proposals, nil
}

func (s *MemoryStore) ListProposalsForProvider(ctx context.Context, providerID string) ([]models.ProposalWithRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var proposals []models.ProposalWithRequest
	for _, proposal := range s.proposals {
		if proposal.ProviderID != providerID {
			continue
		}
		request := s.requests[proposal.RequestID]
		proposals = append(proposals, models.ProposalWithRequest{Proposal: proposal, Request: request.Summary()})
	}
	sort.Slice(proposals, func(i, j int) bool { return proposals[i].CreatedAt.After(proposals[j].CreatedAt) })
	return proposals, nil
}

func (s *MemoryStore) AcceptedForRequest(ctx context.Context, requestID string) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, proposal := range s.proposals {
		if proposal.RequestID == requestID && proposal.Status == models.AcceptedProposal {
			return &proposal, nil
		}
	}
	return nil, nil
}

// --- EvaluationRepository ---

func (s *MemoryStore) SubmitEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := evalPairKey(evaluation.EvaluatorID, evaluation.RequestID)
	if _, taken := s.evalPairs[key]; taken {
		return models.NewConflictError("evaluation already submitted for this request")
	}
	s.evaluations[evaluation.ID] = *evaluation
	s.evalPairs[key] = struct{}{}

	subject := s.accounts[evaluation.EvaluatedID]
	subject.RatingSum += int64(evaluation.Rating)
	subject.RatingCount++
	s.accounts[evaluation.EvaluatedID] = subject
	return nil
}

func (s *MemoryStore) ExistsForEvaluator(ctx context.Context, evaluatorID, requestID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, taken := s.evalPairs[evalPairKey(evaluatorID, requestID)]
	return taken, nil
}

func (s *MemoryStore) ListEvaluationsForUser(ctx context.Context, userID string) ([]models.EvaluationWithEvaluator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var evaluations []models.EvaluationWithEvaluator
	for _, evaluation := range s.evaluations {
		if evaluation.EvaluatedID == userID {
			evaluator := withRating(s.accounts[evaluation.EvaluatorID])
			evaluations = append(evaluations, models.EvaluationWithEvaluator{Evaluation: evaluation, Evaluator: evaluator.Summary()})
		}
	}
	sort.Slice(evaluations, func(i, j int) bool { return evaluations[i].CreatedAt.After(evaluations[j].CreatedAt) })
	return evaluations, nil
}

func (s *MemoryStore) ListEvaluationsGivenBy(ctx context.Context, evaluatorID string) ([]models.EvaluationWithEvaluated, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var evaluations []models.EvaluationWithEvaluated
	for _, evaluation := range s.evaluations {
		if evaluation.EvaluatorID == evaluatorID {
			evaluated := withRating(s.accounts[evaluation.EvaluatedID])
			evaluations = append(evaluations, models.EvaluationWithEvaluated{Evaluation: evaluation, Evaluated: evaluated.Summary()})
		}
	}
	sort.Slice(evaluations, func(i, j int) bool { return evaluations[i].CreatedAt.After(evaluations[j].CreatedAt) })
	return evaluations, nil
}

func (s *MemoryStore) ListEvaluationsForRequest(ctx context.Context, requestID string) ([]models.EvaluationWithEvaluator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var evaluations []models.EvaluationWithEvaluator
	for _, evaluation := range s.evaluations {
		if evaluation.RequestID == requestID {
			evaluator := withRating(s.accounts[evaluation.EvaluatorID])
			evaluations = append(evaluations, models.EvaluationWithEvaluator{Evaluation: evaluation, Evaluator: evaluator.Summary()})
		}
	}
	sort.Slice(evaluations, func(i, j int) bool { return evaluations[i].CreatedAt.Before(evaluations[j].CreatedAt) })
	return evaluations, nil
}

// --- LifecycleRepository ---

// WithRequestLock выполняет fn под мьютексом заявки. Изменения накапливаются
// в транзакции и применяются к хранилищу только после успешного fn.
func (s *MemoryStore) WithRequestLock(ctx context.Context, requestID string, fn func(tx LifecycleTx) error) error {
	s.lockMu.Lock()
	requestLock, ok := s.requestLocks[requestID]
	if !ok {
		requestLock = &sync.Mutex{}
		s.requestLocks[requestID] = requestLock
	}
	s.lockMu.Unlock()

	requestLock.Lock()
	defer requestLock.Unlock()

	s.mu.RLock()
	request, exists := s.requests[requestID]
	s.mu.RUnlock()
	if !exists {
		return models.NewNotFoundError("service request not found")
	}

	tx := &memoryLifecycleTx{
		store:            s,
		request:          &request,
		proposalStatuses: make(map[string]models.ProposalStatus),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memoryLifecycleTx struct {
	store            *MemoryStore
	request          *models.ServiceRequest
	statusChanged    bool
	inserted         []models.Proposal
	proposalStatuses map[string]models.ProposalStatus
}

func (t *memoryLifecycleTx) Request(ctx context.Context) (*models.ServiceRequest, error) {
	return t.request, nil
}

func (t *memoryLifecycleTx) proposalView(proposal models.Proposal) models.Proposal {
	if status, staged := t.proposalStatuses[proposal.ID]; staged {
		proposal.Status = status
	}
	return proposal
}

func (t *memoryLifecycleTx) ProposalByID(ctx context.Context, proposalID string) (*models.Proposal, error) {
	for _, proposal := range t.inserted {
		if proposal.ID == proposalID {
			proposal = t.proposalView(proposal)
			return &proposal, nil
		}
	}
	t.store.mu.RLock()
	proposal, ok := t.store.proposals[proposalID]
	t.store.mu.RUnlock()
	if !ok {
		return nil, models.NewNotFoundError("proposal not found")
	}
	proposal = t.proposalView(proposal)
	return &proposal, nil
}

func (t *memoryLifecycleTx) requestProposals() []models.Proposal {
	t.store.mu.RLock()
	var proposals []models.Proposal
	for _, proposal := range t.store.proposals {
		if proposal.RequestID == t.request.ID {
			proposals = append(proposals, t.proposalView(proposal))
		}
	}
	t.store.mu.RUnlock()
	for _, proposal := range t.inserted {
		proposals = append(proposals, t.proposalView(proposal))
	}
	sort.Slice(proposals, func(i, j int) bool { return proposals[i].CreatedAt.Before(proposals[j].CreatedAt) })
	return proposals
}

func (t *memoryLifecycleTx) PendingProposals(ctx context.Context) ([]models.Proposal, error) {
	var pending []models.Proposal
	for _, proposal := range t.requestProposals() {
		if proposal.Status == models.PendingProposal {
			pending = append(pending, proposal)
		}
	}
	return pending, nil
}

func (t *memoryLifecycleTx) AcceptedProposal(ctx context.Context) (*models.Proposal, error) {
	for _, proposal := range t.requestProposals() {
		if proposal.Status == models.AcceptedProposal {
			accepted := proposal
			return &accepted, nil
		}
	}
	return nil, nil
}

func (t *memoryLifecycleTx) HasActiveProposal(ctx context.Context, providerID string) (bool, error) {
	for _, proposal := range t.requestProposals() {
		if proposal.ProviderID == providerID && proposal.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryLifecycleTx) InsertProposal(ctx context.Context, proposal *models.Proposal) error {
	t.inserted = append(t.inserted, *proposal)
	return nil
}

func (t *memoryLifecycleTx) SetRequestStatus(ctx context.Context, status models.RequestStatus) error {
	t.request.Status = status
	t.request.UpdatedAt = time.Now().UTC()
	t.statusChanged = true
	return nil
}

func (t *memoryLifecycleTx) SetProposalStatus(ctx context.Context, proposalID string, status models.ProposalStatus) error {
	for i := range t.inserted {
		if t.inserted[i].ID == proposalID {
			t.inserted[i].Status = status
			return nil
		}
	}
	t.store.mu.RLock()
	_, ok := t.store.proposals[proposalID]
	t.store.mu.RUnlock()
	if !ok {
		return models.NewNotFoundError("proposal not found")
	}
	t.proposalStatuses[proposalID] = status
	return nil
}

func (t *memoryLifecycleTx) commit() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	now := time.Now().UTC()
	if t.statusChanged {
		t.store.requests[t.request.ID] = *t.request
	}
	for proposalID, status := range t.proposalStatuses {
		proposal := t.store.proposals[proposalID]
		proposal.Status = status
		proposal.UpdatedAt = now
		t.store.proposals[proposalID] = proposal
	}
	for _, proposal := range t.inserted {
		t.store.proposals[proposal.ID] = proposal
	}
}

func sortRequestsByCreated(requests []models.ServiceRequest) {
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.After(requests[j].CreatedAt) })
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
