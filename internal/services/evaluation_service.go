package services

import (
	"context"
	"time"

	"github.com/serviza/serviza-backend/internal/models"
	"github.com/serviza/serviza-backend/internal/repository"

	"github.com/google/uuid"
)

// EvaluationService - журнал оценок по завершённым заявкам.
type EvaluationService struct {
	Repo      repository.EvaluationRepository
	Requests  repository.RequestRepository
	Proposals repository.ProposalRepository
	Accounts  repository.AccountRepository
}

// NewEvaluationService создаёт новый экземпляр EvaluationService.
func NewEvaluationService(repo repository.EvaluationRepository, requests repository.RequestRepository, proposals repository.ProposalRepository, accounts repository.AccountRepository) *EvaluationService {
	return &EvaluationService{Repo: repo, Requests: requests, Proposals: proposals, Accounts: accounts}
}

func validSubScore(score *int) bool {
	return score == nil || (*score >= 1 && *score <= 5)
}

// Submit сохраняет оценку. Допустимо только по завершённой заявке, от её
// участника в адрес второго участника, и не более одной оценки на пару
// (оценщик, заявка).
func (s *EvaluationService) Submit(ctx context.Context, evaluatorID string, input models.EvaluationInput) (*models.Evaluation, error) {
	if input.RequestID == "" || input.EvaluatedID == "" {
		return nil, models.NewValidationError("missing required fields", map[string]string{"request_id": "required", "evaluated_id": "required"})
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, models.NewValidationError("rating must be between 1 and 5", map[string]string{"rating": "must be between 1 and 5"})
	}
	if !validSubScore(input.Punctuality) || !validSubScore(input.Quality) || !validSubScore(input.Communication) {
		return nil, models.NewValidationError("sub-scores must be between 1 and 5", nil)
	}

	request, err := s.Requests.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.CompletedRequest {
		return nil, models.NewInvalidStateError("only completed requests can be evaluated")
	}

	if _, err := s.Accounts.GetByID(ctx, input.EvaluatedID); err != nil {
		return nil, err
	}

	accepted, err := s.Proposals.AcceptedForRequest(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if accepted == nil {
		return nil, models.NewInvalidStateError("request has no accepted proposal")
	}

	// Клиент оценивает исполнителя с принятым предложением, исполнитель - клиента.
	switch evaluatorID {
	case request.ClientID:
		if input.EvaluatedID != accepted.ProviderID {
			return nil, models.NewForbiddenError("this provider did not work on the request")
		}
	case accepted.ProviderID:
		if input.EvaluatedID != request.ClientID {
			return nil, models.NewForbiddenError("you can only evaluate the client of this request")
		}
	default:
		return nil, models.NewForbiddenError("you did not participate in this request")
	}

	taken, err := s.Repo.ExistsForEvaluator(ctx, evaluatorID, input.RequestID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("evaluation already submitted for this request")
	}

	evaluation := &models.Evaluation{
		ID:            uuid.New().String(),
		RequestID:     input.RequestID,
		EvaluatorID:   evaluatorID,
		EvaluatedID:   input.EvaluatedID,
		Rating:        input.Rating,
		Comment:       input.Comment,
		Punctuality:   input.Punctuality,
		Quality:       input.Quality,
		Communication: input.Communication,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Repo.Submit(ctx, evaluation); err != nil {
		return nil, err
	}
	return evaluation, nil
}

// ListForUser возвращает оценки, полученные пользователем; публичная выборка.
func (s *EvaluationService) ListForUser(ctx context.Context, userID string) ([]models.EvaluationWithEvaluator, *models.Account, error) {
	subject, err := s.Accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	evaluations, err := s.Repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return evaluations, subject, nil
}

// ListMine возвращает полученные и выданные оценки пользователя.
func (s *EvaluationService) ListMine(ctx context.Context, userID string) (*models.MyEvaluations, error) {
	received, err := s.Repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	given, err := s.Repo.ListGivenBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Пустые выборки сериализуются как [], а не null.
	if received == nil {
		received = []models.EvaluationWithEvaluator{}
	}
	if given == nil {
		given = []models.EvaluationWithEvaluated{}
	}
	return &models.MyEvaluations{Received: received, Given: given}, nil
}

// ListForRequest возвращает оценки по заявке; доступно только её участникам.
func (s *EvaluationService) ListForRequest(ctx context.Context, requestID, actorID string) ([]models.EvaluationWithEvaluator, error) {
	request, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ClientID != actorID {
		accepted, err := s.Proposals.AcceptedForRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if accepted == nil || accepted.ProviderID != actorID {
			return nil, models.NewForbiddenError("you did not participate in this request")
		}
	}
	return s.Repo.ListForRequest(ctx, requestID)
}
