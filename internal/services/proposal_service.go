package services

import (
	"context"

	"github.com/serviza/serviza-backend/internal/models"
	"github.com/serviza/serviza-backend/internal/repository"
)

// ProposalService отвечает за чтение предложений. Подача и смена статуса
// идут через LifecycleService.
type ProposalService struct {
	Repo     repository.ProposalRepository
	Requests repository.RequestRepository
}

// NewProposalService создаёт новый экземпляр ProposalService.
func NewProposalService(repo repository.ProposalRepository, requests repository.RequestRepository) *ProposalService {
	return &ProposalService{Repo: repo, Requests: requests}
}

// GetByID возвращает предложение по ID.
func (s *ProposalService) GetByID(ctx context.Context, proposalID string) (*models.Proposal, error) {
	return s.Repo.GetByID(ctx, proposalID)
}

// ListForRequest возвращает предложения по заявке; доступно только её владельцу.
func (s *ProposalService) ListForRequest(ctx context.Context, requestID, actorID string) ([]models.ProposalWithProvider, error) {
	request, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ClientID != actorID {
		return nil, models.NewForbiddenError("only the request owner can view its proposals")
	}
	return s.Repo.ListForRequest(ctx, requestID)
}

// ListForProvider возвращает предложения исполнителя вместе с данными заявок.
func (s *ProposalService) ListForProvider(ctx context.Context, providerID string) ([]models.ProposalWithRequest, error) {
	return s.Repo.ListForProvider(ctx, providerID)
}
