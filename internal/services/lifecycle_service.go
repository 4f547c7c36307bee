package services

import (
	"context"
	"time"

	"github.com/serviza/serviza-backend/internal/models"
	"github.com/serviza/serviza-backend/internal/repository"

	"github.com/google/uuid"
)

// LifecycleService - единственная точка смены статусов заявок и предложений.
// Каждая операция выполняется под блокировкой заявки и применяется атомарно.
type LifecycleService struct {
	Repo     repository.LifecycleRepository
	Accounts repository.AccountRepository
}

// NewLifecycleService создаёт новый экземпляр LifecycleService.
func NewLifecycleService(repo repository.LifecycleRepository, accounts repository.AccountRepository) *LifecycleService {
	return &LifecycleService{Repo: repo, Accounts: accounts}
}

// SubmitProposal подаёт предложение по открытой заявке. Статус заявки
// перепроверяется под блокировкой, чтобы закрыть гонку между чтением
// вызывающего и записью.
func (s *LifecycleService) SubmitProposal(ctx context.Context, providerID string, input models.ProposalInput) (*models.Proposal, error) {
	if input.RequestID == "" {
		return nil, models.NewValidationError("missing required fields", map[string]string{"request_id": "required"})
	}
	if input.Price <= 0 {
		return nil, models.NewValidationError("price must be positive", map[string]string{"price": "must be greater than zero"})
	}

	provider, err := s.Accounts.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider.UserType != models.ProviderAccount {
		return nil, models.NewForbiddenError("only providers can submit proposals")
	}

	var created *models.Proposal
	err = s.Repo.WithRequestLock(ctx, input.RequestID, func(tx repository.LifecycleTx) error {
		request, err := tx.Request(ctx)
		if err != nil {
			return err
		}
		if request.ClientID == providerID {
			return models.NewForbiddenError("you cannot submit a proposal to your own request")
		}
		if request.Status != models.OpenRequest {
			return models.NewConflictError("service request is no longer open")
		}
		active, err := tx.HasActiveProposal(ctx, providerID)
		if err != nil {
			return err
		}
		if active {
			return models.NewConflictError("you already have an active proposal for this request")
		}

		now := time.Now().UTC()
		created = &models.Proposal{
			ID:                uuid.New().String(),
			RequestID:         request.ID,
			ProviderID:        providerID,
			Price:             input.Price,
			EstimatedDuration: input.EstimatedDuration,
			Description:       input.Description,
			MaterialsIncluded: input.MaterialsIncluded,
			Availability:      input.Availability,
			Status:            models.PendingProposal,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return tx.InsertProposal(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AcceptProposal принимает предложение: предложение становится accepted,
// заявка - in_progress, все остальные ожидающие предложения отклоняются
// каскадом в той же транзакции.
func (s *LifecycleService) AcceptProposal(ctx context.Context, requestID, proposalID, actingClientID string) (*models.AcceptResult, error) {
	var result *models.AcceptResult
	err := s.Repo.WithRequestLock(ctx, requestID, func(tx repository.LifecycleTx) error {
		request, err := tx.Request(ctx)
		if err != nil {
			return err
		}
		if request.ClientID != actingClientID {
			return models.NewForbiddenError("only the request owner can accept proposals")
		}
		if request.Status != models.OpenRequest {
			return models.NewInvalidStateError("service request is not open")
		}

		proposal, err := tx.ProposalByID(ctx, proposalID)
		if err != nil {
			return err
		}
		if proposal.RequestID != requestID {
			return models.NewInvalidStateError("proposal does not belong to this request")
		}
		if proposal.Status != models.PendingProposal {
			return models.NewInvalidStateError("proposal is not pending")
		}

		pending, err := tx.PendingProposals(ctx)
		if err != nil {
			return err
		}

		if err := tx.SetProposalStatus(ctx, proposal.ID, models.AcceptedProposal); err != nil {
			return err
		}
		if err := tx.SetRequestStatus(ctx, models.InProgressRequest); err != nil {
			return err
		}

		var rejected []models.Proposal
		for _, sibling := range pending {
			if sibling.ID == proposal.ID {
				continue
			}
			if err := tx.SetProposalStatus(ctx, sibling.ID, models.RejectedProposal); err != nil {
				return err
			}
			sibling.Status = models.RejectedProposal
			rejected = append(rejected, sibling)
		}

		proposal.Status = models.AcceptedProposal
		result = &models.AcceptResult{Request: request, Accepted: proposal, Rejected: rejected}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RejectProposal отклоняет ожидающее предложение; статус заявки не меняется.
func (s *LifecycleService) RejectProposal(ctx context.Context, requestID, proposalID, actingClientID string) (*models.Proposal, error) {
	var rejected *models.Proposal
	err := s.Repo.WithRequestLock(ctx, requestID, func(tx repository.LifecycleTx) error {
		request, err := tx.Request(ctx)
		if err != nil {
			return err
		}
		if request.ClientID != actingClientID {
			return models.NewForbiddenError("only the request owner can reject proposals")
		}

		proposal, err := tx.ProposalByID(ctx, proposalID)
		if err != nil {
			return err
		}
		if proposal.RequestID != requestID {
			return models.NewInvalidStateError("proposal does not belong to this request")
		}
		if proposal.Status != models.PendingProposal {
			return models.NewInvalidStateError("proposal is not pending")
		}

		if err := tx.SetProposalStatus(ctx, proposal.ID, models.RejectedProposal); err != nil {
			return err
		}
		proposal.Status = models.RejectedProposal
		rejected = proposal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// CompleteRequest завершает заявку; допустимо только из in_progress.
// Открывает окно для оценок с обеих сторон.
func (s *LifecycleService) CompleteRequest(ctx context.Context, requestID, actingClientID string) (*models.ServiceRequest, error) {
	var completed *models.ServiceRequest
	err := s.Repo.WithRequestLock(ctx, requestID, func(tx repository.LifecycleTx) error {
		request, err := tx.Request(ctx)
		if err != nil {
			return err
		}
		if request.ClientID != actingClientID {
			return models.NewForbiddenError("only the request owner can complete the request")
		}
		if request.Status != models.InProgressRequest {
			return models.NewInvalidStateError("service request is not in progress")
		}
		if err := tx.SetRequestStatus(ctx, models.CompletedRequest); err != nil {
			return err
		}
		completed = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// CancelRequest отменяет заявку из open или in_progress. Все ожидающие
// предложения отклоняются каскадом; принятое предложение тоже переводится
// в rejected, чтобы у отменённой заявки не оставалось активных предложений.
func (s *LifecycleService) CancelRequest(ctx context.Context, requestID, actingClientID string) (*models.ServiceRequest, []models.Proposal, error) {
	var cancelled *models.ServiceRequest
	var affected []models.Proposal
	err := s.Repo.WithRequestLock(ctx, requestID, func(tx repository.LifecycleTx) error {
		request, err := tx.Request(ctx)
		if err != nil {
			return err
		}
		if request.ClientID != actingClientID {
			return models.NewForbiddenError("only the request owner can cancel the request")
		}
		if request.Status != models.OpenRequest && request.Status != models.InProgressRequest {
			return models.NewInvalidStateError("service request cannot be cancelled in its current status")
		}

		pending, err := tx.PendingProposals(ctx)
		if err != nil {
			return err
		}
		accepted, err := tx.AcceptedProposal(ctx)
		if err != nil {
			return err
		}

		if err := tx.SetRequestStatus(ctx, models.CancelledRequest); err != nil {
			return err
		}
		for _, proposal := range pending {
			if err := tx.SetProposalStatus(ctx, proposal.ID, models.RejectedProposal); err != nil {
				return err
			}
			proposal.Status = models.RejectedProposal
			affected = append(affected, proposal)
		}
		if accepted != nil {
			if err := tx.SetProposalStatus(ctx, accepted.ID, models.RejectedProposal); err != nil {
				return err
			}
			accepted.Status = models.RejectedProposal
			affected = append(affected, *accepted)
		}

		cancelled = request
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return cancelled, affected, nil
}
