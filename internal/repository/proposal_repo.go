package repository

import (
	"context"
	"errors"

	"github.com/serviza/serviza-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProposalRepository - интерфейс для чтения предложений. Создание и смена
// статуса идут только через LifecycleRepository.
type ProposalRepository interface {
	GetByID(ctx context.Context, proposalID string) (*models.Proposal, error)
	ListForRequest(ctx context.Context, requestID string) ([]models.ProposalWithProvider, error)
	ListForProvider(ctx context.Context, providerID string) ([]models.ProposalWithRequest, error)
	AcceptedForRequest(ctx context.Context, requestID string) (*models.Proposal, error)
}

const proposalColumns = `id, request_id, provider_id, price, estimated_duration, description,
	materials_included, availability, status, created_at, updated_at`

// PostgresProposalRepository - реализация ProposalRepository для базы данных.
type PostgresProposalRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresProposalRepository создаёт новый экземпляр PostgresProposalRepository.
func NewPostgresProposalRepository(db *pgxpool.Pool) *PostgresProposalRepository {
	return &PostgresProposalRepository{DB: db}
}

func scanProposal(row pgx.Row, extra ...interface{}) (*models.Proposal, []interface{}, error) {
	var proposal models.Proposal
	dest := []interface{}{
		&proposal.ID,
		&proposal.RequestID,
		&proposal.ProviderID,
		&proposal.Price,
		&proposal.EstimatedDuration,
		&proposal.Description,
		&proposal.MaterialsIncluded,
		&proposal.Availability,
		&proposal.Status,
		&proposal.CreatedAt,
		&proposal.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, nil, err
	}
	return &proposal, extra, nil
}

// GetByID возвращает предложение по ID.
func (r *PostgresProposalRepository) GetByID(ctx context.Context, proposalID string) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposal WHERE id = $1`
	proposal, _, err := scanProposal(r.DB.QueryRow(ctx, query, proposalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("proposal not found")
	}
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

// ListForRequest возвращает предложения по заявке вместе с данными исполнителей.
func (r *PostgresProposalRepository) ListForRequest(ctx context.Context, requestID string) ([]models.ProposalWithProvider, error) {
	query := `
		SELECT p.id, p.request_id, p.provider_id, p.price, p.estimated_duration, p.description,
			p.materials_included, p.availability, p.status, p.created_at, p.updated_at,
			a.name, a.user_type, a.rating_sum, a.rating_count
		FROM proposal p
		JOIN account a ON a.id = p.provider_id
		WHERE p.request_id = $1
		ORDER BY p.created_at`
	rows, err := r.DB.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []models.ProposalWithProvider
	for rows.Next() {
		var provider models.Account
		proposal, _, err := scanProposal(rows, &provider.Name, &provider.UserType, &provider.RatingSum, &provider.RatingCount)
		if err != nil {
			return nil, err
		}
		provider.ID = proposal.ProviderID
		if provider.RatingCount > 0 {
			provider.AverageRating = float64(provider.RatingSum) / float64(provider.RatingCount)
		}
		proposals = append(proposals, models.ProposalWithProvider{Proposal: *proposal, Provider: provider.Summary()})
	}
	return proposals, rows.Err()
}

// ListForProvider возвращает предложения исполнителя вместе с данными заявок, новые первыми.
func (r *PostgresProposalRepository) ListForProvider(ctx context.Context, providerID string) ([]models.ProposalWithRequest, error) {
	query := `
		SELECT p.id, p.request_id, p.provider_id, p.price, p.estimated_duration, p.description,
			p.materials_included, p.availability, p.status, p.created_at, p.updated_at,
			sr.title, sr.description, sr.city, sr.state, sr.status
		FROM proposal p
		JOIN service_request sr ON sr.id = p.request_id
		WHERE p.provider_id = $1
		ORDER BY p.created_at DESC`
	rows, err := r.DB.Query(ctx, query, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []models.ProposalWithRequest
	for rows.Next() {
		var request models.RequestSummary
		proposal, _, err := scanProposal(rows, &request.Title, &request.Description, &request.City, &request.State, &request.Status)
		if err != nil {
			return nil, err
		}
		request.ID = proposal.RequestID
		proposals = append(proposals, models.ProposalWithRequest{Proposal: *proposal, Request: request})
	}
	return proposals, rows.Err()
}

// AcceptedForRequest возвращает принятое предложение по заявке или nil, если его нет.
func (r *PostgresProposalRepository) AcceptedForRequest(ctx context.Context, requestID string) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposal WHERE request_id = $1 AND status = 'accepted'`
	proposal, _, err := scanProposal(r.DB.QueryRow(ctx, query, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return proposal, nil
}
