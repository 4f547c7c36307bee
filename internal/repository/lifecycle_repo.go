package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serviza/serviza-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LifecycleTx - набор операций, доступных внутри транзакции lifecycle-движка.
// Все методы работают в рамках одной заявки, строка которой заблокирована
// на время транзакции.
type LifecycleTx interface {
	Request(ctx context.Context) (*models.ServiceRequest, error)
	ProposalByID(ctx context.Context, proposalID string) (*models.Proposal, error)
	PendingProposals(ctx context.Context) ([]models.Proposal, error)
	AcceptedProposal(ctx context.Context) (*models.Proposal, error)
	HasActiveProposal(ctx context.Context, providerID string) (bool, error)
	InsertProposal(ctx context.Context, proposal *models.Proposal) error
	SetRequestStatus(ctx context.Context, status models.RequestStatus) error
	SetProposalStatus(ctx context.Context, proposalID string, status models.ProposalStatus) error
}

// LifecycleRepository сериализует мутации по одной заявке: fn выполняется
// под эксклюзивной блокировкой заявки и либо фиксируется целиком, либо
// откатывается целиком.
type LifecycleRepository interface {
	WithRequestLock(ctx context.Context, requestID string, fn func(tx LifecycleTx) error) error
}

// PostgresLifecycleRepository - реализация LifecycleRepository поверх
// транзакций pgx с блокировкой строки заявки через SELECT ... FOR UPDATE.
type PostgresLifecycleRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresLifecycleRepository создаёт новый экземпляр PostgresLifecycleRepository.
func NewPostgresLifecycleRepository(db *pgxpool.Pool) *PostgresLifecycleRepository {
	return &PostgresLifecycleRepository{DB: db}
}

// WithRequestLock открывает транзакцию, блокирует строку заявки и выполняет fn.
// Конкурентные вызовы по одной заявке ждут на блокировке, по разным заявкам
// идут параллельно.
func (r *PostgresLifecycleRepository) WithRequestLock(ctx context.Context, requestID string, fn func(tx LifecycleTx) error) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin lifecycle transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + requestColumns + ` FROM service_request WHERE id = $1 FOR UPDATE`
	request, err := scanRequest(tx.QueryRow(ctx, query, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFoundError("service request not found")
	}
	if err != nil {
		return err
	}

	ltx := &postgresLifecycleTx{tx: tx, request: request}
	if err := fn(ltx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit lifecycle transaction: %w", err)
	}
	return nil
}

type postgresLifecycleTx struct {
	tx      pgx.Tx
	request *models.ServiceRequest
}

// Request возвращает заблокированную заявку.
func (t *postgresLifecycleTx) Request(ctx context.Context) (*models.ServiceRequest, error) {
	return t.request, nil
}

// ProposalByID возвращает предложение по ID в рамках транзакции.
func (t *postgresLifecycleTx) ProposalByID(ctx context.Context, proposalID string) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposal WHERE id = $1`
	proposal, _, err := scanProposal(t.tx.QueryRow(ctx, query, proposalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("proposal not found")
	}
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

// PendingProposals возвращает все ожидающие предложения по заявке.
func (t *postgresLifecycleTx) PendingProposals(ctx context.Context) ([]models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposal WHERE request_id = $1 AND status = 'pending' ORDER BY created_at`
	rows, err := t.tx.Query(ctx, query, t.request.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []models.Proposal
	for rows.Next() {
		proposal, _, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *proposal)
	}
	return proposals, rows.Err()
}

// AcceptedProposal возвращает принятое предложение по заявке или nil.
func (t *postgresLifecycleTx) AcceptedProposal(ctx context.Context) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposal WHERE request_id = $1 AND status = 'accepted'`
	proposal, _, err := scanProposal(t.tx.QueryRow(ctx, query, t.request.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

// HasActiveProposal проверяет, есть ли у исполнителя активное предложение по заявке.
func (t *postgresLifecycleTx) HasActiveProposal(ctx context.Context, providerID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(
		SELECT 1 FROM proposal
		WHERE request_id = $1 AND provider_id = $2 AND status IN ('pending', 'accepted'))`
	err := t.tx.QueryRow(ctx, query, t.request.ID, providerID).Scan(&exists)
	return exists, err
}

// InsertProposal сохраняет новое предложение в рамках транзакции.
func (t *postgresLifecycleTx) InsertProposal(ctx context.Context, proposal *models.Proposal) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO proposal (id, request_id, provider_id, price, estimated_duration, description,
			materials_included, availability, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		proposal.ID,
		proposal.RequestID,
		proposal.ProviderID,
		proposal.Price,
		proposal.EstimatedDuration,
		proposal.Description,
		proposal.MaterialsIncluded,
		proposal.Availability,
		proposal.Status,
		proposal.CreatedAt,
		proposal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}
	return nil
}

// SetRequestStatus меняет статус заблокированной заявки.
func (t *postgresLifecycleTx) SetRequestStatus(ctx context.Context, status models.RequestStatus) error {
	now := time.Now().UTC()
	_, err := t.tx.Exec(ctx,
		`UPDATE service_request SET status = $1, updated_at = $2 WHERE id = $3`,
		status, now, t.request.ID)
	if err != nil {
		return err
	}
	t.request.Status = status
	t.request.UpdatedAt = now
	return nil
}

// SetProposalStatus меняет статус предложения в рамках транзакции.
func (t *postgresLifecycleTx) SetProposalStatus(ctx context.Context, proposalID string, status models.ProposalStatus) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE proposal SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), proposalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("proposal not found")
	}
	return nil
}
