package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/serviza/serviza-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// RequestRepository - интерфейс для чтения и записи заявок. Статус заявки
// меняется только через LifecycleRepository.
type RequestRepository interface {
	Create(ctx context.Context, request *models.ServiceRequest) error
	GetByID(ctx context.Context, requestID string) (*models.ServiceRequest, error)
	ListForClient(ctx context.Context, clientID string, limit, offset int) ([]models.ServiceRequest, error)
	ListOpen(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, error)
	Update(ctx context.Context, request *models.ServiceRequest) error
}

const requestColumns = `id, client_id, category_id, title, description, address, city, state, zip_code,
	latitude, longitude, urgency, budget_min, budget_max, preferred_date, status, created_at, updated_at`

// PostgresRequestRepository - реализация RequestRepository для базы данных.
type PostgresRequestRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresRequestRepository создаёт новый экземпляр PostgresRequestRepository.
func NewPostgresRequestRepository(db *pgxpool.Pool) *PostgresRequestRepository {
	return &PostgresRequestRepository{DB: db}
}

func scanRequest(row pgx.Row) (*models.ServiceRequest, error) {
	var request models.ServiceRequest
	err := row.Scan(
		&request.ID,
		&request.ClientID,
		&request.CategoryID,
		&request.Title,
		&request.Description,
		&request.Address,
		&request.City,
		&request.State,
		&request.ZipCode,
		&request.Latitude,
		&request.Longitude,
		&request.Urgency,
		&request.BudgetMin,
		&request.BudgetMax,
		&request.PreferredDate,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Create сохраняет новую заявку.
func (r *PostgresRequestRepository) Create(ctx context.Context, request *models.ServiceRequest) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO service_request (id, client_id, category_id, title, description, address, city, state, zip_code,
			latitude, longitude, urgency, budget_min, budget_max, preferred_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		request.ID,
		request.ClientID,
		request.CategoryID,
		request.Title,
		request.Description,
		request.Address,
		request.City,
		request.State,
		request.ZipCode,
		request.Latitude,
		request.Longitude,
		request.Urgency,
		request.BudgetMin,
		request.BudgetMax,
		request.PreferredDate,
		request.Status,
		request.CreatedAt,
		request.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert service request: %w", err)
	}
	return nil
}

// GetByID возвращает заявку по ID.
func (r *PostgresRequestRepository) GetByID(ctx context.Context, requestID string) (*models.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_request WHERE id = $1`
	request, err := scanRequest(r.DB.QueryRow(ctx, query, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("service request not found")
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}

// ListForClient возвращает заявки клиента, новые первыми.
func (r *PostgresRequestRepository) ListForClient(ctx context.Context, clientID string, limit, offset int) ([]models.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_request
		WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// ListOpen возвращает открытые заявки с фильтрами по категориям, срочности и городу.
func (r *PostgresRequestRepository) ListOpen(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_request`
	filters := []string{"status = 'open'"}
	var args []interface{}
	argIndex := 1

	if len(filter.Categories) > 0 {
		filters = append(filters, fmt.Sprintf("category_id = ANY($%d)", argIndex))
		args = append(args, pq.Array(filter.Categories))
		argIndex++
	}
	if len(filter.Urgencies) > 0 {
		filters = append(filters, fmt.Sprintf("urgency = ANY($%d)", argIndex))
		args = append(args, pq.Array(filter.Urgencies))
		argIndex++
	}
	if filter.City != "" {
		filters = append(filters, fmt.Sprintf("city = $%d", argIndex))
		args = append(args, filter.City)
		argIndex++
	}

	query += " WHERE " + strings.Join(filters, " AND ")
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// Update сохраняет изменённые поля заявки; статус здесь не обновляется.
func (r *PostgresRequestRepository) Update(ctx context.Context, request *models.ServiceRequest) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE service_request
		SET title = $1, description = $2, urgency = $3, budget_min = $4, budget_max = $5,
			preferred_date = $6, updated_at = $7
		WHERE id = $8`,
		request.Title,
		request.Description,
		request.Urgency,
		request.BudgetMin,
		request.BudgetMax,
		request.PreferredDate,
		request.UpdatedAt,
		request.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("service request not found")
	}
	return nil
}

func collectRequests(rows pgx.Rows) ([]models.ServiceRequest, error) {
	var requests []models.ServiceRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}
