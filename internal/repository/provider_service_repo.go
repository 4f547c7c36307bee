package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/serviza/serviza-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProviderServiceRepository - интерфейс каталога услуг исполнителей.
type ProviderServiceRepository interface {
	Create(ctx context.Context, service *models.ProviderService) error
	ListForProvider(ctx context.Context, providerID string) ([]models.ProviderService, error)
}

// PostgresProviderServiceRepository - реализация ProviderServiceRepository для базы данных.
type PostgresProviderServiceRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresProviderServiceRepository создаёт новый экземпляр PostgresProviderServiceRepository.
func NewPostgresProviderServiceRepository(db *pgxpool.Pool) *PostgresProviderServiceRepository {
	return &PostgresProviderServiceRepository{DB: db}
}

// Create сохраняет услугу исполнителя; дубликат пары (исполнитель, категория)
// превращается в conflict.
func (r *PostgresProviderServiceRepository) Create(ctx context.Context, service *models.ProviderService) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO provider_service (id, provider_id, category_id, description, base_price, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		service.ID,
		service.ProviderID,
		service.CategoryID,
		service.Description,
		service.BasePrice,
		service.IsActive,
		service.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return models.NewConflictError("you already offer this service")
	}
	if err != nil {
		return fmt.Errorf("failed to insert provider service: %w", err)
	}
	return nil
}

// ListForProvider возвращает активные услуги исполнителя.
func (r *PostgresProviderServiceRepository) ListForProvider(ctx context.Context, providerID string) ([]models.ProviderService, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, provider_id, category_id, description, base_price, is_active, created_at
		FROM provider_service
		WHERE provider_id = $1 AND is_active
		ORDER BY created_at`,
		providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []models.ProviderService
	for rows.Next() {
		var service models.ProviderService
		err := rows.Scan(
			&service.ID,
			&service.ProviderID,
			&service.CategoryID,
			&service.Description,
			&service.BasePrice,
			&service.IsActive,
			&service.CreatedAt)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, rows.Err()
}
