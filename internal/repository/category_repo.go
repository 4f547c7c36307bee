package repository

import (
	"context"

	"github.com/serviza/serviza-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository - интерфейс справочника категорий услуг.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.ServiceCategory, error)
	GetByID(ctx context.Context, categoryID string) (*models.ServiceCategory, error)
	Exists(ctx context.Context, categoryID string) (bool, error)
}

// PostgresCategoryRepository - реализация CategoryRepository для базы данных.
type PostgresCategoryRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresCategoryRepository создаёт новый экземпляр PostgresCategoryRepository.
func NewPostgresCategoryRepository(db *pgxpool.Pool) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{DB: db}
}

// List возвращает активные категории.
func (r *PostgresCategoryRepository) List(ctx context.Context) ([]models.ServiceCategory, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, description, is_active, created_at FROM service_category WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.ServiceCategory
	for rows.Next() {
		var category models.ServiceCategory
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.IsActive, &category.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// GetByID возвращает категорию по ID.
func (r *PostgresCategoryRepository) GetByID(ctx context.Context, categoryID string) (*models.ServiceCategory, error) {
	var category models.ServiceCategory
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, description, is_active, created_at FROM service_category WHERE id = $1`,
		categoryID).Scan(&category.ID, &category.Name, &category.Description, &category.IsActive, &category.CreatedAt)
	if err != nil {
		return nil, models.NewNotFoundError("category not found")
	}
	return &category, nil
}

// Exists проверяет, существует ли активная категория.
func (r *PostgresCategoryRepository) Exists(ctx context.Context, categoryID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM service_category WHERE id = $1 AND is_active)`,
		categoryID).Scan(&exists)
	return exists, err
}
