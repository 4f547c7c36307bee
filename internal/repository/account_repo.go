package repository

import (
	"context"
	"errors"

	"github.com/serviza/serviza-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository - интерфейс для работы с аккаунтами.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, accountID string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateProfile(ctx context.Context, account *models.Account) error
}

const accountColumns = `id, name, email, password_hash, phone, user_type, address, city, state, zip_code,
	bio, experience_years, is_active, rating_sum, rating_count, created_at`

// PostgresAccountRepository - реализация AccountRepository для базы данных.
type PostgresAccountRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresAccountRepository создаёт новый экземпляр PostgresAccountRepository.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Phone,
		&account.UserType,
		&account.Address,
		&account.City,
		&account.State,
		&account.ZipCode,
		&account.Bio,
		&account.ExperienceYears,
		&account.IsActive,
		&account.RatingSum,
		&account.RatingCount,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if account.RatingCount > 0 {
		account.AverageRating = float64(account.RatingSum) / float64(account.RatingCount)
	}
	return &account, nil
}

// Create сохраняет новый аккаунт.
func (r *PostgresAccountRepository) Create(ctx context.Context, account *models.Account) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO account (id, name, email, password_hash, phone, user_type, address, city, state, zip_code,
			bio, experience_years, is_active, rating_sum, rating_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Phone,
		account.UserType,
		account.Address,
		account.City,
		account.State,
		account.ZipCode,
		account.Bio,
		account.ExperienceYears,
		account.IsActive,
		account.RatingSum,
		account.RatingCount,
		account.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return models.NewConflictError("email is already registered")
	}
	return err
}

// GetByID возвращает аккаунт по ID.
func (r *PostgresAccountRepository) GetByID(ctx context.Context, accountID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account WHERE id = $1`
	account, err := scanAccount(r.DB.QueryRow(ctx, query, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("account not found")
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetByEmail возвращает аккаунт по email.
func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account WHERE email = $1`
	account, err := scanAccount(r.DB.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("account not found")
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateProfile сохраняет изменённые поля профиля.
func (r *PostgresAccountRepository) UpdateProfile(ctx context.Context, account *models.Account) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE account
		SET name = $1, phone = $2, address = $3, city = $4, state = $5, zip_code = $6,
			bio = $7, experience_years = $8
		WHERE id = $9`,
		account.Name,
		account.Phone,
		account.Address,
		account.City,
		account.State,
		account.ZipCode,
		account.Bio,
		account.ExperienceYears,
		account.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("account not found")
	}
	return nil
}
