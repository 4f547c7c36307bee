package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/serviza/serviza-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EvaluationRepository - интерфейс журнала оценок.
type EvaluationRepository interface {
	// Submit атомарно сохраняет оценку и обновляет агрегат рейтинга
	// оцениваемого аккаунта.
	Submit(ctx context.Context, evaluation *models.Evaluation) error
	ExistsForEvaluator(ctx context.Context, evaluatorID, requestID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]models.EvaluationWithEvaluator, error)
	ListGivenBy(ctx context.Context, evaluatorID string) ([]models.EvaluationWithEvaluated, error)
	ListForRequest(ctx context.Context, requestID string) ([]models.EvaluationWithEvaluator, error)
}

const evaluationColumns = `id, request_id, evaluator_id, evaluated_id, rating, comment,
	punctuality, quality, communication, created_at`

// PostgresEvaluationRepository - реализация EvaluationRepository для базы данных.
type PostgresEvaluationRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresEvaluationRepository создаёт новый экземпляр PostgresEvaluationRepository.
func NewPostgresEvaluationRepository(db *pgxpool.Pool) *PostgresEvaluationRepository {
	return &PostgresEvaluationRepository{DB: db}
}

// Submit сохраняет оценку и пересчитывает running-mean агрегата рейтинга
// в одной транзакции.
func (r *PostgresEvaluationRepository) Submit(ctx context.Context, evaluation *models.Evaluation) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin evaluation transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO evaluation (id, request_id, evaluator_id, evaluated_id, rating, comment,
			punctuality, quality, communication, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		evaluation.ID,
		evaluation.RequestID,
		evaluation.EvaluatorID,
		evaluation.EvaluatedID,
		evaluation.Rating,
		evaluation.Comment,
		evaluation.Punctuality,
		evaluation.Quality,
		evaluation.Communication,
		evaluation.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return models.NewConflictError("evaluation already submitted for this request")
	}
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE account
		SET rating_sum = rating_sum + $1, rating_count = rating_count + 1
		WHERE id = $2`,
		evaluation.Rating, evaluation.EvaluatedID)
	if err != nil {
		return fmt.Errorf("failed to update rating aggregate: %w", err)
	}

	return tx.Commit(ctx)
}

// ExistsForEvaluator проверяет, подавал ли оценщик оценку по заявке.
func (r *PostgresEvaluationRepository) ExistsForEvaluator(ctx context.Context, evaluatorID, requestID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM evaluation WHERE evaluator_id = $1 AND request_id = $2)`,
		evaluatorID, requestID).Scan(&exists)
	return exists, err
}

func collectEvaluations(rows pgx.Rows) ([]models.EvaluationWithEvaluator, error) {
	var evaluations []models.EvaluationWithEvaluator
	for rows.Next() {
		var item models.EvaluationWithEvaluator
		err := rows.Scan(
			&item.ID,
			&item.RequestID,
			&item.EvaluatorID,
			&item.EvaluatedID,
			&item.Rating,
			&item.Comment,
			&item.Punctuality,
			&item.Quality,
			&item.Communication,
			&item.CreatedAt,
			&item.Evaluator.Name,
			&item.Evaluator.UserType,
		)
		if err != nil {
			return nil, err
		}
		item.Evaluator.ID = item.EvaluatorID
		evaluations = append(evaluations, item)
	}
	return evaluations, rows.Err()
}

// ListForUser возвращает оценки, полученные пользователем, новые первыми.
func (r *PostgresEvaluationRepository) ListForUser(ctx context.Context, userID string) ([]models.EvaluationWithEvaluator, error) {
	query := `
		SELECT e.id, e.request_id, e.evaluator_id, e.evaluated_id, e.rating, e.comment,
			e.punctuality, e.quality, e.communication, e.created_at, a.name, a.user_type
		FROM evaluation e
		JOIN account a ON a.id = e.evaluator_id
		WHERE e.evaluated_id = $1
		ORDER BY e.created_at DESC`
	rows, err := r.DB.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvaluations(rows)
}

// ListGivenBy возвращает оценки, выданные пользователем, новые первыми.
func (r *PostgresEvaluationRepository) ListGivenBy(ctx context.Context, evaluatorID string) ([]models.EvaluationWithEvaluated, error) {
	query := `
		SELECT e.id, e.request_id, e.evaluator_id, e.evaluated_id, e.rating, e.comment,
			e.punctuality, e.quality, e.communication, e.created_at, a.name, a.user_type
		FROM evaluation e
		JOIN account a ON a.id = e.evaluated_id
		WHERE e.evaluator_id = $1
		ORDER BY e.created_at DESC`
	rows, err := r.DB.Query(ctx, query, evaluatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evaluations []models.EvaluationWithEvaluated
	for rows.Next() {
		var item models.EvaluationWithEvaluated
		err := rows.Scan(
			&item.ID,
			&item.RequestID,
			&item.EvaluatorID,
			&item.EvaluatedID,
			&item.Rating,
			&item.Comment,
			&item.Punctuality,
			&item.Quality,
			&item.Communication,
			&item.CreatedAt,
			&item.Evaluated.Name,
			&item.Evaluated.UserType,
		)
		if err != nil {
			return nil, err
		}
		item.Evaluated.ID = item.EvaluatedID
		evaluations = append(evaluations, item)
	}
	return evaluations, rows.Err()
}

// ListForRequest возвращает оценки по заявке.
func (r *PostgresEvaluationRepository) ListForRequest(ctx context.Context, requestID string) ([]models.EvaluationWithEvaluator, error) {
	query := `
		SELECT e.id, e.request_id, e.evaluator_id, e.evaluated_id, e.rating, e.comment,
			e.punctuality, e.quality, e.communication, e.created_at, a.name, a.user_type
		FROM evaluation e
		JOIN account a ON a.id = e.evaluator_id
		WHERE e.request_id = $1
		ORDER BY e.created_at`
	rows, err := r.DB.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvaluations(rows)
}
