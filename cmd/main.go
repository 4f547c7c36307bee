package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/serviza/serviza-backend/internal/auth"
	"github.com/serviza/serviza-backend/internal/db"
	"github.com/serviza/serviza-backend/internal/handlers"
	"github.com/serviza/serviza-backend/internal/models"
	"github.com/serviza/serviza-backend/internal/repository"
	"github.com/serviza/serviza-backend/internal/router"
	"github.com/serviza/serviza-backend/internal/router/config"
	"github.com/serviza/serviza-backend/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
)

type repositories struct {
	accounts    repository.AccountRepository
	categories  repository.CategoryRepository
	offerings   repository.ProviderServiceRepository
	requests    repository.RequestRepository
	proposals   repository.ProposalRepository
	evaluations repository.EvaluationRepository
	lifecycle   repository.LifecycleRepository
}

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	var repos repositories
	if cfg.StorageDriver == "memory" {
		store := repository.NewMemoryStore()
		seedCategories(store)
		repos = repositories{
			accounts:    store.Accounts(),
			categories:  store.Categories(),
			offerings:   store.ProviderServices(),
			requests:    store.Requests(),
			proposals:   store.Proposals(),
			evaluations: store.Evaluations(),
			lifecycle:   store.Lifecycle(),
		}
		log.Println("running with in-memory storage")
	} else {
		runDBMigration(cfg.MigrationURL, cfg.PostgresConn)

		dbPool, err := db.InitDb(cfg)
		if err != nil {
			log.Fatalf("error initializing database: %v", err)
		}
		defer dbPool.Close()

		repos = repositories{
			accounts:    repository.NewPostgresAccountRepository(dbPool),
			categories:  repository.NewPostgresCategoryRepository(dbPool),
			offerings:   repository.NewPostgresProviderServiceRepository(dbPool),
			requests:    repository.NewPostgresRequestRepository(dbPool),
			proposals:   repository.NewPostgresProposalRepository(dbPool),
			evaluations: repository.NewPostgresEvaluationRepository(dbPool),
			lifecycle:   repository.NewPostgresLifecycleRepository(dbPool),
		}
	}

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	accountService := services.NewAccountService(repos.accounts, tokens)
	categoryService := services.NewCategoryService(repos.categories, repos.offerings, repos.accounts)
	requestService := services.NewRequestService(repos.requests, repos.categories, repos.accounts)
	proposalService := services.NewProposalService(repos.proposals, repos.requests)
	lifecycleService := services.NewLifecycleService(repos.lifecycle, repos.accounts)
	evaluationService := services.NewEvaluationService(repos.evaluations, repos.requests, repos.proposals, repos.accounts)

	routes := router.InitRoutes(router.Handlers{
		Account:    handlers.NewAccountHandler(accountService, logger, cfg.RequestTimeout),
		Category:   handlers.NewCategoryHandler(categoryService, logger, cfg.RequestTimeout),
		Request:    handlers.NewRequestHandler(requestService, lifecycleService, logger, cfg.RequestTimeout),
		Proposal:   handlers.NewProposalHandler(proposalService, lifecycleService, logger, cfg.RequestTimeout),
		Evaluation: handlers.NewEvaluationHandler(evaluationService, logger, cfg.RequestTimeout),
	}, tokens)

	log.Printf("server is listening on %s...", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, routes); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func seedCategories(store *repository.MemoryStore) {
	names := []string{"Cleaning", "Plumbing", "Electrical", "Painting", "Gardening", "Moving"}
	for _, name := range names {
		store.AddCategory(models.ServiceCategory{
			ID:        uuid.New().String(),
			Name:      name,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		})
	}
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}
