package router

import (
	"net/http"

	"github.com/serviza/serviza-backend/internal/auth"
	"github.com/serviza/serviza-backend/internal/handlers"
)

// Handlers собирает все обработчики, участвующие в маршрутизации.
type Handlers struct {
	Account    *handlers.AccountHandler
	Category   *handlers.CategoryHandler
	Request    *handlers.RequestHandler
	Proposal   *handlers.ProposalHandler
	Evaluation *handlers.EvaluationHandler
}

// InitRoutes настраивает маршруты; защищённые ручки оборачиваются в auth.Middleware.
func InitRoutes(h Handlers, tokens *auth.TokenManager) http.Handler {
	mux := http.NewServeMux()
	protected := func(next http.HandlerFunc) http.HandlerFunc {
		return auth.Middleware(tokens, next)
	}

	mux.HandleFunc("GET /api/ping", handlers.PingHandler)

	mux.HandleFunc("POST /api/auth/register", h.Account.Register)
	mux.HandleFunc("POST /api/auth/login", h.Account.Login)
	mux.HandleFunc("GET /api/auth/me", protected(h.Account.Me))
	mux.HandleFunc("PUT /api/auth/me", protected(h.Account.UpdateMe))
	mux.HandleFunc("GET /api/users/{userId}", h.Account.GetProfile)

	mux.HandleFunc("GET /api/categories", h.Category.GetCategories)
	mux.HandleFunc("POST /api/provider-services", protected(h.Category.CreateProviderService))
	mux.HandleFunc("GET /api/provider-services", protected(h.Category.GetMyProviderServices))

	mux.HandleFunc("POST /api/requests", protected(h.Request.CreateRequest))
	mux.HandleFunc("GET /api/requests", protected(h.Request.GetRequests))
	mux.HandleFunc("GET /api/requests/{requestId}", protected(h.Request.GetRequestDetail))
	mux.HandleFunc("PUT /api/requests/{requestId}", protected(h.Request.UpdateRequest))
	mux.HandleFunc("DELETE /api/requests/{requestId}", protected(h.Request.CancelRequest))
	mux.HandleFunc("POST /api/requests/{requestId}/complete", protected(h.Request.CompleteRequest))
	mux.HandleFunc("POST /api/requests/{requestId}/cancel", protected(h.Request.CancelRequest))

	mux.HandleFunc("POST /api/proposals", protected(h.Proposal.CreateProposal))
	mux.HandleFunc("GET /api/proposals/request/{requestId}", protected(h.Proposal.GetRequestProposals))
	mux.HandleFunc("GET /api/proposals/my-proposals", protected(h.Proposal.GetMyProposals))
	mux.HandleFunc("POST /api/proposals/{proposalId}/accept", protected(h.Proposal.AcceptProposal))
	mux.HandleFunc("POST /api/proposals/{proposalId}/reject", protected(h.Proposal.RejectProposal))

	mux.HandleFunc("POST /api/evaluations", protected(h.Evaluation.CreateEvaluation))
	mux.HandleFunc("GET /api/evaluations/my-evaluations", protected(h.Evaluation.GetMyEvaluations))
	mux.HandleFunc("GET /api/evaluations/user/{userId}", h.Evaluation.GetUserEvaluations)
	mux.HandleFunc("GET /api/evaluations/request/{requestId}", protected(h.Evaluation.GetRequestEvaluations))

	return mux
}
