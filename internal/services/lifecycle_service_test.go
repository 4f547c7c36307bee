package services

import (
	"context"
	"sync"
	"testing"

	"github.com/serviza/serviza-backend/internal/models"

	"github.com/stretchr/testify/require"
)

func TestSubmitProposal(t *testing.T) {
	t.Run("creates a pending proposal on an open request", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		request := env.createRequest(t, client)

		proposal, err := env.lifecycle.SubmitProposal(context.Background(), provider.ID, models.ProposalInput{
			RequestID:         request.ID,
			Price:             150,
			EstimatedDuration: "2 hours",
			MaterialsIncluded: true,
		})
		require.NoError(t, err)
		require.Equal(t, models.PendingProposal, proposal.Status)
		require.Equal(t, request.ID, proposal.RequestID)
		require.Equal(t, provider.ID, proposal.ProviderID)
	})

	t.Run("rejects a non-positive price", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		request := env.createRequest(t, client)

		_, err := env.lifecycle.SubmitProposal(context.Background(), provider.ID, models.ProposalInput{
			RequestID: request.ID,
			Price:     0,
		})
		requireKind(t, err, models.KindValidation)
	})

	t.Run("rejects submissions from client accounts", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		request := env.createRequest(t, client)

		_, err := env.lifecycle.SubmitProposal(context.Background(), client.ID, models.ProposalInput{
			RequestID: request.ID,
			Price:     100,
		})
		requireKind(t, err, models.KindForbidden)
	})

	t.Run("fails with not found for an unknown request", func(t *testing.T) {
		env := newTestEnv(t)
		provider := env.createAccount(t, "bob", models.ProviderAccount)

		_, err := env.lifecycle.SubmitProposal(context.Background(), provider.ID, models.ProposalInput{
			RequestID: "5b2e8b8e-0000-0000-0000-000000000000",
			Price:     100,
		})
		requireKind(t, err, models.KindNotFound)
	})

	t.Run("fails with conflict once the request is no longer open", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		request := env.createRequest(t, client)

		_, _, err := env.lifecycle.CancelRequest(context.Background(), request.ID, client.ID)
		require.NoError(t, err)

		_, err = env.lifecycle.SubmitProposal(context.Background(), provider.ID, models.ProposalInput{
			RequestID: request.ID,
			Price:     100,
		})
		requireKind(t, err, models.KindConflict)
	})

	t.Run("fails with conflict when the provider already has an active proposal", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		request := env.createRequest(t, client)
		env.submitProposal(t, provider, request.ID, 100)

		_, err := env.lifecycle.SubmitProposal(context.Background(), provider.ID, models.ProposalInput{
			RequestID: request.ID,
			Price:     120,
		})
		requireKind(t, err, models.KindConflict)
	})

	t.Run("allows resubmission after a rejection while the request is open", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		request := env.createRequest(t, client)
		first := env.submitProposal(t, provider, request.ID, 100)

		_, err := env.lifecycle.RejectProposal(context.Background(), request.ID, first.ID, client.ID)
		require.NoError(t, err)

		second, err := env.lifecycle.SubmitProposal(context.Background(), provider.ID, models.ProposalInput{
			RequestID: request.ID,
			Price:     90,
		})
		require.NoError(t, err)
		require.Equal(t, models.PendingProposal, second.Status)
	})
}

func TestAcceptProposal(t *testing.T) {
	t.Run("accepts the proposal and rejects pending siblings atomically", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		providerA := env.createAccount(t, "bob", models.ProviderAccount)
		providerB := env.createAccount(t, "carol", models.ProviderAccount)
		request := env.createRequest(t, client)
		p1 := env.submitProposal(t, providerA, request.ID, 100)
		p2 := env.submitProposal(t, providerB, request.ID, 150)

		result, err := env.lifecycle.AcceptProposal(context.Background(), request.ID, p1.ID, client.ID)
		require.NoError(t, err)
		require.Equal(t, models.InProgressRequest, result.Request.Status)
		require.Equal(t, models.AcceptedProposal, result.Accepted.Status)
		require.Len(t, result.Rejected, 1)
		require.Equal(t, p2.ID, result.Rejected[0].ID)

		require.Equal(t, models.InProgressRequest, env.requestStatus(t, request.ID))
		require.Equal(t, models.AcceptedProposal, env.proposalStatus(t, p1.ID))
		require.Equal(t, models.RejectedProposal, env.proposalStatus(t, p2.ID))
	})

	t.Run("fails with forbidden for a non-owner", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		other := env.createAccount(t, "mallory", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		request := env.createRequest(t, client)
		proposal := env.submitProposal(t, provider, request.ID, 100)

		_, err := env.lifecycle.AcceptProposal(context.Background(), request.ID, proposal.ID, other.ID)
		requireKind(t, err, models.KindForbidden)
		require.Equal(t, models.OpenRequest, env.requestStatus(t, request.ID))
		require.Equal(t, models.PendingProposal, env.proposalStatus(t, proposal.ID))
	})

	t.Run("fails with invalid state on a non-open request and leaves entities unchanged", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		providerA := env.createAccount(t, "bob", models.ProviderAccount)
		providerB := env.createAccount(t, "carol", models.ProviderAccount)
		request := env.createRequest(t, client)
		p1 := env.submitProposal(t, providerA, request.ID, 100)
		p2 := env.submitProposal(t, providerB, request.ID, 150)

		_, err := env.lifecycle.AcceptProposal(context.Background(), request.ID, p1.ID, client.ID)
		require.NoError(t, err)

		_, err = env.lifecycle.AcceptProposal(context.Background(), request.ID, p2.ID, client.ID)
		requireKind(t, err, models.KindInvalidState)
		require.Equal(t, models.InProgressRequest, env.requestStatus(t, request.ID))
		require.Equal(t, models.AcceptedProposal, env.proposalStatus(t, p1.ID))
		require.Equal(t, models.RejectedProposal, env.proposalStatus(t, p2.ID))
	})

	t.Run("fails with invalid state when the proposal belongs to another request", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		requestA := env.createRequest(t, client)
		requestB := env.createRequest(t, client)
		proposal := env.submitProposal(t, provider, requestB.ID, 100)

		_, err := env.lifecycle.AcceptProposal(context.Background(), requestA.ID, proposal.ID, client.ID)
		requireKind(t, err, models.KindInvalidState)
		require.Equal(t, models.PendingProposal, env.proposalStatus(t, proposal.ID))
	})
}

func TestRejectProposal(t *testing.T) {
	t.Run("rejects a pending proposal without touching the request", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		request := env.createRequest(t, client)
		proposal := env.submitProposal(t, provider, request.ID, 100)

		rejected, err := env.lifecycle.RejectProposal(context.Background(), request.ID, proposal.ID, client.ID)
		require.NoError(t, err)
		require.Equal(t, models.RejectedProposal, rejected.Status)
		require.Equal(t, models.OpenRequest, env.requestStatus(t, request.ID))
	})

	t.Run("fails with invalid state on repeated rejection", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		request := env.createRequest(t, client)
		proposal := env.submitProposal(t, provider, request.ID, 100)

		_, err := env.lifecycle.RejectProposal(context.Background(), request.ID, proposal.ID, client.ID)
		require.NoError(t, err)

		_, err = env.lifecycle.RejectProposal(context.Background(), request.ID, proposal.ID, client.ID)
		requireKind(t, err, models.KindInvalidState)
	})

	t.Run("fails with forbidden for a non-owner", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		request := env.createRequest(t, client)
		proposal := env.submitProposal(t, provider, request.ID, 100)

		_, err := env.lifecycle.RejectProposal(context.Background(), request.ID, proposal.ID, provider.ID)
		requireKind(t, err, models.KindForbidden)
	})
}

func TestCompleteRequest(t *testing.T) {
	t.Run("completes a request that is in progress", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		request := env.createRequest(t, client)
		proposal := env.submitProposal(t, provider, request.ID, 100)

		_, err := env.lifecycle.AcceptProposal(context.Background(), request.ID, proposal.ID, client.ID)
		require.NoError(t, err)

		completed, err := env.lifecycle.CompleteRequest(context.Background(), request.ID, client.ID)
		require.NoError(t, err)
		require.Equal(t, models.CompletedRequest, completed.Status)
	})

	t.Run("fails with invalid state from open", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		request := env.createRequest(t, client)

		_, err := env.lifecycle.CompleteRequest(context.Background(), request.ID, client.ID)
		requireKind(t, err, models.KindInvalidState)
	})

	t.Run("fails with forbidden for a non-owner", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		other := env.createAccount(t, "mallory", models.ClientAccount)
		request := env.createRequest(t, client)

		_, err := env.lifecycle.CompleteRequest(context.Background(), request.ID, other.ID)
		requireKind(t, err, models.KindForbidden)
	})
}

func TestCancelRequest(t *testing.T) {
	t.Run("cancels an open request and rejects all pending proposals", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		providerA := env.createAccount(t, "bob", models.ProviderAccount)
		providerB := env.createAccount(t, "carol", models.ProviderAccount)
		request := env.createRequest(t, client)
		p1 := env.submitProposal(t, providerA, request.ID, 100)
		p2 := env.submitProposal(t, providerB, request.ID, 150)

		cancelled, affected, err := env.lifecycle.CancelRequest(context.Background(), request.ID, client.ID)
		require.NoError(t, err)
		require.Equal(t, models.CancelledRequest, cancelled.Status)
		require.Len(t, affected, 2)
		require.Equal(t, models.RejectedProposal, env.proposalStatus(t, p1.ID))
		require.Equal(t, models.RejectedProposal, env.proposalStatus(t, p2.ID))
	})

	t.Run("cancels an in-progress request and rejects the accepted proposal too", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		provider := env.createAccount(t, "bob", models.ProviderAccount)
		request := env.createRequest(t, client)
		proposal := env.submitProposal(t, provider, request.ID, 100)

		_, err := env.lifecycle.AcceptProposal(context.Background(), request.ID, proposal.ID, client.ID)
		require.NoError(t, err)

		cancelled, affected, err := env.lifecycle.CancelRequest(context.Background(), request.ID, client.ID)
		require.NoError(t, err)
		require.Equal(t, models.CancelledRequest, cancelled.Status)
		require.Len(t, affected, 1)
		require.Equal(t, models.RejectedProposal, env.proposalStatus(t, proposal.ID))
	})

	t.Run("fails with invalid state on a terminal request", func(t *testing.T) {
		env := newTestEnv(t)
		client := env.createAccount(t, "alice", models.ClientAccount)
		request := env.createRequest(t, client)

		_, _, err := env.lifecycle.CancelRequest(context.Background(), request.ID, client.ID)
		require.NoError(t, err)

		_, _, err = env.lifecycle.CancelRequest(context.Background(), request.ID, client.ID)
		requireKind(t, err, models.KindInvalidState)
	})
}

func TestFullServiceScenario(t *testing.T) {
	env := newTestEnv(t)
	client := env.createAccount(t, "alice", models.ClientAccount)
	providerA := env.createAccount(t, "bob", models.ProviderAccount)
	providerB := env.createAccount(t, "carol", models.ProviderAccount)

	request := env.createRequest(t, client)
	p1 := env.submitProposal(t, providerA, request.ID, 100)
	p2 := env.submitProposal(t, providerB, request.ID, 150)

	result, err := env.lifecycle.AcceptProposal(context.Background(), request.ID, p1.ID, client.ID)
	require.NoError(t, err)
	require.Equal(t, models.InProgressRequest, result.Request.Status)
	require.Equal(t, models.AcceptedProposal, env.proposalStatus(t, p1.ID))
	require.Equal(t, models.RejectedProposal, env.proposalStatus(t, p2.ID))

	completed, err := env.lifecycle.CompleteRequest(context.Background(), request.ID, client.ID)
	require.NoError(t, err)
	require.Equal(t, models.CompletedRequest, completed.Status)

	_, err = env.evaluations.Submit(context.Background(), client.ID, models.EvaluationInput{
		RequestID:   request.ID,
		EvaluatedID: providerA.ID,
		Rating:      5,
		Comment:     "great work",
	})
	require.NoError(t, err)

	subject, err := env.store.Accounts().GetByID(context.Background(), providerA.ID)
	require.NoError(t, err)
	require.Equal(t, 5.0, subject.AverageRating)
}

func TestConcurrentAcceptOnSameRequest(t *testing.T) {
	env := newTestEnv(t)
	client := env.createAccount(t, "alice", models.ClientAccount)
	providerA := env.createAccount(t, "bob", models.ProviderAccount)
	providerB := env.createAccount(t, "carol", models.ProviderAccount)
	request := env.createRequest(t, client)
	p1 := env.submitProposal(t, providerA, request.ID, 100)
	p2 := env.submitProposal(t, providerB, request.ID, 150)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, proposalID := range []string{p1.ID, p2.ID} {
		wg.Add(1)
		go func(i int, proposalID string) {
			defer wg.Done()
			_, errs[i] = env.lifecycle.AcceptProposal(context.Background(), request.ID, proposalID, client.ID)
		}(i, proposalID)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			requireKind(t, err, models.KindInvalidState)
		}
	}
	require.Equal(t, 1, succeeded)

	var accepted int
	for _, proposalID := range []string{p1.ID, p2.ID} {
		if env.proposalStatus(t, proposalID) == models.AcceptedProposal {
			accepted++
		} else {
			require.Equal(t, models.RejectedProposal, env.proposalStatus(t, proposalID))
		}
	}
	require.Equal(t, 1, accepted)
	require.Equal(t, models.InProgressRequest, env.requestStatus(t, request.ID))
}

func TestConcurrentSubmitAndCancel(t *testing.T) {
	env := newTestEnv(t)
	client := env.createAccount(t, "alice", models.ClientAccount)
	provider := env.createAccount(t, "bob", models.ProviderAccount)
	request := env.createRequest(t, client)

	var wg sync.WaitGroup
	var submitErr, cancelErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, submitErr = env.lifecycle.SubmitProposal(context.Background(), provider.ID, models.ProposalInput{
			RequestID: request.ID,
			Price:     100,
		})
	}()
	go func() {
		defer wg.Done()
		_, _, cancelErr = env.lifecycle.CancelRequest(context.Background(), request.ID, client.ID)
	}()
	wg.Wait()

	require.NoError(t, cancelErr)
	require.Equal(t, models.CancelledRequest, env.requestStatus(t, request.ID))

	// Либо подача успела раньше отмены и предложение отклонено каскадом,
	// либо подача пришла после отмены и детерминированно получила conflict.
	proposals, err := env.store.Proposals().ListForProvider(context.Background(), provider.ID)
	require.NoError(t, err)
	if submitErr == nil {
		require.Len(t, proposals, 1)
		require.Equal(t, models.RejectedProposal, proposals[0].Status)
	} else {
		requireKind(t, submitErr, models.KindConflict)
		require.Empty(t, proposals)
	}
}
