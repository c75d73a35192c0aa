package data

import (
	"context"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
	"github.com/anthropics/linkedin-agent-bridge/internal/infra/linkedin"
)

// messagingRepo implements repo.MessagingRepo backed by the live browser client.
type messagingRepo struct {
	client *linkedin.Client
}

// NewMessagingRepo creates a messaging repository backed by a LinkedIn client
func NewMessagingRepo(client *linkedin.Client) repo.MessagingRepo {
	return &messagingRepo{client: client}
}

func (r *messagingRepo) FetchConversations(ctx context.Context, generation string, limit int) ([]*domain.ConversationRecord, int, error) {
	return r.client.FetchConversations(ctx, generation, limit)
}

func (r *messagingRepo) OpenConversation(ctx context.Context, rec *domain.ConversationRecord) (*repo.OpenResult, error) {
	outcome, err := r.client.OpenConversation(ctx, rec)
	if err != nil {
		return nil, err
	}
	return &repo.OpenResult{
		Clicked:  outcome.Clicked,
		Verified: outcome.Verified,
		URL:      outcome.URL,
	}, nil
}

func (r *messagingRepo) ReadThread(ctx context.Context) ([]*domain.MessageRecord, error) {
	return r.client.ReadThread(ctx)
}

func (r *messagingRepo) SendToOpenThread(ctx context.Context, text string) error {
	return r.client.SendToOpenThread(ctx, text)
}

func (r *messagingRepo) StartConversation(ctx context.Context, recipient, text string) error {
	return r.client.StartConversation(ctx, recipient, text)
}

func (r *messagingRepo) CheckLogin(ctx context.Context) (*repo.LoginStatus, error) {
	status, err := r.client.CheckLogin(ctx)
	if err != nil {
		return nil, err
	}
	return &repo.LoginStatus{
		LoggedIn:    status.LoggedIn,
		AccountName: status.AccountName,
		URL:         status.URL,
	}, nil
}

func (r *messagingRepo) SignOut(ctx context.Context) error {
	return r.client.SignOut(ctx)
}

func (r *messagingRepo) CurrentURL(ctx context.Context) (string, error) {
	return r.client.CurrentURL(ctx)
}
