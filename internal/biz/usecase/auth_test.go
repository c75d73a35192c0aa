package usecase

import (
	"context"
	"testing"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
)

func TestCheckLoginStatus_UpdatesAuthorized(t *testing.T) {
	convUC, messaging, snapshots, _ := newConversationFixture("Alice Chen")
	uc := NewAuthUsecase(messaging, snapshots, convUC)
	ctx := context.Background()

	if !uc.Authorized() {
		t.Error("Expected optimistic authorized before first check")
	}

	messaging.login = repo.LoginStatus{LoggedIn: false, URL: "https://www.linkedin.com/login"}
	status, err := uc.CheckLoginStatus(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status.LoggedIn {
		t.Error("Expected not logged in")
	}
	if uc.Authorized() {
		t.Error("Expected authorized=false after failed check")
	}

	messaging.login = repo.LoginStatus{LoggedIn: true, AccountName: "Jane Doe"}
	status, err = uc.CheckLoginStatus(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !status.LoggedIn || status.AccountName != "Jane Doe" {
		t.Errorf("Expected logged in as Jane Doe, got %+v", status)
	}
	if !uc.Authorized() {
		t.Error("Expected authorized=true after successful check")
	}
}

func TestSignOut_WipesLocalState(t *testing.T) {
	convUC, messaging, snapshots, _ := newConversationFixture("Alice Chen")
	uc := NewAuthUsecase(messaging, snapshots, convUC)
	ctx := context.Background()

	if _, err := convUC.ListConversations(ctx, 30, nil); err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if _, err := convUC.EnterByName(ctx, "Alice Chen"); err != nil {
		t.Fatalf("EnterByName: %v", err)
	}

	if err := uc.SignOut(ctx); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !messaging.signedOut {
		t.Error("Expected browser sign-out")
	}
	if !snapshots.cleared {
		t.Error("Expected snapshot store to be cleared")
	}
	if snapshots.latest != nil {
		t.Error("Expected no snapshot after sign-out")
	}
	if convUC.Current() != nil {
		t.Error("Expected current conversation to be reset")
	}
	if uc.Authorized() {
		t.Error("Expected authorized=false after sign-out")
	}
}

func TestMarkUnauthorized(t *testing.T) {
	convUC, messaging, snapshots, _ := newConversationFixture()
	uc := NewAuthUsecase(messaging, snapshots, convUC)

	uc.MarkUnauthorized()
	if uc.Authorized() {
		t.Error("Expected authorized=false")
	}
}
