package service

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-salesbot-be/internal/dto"
)

var mintedIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+_[0-9a-f]{8}$`)

func TestResolveSessionIDKeepsCallerID(t *testing.T) {
	got := resolveSessionID(&dto.QuestionRequest{SessionID: "visitor-42"})
	assert.Equal(t, "visitor-42", got)
}

func TestResolveSessionIDMintsFresh(t *testing.T) {
	tests := []struct {
		name       string
		request    *dto.QuestionRequest
		wantPrefix string
	}{
		{
			name:       "empty session id uses resource id",
			request:    &dto.QuestionRequest{ResourceID: "bot7"},
			wantPrefix: "bot7_",
		},
		{
			name:       "default placeholder is replaced",
			request:    &dto.QuestionRequest{SessionID: "default", ResourceID: "bot7"},
			wantPrefix: "bot7_",
		},
		{
			name:       "default is case insensitive",
			request:    &dto.QuestionRequest{SessionID: "DEFAULT", UserID: "u9"},
			wantPrefix: "u9_",
		},
		{
			name:       "resource id wins over user id",
			request:    &dto.QuestionRequest{ResourceID: "bot7", UserID: "u9"},
			wantPrefix: "bot7_",
		},
		{
			name:       "no identifiers falls back to session",
			request:    &dto.QuestionRequest{},
			wantPrefix: "session_",
		},
		{
			name:       "unsafe characters are stripped",
			request:    &dto.QuestionRequest{ResourceID: "bot/7!x"},
			wantPrefix: "bot7x_",
		},
		{
			name:       "fully unsafe base falls back to session",
			request:    &dto.QuestionRequest{ResourceID: "///"},
			wantPrefix: "session_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveSessionID(tt.request)
			assert.True(t, strings.HasPrefix(got, tt.wantPrefix), "got %q, want prefix %q", got, tt.wantPrefix)
			assert.Regexp(t, mintedIDRe, got)
		})
	}
}

func TestResolveSessionIDMintsUniqueIDs(t *testing.T) {
	request := &dto.QuestionRequest{ResourceID: "bot7"}
	first := resolveSessionID(request)
	second := resolveSessionID(request)
	require.NotEqual(t, first, second)
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	svc := NewChatService(nil, "", "")

	_, err := svc.Chat(context.Background(), &dto.QuestionRequest{Query: "   "})
	require.Error(t, err)
	assert.EqualError(t, err, "query text is required")
}

func TestChatRequiresTenantCoordinates(t *testing.T) {
	svc := NewChatService(nil, "", "")

	_, err := svc.Chat(context.Background(), &dto.QuestionRequest{Query: "hello"})
	require.Error(t, err)
	assert.EqualError(t, err, "vector_store_path is required")

	_, err = svc.Chat(context.Background(), &dto.QuestionRequest{Query: "hello", VectorStorePath: "/tmp/v"})
	require.Error(t, err)
	assert.EqualError(t, err, "database_uri is required")
}
