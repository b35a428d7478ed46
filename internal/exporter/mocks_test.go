package exporter

import (
	"context"
	"io"

	"github.com/lathrop-navisite/slack-exporter/internal/domain"
)

// mockClient is a func-field implementation of ports.Client for tests.
// Unset fields return empty results.
type mockClient struct {
	AuthTestFunc          func(ctx context.Context) (*domain.Identity, error)
	ListConversationsFunc func(ctx context.Context, cursor string) ([]domain.Conversation, string, error)
	HistoryPageFunc       func(ctx context.Context, conversationID, cursor string) ([]domain.Message, string, error)
	RepliesPageFunc       func(ctx context.Context, conversationID, threadTS, cursor string) ([]domain.Message, string, error)
	MembersPageFunc       func(ctx context.Context, conversationID, cursor string) ([]string, string, error)
	FilesPageFunc         func(ctx context.Context, conversationID string, page int) ([]domain.File, domain.Paging, error)
	ListUsersFunc         func(ctx context.Context) ([]domain.User, error)
	ListEmojiFunc         func(ctx context.Context) (domain.EmojiIndex, error)
	DownloadFunc          func(ctx context.Context, url string, w io.Writer) error
}

func (m *mockClient) AuthTest(ctx context.Context) (*domain.Identity, error) {
	if m.AuthTestFunc != nil {
		return m.AuthTestFunc(ctx)
	}
	return &domain.Identity{Team: "Test Team", TeamID: "T1", User: "exporter", UserID: "U0"}, nil
}

func (m *mockClient) ListConversations(ctx context.Context, cursor string) ([]domain.Conversation, string, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(ctx, cursor)
	}
	return nil, "", nil
}

func (m *mockClient) HistoryPage(ctx context.Context, conversationID, cursor string) ([]domain.Message, string, error) {
	if m.HistoryPageFunc != nil {
		return m.HistoryPageFunc(ctx, conversationID, cursor)
	}
	return nil, "", nil
}

func (m *mockClient) RepliesPage(ctx context.Context, conversationID, threadTS, cursor string) ([]domain.Message, string, error) {
	if m.RepliesPageFunc != nil {
		return m.RepliesPageFunc(ctx, conversationID, threadTS, cursor)
	}
	return nil, "", nil
}

func (m *mockClient) MembersPage(ctx context.Context, conversationID, cursor string) ([]string, string, error) {
	if m.MembersPageFunc != nil {
		return m.MembersPageFunc(ctx, conversationID, cursor)
	}
	return nil, "", nil
}

func (m *mockClient) FilesPage(ctx context.Context, conversationID string, page int) ([]domain.File, domain.Paging, error) {
	if m.FilesPageFunc != nil {
		return m.FilesPageFunc(ctx, conversationID, page)
	}
	return nil, domain.Paging{}, nil
}

func (m *mockClient) ListUsers(ctx context.Context) ([]domain.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return nil, nil
}

func (m *mockClient) ListEmoji(ctx context.Context) (domain.EmojiIndex, error) {
	if m.ListEmojiFunc != nil {
		return m.ListEmojiFunc(ctx)
	}
	return domain.EmojiIndex{}, nil
}

func (m *mockClient) Download(ctx context.Context, url string, w io.Writer) error {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, url, w)
	}
	return nil
}
