package ports

import (
	"context"
	"io"

	"github.com/lathrop-navisite/slack-exporter/internal/domain"
)

// Client defines the subset of the Slack Web API the exporter consumes.
// Page-oriented calls take the cursor from the previous response and return
// the next one; an empty cursor marks the final page.
type Client interface {
	// AuthTest verifies the credential and returns the workspace identity.
	AuthTest(ctx context.Context) (*domain.Identity, error)

	// ListConversations returns one page of accessible conversations.
	ListConversations(ctx context.Context, cursor string) ([]domain.Conversation, string, error)

	// HistoryPage returns one page of a conversation's message history, in
	// the order the API delivers it.
	HistoryPage(ctx context.Context, conversationID, cursor string) ([]domain.Message, string, error)

	// RepliesPage returns one page of a thread's replies.
	RepliesPage(ctx context.Context, conversationID, threadTS, cursor string) ([]domain.Message, string, error)

	// MembersPage returns one page of member user IDs for a conversation.
	MembersPage(ctx context.Context, conversationID, cursor string) ([]string, string, error)

	// FilesPage returns one page of file metadata for a conversation.
	// files.list uses page numbers rather than cursors.
	FilesPage(ctx context.Context, conversationID string, page int) ([]domain.File, domain.Paging, error)

	// ListUsers returns the full workspace member list.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// ListEmoji returns the custom emoji mapping.
	ListEmoji(ctx context.Context) (domain.EmojiIndex, error)

	// Download streams an authenticated URL (file or emoji image) into w.
	Download(ctx context.Context, url string, w io.Writer) error
}

// Archive defines the output side of the pipeline: verbatim JSON dumps
// under a per-run directory.
type Archive interface {
	// Dir returns the run directory path. The directory itself is only
	// created once something is written.
	Dir() string

	// WriteJSON writes v as a single JSON document at the given relative
	// path, creating parent directories as needed.
	WriteJSON(name string, v any) error

	// AppendJSONL appends v as one JSON line to the file at the given
	// relative path.
	AppendJSONL(name string, v any) error

	// CreateFile opens a file for streaming binary content (downloads).
	CreateFile(name string) (io.WriteCloser, error)
}
