// Package slackapi wraps the Slack Web API client behind the exporter's
// client port, converting wire structs into domain records at the boundary
// and classifying errors into the exporter's taxonomy.
package slackapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/slack-go/slack"

	"github.com/lathrop-navisite/slack-exporter/internal/domain"
)

// authFailures are the error codes that mean the credential itself is bad.
var authFailures = map[string]bool{
	"invalid_auth":     true,
	"not_authed":       true,
	"account_inactive": true,
	"token_revoked":    true,
	"token_expired":    true,
}

// Client implements ports.Client on top of slack-go.
type Client struct {
	api        *slack.Client
	log        *slog.Logger
	types      []string
	pageSize   int
	delay      time.Duration
	sleep      func(time.Duration)
	apiURL     string
	httpClient *http.Client
}

// Option defines a functional option for configuring the client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithConversationTypes sets the conversation types requested from
// conversations.list.
func WithConversationTypes(types []string) Option {
	return func(c *Client) {
		if len(types) > 0 {
			c.types = types
		}
	}
}

// WithPageSize sets the per-request page size for cursor-paginated calls.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRequestDelay sets a fixed pause before every API call. This is plain
// pacing; a throttled response is still fatal.
func WithRequestDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithAPIURL overrides the API base URL. Must end with a slash.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		c.apiURL = u
	}
}

// WithHTTPClient sets the underlying HTTP client, typically to apply a
// request timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for the given bearer token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		log: slog.Default(),
		types: []string{
			string(domain.KindPublicChannel),
			string(domain.KindPrivateChannel),
			string(domain.KindMpIM),
			string(domain.KindIM),
		},
		pageSize: 200,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}

	var sopts []slack.Option
	if c.apiURL != "" {
		sopts = append(sopts, slack.OptionAPIURL(c.apiURL))
	}
	if c.httpClient != nil {
		sopts = append(sopts, slack.OptionHTTPClient(c.httpClient))
	}
	c.api = slack.New(token, sopts...)
	return c
}

// AuthTest verifies the credential and returns the workspace identity.
func (c *Client) AuthTest(ctx context.Context) (*domain.Identity, error) {
	c.pace()
	c.log.DebugContext(ctx, "Executing API call: auth.test")
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return nil, c.mapErr("auth.test", err)
	}
	return &domain.Identity{
		Team:   resp.Team,
		TeamID: resp.TeamID,
		User:   resp.User,
		UserID: resp.UserID,
		BotID:  resp.BotID,
		URL:    resp.URL,
	}, nil
}

// ListConversations returns one page of accessible conversations.
func (c *Client) ListConversations(ctx context.Context, cursor string) ([]domain.Conversation, string, error) {
	c.pace()
	c.log.DebugContext(ctx, "Executing API call: conversations.list", "cursor", cursor)
	channels, next, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		Cursor: cursor,
		Types:  c.types,
		Limit:  c.pageSize,
	})
	if err != nil {
		return nil, "", c.mapErr("conversations.list", err)
	}

	out := make([]domain.Conversation, 0, len(channels))
	for _, ch := range channels {
		out = append(out, toConversation(ch))
	}
	return out, next, nil
}

// HistoryPage returns one page of a conversation's history in arrival order.
func (c *Client) HistoryPage(ctx context.Context, conversationID, cursor string) ([]domain.Message, string, error) {
	c.pace()
	c.log.DebugContext(ctx, "Executing API call: conversations.history",
		"conversation", conversationID, "cursor", cursor)
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: conversationID,
		Cursor:    cursor,
		Limit:     c.pageSize,
	})
	if err != nil {
		return nil, "", c.mapErr("conversations.history", err)
	}

	out := make([]domain.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		out = append(out, toMessage(m))
	}
	return out, resp.ResponseMetaData.NextCursor, nil
}

// RepliesPage returns one page of a thread's replies.
func (c *Client) RepliesPage(ctx context.Context, conversationID, threadTS, cursor string) ([]domain.Message, string, error) {
	c.pace()
	c.log.DebugContext(ctx, "Executing API call: conversations.replies",
		"conversation", conversationID, "thread_ts", threadTS, "cursor", cursor)
	msgs, _, next, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: conversationID,
		Timestamp: threadTS,
		Cursor:    cursor,
		Limit:     c.pageSize,
	})
	if err != nil {
		return nil, "", c.mapErr("conversations.replies", err)
	}

	out := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessage(m))
	}
	return out, next, nil
}

// MembersPage returns one page of member user IDs for a conversation.
func (c *Client) MembersPage(ctx context.Context, conversationID, cursor string) ([]string, string, error) {
	c.pace()
	c.log.DebugContext(ctx, "Executing API call: conversations.members",
		"conversation", conversationID, "cursor", cursor)
	members, next, err := c.api.GetUsersInConversationContext(ctx, &slack.GetUsersInConversationParameters{
		ChannelID: conversationID,
		Cursor:    cursor,
		Limit:     c.pageSize,
	})
	if err != nil {
		return nil, "", c.mapErr("conversations.members", err)
	}
	return members, next, nil
}

// FilesPage returns one page of file metadata for a conversation.
func (c *Client) FilesPage(ctx context.Context, conversationID string, page int) ([]domain.File, domain.Paging, error) {
	c.pace()
	c.log.DebugContext(ctx, "Executing API call: files.list",
		"conversation", conversationID, "page", page)
	files, paging, err := c.api.GetFilesContext(ctx, slack.GetFilesParameters{
		Channel: conversationID,
		Page:    page,
		Count:   c.pageSize,
	})
	if err != nil {
		return nil, domain.Paging{}, c.mapErr("files.list", err)
	}

	out := make([]domain.File, 0, len(files))
	for _, f := range files {
		out = append(out, toFile(f))
	}
	var pg domain.Paging
	if paging != nil {
		pg = domain.Paging{Page: paging.Page, Pages: paging.Pages}
	}
	return out, pg, nil
}

// ListUsers returns the full workspace member list, paging users.list
// until the cursor runs out. The pagination is driven manually because the
// library's accumulating helper sleeps through throttling, and throttling
// is fatal here.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	var err error
	p := c.api.GetUsersPaginated(slack.GetUsersOptionLimit(c.pageSize))
	for err == nil {
		c.pace()
		c.log.DebugContext(ctx, "Executing API call: users.list")
		p, err = p.Next(ctx)
		if err == nil {
			for _, u := range p.Users {
				out = append(out, toUser(u))
			}
		}
	}
	if failure := p.Failure(err); failure != nil {
		return nil, c.mapErr("users.list", failure)
	}
	return out, nil
}

// ListEmoji returns the custom emoji mapping.
func (c *Client) ListEmoji(ctx context.Context) (domain.EmojiIndex, error) {
	c.pace()
	c.log.DebugContext(ctx, "Executing API call: emoji.list")
	emoji, err := c.api.GetEmojiContext(ctx)
	if err != nil {
		return nil, c.mapErr("emoji.list", err)
	}
	return domain.EmojiIndex(emoji), nil
}

// Download streams an authenticated URL into w.
func (c *Client) Download(ctx context.Context, fileURL string, w io.Writer) error {
	c.pace()
	c.log.DebugContext(ctx, "Downloading file", "url", fileURL)
	if err := c.api.GetFileContext(ctx, fileURL, w); err != nil {
		return c.mapErr("file download", err)
	}
	return nil
}

// pace applies the configured inter-request delay.
func (c *Client) pace() {
	if c.delay > 0 {
		c.sleep(c.delay)
	}
}

// mapErr classifies a slack-go error into the domain taxonomy. Anything
// unrecognized passes through wrapped with the operation name.
func (c *Client) mapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var rle *slack.RateLimitedError
	if errors.As(err, &rle) {
		return &domain.RateLimitError{Op: op, RetryAfter: rle.RetryAfter}
	}

	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) {
		if authFailures[apiErr.Err] {
			return &domain.AuthError{Op: op, Reason: apiErr.Err}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	// Some call paths surface the bare error code.
	if authFailures[err.Error()] {
		return &domain.AuthError{Op: op, Reason: err.Error()}
	}

	var uerr *url.Error
	if errors.As(err, &uerr) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.NetworkError{Op: op, Err: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func toConversation(ch slack.Channel) domain.Conversation {
	return domain.Conversation{
		ID:         ch.ID,
		Name:       ch.Name,
		Kind:       conversationKind(ch),
		Created:    int64(ch.Created),
		Creator:    ch.Creator,
		IsArchived: ch.IsArchived,
		NumMembers: ch.NumMembers,
		User:       ch.User,
		Topic:      ch.Topic.Value,
		Purpose:    ch.Purpose.Value,
	}
}

func conversationKind(ch slack.Channel) domain.ConversationKind {
	switch {
	case ch.IsIM:
		return domain.KindIM
	case ch.IsMpIM:
		return domain.KindMpIM
	case ch.IsPrivate:
		return domain.KindPrivateChannel
	default:
		return domain.KindPublicChannel
	}
}

func toMessage(m slack.Message) domain.Message {
	out := domain.Message{
		TS:         m.Timestamp,
		ThreadTS:   m.ThreadTimestamp,
		Type:       m.Type,
		SubType:    m.SubType,
		User:       m.User,
		BotID:      m.BotID,
		Username:   m.Username,
		Text:       m.Text,
		ReplyCount: m.ReplyCount,
	}
	for _, r := range m.Reactions {
		out.Reactions = append(out.Reactions, domain.Reaction{
			Name:  r.Name,
			Count: r.Count,
			Users: r.Users,
		})
	}
	for _, f := range m.Files {
		out.Files = append(out.Files, toFile(f))
	}
	return out
}

func toUser(u slack.User) domain.User {
	return domain.User{
		ID:       u.ID,
		TeamID:   u.TeamID,
		Name:     u.Name,
		RealName: u.RealName,
		Deleted:  u.Deleted,
		IsBot:    u.IsBot,
		IsAdmin:  u.IsAdmin,
		Profile: domain.Profile{
			RealName:    u.Profile.RealName,
			DisplayName: u.Profile.DisplayName,
			Email:       u.Profile.Email,
			Title:       u.Profile.Title,
			StatusText:  u.Profile.StatusText,
		},
	}
}

func toFile(f slack.File) domain.File {
	return domain.File{
		ID:         f.ID,
		Name:       f.Name,
		Title:      f.Title,
		Mimetype:   f.Mimetype,
		Filetype:   f.Filetype,
		URLPrivate: f.URLPrivate,
		Size:       f.Size,
		Created:    int64(f.Created),
	}
}
