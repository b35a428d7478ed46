// Package exporter drives the export pipeline: authenticate, enumerate
// conversations, page through history, fetch users and emoji, and write
// everything into the archive. Execution is strictly sequential and every
// error is fatal; whatever was flushed before a failure stays on disk.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lathrop-navisite/slack-exporter/internal/domain"
	"github.com/lathrop-navisite/slack-exporter/internal/ports"
)

// Options selects what a run exports.
type Options struct {
	// Channels restricts the export to the named channels. Empty means
	// every accessible conversation.
	Channels []string
	// DownloadFiles fetches file contents next to the metadata.
	DownloadFiles bool
	// DownloadEmoji fetches custom emoji images next to the index.
	DownloadEmoji bool
	// OnlyEmoji exports the emoji index (and images) and nothing else.
	OnlyEmoji bool
}

// Exporter is the sole pipeline component.
type Exporter struct {
	client ports.Client
	arch   ports.Archive
	opts   Options
	log    *slog.Logger
	clock  func() time.Time
}

// Option defines a functional option for the exporter.
type Option func(*Exporter)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock overrides the time source used for run timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Exporter) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// New creates an Exporter writing through arch.
func New(client ports.Client, arch ports.Archive, opts Options, eopts ...Option) *Exporter {
	e := &Exporter{
		client: client,
		arch:   arch,
		opts:   opts,
		log:    slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range eopts {
		opt(e)
	}
	return e
}

// Run executes the full export and returns the run summary.
func (e *Exporter) Run(ctx context.Context) (*domain.Summary, error) {
	sum := &domain.Summary{
		RunID:     uuid.NewString(),
		StartedAt: e.clock(),
	}

	identity, err := e.client.AuthTest(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	sum.Team = identity.Team
	e.log.InfoContext(ctx, "Authenticated", "team", identity.Team, "user", identity.User)

	if e.opts.OnlyEmoji {
		if err := e.exportEmoji(ctx, sum); err != nil {
			return nil, err
		}
		return e.finish(ctx, sum)
	}

	conversations, err := e.ListConversations(ctx)
	if err != nil {
		return nil, err
	}
	conversations, err = e.filterConversations(conversations)
	if err != nil {
		return nil, err
	}
	sum.Conversations = len(conversations)
	e.log.InfoContext(ctx, "Listed conversations", "count", len(conversations))

	users, err := e.FetchUsers(ctx)
	if err != nil {
		return nil, err
	}
	sum.Users = len(users)

	emoji, err := e.FetchEmoji(ctx)
	if err != nil {
		return nil, err
	}
	sum.Emoji = len(emoji)

	if err := e.WriteExport(ctx, conversations, users, emoji); err != nil {
		return nil, err
	}
	if e.opts.DownloadEmoji {
		if err := e.downloadEmojiImages(ctx, emoji); err != nil {
			return nil, err
		}
	}

	membersMap := make(map[string][]string)
	for _, c := range conversations {
		if err := e.exportConversation(ctx, c, sum, membersMap); err != nil {
			return nil, err
		}
	}
	if len(membersMap) > 0 {
		if err := e.arch.WriteJSON("convo_members_map.json", membersMap); err != nil {
			return nil, err
		}
	}

	return e.finish(ctx, sum)
}

// ListConversations pages through conversations.list until the cursor runs
// out and returns the full set. It holds no state, so repeated calls
// against an unchanged workspace return the same set.
func (e *Exporter) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var all []domain.Conversation
	cursor := ""
	for {
		page, next, err := e.client.ListConversations(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// FetchHistory pages through a conversation's history and returns all
// messages in the order the API delivered them.
func (e *Exporter) FetchHistory(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var all []domain.Message
	cursor := ""
	for {
		page, next, err := e.client.HistoryPage(ctx, conversationID, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch history of %s: %w", conversationID, err)
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// FetchUsers returns the full workspace member list.
func (e *Exporter) FetchUsers(ctx context.Context) ([]domain.User, error) {
	users, err := e.client.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	return users, nil
}

// FetchEmoji returns the custom emoji index.
func (e *Exporter) FetchEmoji(ctx context.Context) (domain.EmojiIndex, error) {
	emoji, err := e.client.ListEmoji(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch emoji: %w", err)
	}
	return emoji, nil
}

// WriteExport writes the workspace-level files: the conversation index, the
// user list with its ID map, and the emoji index.
func (e *Exporter) WriteExport(ctx context.Context, conversations []domain.Conversation, users []domain.User, emoji domain.EmojiIndex) error {
	if err := e.arch.WriteJSON("channels.json", conversations); err != nil {
		return err
	}

	if err := e.arch.WriteJSON("users.json", users); err != nil {
		return err
	}
	userIDMap := make(map[string]domain.User, len(users))
	for _, u := range users {
		userIDMap[u.ID] = u
	}
	if err := e.arch.WriteJSON("user_id_map.json", userIDMap); err != nil {
		return err
	}

	if err := e.arch.WriteJSON("emojis/emojis.json", emoji); err != nil {
		return err
	}

	e.log.InfoContext(ctx, "Wrote workspace files",
		"conversations", len(conversations), "users", len(users), "emoji", len(emoji))
	return nil
}

// exportConversation writes everything belonging to one conversation:
// members, message history, thread replies and file metadata.
func (e *Exporter) exportConversation(ctx context.Context, c domain.Conversation, sum *domain.Summary, membersMap map[string][]string) error {
	dir := conversationDir(c)
	e.log.InfoContext(ctx, "Exporting conversation",
		"conversation", c.ExportName(), "id", c.ID, "kind", string(c.Kind))

	if c.NumMembers > 0 {
		members, err := e.fetchMembers(ctx, c.ID)
		if err != nil {
			return err
		}
		if err := e.arch.WriteJSON(path.Join(dir, "members.json"), members); err != nil {
			return err
		}
		membersMap[c.ID] = members
	}

	messages, err := e.FetchHistory(ctx, c.ID)
	if err != nil {
		return err
	}
	messagesPath := path.Join(dir, "messages.jsonl")
	for _, m := range messages {
		if err := e.arch.AppendJSONL(messagesPath, m); err != nil {
			return err
		}
	}
	sum.Messages += len(messages)
	e.log.InfoContext(ctx, "Wrote message history",
		"conversation", c.ExportName(), "messages", len(messages))

	for _, m := range messages {
		if !m.IsThreadParent() {
			continue
		}
		if err := e.exportThread(ctx, c, m.TS, dir); err != nil {
			return err
		}
		sum.Threads++
	}

	return e.exportFiles(ctx, c, dir, sum)
}

// exportThread writes all replies of one thread to its own file.
func (e *Exporter) exportThread(ctx context.Context, c domain.Conversation, threadTS, dir string) error {
	var all []domain.Message
	cursor := ""
	for {
		page, next, err := e.client.RepliesPage(ctx, c.ID, threadTS, cursor)
		if err != nil {
			return fmt.Errorf("fetch replies of %s in %s: %w", threadTS, c.ID, err)
		}
		all = append(all, page...)
		if next == "" {
			break
		}
		cursor = next
	}

	repliesPath := path.Join(dir, "replies_"+threadTS+".jsonl")
	for _, m := range all {
		if err := e.arch.AppendJSONL(repliesPath, m); err != nil {
			return err
		}
	}
	e.log.DebugContext(ctx, "Wrote thread replies",
		"conversation", c.ExportName(), "thread_ts", threadTS, "replies", len(all))
	return nil
}

// fetchMembers pages through a conversation's member IDs.
func (e *Exporter) fetchMembers(ctx context.Context, conversationID string) ([]string, error) {
	var all []string
	cursor := ""
	for {
		page, next, err := e.client.MembersPage(ctx, conversationID, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch members of %s: %w", conversationID, err)
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// exportFiles pages through files.list for the conversation and writes the
// metadata, optionally downloading the contents.
func (e *Exporter) exportFiles(ctx context.Context, c domain.Conversation, dir string, sum *domain.Summary) error {
	var all []domain.File
	page := 1
	for {
		files, paging, err := e.client.FilesPage(ctx, c.ID, page)
		if err != nil {
			return fmt.Errorf("list files of %s: %w", c.ID, err)
		}
		all = append(all, files...)
		if !paging.HasMore() {
			break
		}
		page = paging.Page + 1
	}
	if len(all) == 0 {
		return nil
	}

	if err := e.arch.WriteJSON(path.Join(dir, "files.json"), all); err != nil {
		return err
	}
	sum.Files += len(all)

	if !e.opts.DownloadFiles {
		return nil
	}
	for _, f := range all {
		if f.URLPrivate == "" {
			continue
		}
		name := path.Join(dir, "files", "("+f.ID+") "+f.Name)
		if err := e.downloadTo(ctx, f.URLPrivate, name); err != nil {
			return err
		}
	}
	return nil
}

// downloadEmojiImages fetches every non-alias emoji image into the emojis
// directory, named by emoji name and URL extension.
func (e *Exporter) downloadEmojiImages(ctx context.Context, emoji domain.EmojiIndex) error {
	for name, rawURL := range emoji {
		if !strings.HasPrefix(rawURL, "http") {
			continue
		}
		ext := path.Ext(rawURL)
		if err := e.downloadTo(ctx, rawURL, path.Join("emojis", name+ext)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) downloadTo(ctx context.Context, rawURL, name string) error {
	w, err := e.arch.CreateFile(name)
	if err != nil {
		return err
	}
	if err := e.client.Download(ctx, rawURL, w); err != nil {
		_ = w.Close()
		return fmt.Errorf("download %s: %w", rawURL, err)
	}
	if err := w.Close(); err != nil {
		return &domain.WriteError{Path: name, Err: err}
	}
	return nil
}

// exportEmoji covers the emoji-only mode.
func (e *Exporter) exportEmoji(ctx context.Context, sum *domain.Summary) error {
	emoji, err := e.FetchEmoji(ctx)
	if err != nil {
		return err
	}
	sum.Emoji = len(emoji)
	if err := e.arch.WriteJSON("emojis/emojis.json", emoji); err != nil {
		return err
	}
	if e.opts.DownloadEmoji {
		return e.downloadEmojiImages(ctx, emoji)
	}
	return nil
}

// filterConversations applies the --channels selection. Unknown names abort
// the run so a typo cannot silently shrink the export.
func (e *Exporter) filterConversations(conversations []domain.Conversation) ([]domain.Conversation, error) {
	if len(e.opts.Channels) == 0 {
		return conversations, nil
	}

	byName := make(map[string]domain.Conversation, len(conversations))
	for _, c := range conversations {
		if c.Name != "" {
			byName[c.Name] = c
		}
	}

	var selected []domain.Conversation
	var unknown []string
	for _, name := range e.opts.Channels {
		c, ok := byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		selected = append(selected, c)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown channels: %s", strings.Join(unknown, ", "))
	}
	return selected, nil
}

// finish stamps the summary, writes the manifest and logs the result.
func (e *Exporter) finish(ctx context.Context, sum *domain.Summary) (*domain.Summary, error) {
	sum.FinishedAt = e.clock()
	if err := e.arch.WriteJSON("manifest.json", sum); err != nil {
		return nil, err
	}
	e.log.InfoContext(ctx, "Export finished",
		"run_id", sum.RunID,
		"conversations", sum.Conversations,
		"messages", sum.Messages,
		"threads", sum.Threads,
		"users", sum.Users,
		"emoji", sum.Emoji,
		"files", sum.Files,
		"dir", e.arch.Dir(),
	)
	return sum, nil
}

// conversationDir mirrors the archive layout: named channels under
// channels/, nameless DMs and group DMs under private/ keyed by ID.
func conversationDir(c domain.Conversation) string {
	if c.Name != "" {
		return path.Join("conversations", "channels", c.Name)
	}
	return path.Join("conversations", "private", c.ID)
}
