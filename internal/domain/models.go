package domain

import "time"

// ConversationKind mirrors the types accepted by the conversations.list
// endpoint.
type ConversationKind string

const (
	KindPublicChannel  ConversationKind = "public_channel"
	KindPrivateChannel ConversationKind = "private_channel"
	KindIM             ConversationKind = "im"
	KindMpIM           ConversationKind = "mpim"
)

// Conversation is any channel, private group, DM or group DM the credential
// can access.
type Conversation struct {
	ID         string           `json:"id"`
	Name       string           `json:"name,omitempty"`
	Kind       ConversationKind `json:"kind"`
	Created    int64            `json:"created,omitempty"`
	Creator    string           `json:"creator,omitempty"`
	IsArchived bool             `json:"is_archived,omitempty"`
	NumMembers int              `json:"num_members,omitempty"`
	// User is the counterpart user ID for direct messages.
	User    string `json:"user,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Purpose string `json:"purpose,omitempty"`
}

// ExportName returns the channel name, or the conversation ID for nameless
// conversations such as DMs.
func (c Conversation) ExportName() string {
	if c.Name == "" {
		return c.ID
	}
	return c.Name
}

// IsDirect reports whether the conversation is a DM or group DM.
func (c Conversation) IsDirect() bool {
	return c.Kind == KindIM || c.Kind == KindMpIM
}

// Reaction is an emoji reaction attached to a message.
type Reaction struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Users []string `json:"users,omitempty"`
}

// Message is one record from a conversation's history. Fields are written
// to the archive exactly as received; nothing is recomputed or re-sorted.
type Message struct {
	TS         string     `json:"ts"`
	ThreadTS   string     `json:"thread_ts,omitempty"`
	Type       string     `json:"type"`
	SubType    string     `json:"subtype,omitempty"`
	User       string     `json:"user,omitempty"`
	BotID      string     `json:"bot_id,omitempty"`
	Username   string     `json:"username,omitempty"`
	Text       string     `json:"text"`
	ReplyCount int        `json:"reply_count,omitempty"`
	Reactions  []Reaction `json:"reactions,omitempty"`
	Files      []File     `json:"files,omitempty"`
}

// IsThreadParent reports whether the message starts a thread whose replies
// live behind a separate endpoint. Thread parents carry their own ts as
// thread_ts; replies carry the parent's.
func (m Message) IsThreadParent() bool {
	return m.ReplyCount > 0 && m.TS != "" && m.TS == m.ThreadTS
}

// Profile is the subset of a user's profile worth keeping in the archive.
type Profile struct {
	RealName    string `json:"real_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Title       string `json:"title,omitempty"`
	StatusText  string `json:"status_text,omitempty"`
}

// User is a workspace member.
type User struct {
	ID       string  `json:"id"`
	TeamID   string  `json:"team_id,omitempty"`
	Name     string  `json:"name"`
	RealName string  `json:"real_name,omitempty"`
	Deleted  bool    `json:"deleted,omitempty"`
	IsBot    bool    `json:"is_bot,omitempty"`
	IsAdmin  bool    `json:"is_admin,omitempty"`
	Profile  Profile `json:"profile"`
}

// File is the metadata record for an uploaded file.
type File struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Mimetype   string `json:"mimetype,omitempty"`
	Filetype   string `json:"filetype,omitempty"`
	URLPrivate string `json:"url_private,omitempty"`
	Size       int    `json:"size,omitempty"`
	Created    int64  `json:"created,omitempty"`
}

// EmojiIndex maps a custom emoji name to its image URL, or to an
// "alias:<name>" reference.
type EmojiIndex map[string]string

const aliasPrefix = "alias:"

// IsAlias reports whether the named emoji is an alias rather than an image.
func (e EmojiIndex) IsAlias(name string) bool {
	v, ok := e[name]
	return ok && len(v) > len(aliasPrefix) && v[:len(aliasPrefix)] == aliasPrefix
}

// Identity is the workspace identity behind the credential, as reported by
// auth.test.
type Identity struct {
	Team   string `json:"team"`
	TeamID string `json:"team_id"`
	User   string `json:"user"`
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Paging describes classic page/pages pagination used by files.list.
type Paging struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// HasMore reports whether pages remain after the current one.
func (p Paging) HasMore() bool {
	return p.Page < p.Pages
}

// Summary accumulates counts over a single export run and ends up in the
// run manifest.
type Summary struct {
	RunID         string    `json:"run_id"`
	Team          string    `json:"team,omitempty"`
	Conversations int       `json:"conversations"`
	Messages      int       `json:"messages"`
	Threads       int       `json:"threads"`
	Users         int       `json:"users"`
	Emoji         int       `json:"emoji"`
	Files         int       `json:"files"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}
