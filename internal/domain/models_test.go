package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConversationExportName(t *testing.T) {
	t.Run("named channel uses its name", func(t *testing.T) {
		c := Conversation{ID: "C012345", Name: "general", Kind: KindPublicChannel}
		assert.Equal(t, "general", c.ExportName())
	})

	t.Run("nameless DM falls back to the ID", func(t *testing.T) {
		c := Conversation{ID: "D012345", Kind: KindIM}
		assert.Equal(t, "D012345", c.ExportName())
	})
}

func TestConversationIsDirect(t *testing.T) {
	assert.True(t, Conversation{Kind: KindIM}.IsDirect())
	assert.True(t, Conversation{Kind: KindMpIM}.IsDirect())
	assert.False(t, Conversation{Kind: KindPublicChannel}.IsDirect())
	assert.False(t, Conversation{Kind: KindPrivateChannel}.IsDirect())
}

func TestMessageIsThreadParent(t *testing.T) {
	testCases := []struct {
		name string
		msg  Message
		want bool
	}{
		{"parent", Message{TS: "1.0", ThreadTS: "1.0", ReplyCount: 2}, true},
		{"reply", Message{TS: "2.0", ThreadTS: "1.0", ReplyCount: 0}, false},
		{"plain message", Message{TS: "3.0"}, false},
		{"no replies yet", Message{TS: "4.0", ThreadTS: "4.0"}, false},
		{"empty ts", Message{ReplyCount: 1}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.msg.IsThreadParent())
		})
	}
}

func TestEmojiIndexIsAlias(t *testing.T) {
	idx := EmojiIndex{
		"party":  "https://emoji.example.com/party.png",
		"tada2":  "alias:party",
		"broken": "alias:",
	}

	assert.False(t, idx.IsAlias("party"))
	assert.True(t, idx.IsAlias("tada2"))
	assert.False(t, idx.IsAlias("broken"))
	assert.False(t, idx.IsAlias("missing"))
}

func TestPagingHasMore(t *testing.T) {
	assert.True(t, Paging{Page: 1, Pages: 3}.HasMore())
	assert.False(t, Paging{Page: 3, Pages: 3}.HasMore())
	assert.False(t, Paging{}.HasMore())
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("auth error matches with errors.As", func(t *testing.T) {
		err := fmt.Errorf("listing failed: %w", &AuthError{Op: "conversations.list", Reason: "invalid_auth"})
		var authErr *AuthError
		assert.True(t, errors.As(err, &authErr))
		assert.Contains(t, authErr.Error(), "invalid_auth")
	})

	t.Run("rate limit error carries retry-after", func(t *testing.T) {
		err := &RateLimitError{Op: "conversations.history", RetryAfter: 3 * time.Second}
		assert.Contains(t, err.Error(), "3s")
	})

	t.Run("network and write errors unwrap", func(t *testing.T) {
		cause := errors.New("connection reset")
		assert.ErrorIs(t, &NetworkError{Op: "users.list", Err: cause}, cause)
		assert.ErrorIs(t, &WriteError{Path: "users.json", Err: cause}, cause)
	})
}
