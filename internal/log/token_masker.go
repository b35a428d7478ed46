package log

import (
	"context"
	"log/slog"
	"regexp"
)

// TokenMaskerHandler wraps a slog.Handler and masks Slack credentials in
// log output.
type TokenMaskerHandler struct {
	handler slog.Handler
}

// NewTokenMaskerHandler creates a new masking handler.
func NewTokenMaskerHandler(handler slog.Handler) *TokenMaskerHandler {
	return &TokenMaskerHandler{
		handler: handler,
	}
}

// Slack tokens look like xoxb-..., xoxp-..., xoxa-..., xoxo-..., xoxs-...
// or xoxr-..., with dash-separated alphanumeric segments.
var slackTokenRegex = regexp.MustCompile(`\bxox[abopsr]-[0-9A-Za-z-]{10,}`)

// maskTokens replaces found tokens with a mask.
func maskTokens(text string) string {
	return slackTokenRegex.ReplaceAllString(text, "xox***masked-token***")
}

// Enabled implements slog.Handler.
func (h *TokenMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler. It builds a fresh record rather than
// cloning: a clone keeps the original inline attributes, so adding masked
// copies would emit every attribute twice, unmasked first.
func (h *TokenMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	r := slog.NewRecord(record.Time, record.Level, maskTokens(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(slog.Attr{
			Key:   a.Key,
			Value: maskAttributeValue(a.Value),
		})
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *TokenMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		maskedAttrs[i] = slog.Attr{
			Key:   attr.Key,
			Value: maskAttributeValue(attr.Value),
		}
	}
	return &TokenMaskerHandler{
		handler: h.handler.WithAttrs(maskedAttrs),
	}
}

// WithGroup implements slog.Handler.
func (h *TokenMaskerHandler) WithGroup(name string) slog.Handler {
	return &TokenMaskerHandler{
		handler: h.handler.WithGroup(name),
	}
}

// maskAttributeValue recursively masks attribute values.
func maskAttributeValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskTokens(value.String()))
	case slog.KindAny:
		// Errors commonly carry request URLs with the token query
		// parameter in them; stringify and mask those too.
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskTokens(err.Error()))
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		maskedGroup := make([]slog.Attr, len(group))
		for i, attr := range group {
			maskedGroup[i] = slog.Attr{
				Key:   attr.Key,
				Value: maskAttributeValue(attr.Value),
			}
		}
		return slog.GroupValue(maskedGroup...)
	default:
		return value
	}
}

// NewMaskedLogger creates a slog.Logger with token masking installed.
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewTokenMaskerHandler(handler))
}
