package host

import (
	"log/slog"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
)

// slogAdapter exposes the host's structured logger as the logging
// capability handed to plugins. The tag becomes a log attribute so
// plugin output stays filterable.
type slogAdapter struct {
	base *slog.Logger
}

var _ capability.Logger = (*slogAdapter)(nil)

func (l *slogAdapter) Debug(tag, msg string, args ...any) {
	l.base.With("tag", tag).Debug(msg, args...)
}

func (l *slogAdapter) Info(tag, msg string, args ...any) {
	l.base.With("tag", tag).Info(msg, args...)
}

func (l *slogAdapter) Warn(tag, msg string, args ...any) {
	l.base.With("tag", tag).Warn(msg, args...)
}

func (l *slogAdapter) Error(tag, msg string, args ...any) {
	l.base.With("tag", tag).Error(msg, args...)
}
