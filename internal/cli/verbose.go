package cli

import (
	"fmt"
	"io"

	"github.com/leeovery/taskman/internal/storage"
)

// VerboseLogger writes debug messages prefixed with "verbose: " for
// grep-ability. A nil VerboseLogger is a no-op.
type VerboseLogger struct {
	w io.Writer
}

// NewVerboseLogger returns a logger writing to w, or nil when disabled.
func NewVerboseLogger(w io.Writer, enabled bool) *VerboseLogger {
	if !enabled {
		return nil
	}
	return &VerboseLogger{w: w}
}

// Log writes one verbose line. Safe to call on a nil receiver.
func (vl *VerboseLogger) Log(msg string) {
	if vl == nil {
		return
	}
	fmt.Fprintf(vl.w, "verbose: %s\n", msg)
}

// storeOpts routes store and migration chatter to the verbose logger.
func storeOpts(cc *commandContext) []storage.Option {
	var opts []storage.Option
	if cc.logger != nil {
		opts = append(opts, storage.WithLogger(cc.logger))
	}
	if cc.cfg.LockTimeout > 0 {
		opts = append(opts, storage.WithLockTimeout(cc.cfg.LockTimeout))
	}
	return opts
}
