package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/soyeahso/zoebot/internal/config"
)

// DefaultCommandTimeout bounds a shell hook that sets no timeout.
const DefaultCommandTimeout = 5 * time.Second

// CommandHandler returns a Handler that runs a shell command with the
// JSON-encoded payload on stdin and the event name in ZOEBOT_EVENT.
func CommandHandler(entry config.HookEntry) Handler {
	timeout := DefaultCommandTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}

	return func(ctx context.Context, p Payload) error {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding hook payload: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = bytes.NewReader(body)
		cmd.Env = append(os.Environ(), "ZOEBOT_EVENT="+p.Event)
		cmd.WaitDelay = time.Second

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("hook command %q: %w: %s", entry.Command, err, msg)
			}
			return fmt.Errorf("hook command %q: %w", entry.Command, err)
		}
		return nil
	}
}

// RegisterCommands binds every configured shell hook to its event and
// returns how many were registered.
func (m *Manager) RegisterCommands(cfg config.HooksConfig) int {
	n := 0
	for _, b := range cfg.Bindings() {
		for i, entry := range b.Entries {
			m.On(b.Event, fmt.Sprintf("config:%s[%d]", b.Key, i), CommandHandler(entry))
			n++
		}
	}
	return n
}
