package market

import "log/slog"

// logRandomEvent reports a fired random event so players see it happen.
func logRandomEvent(name string, kv ...any) {
	slog.Info("random event", append([]any{"event", name}, kv...)...)
}
