package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs query events with hashed identifiers so logs stay
// useful without retaining raw user text or API keys.
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogQuery records one top-level query event.
func (a *AuditLogger) LogQuery(
	query, apiKey, sessionID string,
	durationMs int64,
	sourceCount int,
	success bool,
	errMsg string,
) {
	if !a.enabled {
		return
	}
	queryHash := hashStr(query)[:16]
	keyHash := ""
	if apiKey != "" {
		keyHash = hashStr(apiKey)[:16]
	}

	evt := log.Info().
		Str("event", "query_audit").
		Str("query_hash", queryHash).
		Str("api_key_hash", keyHash).
		Str("session_id", sessionID).
		Int64("duration_ms", durationMs).
		Int("source_count", sourceCount).
		Bool("success", success)

	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

func hashStr(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
