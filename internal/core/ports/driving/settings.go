package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SettingsAdmin inspects and edits the persisted configuration.
type SettingsAdmin interface {
	SettingsService

	// Entries lists every effective setting with its source. Secrets are masked.
	Entries() []domain.SettingEntry

	// Set validates value and writes it to the config file.
	Set(key, value string) error

	// Unset removes key from the config file.
	Unset(key string) error

	// Check pings the configured embedding and LLM providers.
	Check(ctx context.Context) error
}
