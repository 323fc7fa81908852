package repo

import "github.com/leaguewatch/schedule-notifier/internal/biz/domain"

// Renderer renders notification text from the template table
type Renderer interface {
	// Render looks up the template by key and locale. It never touches the network or storage.
	Render(key, locale string, data domain.EventContext) (string, error)

	// HasLocale reports whether templates exist for locale
	HasLocale(locale string) bool
}
