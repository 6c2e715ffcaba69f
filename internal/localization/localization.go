// Package localization provides the translated message templates used by the
// Telegram notifier and bot. Translations are JSON files embedded at build time.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// DefaultLanguage is used when a key is missing in the requested language.
const DefaultLanguage = "en"

//go:embed locales/*.json
var embedded embed.FS

// Localizer holds one key/value table per language. It is read only after
// construction.
type Localizer struct {
	translations map[string]map[string]string
}

// New loads the embedded translations.
func New() (*Localizer, error) {
	return NewFromFS(embedded, "locales")
}

// NewFromFS loads every <lang>.json file in dir.
func NewFromFS(fsys fs.FS, dir string) (*Localizer, error) {
	l := &Localizer{translations: make(map[string]map[string]string)}

	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[strings.TrimSuffix(file.Name(), ".json")] = translations
	}

	return l, nil
}

// GetString returns the string for key in lang, then in DefaultLanguage, then the
// key itself.
func (l *Localizer) GetString(lang, key string) string {
	if value, ok := l.translations[lang][key]; ok {
		return value
	}
	if value, ok := l.translations[DefaultLanguage][key]; ok {
		return value
	}
	return key
}

// Format fills the template for key with args using fmt verbs.
func (l *Localizer) Format(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}

// Languages lists the loaded language codes.
func (l *Localizer) Languages() []string {
	out := make([]string, 0, len(l.translations))
	for lang := range l.translations {
		out = append(out, lang)
	}
	return out
}
