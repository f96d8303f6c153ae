// Package i18n translates the user-visible texts of the booth.
package i18n

import (
	"embed"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

// Languages lists the supported language tags.
var Languages = []string{"en", "de"}

// Localizer implements workflow.Localizer on top of a go-i18n bundle.
type Localizer struct {
	loc *i18n.Localizer

	mu      sync.Mutex
	missing map[string]bool
}

// New creates a localizer for lang. Messages missing in lang fall back to
// English.
func New(lang string) (*Localizer, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid language %q", lang)
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	for _, l := range Languages {
		if _, err := bundle.LoadMessageFileFS(locales, "locales/"+l+".yaml"); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s messages", l)
		}
	}

	return &Localizer{
		loc:     i18n.NewLocalizer(bundle, tag.String(), language.English.String()),
		missing: make(map[string]bool),
	}, nil
}

// T returns the text for id. Unknown ids are returned unchanged.
func (l *Localizer) T(id string, data map[string]any) string {
	s, err := l.loc.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		l.mu.Lock()
		if !l.missing[id] {
			l.missing[id] = true
			zlog.Warn().Msgf("i18n: no message for %s: %v", id, err)
		}
		l.mu.Unlock()
		return id
	}
	return s
}
