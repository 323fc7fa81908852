package conf

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	_ "time/tzdata"

	"github.com/goodsign/monday"
	"gopkg.in/yaml.v3"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

//go:embed templates.yaml
var defaultTemplatesYAML []byte

// TemplateKeys lists every key a locale must provide
var TemplateKeys = []string{
	"new_game",
	"new_lineup",
	"scheduling_suggestion_enemy",
	"scheduling_suggestion_own",
	"scheduling_confirmation",
	"scheduling_auto_confirmation",
	"time_change",
	"weekly_digest",
	"overview",
	"overview_empty",
}

// TemplatesConfig is the YAML layout of the template table
type TemplatesConfig struct {
	DefaultLocale string                  `yaml:"default_locale"`
	Timezone      string                  `yaml:"timezone"`
	Locales       map[string]LocaleConfig `yaml:"locales"`
}

// LocaleConfig holds the templates of one locale
type LocaleConfig struct {
	MondayLocale string            `yaml:"monday_locale"`
	DateFormat   string            `yaml:"date_format"`
	Templates    map[string]string `yaml:"templates"`
}

// DefaultTemplatesConfig returns the built-in templates
func DefaultTemplatesConfig() *TemplatesConfig {
	var cfg TemplatesConfig
	if err := yaml.Unmarshal(defaultTemplatesYAML, &cfg); err != nil {
		panic(fmt.Sprintf("built-in templates: %v", err))
	}
	return &cfg
}

// LoadTemplatesConfig loads templates from YAML, falling back to the
// built-in table when no file is found. Missing entries are filled from
// the built-in table.
func LoadTemplatesConfig(configPath string, logger *slog.Logger) (*TemplatesConfig, error) {
	if logger == nil {
		logger = slog.Default()
	}

	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/templates.yaml",
			"/etc/schedule-notifier/templates.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "templates.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if b, err := os.ReadFile(p); err == nil {
			data, loadedPath = b, p
			break
		}
	}

	if data == nil {
		if configPath != "" {
			return nil, fmt.Errorf("templates file %s not readable", configPath)
		}
		logger.Info("no templates.yaml found, using built-in templates")
		return DefaultTemplatesConfig(), nil
	}

	logger.Info("loading templates", "path", loadedPath)

	var cfg TemplatesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	cfg.fillDefaults(DefaultTemplatesConfig())
	return &cfg, nil
}

func (c *TemplatesConfig) fillDefaults(def *TemplatesConfig) {
	if c.DefaultLocale == "" {
		c.DefaultLocale = def.DefaultLocale
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Locales == nil {
		c.Locales = make(map[string]LocaleConfig)
	}

	fallback := def.Locales[def.DefaultLocale]
	for name, lc := range c.Locales {
		base, ok := def.Locales[name]
		if !ok {
			base = fallback
		}
		if lc.MondayLocale == "" {
			lc.MondayLocale = base.MondayLocale
		}
		if lc.DateFormat == "" {
			lc.DateFormat = base.DateFormat
		}
		if lc.Templates == nil {
			lc.Templates = make(map[string]string)
		}
		for key, text := range base.Templates {
			if strings.TrimSpace(lc.Templates[key]) == "" {
				lc.Templates[key] = text
			}
		}
		c.Locales[name] = lc
	}

	for name, lc := range def.Locales {
		if _, ok := c.Locales[name]; !ok {
			c.Locales[name] = lc
		}
	}
}

// TemplateTable is the compiled, immutable template table.
// It is safe for concurrent use.
type TemplateTable struct {
	defaultLocale string
	location      *time.Location
	templates     map[string]map[string]*template.Template
}

// NewTemplateTable compiles every template of cfg
func NewTemplateTable(cfg *TemplatesConfig) (*TemplateTable, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	if _, ok := cfg.Locales[cfg.DefaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q has no templates", cfg.DefaultLocale)
	}

	table := &TemplateTable{
		defaultLocale: cfg.DefaultLocale,
		location:      loc,
		templates:     make(map[string]map[string]*template.Template, len(cfg.Locales)),
	}

	for name, lc := range cfg.Locales {
		funcs := templateFuncs(loc, monday.Locale(lc.MondayLocale), lc.DateFormat)
		compiled := make(map[string]*template.Template, len(lc.Templates))
		for _, key := range TemplateKeys {
			text, ok := lc.Templates[key]
			if !ok {
				return nil, fmt.Errorf("locale %s: missing template %s", name, key)
			}
			tmpl, err := template.New(key).Funcs(funcs).Option("missingkey=error").Parse(text)
			if err != nil {
				return nil, fmt.Errorf("locale %s: parse template %s: %w", name, key, err)
			}
			compiled[key] = tmpl
		}
		table.templates[name] = compiled
	}
	return table, nil
}

// DefaultLocale returns the locale used when a channel has none
func (t *TemplateTable) DefaultLocale() string {
	return t.defaultLocale
}

// Location returns the league time zone
func (t *TemplateTable) Location() *time.Location {
	return t.location
}

// HasLocale reports whether templates exist for locale
func (t *TemplateTable) HasLocale(locale string) bool {
	_, ok := t.templates[locale]
	return ok
}

// Render executes the template key of locale with the event context
func (t *TemplateTable) Render(key, locale string, data domain.EventContext) (string, error) {
	templates, ok := t.templates[locale]
	if !ok {
		templates = t.templates[t.defaultLocale]
	}
	tmpl, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("no template %q", key)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %q: %w", key, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

var emojiNumbers = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

func templateFuncs(loc *time.Location, locale monday.Locale, layout string) template.FuncMap {
	return template.FuncMap{
		"datetime": func(v any) string {
			var t time.Time
			switch x := v.(type) {
			case time.Time:
				t = x
			case *time.Time:
				if x == nil {
					return ""
				}
				t = *x
			default:
				return fmt.Sprint(v)
			}
			return monday.Format(t.In(loc), layout, locale)
		},
		"emojiNum": func(i int) string {
			if i >= 0 && i < len(emojiNumbers) {
				return emojiNumbers[i]
			}
			return fmt.Sprintf("(%d)", i+1)
		},
		"join": strings.Join,
	}
}
