package i18n

import (
	"embed"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed *.toml
var messageFiles embed.FS

// Localizer 按语言缓存 go-i18n 的 localizer，未支持的语言回退到 DEFAULT_LANG
type Localizer struct {
	registry map[string]*i18n.Localizer
}

func NewLocalizer(languages ...string) Localizer {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	l := Localizer{
		registry: make(map[string]*i18n.Localizer, len(languages)),
	}
	for _, lang := range languages {
		path := lang + ".toml"
		if _, err := bundle.LoadMessageFileFS(messageFiles, path); err != nil {
			slog.Error("failed to load i18n messages", slog.String("error", err.Error()), slog.String("lang", lang), slog.String("file", path))
			continue
		}
		l.registry[lang] = i18n.NewLocalizer(bundle, lang)
	}
	return l
}

func (l Localizer) Get(lang, id string) string {
	return l.localize(lang, id, nil)
}

// GetWithData 提示语中带有 {{.Key}} 模板参数时使用
func (l Localizer) GetWithData(lang, id string, data map[string]interface{}) string {
	return l.localize(lang, id, data)
}

func (l Localizer) localize(lang, id string, data map[string]interface{}) string {
	localizer := l.registry[lang]
	if localizer == nil {
		if localizer = l.registry[DEFAULT_LANG]; localizer == nil {
			return id
		}
	}

	str, err := localizer.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: id, Other: id},
		TemplateData:   data,
	})
	if err != nil {
		slog.Info("failed to localize message", slog.String("id", id), slog.String("lang", lang), slog.String("error", err.Error()))
		return id
	}
	return str
}
