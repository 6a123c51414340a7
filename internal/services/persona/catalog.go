// Package persona loads the dream-interpreter personas and seeds them into the database.
package persona

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/iyunix/go-dreamer/internal/domain"
)

//go:embed personas.yaml
var defaultCatalog []byte

type Persona struct {
	Name               string                   `yaml:"name"`
	DisplayName        string                   `yaml:"display_name"`
	Gender             domain.BotGender         `yaml:"gender"`
	Style              domain.BotStyle          `yaml:"style"`
	Traits             domain.PersonalityTraits `yaml:"traits"`
	SystemPrompt       string                   `yaml:"system_prompt"`
	WelcomeMessage     string                   `yaml:"welcome_message"`
	WelcomeImagePrompt string                   `yaml:"welcome_image_prompt"`
}

type styleSpec struct {
	Label            string `yaml:"label"`
	ImageStylePrompt string `yaml:"image_style_prompt"`
	VideoVisualStyle string `yaml:"video_visual_style"`
}

type catalogFile struct {
	AnalysisTemplate string `yaml:"analysis_template"`
	Fallback         struct {
		WelcomeMessage     string `yaml:"welcome_message"`
		WelcomeImagePrompt string `yaml:"welcome_image_prompt"`
	} `yaml:"fallback"`
	Styles   map[domain.BotStyle]styleSpec   `yaml:"styles"`
	Genders  map[domain.BotGender]string     `yaml:"genders"`
	Personas []Persona                       `yaml:"personas"`
}

type key struct {
	gender domain.BotGender
	style  domain.BotStyle
}

// Option is a selectable value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Options struct {
	Genders []Option `json:"genders"`
	Styles  []Option `json:"styles"`
}

// Catalog is the read-only persona set. Safe for concurrent use.
type Catalog struct {
	file     catalogFile
	personas map[key]Persona
}

// Load decodes a catalog and checks that every gender/style pair has a persona.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode personas: %w", err)
	}
	if !strings.Contains(f.AnalysisTemplate, "{dream_content}") {
		return nil, fmt.Errorf("analysis_template must contain {dream_content}")
	}

	c := &Catalog{file: f, personas: make(map[key]Persona, len(f.Personas))}
	for _, p := range f.Personas {
		if !p.Gender.Valid() || !p.Style.Valid() {
			return nil, fmt.Errorf("persona %q has invalid gender/style %s/%s", p.Name, p.Gender, p.Style)
		}
		k := key{p.Gender, p.Style}
		if _, dup := c.personas[k]; dup {
			return nil, fmt.Errorf("duplicate persona for %s/%s", p.Gender, p.Style)
		}
		c.personas[k] = p
	}
	for _, g := range []domain.BotGender{domain.BotGenderMale, domain.BotGenderFemale} {
		for _, s := range []domain.BotStyle{domain.BotStyleEastern, domain.BotStyleWestern} {
			if _, ok := c.personas[key{g, s}]; !ok {
				return nil, fmt.Errorf("missing persona for %s/%s", g, s)
			}
		}
	}
	return c, nil
}

// LoadDefault returns the embedded catalog.
func LoadDefault() (*Catalog, error) {
	return Load(defaultCatalog)
}

// MustLoadDefault panics if the embedded catalog is broken.
func MustLoadDefault() *Catalog {
	c, err := LoadDefault()
	if err != nil {
		panic(err)
	}
	return c
}

// Default is the settings a new room gets.
func Default() domain.BotSettings {
	return domain.BotSettings{Gender: domain.BotGenderFemale, Style: domain.BotStyleEastern}
}

// Fallback is used when a requested pair is unknown or missing.
func Fallback() domain.BotSettings {
	return domain.BotSettings{Gender: domain.BotGenderMale, Style: domain.BotStyleEastern}
}

// Get returns the persona for the pair, falling back to male/eastern.
func (c *Catalog) Get(gender domain.BotGender, style domain.BotStyle) Persona {
	if p, ok := c.personas[key{gender, style}]; ok {
		return p
	}
	fb := Fallback()
	return c.personas[key{fb.Gender, fb.Style}]
}

func (c *Catalog) PromptFor(gender domain.BotGender, style domain.BotStyle) string {
	return c.Get(gender, style).SystemPrompt
}

// WelcomeFor returns the persona greeting; unknown pairs get the generic greeting.
func (c *Catalog) WelcomeFor(gender domain.BotGender, style domain.BotStyle) string {
	if p, ok := c.personas[key{gender, style}]; ok {
		return p.WelcomeMessage
	}
	return c.file.Fallback.WelcomeMessage
}

func (c *Catalog) WelcomeImagePromptFor(gender domain.BotGender, style domain.BotStyle) string {
	if p, ok := c.personas[key{gender, style}]; ok && p.WelcomeImagePrompt != "" {
		return p.WelcomeImagePrompt
	}
	return c.file.Fallback.WelcomeImagePrompt
}

// ImageStyleFor depends on the style only; anything but eastern is drawn western.
func (c *Catalog) ImageStyleFor(style domain.BotStyle) string {
	if style == domain.BotStyleEastern {
		return c.file.Styles[domain.BotStyleEastern].ImageStylePrompt
	}
	return c.file.Styles[domain.BotStyleWestern].ImageStylePrompt
}

func (c *Catalog) VideoStyleFor(style domain.BotStyle) string {
	if style == domain.BotStyleEastern {
		return c.file.Styles[domain.BotStyleEastern].VideoVisualStyle
	}
	return c.file.Styles[domain.BotStyleWestern].VideoVisualStyle
}

// AnalysisPrompt fills the user-turn template with the dream text.
func (c *Catalog) AnalysisPrompt(dream string) string {
	return strings.ReplaceAll(c.file.AnalysisTemplate, "{dream_content}", dream)
}

func (c *Catalog) Options() Options {
	return Options{
		Genders: []Option{
			{Value: string(domain.BotGenderMale), Label: c.file.Genders[domain.BotGenderMale]},
			{Value: string(domain.BotGenderFemale), Label: c.file.Genders[domain.BotGenderFemale]},
		},
		Styles: []Option{
			{Value: string(domain.BotStyleEastern), Label: c.file.Styles[domain.BotStyleEastern].Label},
			{Value: string(domain.BotStyleWestern), Label: c.file.Styles[domain.BotStyleWestern].Label},
		},
	}
}

// Settings lists the four combinations in a stable order.
func (c *Catalog) Settings() []domain.BotSettings {
	out := make([]domain.BotSettings, 0, len(c.personas))
	for k := range c.personas {
		out = append(out, domain.BotSettings{Gender: k.gender, Style: k.style})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Gender != out[j].Gender {
			return out[i].Gender > out[j].Gender
		}
		return out[i].Style < out[j].Style
	})
	return out
}

// Personalities converts the catalog into rows for bot_personalities.
func (c *Catalog) Personalities() []domain.BotPersonality {
	out := make([]domain.BotPersonality, 0, len(c.file.Personas))
	for _, p := range c.file.Personas {
		out = append(out, domain.BotPersonality{
			Name:              p.Name,
			DisplayName:       p.DisplayName,
			Gender:            p.Gender,
			Style:             p.Style,
			PersonalityTraits: datatypes.NewJSONType(p.Traits),
			SystemPrompt:      strings.TrimSpace(p.SystemPrompt),
			WelcomeMessage:    p.WelcomeMessage,
			ImageStylePrompt:  c.ImageStyleFor(p.Style),
			IsActive:          true,
		})
	}
	return out
}
