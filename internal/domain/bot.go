package domain

import (
	"time"

	"gorm.io/datatypes"
)

type BotGender string

const (
	BotGenderMale   BotGender = "male"
	BotGenderFemale BotGender = "female"
)

func (g BotGender) Valid() bool {
	return g == BotGenderMale || g == BotGenderFemale
}

type BotStyle string

const (
	BotStyleEastern BotStyle = "eastern"
	BotStyleWestern BotStyle = "western"
)

func (s BotStyle) Valid() bool {
	return s == BotStyleEastern || s == BotStyleWestern
}

// BotSettings is one of the four gender/style combinations a room can use.
type BotSettings struct {
	ID     uint      `gorm:"primaryKey" json:"-"`
	Gender BotGender `gorm:"size:10;not null;uniqueIndex:idx_bot_settings_combo" json:"gender"`
	Style  BotStyle  `gorm:"size:10;not null;uniqueIndex:idx_bot_settings_combo" json:"style"`
}

func (BotSettings) TableName() string { return "bot_settings" }

type PersonalityTraits struct {
	Traits   []string `json:"traits" yaml:"traits"`
	Tone     string   `json:"tone" yaml:"tone"`
	Approach string   `json:"approach" yaml:"approach"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

type BotPersonality struct {
	ID                uint                                 `gorm:"primaryKey" json:"id"`
	Name              string                               `gorm:"size:50;uniqueIndex;not null" json:"name"`
	DisplayName       string                               `gorm:"size:100" json:"displayName"`
	Gender            BotGender                            `gorm:"size:10;not null;index:idx_bot_personalities_combo" json:"gender"`
	Style             BotStyle                             `gorm:"size:10;not null;index:idx_bot_personalities_combo" json:"style"`
	PersonalityTraits datatypes.JSONType[PersonalityTraits] `json:"personalityTraits"`
	SystemPrompt      string                               `gorm:"type:text" json:"systemPrompt"`
	WelcomeMessage    string                               `gorm:"type:text" json:"welcomeMessage"`
	ImageStylePrompt  string                               `gorm:"type:text" json:"imageStylePrompt,omitempty"`
	IsActive          bool                                 `gorm:"not null;default:true" json:"isActive"`
	CreatedAt         time.Time                            `json:"createdAt"`
	UpdatedAt         time.Time                            `json:"updatedAt"`
}
