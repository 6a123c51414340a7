package persona

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-dreamer/internal/domain"
	personarepo "github.com/iyunix/go-dreamer/internal/repository/persona"
	"github.com/iyunix/go-dreamer/internal/repository/repotest"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := LoadDefault()
	require.NoError(t, err)

	assert.Contains(t, c.PromptFor(domain.BotGenderMale, domain.BotStyleEastern), "음양오행")
	assert.Contains(t, c.PromptFor(domain.BotGenderFemale, domain.BotStyleWestern), "꿈 치료사")
	assert.Contains(t, c.WelcomeFor(domain.BotGenderFemale, domain.BotStyleEastern), "💫")
	assert.Contains(t, c.ImageStyleFor(domain.BotStyleEastern), "East Asian")
	assert.Contains(t, c.ImageStyleFor("other"), "surrealist")
	assert.Len(t, c.Settings(), 4)
	assert.Len(t, c.Personalities(), 4)
}

func TestUnknownPairFallsBack(t *testing.T) {
	c := MustLoadDefault()

	assert.Equal(t, c.PromptFor(domain.BotGenderMale, domain.BotStyleEastern), c.PromptFor("robot", "cyber"))
	assert.True(t, strings.HasPrefix(c.WelcomeFor("robot", "cyber"), "안녕하세요! 저는 여러분의 꿈을"))
}

func TestAnalysisPrompt(t *testing.T) {
	c := MustLoadDefault()
	p := c.AnalysisPrompt("하늘을 나는 꿈")
	assert.Contains(t, p, `"하늘을 나는 꿈"`)
	assert.NotContains(t, p, "{dream_content}")
}

func TestOptionsLabels(t *testing.T) {
	opts := MustLoadDefault().Options()
	assert.Equal(t, []Option{{"male", "남성"}, {"female", "여성"}}, opts.Genders)
	assert.Equal(t, []Option{{"eastern", "동양풍"}, {"western", "서양풍"}}, opts.Styles)
}

func TestLoadRejectsIncompleteCatalog(t *testing.T) {
	_, err := Load([]byte(`
analysis_template: "{dream_content}"
personas:
  - name: only
    gender: male
    style: eastern
`))
	assert.ErrorContains(t, err, "missing persona")
}

func TestSeedIsIdempotent(t *testing.T) {
	db := repotest.NewDB(t)
	repo := personarepo.NewPersonaRepository(db)
	c := MustLoadDefault()
	ctx := context.Background()

	require.NoError(t, Seed(ctx, repo, c))
	require.NoError(t, Seed(ctx, repo, c))

	var settings int64
	require.NoError(t, db.Model(&domain.BotSettings{}).Count(&settings).Error)
	assert.EqualValues(t, 4, settings)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	p, err := repo.FindByName(ctx, "female_western")
	require.NoError(t, err)
	assert.Equal(t, "상담심리학 기반의 감정 탐색과 치유", p.PersonalityTraits.Data().Approach)
}
