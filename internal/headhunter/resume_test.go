package headhunter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumePage = `<html><body>
<h2 data-qa="bloko-header-1">Иван Петров</h2>
<p>Мужчина, 30 лет</p>
<p>second paragraph</p>
<span data-qa="resume-personal-address">Москва</span>
<span data-qa="resume-block-title-position">Go Developer</span>
<span data-qa="job-search-status">Активно ищет работу</span>
<div data-qa="resume-block-experience">
  <div class="resume-block-item-gap">
    <div class="bloko-column bloko-column_s-2">Jan 2020 – Mar 2023 3 years</div>
    <div class="bloko-text">3 years</div>
    <div class="bloko-text_strong">Acme</div>
    <div data-qa="resume-block-experience-position">Backend Engineer</div>
    <div data-qa="resume-block-experience-description">APIs</div>
  </div>
  <div class="resume-block-item-gap">
    <div class="bloko-column_s-2">Apr 2023 – now</div>
    <div class="bloko-text">1 year</div>
    <div class="bloko-text_strong">Globex</div>
    <div data-qa="resume-block-experience-position">Lead</div>
    <div data-qa="resume-block-experience-description">Team</div>
  </div>
</div>
<div data-qa="skills-table">
  <span data-qa="bloko-tag__text">Go</span>
  <span data-qa="bloko-tag__text">Kubernetes</span>
</div>
<span data-qa="bloko-tag__text">outside</span>
</body></html>`

func TestParseResume(t *testing.T) {
	r, err := NewParser().ParseResume(strings.NewReader(resumePage))
	require.NoError(t, err)

	assert.Equal(t, "Иван Петров", r.Name)
	assert.Equal(t, "Мужчина, 30 лет", r.GenderAge)
	assert.Equal(t, "Москва", r.Location)
	assert.Equal(t, "Go Developer", r.Title)
	assert.Equal(t, "Активно ищет работу", r.Status)
	assert.Equal(t, []string{"Go", "Kubernetes"}, r.Skills)

	require.Len(t, r.Experience, 2)
	assert.Equal(t, Experience{
		Period:      "Jan 2020 – Mar 2023 3 years",
		Duration:    "3 years",
		Company:     "Acme",
		Position:    "Backend Engineer",
		Description: "APIs",
	}, r.Experience[0])
	assert.Equal(t, "Apr 2023 – now (1 year)", r.Experience[1].Period)
	assert.Equal(t, "Globex", r.Experience[1].Company)
}

func TestParseResumeMissingSections(t *testing.T) {
	r, err := NewParser().ParseResume(strings.NewReader(`<h2 data-qa="bloko-header-1">Anna</h2>`))
	require.NoError(t, err)

	assert.Equal(t, "Anna", r.Name)
	assert.Empty(t, r.GenderAge)
	assert.NotNil(t, r.Experience)
	assert.Empty(t, r.Experience)
	assert.NotNil(t, r.Skills)
	assert.Empty(t, r.Skills)
}

func TestParseResumeExperienceItemMissingFields(t *testing.T) {
	page := `<div data-qa="resume-block-experience"><div class="resume-block-item-gap"></div></div>`

	r, err := NewParser().ParseResume(strings.NewReader(page))
	require.NoError(t, err)

	require.Len(t, r.Experience, 1)
	assert.Equal(t, Experience{}, r.Experience[0])
}

func TestComposePeriod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		period   string
		duration string
		want     string
	}{
		{name: "appends duration", period: "Jan 2020 – Mar 2023", duration: "3 years", want: "Jan 2020 – Mar 2023 (3 years)"},
		{name: "already contained", period: "Jan 2020 – Mar 2023 3 years", duration: "3 years", want: "Jan 2020 – Mar 2023 3 years"},
		{name: "identical values", period: "Jan 2020 – Mar 2023", duration: "Jan 2020 – Mar 2023", want: "Jan 2020 – Mar 2023"},
		{name: "empty duration", period: "Jan 2020 – Mar 2023", duration: "", want: "Jan 2020 – Mar 2023"},
		{name: "empty period", period: "", duration: "2 years", want: " (2 years)"},
		{name: "both empty", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, composePeriod(tt.period, tt.duration))
		})
	}
}

func TestResumeMarkdown(t *testing.T) {
	r := &Resume{
		Name:      "Иван",
		GenderAge: "Мужчина, 30 лет",
		Location:  "Москва",
		Title:     "Go Developer",
		Status:    "Ищет",
		Experience: []Experience{
			{Period: "2020 – 2023 (3 years)", Company: "Acme", Position: "Engineer", Description: "APIs"},
		},
		Skills: []string{"Go", "SQL"},
	}

	want := "# Иван\n\n" +
		"**Мужчина, 30 лет**\n\n" +
		"**Местоположение:** Москва\n\n" +
		"**Должность:** Go Developer\n\n" +
		"**Статус:** Ищет\n\n" +
		"## Опыт работы\n\n" +
		"**2020 – 2023 (3 years)**\n\n*Acme*\n\n**Engineer**\n\nAPIs\n\n" +
		"## Ключевые навыки\n\nGo, SQL"

	assert.Equal(t, want, r.Markdown())
}

func TestResumeMarkdownEmptySkills(t *testing.T) {
	r := &Resume{Name: "Anna"}

	md := r.Markdown()
	assert.True(t, strings.HasSuffix(md, "## Ключевые навыки"), md)
	assert.Equal(t, md, r.Markdown())
}
