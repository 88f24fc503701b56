package headhunter

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/hh-scorer/internal/extract"
)

// Selectors holds the field specs for both page kinds.
type Selectors struct {
	Vacancy VacancySelectors `mapstructure:"vacancy"`
	Resume  ResumeSelectors  `mapstructure:"resume"`
}

type VacancySelectors struct {
	Title          extract.FieldSpec `mapstructure:"title"`
	Salary         extract.FieldSpec `mapstructure:"salary"`
	Experience     extract.FieldSpec `mapstructure:"experience"`
	EmploymentMode extract.FieldSpec `mapstructure:"employment-mode"`
	Company        extract.FieldSpec `mapstructure:"company"`
	Location       extract.FieldSpec `mapstructure:"location"`
	Description    extract.FieldSpec `mapstructure:"description"`
	// SkillsSection is empty by default: skill tags are collected from the whole page.
	SkillsSection extract.FieldSpec `mapstructure:"skills-section"`
	Skill         extract.FieldSpec `mapstructure:"skill"`
}

type ResumeSelectors struct {
	Name      extract.FieldSpec `mapstructure:"name"`
	GenderAge extract.FieldSpec `mapstructure:"gender-age"`
	Location  extract.FieldSpec `mapstructure:"location"`
	Title     extract.FieldSpec `mapstructure:"title"`
	Status    extract.FieldSpec `mapstructure:"status"`

	ExperienceSection extract.FieldSpec `mapstructure:"experience-section"`
	ExperienceItem    extract.FieldSpec `mapstructure:"experience-item"`
	// The following are looked up inside each experience item.
	Period      extract.FieldSpec `mapstructure:"period"`
	Duration    extract.FieldSpec `mapstructure:"duration"`
	Company     extract.FieldSpec `mapstructure:"company"`
	Position    extract.FieldSpec `mapstructure:"position"`
	Description extract.FieldSpec `mapstructure:"description"`

	SkillsSection extract.FieldSpec `mapstructure:"skills-section"`
	Skill         extract.FieldSpec `mapstructure:"skill"`
}

// DefaultSelectors returns the specs matching the current hh.ru markup.
func DefaultSelectors() *Selectors {
	return &Selectors{
		Vacancy: VacancySelectors{
			Title:          extract.Field("h1", "data-qa", "vacancy-title"),
			Salary:         extract.Field("span", "data-qa", "vacancy-salary-compensation-type-net"),
			Experience:     extract.Field("span", "data-qa", "vacancy-experience"),
			EmploymentMode: extract.Field("p", "data-qa", "vacancy-view-employment-mode"),
			Company:        extract.Field("a", "data-qa", "vacancy-company-name"),
			Location:       extract.Field("p", "data-qa", "vacancy-view-location"),
			Description:    extract.Field("div", "data-qa", "vacancy-description"),
			Skill:          extract.Field("div", "class", "magritte-tag__label___YHV-o_3-0-3"),
		},
		Resume: ResumeSelectors{
			Name:      extract.Field("h2", "data-qa", "bloko-header-1"),
			GenderAge: extract.FieldSpec{Tag: "p"},
			Location:  extract.Field("span", "data-qa", "resume-personal-address"),
			Title:     extract.Field("span", "data-qa", "resume-block-title-position"),
			Status:    extract.Field("span", "data-qa", "job-search-status"),

			ExperienceSection: extract.Field("div", "data-qa", "resume-block-experience"),
			ExperienceItem:    extract.Field("div", "class", "resume-block-item-gap"),
			Period:            extract.Field("div", "class", "bloko-column_s-2"),
			Duration:          extract.Field("div", "class", "bloko-text"),
			Company:           extract.Field("div", "class", "bloko-text_strong"),
			Position:          extract.Field("div", "data-qa", "resume-block-experience-position"),
			Description:       extract.Field("div", "data-qa", "resume-block-experience-description"),

			SkillsSection: extract.Field("div", "data-qa", "skills-table"),
			Skill:         extract.Field("span", "data-qa", "bloko-tag__text"),
		},
	}
}

// DecodeSelectors applies overrides from a raw config map on top of the defaults.
// Only the mentioned specs change; unknown keys are rejected.
func DecodeSelectors(raw map[string]any) (*Selectors, error) {
	selectors := DefaultSelectors()
	if len(raw) == 0 {
		return selectors, nil
	}

	cfg := &mapstructure.DecoderConfig{
		Result:      selectors,
		TagName:     "mapstructure",
		ErrorUnused: true,
		// Attribute maps are replaced, not merged.
		ZeroFields: true,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode selectors: %w", err)
	}

	return selectors, nil
}
