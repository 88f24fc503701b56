package headhunter

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/spigell/hh-scorer/internal/extract"
)

// Resume is a candidate profile extracted from a resume page.
type Resume struct {
	Name       string       `json:"name"`
	GenderAge  string       `json:"gender_age"`
	Location   string       `json:"location"`
	Title      string       `json:"title"`
	Status     string       `json:"status"`
	Experience []Experience `json:"experience"`
	Skills     []string     `json:"skills"`
}

// Experience is a single work experience block.
// Period already carries the duration in parentheses unless it contained it.
type Experience struct {
	Period      string `json:"period"`
	Duration    string `json:"duration"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	Description string `json:"description"`
}

// ParseResume extracts a resume from markup. Missing fields are left empty.
func (p *Parser) ParseResume(r io.Reader) (*Resume, error) {
	doc, err := extract.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}

	return p.resumeFromDocument(doc.Selection), nil
}

func (p *Parser) resumeFromDocument(root *goquery.Selection) *Resume {
	sel := p.selectors().Resume

	return &Resume{
		Name:       extract.Text(root, sel.Name),
		GenderAge:  extract.Text(root, sel.GenderAge),
		Location:   extract.Text(root, sel.Location),
		Title:      extract.Text(root, sel.Title),
		Status:     extract.Text(root, sel.Status),
		Experience: p.experience(root, sel),
		Skills:     extract.All(root, sel.SkillsSection, sel.Skill),
	}
}

func (p *Parser) experience(root *goquery.Selection, sel ResumeSelectors) []Experience {
	entries := make([]Experience, 0)

	extract.Each(root, sel.ExperienceSection, sel.ExperienceItem, func(_ int, item *goquery.Selection) {
		duration := extract.Text(item, sel.Duration)

		entries = append(entries, Experience{
			Period:      composePeriod(extract.Text(item, sel.Period), duration),
			Duration:    duration,
			Company:     extract.Text(item, sel.Company),
			Position:    extract.Text(item, sel.Position),
			Description: p.description(item, sel.Description),
		})
	})

	return entries
}

// composePeriod appends the duration to the period unless the period already
// contains it. An empty duration is always contained.
func composePeriod(period, duration string) string {
	if strings.Contains(period, duration) {
		return period
	}
	return fmt.Sprintf("%s (%s)", period, duration)
}

// Markdown renders the resume as the text block handed to the scorer.
func (r *Resume) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Name)
	fmt.Fprintf(&b, "**%s**\n\n", r.GenderAge)
	fmt.Fprintf(&b, "**Местоположение:** %s\n\n", r.Location)
	fmt.Fprintf(&b, "**Должность:** %s\n\n", r.Title)
	fmt.Fprintf(&b, "**Статус:** %s\n\n", r.Status)

	b.WriteString("## Опыт работы\n\n")
	for _, e := range r.Experience {
		fmt.Fprintf(&b, "**%s**\n\n*%s*\n\n**%s**\n\n%s\n\n", e.Period, e.Company, e.Position, e.Description)
	}

	b.WriteString("## Ключевые навыки\n\n")
	b.WriteString(strings.Join(r.Skills, ", "))
	b.WriteString("\n")

	return strings.TrimSpace(b.String())
}
