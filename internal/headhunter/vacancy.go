package headhunter

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/spigell/hh-scorer/internal/extract"
)

// Vacancy is a job posting extracted from a vacancy page.
type Vacancy struct {
	Title          string   `json:"title"`
	Salary         string   `json:"salary"`
	Experience     string   `json:"experience"`
	EmploymentMode string   `json:"employment_mode"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Description    string   `json:"description"`
	Skills         []string `json:"skills"`
}

// Parser turns page markup into records.
type Parser struct {
	Selectors *Selectors
	// MarkdownDescriptions keeps description formatting by converting it to Markdown.
	MarkdownDescriptions bool
}

// NewParser returns a parser with the default selectors.
func NewParser() *Parser {
	return &Parser{Selectors: DefaultSelectors()}
}

func (p *Parser) selectors() *Selectors {
	if p == nil || p.Selectors == nil {
		return DefaultSelectors()
	}
	return p.Selectors
}

func (p *Parser) description(root *goquery.Selection, spec extract.FieldSpec) string {
	if p != nil && p.MarkdownDescriptions {
		return extract.Markdown(root, spec)
	}
	return extract.Text(root, spec)
}

// ParseVacancy extracts a vacancy from markup. Missing fields are left empty.
func (p *Parser) ParseVacancy(r io.Reader) (*Vacancy, error) {
	doc, err := extract.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("vacancy: %w", err)
	}

	return p.vacancyFromDocument(doc.Selection), nil
}

func (p *Parser) vacancyFromDocument(root *goquery.Selection) *Vacancy {
	sel := p.selectors().Vacancy

	return &Vacancy{
		Title:          extract.Text(root, sel.Title),
		Salary:         extract.Text(root, sel.Salary),
		Experience:     extract.Text(root, sel.Experience),
		EmploymentMode: extract.Text(root, sel.EmploymentMode),
		Company:        extract.Text(root, sel.Company),
		Location:       extract.Text(root, sel.Location),
		Description:    p.description(root, sel.Description),
		Skills:         extract.All(root, sel.SkillsSection, sel.Skill),
	}
}

// Markdown renders the vacancy as the text block handed to the scorer.
// An empty skill list still produces a single empty bullet.
func (v *Vacancy) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n# %s\n\n", v.Title)
	fmt.Fprintf(&b, "**Компания:** %s  \n", v.Company)
	fmt.Fprintf(&b, "**Зарплата:** %s  \n", v.Salary)
	fmt.Fprintf(&b, "**Опыт работы:** %s  \n", v.Experience)
	fmt.Fprintf(&b, "**Тип занятости и режим работы:** %s  \n", v.EmploymentMode)
	fmt.Fprintf(&b, "**Местоположение:** %s\n\n", v.Location)
	fmt.Fprintf(&b, "## Описание вакансии\n%s\n\n", v.Description)
	fmt.Fprintf(&b, "## Ключевые навыки\n- %s\n", strings.Join(v.Skills, "\n- "))

	return strings.TrimSpace(b.String())
}
