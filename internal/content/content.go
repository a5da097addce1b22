// Package content loads the static page copy: profile, skills, timeline,
// projects and contact details.
package content

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"github.com/arnatngaw/portfolio/internal/nav"
)

type Content struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Profile     Profile       `yaml:"profile"`
	Sections    []nav.Section `yaml:"sections"`
	Skills      []SkillGroup  `yaml:"skills"`
	Stats       []Stat        `yaml:"stats"`
	Education   []Entry       `yaml:"education"`
	Experience  []Entry       `yaml:"experience"`
	Projects    []Project     `yaml:"projects"`
	Contact     []ContactItem `yaml:"contact"`
}

type Profile struct {
	Name    string        `yaml:"name"`
	Role    string        `yaml:"role"`
	About   string        `yaml:"about"`
	Links   []SocialLink  `yaml:"links"`
	AboutMD template.HTML `yaml:"-"`
}

type SocialLink struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type SkillGroup struct {
	Category string   `yaml:"category"`
	Skills   []string `yaml:"skills"`
}

type Stat struct {
	Value  int    `yaml:"value"`
	Suffix string `yaml:"suffix"`
	Label  string `yaml:"label"`
}

// Entry is one item on the education or experience timeline.
type Entry struct {
	Period      string   `yaml:"period"`
	Title       string   `yaml:"title"`
	Institution string   `yaml:"institution"`
	Description string   `yaml:"description"`
	Details     []string `yaml:"details"`
}

type Project struct {
	Title        string        `yaml:"title"`
	Description  string        `yaml:"description"`
	Image        string        `yaml:"image"`
	Technologies []string      `yaml:"technologies"`
	GitHub       string        `yaml:"github"`
	Demo         string        `yaml:"demo"`
	HTML         template.HTML `yaml:"-"`
}

type ContactItem struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
	Link  string `yaml:"link"`
}

// Load reads and renders the content file at path.
func Load(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Content, error) {
	var c Content
	err := yaml.Unmarshal(data, &c)
	if err != nil {
		return nil, fmt.Errorf("content: parse: %w", err)
	}
	if len(c.Sections) == 0 {
		c.Sections = nav.DefaultSections
	}
	if _, err := nav.NewRegistry(c.Sections...); err != nil {
		return nil, fmt.Errorf("content: sections: %w", err)
	}

	md := goldmark.New()
	if c.Profile.AboutMD, err = render(md, c.Profile.About); err != nil {
		return nil, fmt.Errorf("content: profile: %w", err)
	}
	for i := range c.Projects {
		p := &c.Projects[i]
		if p.HTML, err = render(md, p.Description); err != nil {
			return nil, fmt.Errorf("content: project %q: %w", p.Title, err)
		}
	}
	return &c, nil
}

// Registry returns the navigation registry for the configured sections.
func (c *Content) Registry() *nav.Registry {
	return nav.MustRegistry(c.Sections...)
}

func render(md goldmark.Markdown, src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
