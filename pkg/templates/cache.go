package templates

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/mudler/LocalSRS/pkg/utils"
)

type TemplateType int

const (
	// SentenceTemplate renders the text side of a card.
	SentenceTemplate TemplateType = iota
	// DeckNameTemplate renders deck names.
	DeckNameTemplate
)

const (
	// DefaultCombinedSentence prefixes each card with its source video, so
	// combined decks stay attributable.
	DefaultCombinedSentence = "[{{.Video}}] {{.Sentence}}"
	// DefaultCombinedDeckName names a deck built from several sources.
	DefaultCombinedDeckName = "Combined_{{.Count}}_videos"
)

// SentenceData feeds SentenceTemplate evaluations.
type SentenceData struct {
	Video    string
	Sentence string
}

// DeckNameData feeds DeckNameTemplate evaluations.
type DeckNameData struct {
	Count  int
	Videos []string
	Preset string
}

// TemplateCache parses once and reuses. A template name resolves to
// <name>.tmpl under the templates path when such a file exists, and is
// otherwise parsed as an inline template string.
type TemplateCache struct {
	mu            sync.Mutex
	templatesPath string
	templates     map[TemplateType]map[string]*template.Template
}

func NewTemplateCache(templatesPath string) *TemplateCache {
	return &TemplateCache{
		templatesPath: templatesPath,
		templates:     make(map[TemplateType]map[string]*template.Template),
	}
}

func (tc *TemplateCache) initializeTemplateMapKey(tt TemplateType) {
	if _, ok := tc.templates[tt]; !ok {
		tc.templates[tt] = make(map[string]*template.Template)
	}
}

func (tc *TemplateCache) EvaluateTemplate(templateType TemplateType, templateName string, in interface{}) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.initializeTemplateMapKey(templateType)
	m, ok := tc.templates[templateType][templateName]
	if !ok {
		if err := tc.loadTemplateIfExists(templateType, templateName); err != nil {
			return "", err
		}
		m = tc.templates[templateType][templateName]
	}
	if m == nil {
		return "", fmt.Errorf("failed loading a template for %s", templateName)
	}

	var buf bytes.Buffer
	if err := m.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (tc *TemplateCache) loadTemplateIfExists(templateType TemplateType, templateName string) error {
	if _, ok := tc.templates[templateType][templateName]; ok {
		return nil
	}

	templateFile := fmt.Sprintf("%s.tmpl", templateName)

	dat := ""
	file := filepath.Join(tc.templatesPath, templateFile)

	// Security check
	if err := utils.VerifyPath(templateFile, tc.templatesPath); err != nil {
		return fmt.Errorf("template file outside path: %s", file)
	}

	if utils.ExistsInPath(tc.templatesPath, templateFile) {
		d, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		dat = string(d)
	} else {
		dat = templateName
	}

	tmpl, err := template.New("template").Funcs(sprig.FuncMap()).Parse(dat)
	if err != nil {
		return err
	}
	tc.templates[templateType][templateName] = tmpl

	return nil
}
