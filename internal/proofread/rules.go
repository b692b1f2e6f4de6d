package proofread

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// RulesVersion is the rules document version this build understands.
const RulesVersion = 1

//go:embed rules.yaml
var defaultRulesYAML []byte

// Section is a required chapter section.
type Section struct {
	Label  string `yaml:"label"`
	Marker string `yaml:"marker"`
}

type StructureRules struct {
	RequiredSections []Section `yaml:"required_sections"`
	QuizPattern      string    `yaml:"quiz_pattern"`
	MinQuizItems     int       `yaml:"min_quiz_items"`
}

type CodeRules struct {
	Language       string   `yaml:"language"`
	CommentMarkers []string `yaml:"comment_markers"`
	ImportMarkers  []string `yaml:"import_markers"`
	LibraryCalls   []string `yaml:"library_calls"`
	MaxLines       int      `yaml:"max_lines"`
	CheckSyntax    bool     `yaml:"check_syntax"`
}

type ImageRules struct {
	RemotePrefix    string   `yaml:"remote_prefix"`
	VerifyPDF       bool     `yaml:"verify_pdf"`
	MermaidLanguage string   `yaml:"mermaid_language"`
	MermaidKeywords []string `yaml:"mermaid_keywords"`
}

type StyleRules struct {
	MaxParagraphLines int      `yaml:"max_paragraph_lines"`
	SkipPrefixes      []string `yaml:"skip_prefixes"`
	AcademicPhrases   []string `yaml:"academic_phrases"`
}

// Rules holds the tables every check reads. Build one with ParseRules,
// LoadRules or DefaultRules; the zero value is not usable.
type Rules struct {
	Version   int            `yaml:"version"`
	Structure StructureRules `yaml:"structure"`
	Code      CodeRules      `yaml:"code"`
	Images    ImageRules     `yaml:"images"`
	Style     StyleRules     `yaml:"style"`

	quiz     *regexp.Regexp
	sections []*regexp.Regexp
}

// DefaultRules returns the embedded rule set.
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded rules: %v", err))
	}
	return r
}

// LoadRules reads a rules document from path.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	r, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return r, nil
}

// ParseRules decodes, validates and compiles a rules document.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the rule tables for values no check can work with.
func (r *Rules) Validate() error {
	var errs []error
	if r.Version != RulesVersion {
		errs = append(errs, fmt.Errorf("unsupported rules version %d (want %d)", r.Version, RulesVersion))
	}
	for i, s := range r.Structure.RequiredSections {
		if s.Marker == "" {
			errs = append(errs, fmt.Errorf("structure.required_sections[%d]: marker is empty", i))
		}
	}
	if r.Structure.MinQuizItems < 0 {
		errs = append(errs, errors.New("structure.min_quiz_items must be >= 0"))
	}
	if r.Code.Language == "" {
		errs = append(errs, errors.New("code.language is required"))
	}
	if r.Code.MaxLines < 1 {
		errs = append(errs, errors.New("code.max_lines must be >= 1"))
	}
	if r.Images.MermaidLanguage == "" {
		errs = append(errs, errors.New("images.mermaid_language is required"))
	}
	if r.Style.MaxParagraphLines < 1 {
		errs = append(errs, errors.New("style.max_paragraph_lines must be >= 1"))
	}
	return errors.Join(errs...)
}

func (r *Rules) compile() error {
	pattern := r.Structure.QuizPattern
	if pattern == "" {
		pattern = `^\d+\.\s+`
	}
	quiz, err := regexp.Compile("(?m)" + pattern)
	if err != nil {
		return fmt.Errorf("structure.quiz_pattern: %w", err)
	}
	r.quiz = quiz

	r.sections = make([]*regexp.Regexp, len(r.Structure.RequiredSections))
	for i, s := range r.Structure.RequiredSections {
		re, err := regexp.Compile(`(?m)^` + regexp.QuoteMeta(s.Marker) + `[ \t]*\r?$`)
		if err != nil {
			return fmt.Errorf("compile section marker %q: %w", s.Marker, err)
		}
		r.sections[i] = re
	}
	return nil
}

// Marshal encodes the rule tables as YAML.
func (r *Rules) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}
