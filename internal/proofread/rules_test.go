package proofread

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()

	require.Len(t, r.Structure.RequiredSections, 6)
	assert.Equal(t, "## 本章导读", r.Structure.RequiredSections[0].Marker)
	assert.Equal(t, "## 参考答案", r.Structure.RequiredSections[5].Marker)
	assert.Equal(t, 5, r.Structure.MinQuizItems)
	assert.Equal(t, "python", r.Code.Language)
	assert.Equal(t, []string{"#", `"""`}, r.Code.CommentMarkers)
	assert.Equal(t, []string{"np.", "pd.", "plt.", "torch."}, r.Code.LibraryCalls)
	assert.Equal(t, 50, r.Code.MaxLines)
	assert.Equal(t, "http", r.Images.RemotePrefix)
	assert.Equal(t, []string{"flowchart", "sequenceDiagram", "graph"}, r.Images.MermaidKeywords)
	assert.Equal(t, 5, r.Style.MaxParagraphLines)
	assert.Equal(t, []string{"```", "-", "|"}, r.Style.SkipPrefixes)
	assert.Equal(t, []string{"基于", "进行", "实现了", "具有较高的"}, r.Style.AcademicPhrases)
}

func TestRules_RoundTrip(t *testing.T) {
	orig := DefaultRules()
	data, err := orig.Marshal()
	require.NoError(t, err)

	back, err := ParseRules(data)
	require.NoError(t, err)

	if diff := cmp.Diff(orig, back, cmpopts.IgnoreUnexported(Rules{})); diff != "" {
		t.Errorf("rules changed after round trip (-want +got):\n%s", diff)
	}
}

func TestLoadRules_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := `version: 1
structure:
  required_sections:
    - label: 导读
      marker: "## 导读"
  min_quiz_items: 0
code:
  language: py
  max_lines: 10
images:
  mermaid_language: mermaid
style:
  max_paragraph_lines: 3
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, "py", r.Code.Language)
	assert.Equal(t, 10, r.Code.MaxLines)
	require.NotNil(t, r.quiz, "default quiz pattern should be compiled")
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "version: [1"},
		{"wrong version", "version: 2\ncode: {language: python, max_lines: 50}\nimages: {mermaid_language: mermaid}\nstyle: {max_paragraph_lines: 5}\n"},
		{"zero max lines", "version: 1\ncode: {language: python, max_lines: 0}\nimages: {mermaid_language: mermaid}\nstyle: {max_paragraph_lines: 5}\n"},
		{"bad quiz regex", "version: 1\nstructure: {quiz_pattern: '('}\ncode: {language: python, max_lines: 50}\nimages: {mermaid_language: mermaid}\nstyle: {max_paragraph_lines: 5}\n"},
		{"empty marker", "version: 1\nstructure: {required_sections: [{label: x}]}\ncode: {language: python, max_lines: 50}\nimages: {mermaid_language: mermaid}\nstyle: {max_paragraph_lines: 5}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules_Missing(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseRules_MarkerIsLiteral(t *testing.T) {
	doc := `version: 1
structure:
  required_sections:
    - label: 进阶
      marker: "## C++ (进阶) [*]"
code:
  language: python
  max_lines: 50
images:
  mermaid_language: mermaid
style:
  max_paragraph_lines: 5
`
	r, err := ParseRules([]byte(doc))
	require.NoError(t, err)
	require.Len(t, r.sections, 1)

	assert.True(t, r.sections[0].MatchString("前言\n## C++ (进阶) [*]  \n正文"))
	assert.True(t, r.sections[0].MatchString("## C++ (进阶) [*]\r\n"))
	assert.False(t, r.sections[0].MatchString("## CC (进阶) *\n"), "metacharacters must not act as regex operators")
	assert.False(t, r.sections[0].MatchString("## C++ (进阶) [*] 续\n"), "marker must end the line")
}
