package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractField_ScansFromOpenTag(t *testing.T) {
	// A stray close tag before the real open tag must not confuse the scan.
	s := "</title>noise<title>hello</title>"
	assert.Equal(t, "hello", ExtractField(s, "title"))
}

func TestExtractField_Missing(t *testing.T) {
	assert.Equal(t, "", ExtractField("<a>x</a>", "b"))
}

func TestEscapeText_EscapesAngleAndAmp(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; c", EscapeText("a <b> & c"))
}

func TestEscapeAttr_EscapesQuote(t *testing.T) {
	assert.Equal(t, "a &quot;b&quot;", EscapeAttr(`a "b"`))
}

func TestExtractArray(t *testing.T) {
	s := "<facts><fact>one</fact><fact>two</fact></facts>"
	assert.Equal(t, []string{"one", "two"}, ExtractArray(s, "facts", "fact"))
}

func TestParseObservations_UnknownTypeCollapsesToDiscovery(t *testing.T) {
	s := "<observation><type>mystery</type><title>T</title></observation>"
	obs := ParseObservations(s)
	if assert.Len(t, obs, 1) {
		assert.Equal(t, "discovery", obs[0].Type)
	}
}

func TestParseObservations_ConceptsExcludeOwnType(t *testing.T) {
	s := "<observation><type>bugfix</type>" +
		"<concepts><concept>bugfix</concept><concept>auth</concept></concepts>" +
		"</observation>"
	obs := ParseObservations(s)
	if assert.Len(t, obs, 1) {
		assert.Equal(t, []string{"auth"}, obs[0].Concepts)
	}
}

func TestParseSummary_SkipMarker(t *testing.T) {
	s := ParseSummary("nothing to say <skip_summary/>")
	assert.True(t, s.SkipRequested)
}

func TestParseSummary_Fields(t *testing.T) {
	s := ParseSummary("<summary><request>R</request><completed>C</completed></summary>")
	assert.False(t, s.SkipRequested)
	assert.Equal(t, "R", s.Request)
	assert.Equal(t, "C", s.Completed)
}
