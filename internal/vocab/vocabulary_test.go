package vocab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVocabulary() Vocabulary {
	return Vocabulary{Sections: []Section{
		{Name: "System", Categories: []Category{
			{Key: "system.domain", Description: "Domain", Values: []string{"experimental", "computational"}},
			{Key: "system.technique", Values: []string{}},
		}},
		{Name: "Context", Categories: []Category{
			{Key: "context.environment", Description: "Env", Values: []string{"in_situ"}},
		}},
	}}
}

func TestVocabularyJSON_PreservesOrder(t *testing.T) {
	v := sampleVocabulary()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t,
		`{"System":{"system.domain":{"description":"Domain","values":["experimental","computational"]},`+
			`"system.technique":{"description":"","values":[]}},`+
			`"Context":{"context.environment":{"description":"Env","values":["in_situ"]}}}`,
		string(data))

	var decoded Vocabulary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{"System", "Context"}, decoded.SectionNames())
	sys, ok := decoded.Section("System")
	require.True(t, ok)
	assert.Equal(t, []string{"system.domain", "system.technique"}, sys.Keys())
}

func TestVocabularyJSON_NullValuesBecomeEmpty(t *testing.T) {
	var v Vocabulary
	require.NoError(t, json.Unmarshal([]byte(`{"S":{"s.k":{"description":"d"}}}`), &v))

	sec, ok := v.Section("S")
	require.True(t, ok)
	cat, ok := sec.Category("s.k")
	require.True(t, ok)
	assert.NotNil(t, cat.Values)
	assert.Empty(t, cat.Values)
}

func TestVocabularyJSON_RejectsNonObject(t *testing.T) {
	var v Vocabulary
	assert.Error(t, json.Unmarshal([]byte(`["System"]`), &v))
}

func TestVocabularyClone_IsDeep(t *testing.T) {
	v := sampleVocabulary()
	c := v.Clone()

	sec, _ := c.Section("System")
	cat, _ := sec.Category("system.domain")
	cat.Values = append(cat.Values, "hybrid")
	cat.Values[0] = "mutated"

	orig, _ := v.Section("System")
	origCat, _ := orig.Category("system.domain")
	assert.Equal(t, []string{"experimental", "computational"}, origCat.Values)
}

func TestVocabulary_EnsureSection(t *testing.T) {
	var v Vocabulary
	s := v.EnsureSection("Sample")
	s.Categories = append(s.Categories, Category{Key: "sample.form"})

	again := v.EnsureSection("Sample")
	assert.Len(t, v.Sections, 1)
	assert.Equal(t, []string{"sample.form"}, again.Keys())
}

func TestVocabulary_OrderSections(t *testing.T) {
	v := Vocabulary{Sections: []Section{{Name: "Zeta"}, {Name: "System"}, {Name: "Alpha"}, {Name: "Record Info"}}}
	v.OrderSections([]string{"Record Info", "Sample", "System"})

	assert.Equal(t, []string{"Record Info", "System", "Alpha", "Zeta"}, v.SectionNames())
}

func TestVocabulary_Counts(t *testing.T) {
	v := sampleVocabulary()
	assert.Equal(t, 3, v.CategoryCount())
	assert.False(t, v.IsEmpty())
	assert.True(t, Vocabulary{Sections: []Section{{Name: "Empty"}}}.IsEmpty())
}

func TestSection_SortedCategories(t *testing.T) {
	s := Section{Categories: []Category{{Key: "b"}, {Key: "a"}, {Key: "c"}}}
	sorted := s.SortedCategories()

	assert.Equal(t, "a", sorted[0].Key)
	assert.Equal(t, "c", sorted[2].Key)
	assert.Equal(t, "b", s.Categories[0].Key, "original order untouched")
}

func TestCategory_Segments(t *testing.T) {
	assert.Equal(t, []string{"measurement", "series", "channels", "role"},
		Category{Key: "measurement.series.channels.role"}.Segments())
	assert.Nil(t, Category{}.Segments())
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("approve")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, d)

	d, err = ParseDecision("rejected")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, d)

	_, err = ParseDecision("pending")
	assert.Error(t, err)
}

func TestProposalFilter_Matches(t *testing.T) {
	p := Proposal{Status: StatusPending, ProposedBy: "ada"}

	assert.True(t, ProposalFilter{}.Matches(p))
	assert.True(t, ProposalFilter{Status: StatusPending, ProposedBy: "ada"}.Matches(p))
	assert.False(t, ProposalFilter{Status: StatusApproved}.Matches(p))
	assert.False(t, ProposalFilter{ProposedBy: "grace"}.Matches(p))
}

func TestErrors_Classification(t *testing.T) {
	err := &SourceUnavailableError{Op: "clone", Err: assert.AnError}
	assert.True(t, IsSourceUnavailable(err))
	assert.Contains(t, err.Error(), "clone")
	assert.ErrorIs(t, err, assert.AnError)

	rv := Rulef("Term '%s' already exists", "x")
	assert.True(t, IsRuleViolation(rv))
	assert.Equal(t, "Term 'x' already exists", rv.Error())
	assert.False(t, IsRuleViolation(assert.AnError))
}

func TestVocabulary_Validate(t *testing.T) {
	require.NoError(t, sampleVocabulary().Validate())

	bad := []Vocabulary{
		{Sections: []Section{{Name: ""}}},
		{Sections: []Section{{Name: "A"}, {Name: "A"}}},
		{Sections: []Section{{Name: "A", Categories: []Category{{Key: ""}}}}},
		{Sections: []Section{{Name: "A", Categories: []Category{{Key: "a.b"}, {Key: "a.b"}}}}},
	}
	for _, v := range bad {
		assert.Error(t, v.Validate())
	}
}
