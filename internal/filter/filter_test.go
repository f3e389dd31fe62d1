package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permahub/permahub/internal/registry"
)

var entries = []registry.Entry{
	{Name: "llama-3-ft", Description: "Fine-tuned Llama 3", ModelType: registry.ModelTypeText,
		Category: "Text Generation", Tags: registry.Tags{"llm", "finetune"}},
	{Name: "sketchgen", Description: "Line-art image model", ModelType: registry.ModelTypeImage,
		Category: "Text-to-Image"},
	{Name: "whisper-tuned", Description: "Speech transcription", ModelType: registry.ModelTypeAudio,
		Tags: registry.Tags{"asr"}},
	{Name: "bare-entry"},
}

func names(filtered []registry.Entry) []string {
	out := make([]string, 0, len(filtered))
	for _, e := range filtered {
		out = append(out, e.Name)
	}
	return out
}

func TestApplyNoCriteriaReturnsAll(t *testing.T) {
	out := Apply(entries, Criteria{})
	assert.Equal(t, names(entries), names(out))

	out = Apply(entries, Criteria{Type: TypeAll})
	assert.Equal(t, names(entries), names(out))
}

func TestApplyQueryMatchesNameDescriptionTags(t *testing.T) {
	assert.Equal(t, []string{"llama-3-ft"}, names(Apply(entries, Criteria{Query: "LLAMA"})))
	assert.Equal(t, []string{"sketchgen"}, names(Apply(entries, Criteria{Query: "line-art"})))
	assert.Equal(t, []string{"whisper-tuned"}, names(Apply(entries, Criteria{Query: "asr"})))
	assert.Empty(t, Apply(entries, Criteria{Query: "nonexistent"}))
}

func TestApplyTypeBuckets(t *testing.T) {
	assert.Equal(t, []string{"llama-3-ft"}, names(Apply(entries, Criteria{Type: TypeText})))
	assert.Equal(t, []string{"sketchgen"}, names(Apply(entries, Criteria{Type: TypeImage})))
	assert.Equal(t, []string{"whisper-tuned"}, names(Apply(entries, Criteria{Type: TypeAudio})))

	// Entries without a modelType never match a non-all bucket.
	for _, out := range [][]registry.Entry{
		Apply(entries, Criteria{Type: TypeText}),
		Apply(entries, Criteria{Type: TypeAudio}),
	} {
		assert.NotContains(t, names(out), "bare-entry")
	}
}

func TestApplyCategory(t *testing.T) {
	assert.Equal(t, []string{"sketchgen"}, names(Apply(entries, Criteria{Category: "Text-to-Image"})))
	assert.Equal(t, []string{"sketchgen"}, names(Apply(entries, Criteria{Category: "text-to-image"})))

	// Agent entries match on their type when no category is set.
	agents := []registry.Entry{
		{Name: "docs-helper", Type: "documentation"},
		{Name: "coder", Type: "coding"},
	}
	assert.Equal(t, []string{"docs-helper"}, names(Apply(agents, Criteria{Category: "documentation"})))
}

func TestApplyCombinedCriteria(t *testing.T) {
	out := Apply(entries, Criteria{Query: "tuned", Type: TypeAudio})
	assert.Equal(t, []string{"whisper-tuned"}, names(out))

	out = Apply(entries, Criteria{Query: "tuned", Type: TypeImage})
	assert.Empty(t, out)
}

func TestApplyIsIdempotentAndOrderPreserving(t *testing.T) {
	once := Apply(entries, Criteria{Query: "e"})
	twice := Apply(once, Criteria{Query: "e"})
	assert.Equal(t, names(once), names(twice))

	// Input order survives filtering.
	require.GreaterOrEqual(t, len(once), 2)
	assert.Equal(t, names(once), names(Apply(entries, Criteria{Query: "E"})))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	before := names(entries)
	_ = Apply(entries, Criteria{Query: "llama", Type: TypeText})
	assert.Equal(t, before, names(entries))
}

func TestApplyNilInput(t *testing.T) {
	assert.Empty(t, Apply(nil, Criteria{Query: "x"}))
}
