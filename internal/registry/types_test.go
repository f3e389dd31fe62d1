package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagsAcceptBothWireShapes(t *testing.T) {
	var fromString Entry
	require.NoError(t, json.Unmarshal([]byte(`{"name":"m","tags":"llm, finetune ,"}`), &fromString))
	assert.Equal(t, Tags{"llm", "finetune"}, fromString.Tags)

	var fromList Entry
	require.NoError(t, json.Unmarshal([]byte(`{"name":"d","tags":["web","crawl"]}`), &fromList))
	assert.Equal(t, Tags{"web", "crawl"}, fromList.Tags)

	// Marshals back to the comma-joined form the register tags use.
	raw, err := json.Marshal(fromList)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tags":"web,crawl"`)
}

func TestParseTags(t *testing.T) {
	assert.Nil(t, ParseTags(""))
	assert.Equal(t, Tags{"a", "b"}, ParseTags(" a , b "))
	assert.Equal(t, "a,b", ParseTags("a,b").String())
}

func TestNormalizeDropsUndecodableRecords(t *testing.T) {
	entries := Normalize(KindModel, map[string]json.RawMessage{
		"good": json.RawMessage(`{"name":"good"}`),
		"bad":  json.RawMessage(`"just a string"`),
	})
	require.Len(t, entries, 1)
	assert.Equal(t, "good", entries[0].Name)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	mapping := map[string]json.RawMessage{
		"c": json.RawMessage(`{}`),
		"a": json.RawMessage(`{}`),
		"b": json.RawMessage(`{}`),
	}
	first := Normalize(KindDataset, mapping)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Normalize(KindDataset, mapping))
	}
	assert.Equal(t, "a", first[0].Name)
}

func TestKindActions(t *testing.T) {
	assert.Equal(t, "GetModels", KindModel.listAction())
	assert.Equal(t, "RegisterAgent", KindAgent.registerAction())
	assert.Equal(t, "DeleteDataset", KindDataset.deleteAction())
	assert.Equal(t, "UpdateMetrics", KindModel.metricAction())
	assert.Equal(t, "UpdateDatasetDownloads", KindDataset.metricAction())
	assert.Equal(t, "modelId", KindModel.idTag())
	assert.Equal(t, "agentId", KindAgent.idTag())

	assert.True(t, Kind("model").Valid())
	assert.False(t, Kind("notebook").Valid())
}

func TestValidModelType(t *testing.T) {
	for _, mt := range ModelTypes {
		assert.True(t, ValidModelType(mt))
	}
	assert.False(t, ValidModelType("video"))
	assert.False(t, ValidModelType(""))
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(""))
	assert.True(t, ValidCategory("Text Generation"))
	assert.True(t, ValidCategory("text generation"))
	assert.True(t, ValidCategory("Object Detection"))
	assert.False(t, ValidCategory("Divination"))
}
