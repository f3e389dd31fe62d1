// Package registry provides typed access to the remote model/dataset/agent
// registry, layered over the gateway and the local cache.
package registry

import (
	"encoding/json"
	"sort"
	"strings"
)

// Kind identifies one of the three entry namespaces. Names are unique
// within a kind, never across kinds.
type Kind string

const (
	KindModel   Kind = "model"
	KindDataset Kind = "dataset"
	KindAgent   Kind = "agent"
)

// Kinds lists all entry kinds in display order.
var Kinds = []Kind{KindModel, KindDataset, KindAgent}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindModel, KindDataset, KindAgent:
		return true
	}
	return false
}

func (k Kind) listAction() string {
	switch k {
	case KindDataset:
		return "GetDatasets"
	case KindAgent:
		return "GetAgents"
	default:
		return "GetModels"
	}
}

func (k Kind) registerAction() string {
	switch k {
	case KindDataset:
		return "RegisterDataset"
	case KindAgent:
		return "RegisterAgent"
	default:
		return "RegisterModel"
	}
}

func (k Kind) deleteAction() string {
	switch k {
	case KindDataset:
		return "DeleteDataset"
	case KindAgent:
		return "DeleteAgent"
	default:
		return "DeleteModel"
	}
}

// metricAction is the action updating a counter on an entry of this kind.
// Datasets use a dedicated downloads action; models and agents share
// UpdateMetrics.
func (k Kind) metricAction() string {
	if k == KindDataset {
		return "UpdateDatasetDownloads"
	}
	return "UpdateMetrics"
}

// idTag is the tag name carrying the entry identity for this kind.
func (k Kind) idTag() string {
	switch k {
	case KindDataset:
		return "datasetId"
	case KindAgent:
		return "agentId"
	default:
		return "modelId"
	}
}

// Model type values accepted by the registry.
const (
	ModelTypeText  = "text-generation"
	ModelTypeImage = "image-generation"
	ModelTypeAudio = "audio"
)

// ModelTypes lists the accepted modelType values.
var ModelTypes = []string{ModelTypeText, ModelTypeImage, ModelTypeAudio}

// ValidModelType reports whether t is an accepted modelType value.
func ValidModelType(t string) bool {
	for _, mt := range ModelTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// TaskCategories is the static task taxonomy models may be categorized
// under, keyed by section.
var TaskCategories = map[string][]string{
	"Multimodal": {
		"Audio-Text-to-Text",
		"Image-Text-to-Text",
		"Visual Question Answering",
		"Document Question",
		"Video-Text-to-Text",
		"Any-to-Any",
	},
	"Computer Vision": {
		"Depth Estimation",
		"Image Classification",
		"Object Detection",
		"Image Segmentation",
		"Text-to-Image",
		"Image-to-Text",
	},
	"NLP": {
		"Text Generation",
		"Text Classification",
		"Token Classification",
		"Translation",
		"Summarization",
	},
}

// ValidCategory reports whether c names a task in the taxonomy. The match
// is case-insensitive; an empty category is always valid.
func ValidCategory(c string) bool {
	if c == "" {
		return true
	}
	for _, tasks := range TaskCategories {
		for _, t := range tasks {
			if strings.EqualFold(t, c) {
				return true
			}
		}
	}
	return false
}

// Metrics are the explicit-action counters attached to an entry. They only
// ever grow from the client's perspective; no decrement operation exists.
type Metrics struct {
	Downloads    int `json:"downloads"`
	Likes        int `json:"likes"`
	Forks        int `json:"forks"`
	Interactions int `json:"interactions,omitempty"`
}

// Metric names accepted by UpdateMetric.
const (
	MetricDownloads    = "downloads"
	MetricLikes        = "likes"
	MetricForks        = "forks"
	MetricInteractions = "interactions"
)

// ValidMetric reports whether name is a known metric counter.
func ValidMetric(name string) bool {
	switch name {
	case MetricDownloads, MetricLikes, MetricForks, MetricInteractions:
		return true
	}
	return false
}

// UserInteractions records whether the connected wallet already performed
// an action on an entry. Always re-derived from the remote process, never
// persisted locally.
type UserInteractions struct {
	Likes bool `json:"likes"`
	Forks bool `json:"forks"`
}

// Tags is a tag list that tolerates both remote encodings: a comma-joined
// string and a JSON string array. It marshals back to the comma-joined
// form, which is also what Register* tags carry.
type Tags []string

func (t Tags) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tags) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*t = ParseTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return err
	}
	out := make(Tags, 0, len(list))
	for _, tag := range list {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	*t = out
	return nil
}

// String returns the comma-joined form.
func (t Tags) String() string {
	return strings.Join(t, ",")
}

// ParseTags splits a comma-joined tag string, trimming whitespace and
// dropping empties.
func ParseTags(s string) Tags {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(Tags, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Entry is one registry record. The remote process stores duck-typed
// records per kind; Entry is the flattened union of the known shapes, with
// Kind as the discriminator. Fields not applicable to a kind stay zero and
// are omitted on the wire.
type Entry struct {
	Kind Kind `json:"-"`

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	CreatedAt   int64  `json:"timestamp,omitempty"` // epoch milliseconds; 0 = unknown
	Tags        Tags   `json:"tags,omitempty"`

	// Model fields.
	ModelType   string   `json:"modelType,omitempty"`
	Repo        string   `json:"repo,omitempty"`
	Dataset     string   `json:"dataset,omitempty"`
	DownloadURL string   `json:"downloadUrl,omitempty"`
	Category    string   `json:"category,omitempty"`
	Metrics     *Metrics `json:"metrics,omitempty"`

	// Dataset fields.
	ItemCount   int64  `json:"itemCount,omitempty"`
	Size        string `json:"size,omitempty"`
	FileType    string `json:"fileType,omitempty"`
	License     string `json:"license,omitempty"`
	ArdriveLink string `json:"ardriveLink,omitempty"`
	Downloads   int    `json:"downloads,omitempty"`

	// Agent fields.
	Documents []string `json:"documents,omitempty"`
	Model     string   `json:"model,omitempty"`
	Type      string   `json:"type,omitempty"`
}

// Normalize converts a remote name→fields mapping into an entry slice. The
// embedded name field wins for display; the mapping key is the fallback
// identity when the field is absent. Output is sorted by mapping key so
// repeated fetches of the same state produce the same order.
func Normalize(kind Kind, mapping map[string]json.RawMessage) []Entry {
	keys := make([]string, 0, len(mapping))
	for key := range mapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(mapping))
	for _, key := range keys {
		var e Entry
		if err := json.Unmarshal(mapping[key], &e); err != nil {
			// A record that does not decode is dropped rather than
			// failing the whole listing.
			continue
		}
		e.Kind = kind
		if e.Name == "" {
			e.Name = key
		}
		entries = append(entries, e)
	}
	return entries
}
