package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/permahub/permahub/internal/cache"
	"github.com/permahub/permahub/internal/gateway"
)

// Caller is the slice of the gateway client the repository depends on.
type Caller interface {
	Call(ctx context.Context, action string, tags map[string]string) (gateway.Payload, error)
	ActiveAddress() (string, error)
}

// Repository mediates between the remote registry process and the local
// cache. Reads degrade to cached data when the remote is unreachable;
// writes surface failures and never touch the cache unless the remote
// accepted the mutation.
type Repository struct {
	gw     Caller
	store  *cache.Store
	logger *slog.Logger
	group  singleflight.Group
}

// New creates a Repository over the given gateway and cache store.
func New(gw Caller, store *cache.Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{gw: gw, store: store, logger: logger}
}

// List returns all entries of the given kind. It refreshes from the remote
// process, replacing the cached collection on success; on any remote
// failure it logs and serves the last cached state, or an empty slice when
// nothing was ever cached. Concurrent refreshes of the same kind are
// collapsed into one remote call.
func (r *Repository) List(ctx context.Context, kind Kind) []Entry {
	v, _, _ := r.group.Do(string(kind), func() (any, error) {
		return r.refresh(ctx, kind), nil
	})
	return v.([]Entry)
}

// ListAll lists every kind concurrently.
func (r *Repository) ListAll(ctx context.Context) map[Kind][]Entry {
	out := make(map[Kind][]Entry, len(Kinds))
	var g errgroup.Group
	results := make([][]Entry, len(Kinds))
	for i, kind := range Kinds {
		g.Go(func() error {
			results[i] = r.List(ctx, kind)
			return nil
		})
	}
	_ = g.Wait() // List never fails
	for i, kind := range Kinds {
		out[kind] = results[i]
	}
	return out
}

func (r *Repository) refresh(ctx context.Context, kind Kind) []Entry {
	payload, err := r.gw.Call(ctx, kind.listAction(), nil)
	if err != nil {
		r.logger.Warn("list refresh failed, serving cache", "kind", kind, "error", err)
		return r.cached(kind)
	}

	var mapping map[string]json.RawMessage
	if payload.Present {
		if err := payload.Decode(&mapping); err != nil {
			r.logger.Warn("list payload malformed, serving cache", "kind", kind, "error", err)
			return r.cached(kind)
		}
	}

	entries := Normalize(kind, mapping)
	if err := r.writeCache(kind, entries); err != nil {
		r.logger.Warn("cache write failed", "kind", kind, "error", err)
	}
	return entries
}

func (r *Repository) cached(kind Kind) []Entry {
	col := r.store.Read(string(kind))
	if col == nil {
		return []Entry{}
	}
	entries := make([]Entry, 0, len(col.Data))
	for _, raw := range col.Data {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			r.logger.Warn("cached entry corrupt, skipping", "kind", kind, "error", err)
			continue
		}
		e.Kind = kind
		entries = append(entries, e)
	}
	return entries
}

func (r *Repository) writeCache(kind Kind, entries []Entry) error {
	raw := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		raw = append(raw, b)
	}
	return r.store.Write(string(kind), raw)
}

// Create validates the entry, registers it with the remote process, and on
// acceptance appends the locally constructed record to the cache. The
// returned entry carries the connected wallet as owner, a fresh creation
// timestamp, and zeroed metrics.
func (r *Repository) Create(ctx context.Context, kind Kind, in Entry) (Entry, error) {
	if !kind.Valid() {
		return Entry{}, &ValidationError{Field: "kind", Message: string(kind) + " is not a known kind"}
	}
	if in.Name == "" {
		return Entry{}, required("name")
	}
	if in.Description == "" {
		return Entry{}, required("description")
	}

	tags := map[string]string{
		"name":        in.Name,
		"description": in.Description,
	}
	switch kind {
	case KindModel:
		if !ValidModelType(in.ModelType) {
			return Entry{}, &ValidationError{Field: "modelType", Message: "must be one of text-generation, image-generation, audio"}
		}
		if !ValidCategory(in.Category) {
			return Entry{}, &ValidationError{Field: "category", Message: "unknown task category"}
		}
		metrics, err := json.Marshal(Metrics{})
		if err != nil {
			return Entry{}, err
		}
		tags["modelType"] = in.ModelType
		tags["repo"] = in.Repo
		tags["dataset"] = in.Dataset
		tags["downloadUrl"] = in.DownloadURL
		tags["category"] = in.Category
		tags["tags"] = in.Tags.String()
		tags["metrics"] = string(metrics)
	case KindDataset:
		if in.ArdriveLink == "" {
			return Entry{}, required("ardriveLink")
		}
		tags["itemCount"] = strconv.FormatInt(in.ItemCount, 10)
		tags["size"] = in.Size
		tags["fileType"] = in.FileType
		tags["license"] = in.License
		tags["ardriveLink"] = in.ArdriveLink
		tags["tags"] = in.Tags.String()
	case KindAgent:
		if in.Model == "" {
			return Entry{}, required("model")
		}
		if in.Type == "" {
			return Entry{}, required("type")
		}
		tags["documents"] = strings.Join(in.Documents, "\n")
		tags["model"] = in.Model
		tags["type"] = in.Type
	}

	// The process silently overwrites on name collision, so the guard has
	// to live on this side. The cache is the best available view of the
	// remote namespace.
	for _, existing := range r.cached(kind) {
		if existing.Name == in.Name {
			return Entry{}, &ExistsError{Kind: kind, Name: in.Name}
		}
	}

	owner, err := r.gw.ActiveAddress()
	if err != nil {
		return Entry{}, err
	}

	action := kind.registerAction()
	if _, err := r.gw.Call(ctx, action, tags); err != nil {
		return Entry{}, remoteErr(action, err)
	}

	out := in
	out.Kind = kind
	out.Owner = owner
	out.CreatedAt = time.Now().UnixMilli()
	if kind == KindModel || kind == KindAgent {
		out.Metrics = &Metrics{}
	}
	if err := r.store.Append(string(kind), out); err != nil {
		r.logger.Warn("cache append failed", "kind", kind, "name", out.Name, "error", err)
	}
	return out, nil
}

// UpdateMetric increments one counter on an entry. The remote update is
// authoritative; when it responds with fresh counters those are adopted,
// otherwise the cached value is bumped by one locally. After a successful
// update the caller's interaction flags are re-derived from the remote
// process.
func (r *Repository) UpdateMetric(ctx context.Context, kind Kind, name, metricName string) (Metrics, UserInteractions, error) {
	if name == "" {
		return Metrics{}, UserInteractions{}, required("name")
	}
	if !ValidMetric(metricName) {
		return Metrics{}, UserInteractions{}, &ValidationError{Field: "metric", Message: metricName + " is not a known metric"}
	}

	addr, err := r.gw.ActiveAddress()
	if err != nil {
		return Metrics{}, UserInteractions{}, err
	}

	action := kind.metricAction()
	tags := map[string]string{kind.idTag(): name}
	if kind != KindDataset {
		tags["metricType"] = metricName
		tags["userAddress"] = addr
	}

	payload, err := r.gw.Call(ctx, action, tags)
	if err != nil {
		return Metrics{}, UserInteractions{}, remoteErr(action, err)
	}

	metrics, ok := decodeMetrics(payload)
	if !ok {
		metrics = r.bumpedMetrics(kind, name, metricName)
	}
	r.storeMetrics(kind, name, metrics)

	return metrics, r.UserInteractions(ctx, kind, name), nil
}

func decodeMetrics(payload gateway.Payload) (Metrics, bool) {
	if !payload.Present {
		return Metrics{}, false
	}
	var body struct {
		Metrics *Metrics `json:"metrics"`
	}
	if err := payload.Decode(&body); err != nil || body.Metrics == nil {
		return Metrics{}, false
	}
	return *body.Metrics, true
}

// bumpedMetrics applies the increment to the cached counters when the
// remote acknowledged the update without echoing fresh values.
func (r *Repository) bumpedMetrics(kind Kind, name, metricName string) Metrics {
	var m Metrics
	for _, e := range r.cached(kind) {
		if e.Name != name {
			continue
		}
		if e.Metrics != nil {
			m = *e.Metrics
		}
		m.Downloads += e.Downloads // dataset downloads live outside Metrics
		break
	}
	switch metricName {
	case MetricDownloads:
		m.Downloads++
	case MetricLikes:
		m.Likes++
	case MetricForks:
		m.Forks++
	case MetricInteractions:
		m.Interactions++
	}
	return m
}

func (r *Repository) storeMetrics(kind Kind, name string, metrics Metrics) {
	for _, e := range r.cached(kind) {
		if e.Name != name {
			continue
		}
		if kind == KindDataset {
			e.Downloads = metrics.Downloads
		} else {
			m := metrics
			e.Metrics = &m
		}
		if err := r.store.Replace(string(kind), name, e); err != nil {
			r.logger.Warn("cache metrics update failed", "kind", kind, "name", name, "error", err)
		}
		return
	}
}

// UserInteractions reports whether the connected wallet already liked or
// forked the named entry. Every failure mode degrades to all-false; a
// disconnected wallet trivially has no interactions.
func (r *Repository) UserInteractions(ctx context.Context, kind Kind, name string) UserInteractions {
	addr, err := r.gw.ActiveAddress()
	if err != nil {
		return UserInteractions{}
	}

	payload, err := r.gw.Call(ctx, "GetUserInteractions", map[string]string{
		kind.idTag():  name,
		"userAddress": addr,
	})
	if err != nil {
		r.logger.Debug("interaction fetch failed, assuming none", "kind", kind, "name", name, "error", err)
		return UserInteractions{}
	}
	if !payload.Present {
		return UserInteractions{}
	}

	var body struct {
		Interactions UserInteractions `json:"interactions"`
	}
	if err := payload.Decode(&body); err != nil {
		r.logger.Debug("interaction payload malformed, assuming none", "kind", kind, "name", name, "error", err)
		return UserInteractions{}
	}
	return body.Interactions
}

// Delete removes an entry from the remote process, then from the cache.
// The cache is only touched once the remote acknowledged the delete.
func (r *Repository) Delete(ctx context.Context, kind Kind, name string) error {
	if name == "" {
		return required("name")
	}

	action := kind.deleteAction()
	if _, err := r.gw.Call(ctx, action, map[string]string{kind.idTag(): name}); err != nil {
		return remoteErr(action, err)
	}
	if err := r.store.Remove(string(kind), name); err != nil {
		r.logger.Warn("cache remove failed", "kind", kind, "name", name, "error", err)
	}
	return nil
}

// SearchByType queries the remote process for models of one modelType. The
// result set is partial by construction and never replaces the cached
// model collection.
func (r *Repository) SearchByType(ctx context.Context, modelType string) ([]Entry, error) {
	if !ValidModelType(modelType) {
		return nil, &ValidationError{Field: "modelType", Message: modelType + " is not a known model type"}
	}

	payload, err := r.gw.Call(ctx, "SearchModelsByType", map[string]string{"modelType": modelType})
	if err != nil {
		return nil, remoteErr("SearchModelsByType", err)
	}

	var mapping map[string]json.RawMessage
	if payload.Present {
		if err := payload.Decode(&mapping); err != nil {
			return nil, remoteErr("SearchModelsByType", err)
		}
	}
	return Normalize(KindModel, mapping), nil
}
