package pinecone

import (
	"encoding/json"
	"fmt"
)

// Metric is the distance metric used for similarity search.
type Metric string

const (
	// MetricEuclidean is euclidean distance.
	MetricEuclidean Metric = "euclidean"
	// MetricCosine is cosine similarity.
	MetricCosine Metric = "cosine"
	// MetricDotProduct is dot product similarity.
	MetricDotProduct Metric = "dotproduct"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricEuclidean, MetricCosine, MetricDotProduct:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMetric, s)
	}
}

// IndexState is the lifecycle state reported in an index description.
type IndexState string

// Index states.
const (
	IndexStateInitializing         IndexState = "Initializing"
	IndexStateScalingUp            IndexState = "ScalingUp"
	IndexStateScalingDown          IndexState = "ScalingDown"
	IndexStateTerminating          IndexState = "Terminating"
	IndexStateReady                IndexState = "Ready"
	IndexStateInitializationFailed IndexState = "InitializationFailed"
)

// MappedValue is a free-form JSON object (metadata, filters, error details).
type MappedValue map[string]any

// ClientInfo is returned by the whoami action.
type ClientInfo struct {
	ProjectName string `json:"project_name" yaml:"project_name"`
	UserLabel   string `json:"user_label"   yaml:"user_label"`
	UserName    string `json:"user_name"    yaml:"user_name"`
}

// IndexCreateRequest creates an index.
type IndexCreateRequest struct {
	Name             string `json:"name"                        yaml:"name"`
	Dimension        int    `json:"dimension"                   yaml:"dimension"`
	Metric           Metric `json:"metric,omitempty"            yaml:"metric,omitempty"`
	Replicas         int    `json:"replicas,omitempty"          yaml:"replicas,omitempty"`
	Pods             int    `json:"pods,omitempty"              yaml:"pods,omitempty"`
	PodType          string `json:"pod_type,omitempty"          yaml:"pod_type,omitempty"`
	SourceCollection string `json:"source_collection,omitempty" yaml:"source_collection,omitempty"`
}

// ConfigureIndexRequest changes replicas or pod type of an index.
type ConfigureIndexRequest struct {
	Replicas int    `json:"replicas,omitempty" yaml:"replicas,omitempty"`
	PodType  string `json:"pod_type,omitempty" yaml:"pod_type,omitempty"`
}

// CreateCollectionRequest creates a collection from an index.
type CreateCollectionRequest struct {
	Name   string `json:"name"   yaml:"name"`
	Source string `json:"source" yaml:"source"`
}

// CollectionDescription describes a collection.
type CollectionDescription struct {
	Name   string `json:"name"   yaml:"name"`
	Size   int64  `json:"size"   yaml:"size"`
	Status string `json:"status" yaml:"status"`
}

// IndexDescription is returned by describe index.
type IndexDescription struct {
	Database IndexDatabase `json:"database" yaml:"database"`
	Status   IndexStatus   `json:"status"   yaml:"status"`
}

// Host returns the index host, or "" while it is not assigned.
func (d *IndexDescription) Host() string {
	if d == nil || d.Status.Host == nil {
		return ""
	}

	return *d.Status.Host
}

// IndexDatabase is the configuration part of an index description.
type IndexDatabase struct {
	Name      string `json:"name"      yaml:"name"`
	Dimension int    `json:"dimension" yaml:"dimension"`
	Metric    Metric `json:"metric"    yaml:"metric"`
	Replicas  int    `json:"replicas"  yaml:"replicas"`
	Shards    int    `json:"shards"    yaml:"shards"`
	Pods      int    `json:"pods"      yaml:"pods"`
	PodType   string `json:"pod_type"  yaml:"pod_type"`
}

// IndexStatus is the status part of an index description. Host is nil while
// the index is provisioning.
type IndexStatus struct {
	Waiting []json.RawMessage `json:"waiting,omitempty" yaml:"-"`
	Crashed []json.RawMessage `json:"crashed,omitempty" yaml:"-"`
	Host    *string           `json:"host,omitempty"    yaml:"host,omitempty"`
	Port    int               `json:"port"              yaml:"port"`
	State   IndexState        `json:"state"             yaml:"state"`
	Ready   bool              `json:"ready"             yaml:"ready"`
}

// NamespaceSummary holds per-namespace statistics.
type NamespaceSummary struct {
	VectorCount int64 `json:"vectorCount" yaml:"vector_count"`
}

// IndexStats is returned by describe index stats.
type IndexStats struct {
	Namespaces       map[string]NamespaceSummary `json:"namespaces"       yaml:"namespaces"`
	Dimension        int                         `json:"dimension"        yaml:"dimension"`
	IndexFullness    float64                     `json:"indexFullness"    yaml:"index_fullness"`
	TotalVectorCount int64                       `json:"totalVectorCount" yaml:"total_vector_count"`
}

// SparseValues is a sparse vector; Indices and Values must have equal length.
type SparseValues struct {
	Indices []uint32  `json:"indices" yaml:"indices"`
	Values  []float32 `json:"values"  yaml:"values"`
}

// Vector is a record stored in an index.
type Vector struct {
	ID           string        `json:"id"                     yaml:"id"`
	Values       []float32     `json:"values"                 yaml:"values"`
	SparseValues *SparseValues `json:"sparseValues,omitempty" yaml:"sparse_values,omitempty"`
	Metadata     MappedValue   `json:"metadata,omitempty"     yaml:"metadata,omitempty"`
}

// UpsertRequest is the body of an upsert call.
type UpsertRequest struct {
	Namespace string   `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Vectors   []Vector `json:"vectors"             yaml:"vectors"`
}

// UpsertResponse reports how many vectors were written.
type UpsertResponse struct {
	UpsertedCount int64 `json:"upsertedCount" yaml:"upserted_count"`
}

// QueryRequest searches a namespace by vector or by the id of a stored vector.
type QueryRequest struct {
	Namespace       string        `json:"namespace,omitempty"    yaml:"namespace,omitempty"`
	TopK            int           `json:"topK"                   yaml:"top_k"`
	Filter          MappedValue   `json:"filter,omitempty"       yaml:"filter,omitempty"`
	IncludeValues   bool          `json:"includeValues"          yaml:"include_values"`
	IncludeMetadata bool          `json:"includeMetadata"        yaml:"include_metadata"`
	Vector          []float32     `json:"vector,omitempty"       yaml:"vector,omitempty"`
	SparseVector    *SparseValues `json:"sparseVector,omitempty" yaml:"sparse_vector,omitempty"`
	ID              string        `json:"id,omitempty"           yaml:"id,omitempty"`
}

// QueryResponse holds query matches.
type QueryResponse struct {
	Matches   []Match `json:"matches"   yaml:"matches"`
	Namespace string  `json:"namespace" yaml:"namespace"`
}

// Match is one query result.
type Match struct {
	ID           string        `json:"id"                     yaml:"id"`
	Score        *float32      `json:"score,omitempty"        yaml:"score,omitempty"`
	Values       []float32     `json:"values,omitempty"       yaml:"values,omitempty"`
	SparseValues *SparseValues `json:"sparseValues,omitempty" yaml:"sparse_values,omitempty"`
	Metadata     MappedValue   `json:"metadata,omitempty"     yaml:"metadata,omitempty"`
}

// FetchRequest looks up vectors by id. An empty Namespace means the default namespace.
type FetchRequest struct {
	IDs       []string `json:"ids"                 yaml:"ids"`
	Namespace string   `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// FetchResponse maps ids to the fetched vectors.
type FetchResponse struct {
	Vectors   map[string]Vector `json:"vectors"   yaml:"vectors"`
	Namespace string            `json:"namespace" yaml:"namespace"`
}

// UpdateRequest updates values or metadata of a single vector.
type UpdateRequest struct {
	ID           string        `json:"id"                     yaml:"id"`
	Values       []float32     `json:"values,omitempty"       yaml:"values,omitempty"`
	SparseValues *SparseValues `json:"sparseValues,omitempty" yaml:"sparse_values,omitempty"`
	SetMetadata  MappedValue   `json:"setMetadata,omitempty"  yaml:"set_metadata,omitempty"`
	Namespace    string        `json:"namespace,omitempty"    yaml:"namespace,omitempty"`
}

// DeleteRequest deletes vectors by id, by filter, or all vectors of a namespace.
type DeleteRequest struct {
	IDs       []string    `json:"ids,omitempty"       yaml:"ids,omitempty"`
	DeleteAll bool        `json:"deleteAll,omitempty" yaml:"delete_all,omitempty"`
	Namespace string      `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Filter    MappedValue `json:"filter,omitempty"    yaml:"filter,omitempty"`
}
