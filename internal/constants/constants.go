package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Service addressing.
const (
	// ServiceDomain is the second-level domain of the controller endpoint.
	ServiceDomain = "pinecone.io"

	// ControllerHostPrefix prefixes the environment in the controller host.
	ControllerHostPrefix = "controller."

	// DefaultScheme is used for controller and index hosts.
	DefaultScheme = "https"
)

// Header names and media types.
const (
	// HeaderAPIKey carries the account API key.
	HeaderAPIKey = "Api-Key"

	// HeaderAccept is the accept header.
	HeaderAccept = "accept"

	// HeaderContentType is the content-type header.
	HeaderContentType = "content-type"

	// HeaderUserAgent is the user agent header.
	HeaderUserAgent = "User-Agent"

	// MediaTypeJSON is the structured JSON media type.
	MediaTypeJSON = "application/json"

	// MediaTypeText is the plain text media type.
	MediaTypeText = "text/plain"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "pinecone-go/1.0"
)

// Controller paths.
const (
	// PathDatabases lists and creates indexes.
	PathDatabases = "/databases"

	// PathCollections lists and creates collections.
	PathCollections = "/collections"

	// PathWhoAmI identifies the caller's project.
	PathWhoAmI = "/actions/whoami"
)

// Index host paths.
const (
	// PathDescribeIndexStats returns index statistics.
	PathDescribeIndexStats = "/describe_index_stats"

	// PathVectorsUpsert upserts vectors.
	PathVectorsUpsert = "/vectors/upsert"

	// PathVectorsFetch fetches vectors by id.
	PathVectorsFetch = "/vectors/fetch"

	// PathVectorsUpdate updates a single vector.
	PathVectorsUpdate = "/vectors/update"

	// PathVectorsDelete deletes vectors.
	PathVectorsDelete = "/vectors/delete"

	// PathQuery runs a similarity query.
	PathQuery = "/query"
)

// Cache defaults.
const (
	// DefaultCacheSize is the default number of entries in the memory cache.
	DefaultCacheSize = 256

	// DefaultCacheTTL is how long a shared index description stays valid.
	DefaultCacheTTL = 10 * time.Minute

	// DefaultCacheKeyPrefix namespaces shared cache keys.
	DefaultCacheKeyPrefix = "pinecone:index:"

	// DefaultNATSBucket is the KeyValue bucket used by the NATS cache.
	DefaultNATSBucket = "pinecone-index-hosts"
)

// Rate limiting.
const (
	// DefaultRateLimitBurst is used when a rate limiter is configured without a burst.
	DefaultRateLimitBurst = 1
)

// UI and display constants.
const (
	// NotAvailable represents unavailable data.
	NotAvailable = "N/A"

	// MaskedSecret hides secrets in output.
	MaskedSecret = "***"

	// VisibleKeySuffix is how many trailing key characters remain visible when masked.
	VisibleKeySuffix = 4
)

// Format constants.
const (
	// FormatJSON represents JSON output format.
	FormatJSON = "json"

	// FormatYAML represents YAML output format.
	FormatYAML = "yaml"

	// FormatTable represents table output format.
	FormatTable = "table"
)

// Confirmation constants.
const (
	// ConfirmationYes is the expected confirmation response.
	ConfirmationYes = "yes"
)
