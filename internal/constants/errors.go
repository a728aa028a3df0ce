package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIKeyConfigured      = errors.New("no API key configured, use 'pinecone config set-key' or --api-key")
	ErrNoEnvironmentConfigured = errors.New("no environment configured, use 'pinecone config set environment <env>' or --environment")
	ErrUnknownConfigKey        = errors.New("unknown configuration key")
	ErrKeyNotReadable          = errors.New("API key must be read from a terminal or --from-stdin")
)

// Validation errors.
var (
	ErrIndexNameRequired      = errors.New("index name is required")
	ErrCollectionNameRequired = errors.New("collection name is required")
	ErrDimensionRequired      = errors.New("--dimension must be greater than zero")
	ErrSourceRequired         = errors.New("--source index is required")
	ErrVectorInputRequired    = errors.New("either --file or --id with --values is required")
	ErrQueryInputRequired     = errors.New("either --vector or --id is required")
	ErrTopKRequired           = errors.New("--top-k must be greater than zero")
	ErrIDsRequired            = errors.New("at least one --id is required")
	ErrDeleteSelectorRequired = errors.New("either --id or --all is required")
	ErrInvalidFloat           = errors.New("invalid float value")
	ErrDirectoryTraversal     = errors.New("path contains directory traversal sequences")
	ErrUnsupportedOutput      = errors.New("unsupported output format")
)
