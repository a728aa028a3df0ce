package http

import "github.com/fivetwenty-io/pinecone/pkg/pinecone"

// Connection is implemented by every handle that can issue requests: the
// account handle and the per-index handle. The dispatcher and the URL helpers
// only need these two capabilities.
type Connection interface {
	Transport() *Client
	Credentials() pinecone.Credentials
}
