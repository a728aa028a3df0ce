// Package pinecone provides types, interfaces, and helpers for working with
// the Pinecone vector database API.
//
// # Overview
//
// The pinecone package defines the domain types (e.g., IndexDescription,
// Vector, QueryRequest, IndexStats) and the client interfaces (Client and
// IndexClient). A concrete implementation is provided by the pcclient
// package, which wires configuration and the HTTP transport. Most consumers
// should import pcclient to construct a client and then use the interfaces
// exposed here.
//
//	cli, err := pcclient.New(ctx, &pinecone.Config{APIKey: key, Environment: "us-west1-gcp"})
//	if err != nil { log.Fatal(err) }
//
//	movies := cli.Index("movies")
//	res, err := movies.Query(ctx, &pinecone.QueryRequest{TopK: 5, Vector: embedding})
//
// # Addressing
//
// Account operations (indexes, collections, whoami) go to the controller of
// the configured environment. Operations on vectors go to the host of the
// index, which an IndexClient learns from describe index the first time it
// needs it and keeps until Describe is called again. An index that is still
// provisioning has no host; calls then fail with ErrResourceURLUnavailable.
//
// # Errors
//
// Every call yields one error class:
//
//   - *ArgumentError: a missing or invalid argument, detected before sending.
//   - *TransportError: no response was received.
//   - *DecodeError: the body did not match the expected type. This covers a
//     success body on a JSON call and an error body on a JSON call that is not
//     the error schema.
//   - *ServiceError: any other status. Body holds the parsed error schema; Raw
//     holds the response text of a text call whose error body did not parse.
//   - ErrResourceURLUnavailable: the index has no host yet.
//
// Helpers such as IsNotFound, IsConflict, IsTransport and StatusCode make it
// easy to branch on common cases.
//
// # Interceptors and caching
//
// Request interceptors run before each request (HeaderInterceptor,
// RateLimitInterceptor, MetricsCollector, TracingInterceptors). Response
// interceptors observe each attempt. A Cache (memory, Redis, NATS KV or a
// CacheChain of them) lets index handles share resolved descriptions.
//
// The client never retries. Use the context passed to each call for
// deadlines and cancellation.
package pinecone
