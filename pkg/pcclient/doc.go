// Package pcclient provides the primary entry point for constructing a
// Pinecone client that implements the pinecone.Client interface.
//
// It layers configuration and the HTTP transport on top of the interfaces and
// types defined in the pinecone package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/pinecone/pkg/pcclient"
//	  "github.com/fivetwenty-io/pinecone/pkg/pinecone"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := pcclient.New(ctx, &pinecone.Config{
//	    APIKey:      "your-api-key",
//	    Environment: "us-west1-gcp",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  names, err := cli.ListIndexes(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = names
//
//	  // Index handles resolve their host on first use.
//	  movies := cli.Index("movies")
//	  _, err = movies.Upsert(ctx, "", []pinecone.Vector{{ID: "a", Values: []float32{0.1, 0.2}}})
//	  if err != nil { log.Fatal(err) }
//	}
//
// Sharing resolved hosts
//
// Set Config.Cache to a pinecone.Cache (memory, Redis or NATS KV) to let new
// handles, in this or other processes, skip the describe call:
//
//	cache, _ := pinecone.NewCacheBuilder().
//	  WithType(pinecone.CacheTypeRedis).
//	  WithRedisConfig(&pinecone.RedisCacheConfig{Addrs: []string{"127.0.0.1:6379"}}).
//	  Build(ctx)
//	cli, err := pcclient.New(ctx, &pinecone.Config{APIKey: key, Environment: env, Cache: cache})
//
// Errors
//
// Every call returns exactly one error class: *pinecone.ArgumentError,
// *pinecone.TransportError, *pinecone.DecodeError, *pinecone.ServiceError or
// pinecone.ErrResourceURLUnavailable. Use errors.As, errors.Is or the helpers
// in the pinecone package to branch on them.
package pcclient
