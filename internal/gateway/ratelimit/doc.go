// Package ratelimit caps each client identity to a fixed number of requests
// per fixed time window. The window does not slide: when it expires the
// counter resets, so a client can burst up to twice the limit across a window
// boundary. That tradeoff buys a counter-per-client data model that needs no
// request log and no global coordination.
//
// Counter state lives behind the Store interface. MemoryStore is the default
// single-instance implementation; RedisStore shares counters between gateway
// instances.
package ratelimit
