// Package ratelimit enforces per-client request budgets for the corpus API.
//
// # Overview
//
// A Limiter answers one question: has this client already spent its request
// budget for the current window? Two backends implement it.
//
// MemoryLimiter keeps a true sliding window of hit timestamps per client in
// process memory. It is exact but per-instance.
//
//	limiter := ratelimit.NewMemoryLimiter(ratelimit.DefaultConfig())
//	limiter.StartCleanup(ctx) // drop idle clients in the background
//
// RedisLimiter shares a counter between replicas through Redis, so one
// budget holds across the whole deployment. It approximates the window with
// INCR+EXPIRE and fails open when Redis is unreachable.
//
//	limiter := ratelimit.NewRedisLimiter(redisClient, ratelimit.DefaultConfig(), logger)
//
// # Client Identity
//
// ClientID derives the accounting identity from a request: the X-API-Key
// header when one is presented, otherwise the client IP (see ClientIP).
package ratelimit
