// Package async provides safe concurrent execution primitives for background
// tasks.
//
// # Overview
//
// This package handles goroutine lifecycle management with panic recovery,
// timeout enforcement, context cancellation, and error collection.
//
// # Key Functions
//
// SafeGo: Execute function in goroutine with safety features
//
//	async.SafeGo(ctx, 30*time.Second, "document snapshot", func(ctx context.Context) error {
//		return uploader.Upload(ctx, doc)
//	})
//
// WorkerPool: Managed pool of concurrent workers with a bounded queue
//
//	pool := async.NewWorkerPool(ctx, 1, 1024, "usage log", 5*time.Second)
//	defer pool.Shutdown(5 * time.Second)
//
//	pool.TrySubmit(func(ctx context.Context) error {
//		return writer.Insert(ctx, apiKey, endpoint, ts)
//	})
//
// TrySubmit never blocks; it reports false when the queue is full so hot
// request paths can drop work instead of waiting on it.
//
// # Use Cases
//
// Usage logging, document snapshot uploads, mirror rebuilds
package async
