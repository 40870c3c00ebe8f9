// Package worker implements the dispatch worker lifecycle and Redis Streams integration.
//
// The worker reads dispatch requests from a Redis Stream consumer group,
// runs them against the session registry, and publishes each outcome to a
// result stream. Requests that fail go to the result stream name suffixed
// with ".errors". Every message is acknowledged.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(&redis.Options{...})
//	registry := session.NewRegistry(m, runner, cfg.DispatchOptions(), logger)
//
//	worker := worker.NewWorker(cfg, redisClient, registry, logger)
//	if err := worker.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer worker.Stop()
//
// A request is a JSON document in the "data" field:
//
//	{"session_id": "s1", "kind": "load", "path": "/test/search.htm", "links": ["#advanced"]}
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8082, redisClient, registry, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
