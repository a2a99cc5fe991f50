// Package pg bootstraps the PostgreSQL connection pool the storage
// maintenance layer reads application records through.
//
// It offers a thin abstraction around pgx/v5 connection pooling, health
// checks and common error helpers:
//
//   - Config – a declarative struct whose fields are populated from
//     environment variables via github.com/caarlos0/env. It controls
//     connection pool limits and retry behaviour.
//
//   - Connect – opens a *pgxpool.Pool based on Config, retrying with
//     growing back-off until the database becomes available.
//
//   - Healthcheck – returns a func(context.Context) error suitable for
//     readiness probes.
//
// The schema itself is owned by the main application; this module only
// queries it (see pkg/records).
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    panic(err)
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    panic(err)
//	}
//	defer pool.Close()
//
//	src := records.NewPostgresSource(pool)
//
// # Error Handling
//
// [pg.IsNotFoundError] classifies pgx.ErrNoRows so callers can map
// empty query results to their own not-found sentinels.
package pg
