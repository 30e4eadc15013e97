// Package audit persists evaluation traces so rule decisions can be
// inspected after the fact.
//
// Storage is the backend interface, with two implementations: MemoryStorage
// for tests and ephemeral deployments, and SQLiteStorage for durable
// single-instance deployments (WAL mode, busy timeout). A Pruner enforces
// retention limits (maximum age and maximum record count), optionally on a
// cron schedule via Scheduler.
package audit
