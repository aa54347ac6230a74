// Package main is the catalog-crawler entrypoint.
//
// Architecture overview:
//   - CLI: cmd defines the cobra root with crawl, transform, run and audit subcommands. Configuration is loaded by
//     Viper from an optional file plus CATALOG_* environment variables and passed explicitly to both phases.
//   - Fetch: a single shared gocolly collector performs one GET per attempt with a fixed timeout, static User-Agent
//     and forced UTF-8 decoding; internal/fetcher/retry retries up to three times, sleeping 1.5s then 3s.
//   - Crawl: internal/crawler walks listing pages in order, resolves detail links with goquery and extracts one
//     record per detail page. A failed detail page is logged, recorded as "failed" in the audit log and skipped.
//   - Persistence: records stream into data.jsonl (rewritten per crawl); outcomes append to audit_log.jsonl and are
//     optionally mirrored into Postgres.
//   - Transform: internal/transform normalizes prices and ratings, keeps rows rated 4+ and priced under 20 (excl.
//     tax) and regenerates result.csv. Artifacts can then be archived to a local directory or GCS and announced on
//     Pub/Sub.
//
// Operational notes:
//   - Everything runs sequentially; SIGINT/SIGTERM cancel the current request or backoff sleep and the command exits
//     after closing its files.
//   - When metrics.addr is set, Prometheus metrics are served on /metrics for the lifetime of the command.
package main
