// Package storage keeps an append-only history of check runs.
//
// Two drivers exist: "file" writes JSON Lines next to the configured path and
// "sqlite" uses a single-table SQLite database. The history is written after
// every run and only read by the history command; a check never consults it.
package storage
