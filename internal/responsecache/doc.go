// Package responsecache persists hosting-service responses in a local
// SQLite database and replays them through conditional requests, so repeated
// batch runs spend validation requests instead of full rate-limit quota.
package responsecache
