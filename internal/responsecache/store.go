package responsecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	_ "modernc.org/sqlite"
)

const (
	// DefaultDatabaseFileName is the cache database created next to the
	// binary when no explicit path is configured.
	DefaultDatabaseFileName = "gardener-cache.db"

	sqliteDriverNameConstant = "sqlite"

	createTableStatementConstant = `CREATE TABLE IF NOT EXISTS cached_responses (
	request_url TEXT PRIMARY KEY,
	etag TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	header_json TEXT NOT NULL,
	body BLOB NOT NULL
)`
	upsertResponseStatementConstant = `INSERT INTO cached_responses (request_url, etag, status_code, header_json, body)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(request_url) DO UPDATE SET
	etag = excluded.etag,
	status_code = excluded.status_code,
	header_json = excluded.header_json,
	body = excluded.body`
	lookupResponseStatementConstant = `SELECT etag, status_code, header_json, body FROM cached_responses WHERE request_url = ?`

	databaseOpenErrorTemplateConstant   = "open response cache %s: %w"
	databaseCreateErrorTemplateConstant = "initialize response cache %s: %w"
	headerEncodeErrorTemplateConstant   = "encode cached headers for %s: %w"
	headerDecodeErrorTemplateConstant   = "decode cached headers for %s: %w"
)

// CachedResponse holds a previously observed response for one request URL.
type CachedResponse struct {
	ETag       string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Store persists responses in a SQLite database keyed by request URL. The
// underlying handle is safe for concurrent use.
type Store struct {
	databasePath   string
	databaseHandle *sql.DB
}

// OpenStore opens or creates the cache database at the provided path.
func OpenStore(databasePath string) (*Store, error) {
	databaseHandle, openError := sql.Open(sqliteDriverNameConstant, databasePath)
	if openError != nil {
		return nil, fmt.Errorf(databaseOpenErrorTemplateConstant, databasePath, openError)
	}

	if _, createError := databaseHandle.Exec(createTableStatementConstant); createError != nil {
		closeError := databaseHandle.Close()
		return nil, fmt.Errorf(databaseCreateErrorTemplateConstant, databasePath, errors.Join(createError, closeError))
	}

	return &Store{databasePath: databasePath, databaseHandle: databaseHandle}, nil
}

// Close releases the database handle.
func (store *Store) Close() error {
	if store == nil || store.databaseHandle == nil {
		return nil
	}
	return store.databaseHandle.Close()
}

// Lookup returns the cached response recorded for a request URL.
func (store *Store) Lookup(executionContext context.Context, requestURL string) (CachedResponse, bool, error) {
	row := store.databaseHandle.QueryRowContext(executionContext, lookupResponseStatementConstant, requestURL)

	var cachedETag string
	var cachedStatusCode int
	var encodedHeader string
	var cachedBody []byte
	scanError := row.Scan(&cachedETag, &cachedStatusCode, &encodedHeader, &cachedBody)
	if errors.Is(scanError, sql.ErrNoRows) {
		return CachedResponse{}, false, nil
	}
	if scanError != nil {
		return CachedResponse{}, false, scanError
	}

	decodedHeader := http.Header{}
	if decodeError := json.Unmarshal([]byte(encodedHeader), &decodedHeader); decodeError != nil {
		return CachedResponse{}, false, fmt.Errorf(headerDecodeErrorTemplateConstant, requestURL, decodeError)
	}

	return CachedResponse{ETag: cachedETag, StatusCode: cachedStatusCode, Header: decodedHeader, Body: cachedBody}, true, nil
}

// Save records or replaces the cached response for a request URL.
func (store *Store) Save(executionContext context.Context, requestURL string, cachedResponse CachedResponse) error {
	encodedHeader, encodeError := json.Marshal(cachedResponse.Header)
	if encodeError != nil {
		return fmt.Errorf(headerEncodeErrorTemplateConstant, requestURL, encodeError)
	}

	_, executeError := store.databaseHandle.ExecContext(
		executionContext,
		upsertResponseStatementConstant,
		requestURL,
		cachedResponse.ETag,
		cachedResponse.StatusCode,
		string(encodedHeader),
		cachedResponse.Body,
	)
	return executeError
}
