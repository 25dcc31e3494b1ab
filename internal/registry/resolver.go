// Package registry resolves a registry's entries, remotely when a remote
// config is present and healthy, otherwise from the registry's static
// fallback entries.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/capguard/capguard/internal/models"
	"github.com/capguard/capguard/internal/observability/logging"
)

// Provenance records where resolved entries came from.
type Provenance string

const (
	ProvenanceRemote Provenance = "remote"
	ProvenanceLocal  Provenance = "local"
)

// MaxPages bounds cursor pagination; a remote that keeps returning next
// cursors past this is treated as broken.
const MaxPages = 50

// Resolved is the outcome of one registry resolution.
type Resolved struct {
	Entries    []any
	Provenance Provenance
}

// Options modifies a single resolution.
type Options struct {
	// UpdatedSince enables an incremental fetch when the registry
	// supports an updated-since cursor.
	UpdatedSince string
}

// Config configures a Resolver. The zero value resolves online with
// os.LookupEnv-free auth (no tokens) and a default HTTP client; callers
// normally supply LookupEnv.
type Config struct {
	// Offline forces local fallback for every registry.
	Offline bool
	// LookupEnv resolves auth token environment references. Nil disables
	// token resolution entirely.
	LookupEnv func(string) (string, bool)
	// Client is the HTTP client used for remote fetches. Nil means a
	// dedicated client; per-request timeouts still come from each
	// registry's configured value.
	Client *http.Client
}

type Resolver struct {
	offline   bool
	lookupEnv func(string) (string, bool)
	client    *http.Client
}

func New(cfg Config) *Resolver {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	lookup := cfg.LookupEnv
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	return &Resolver{
		offline:   cfg.Offline,
		lookupEnv: lookup,
		client:    client,
	}
}

// contractError marks payload-shape failures that must not be silently
// absorbed by local fallback: the remote contract changed.
type contractError struct {
	err error
}

func (e *contractError) Error() string { return e.err.Error() }
func (e *contractError) Unwrap() error { return e.err }

// IsContractError reports whether err is a remote payload contract
// failure rather than a transport failure.
func IsContractError(err error) bool {
	var ce *contractError
	return errors.As(err, &ce)
}

// Resolve applies the resolution policy:
// offline or no remote config -> local; missing auth token -> local;
// transport failure -> local when fallback is allowed and local entries
// exist, otherwise the failure propagates; contract (payload shape)
// failures always propagate.
func (r *Resolver) Resolve(ctx context.Context, reg models.Registry, opts Options) (Resolved, error) {
	log := logging.From(ctx)

	if r.offline || reg.Remote == nil {
		return Resolved{Entries: reg.Entries, Provenance: ProvenanceLocal}, nil
	}

	if reg.Remote.AuthEnv != "" {
		if _, ok := r.lookupEnv(reg.Remote.AuthEnv); !ok {
			log.Warn("resolver", "auth token missing, using local fallback entries",
				"registry", reg.ID, "auth_env", reg.Remote.AuthEnv,
				"hint", "set "+reg.Remote.AuthEnv+" to fetch remotely")
			return Resolved{Entries: reg.Entries, Provenance: ProvenanceLocal}, nil
		}
	}

	entries, err := r.fetchAll(ctx, reg, opts)
	if err != nil {
		if IsContractError(err) {
			return Resolved{}, err
		}
		if reg.Remote.FallbackToLocal && len(reg.Entries) > 0 {
			log.Warn("resolver", "remote fetch failed, using local fallback entries",
				"registry", reg.ID, "error", err.Error(), "fallback_count", len(reg.Entries))
			return Resolved{Entries: reg.Entries, Provenance: ProvenanceLocal}, nil
		}
		return Resolved{}, fmt.Errorf("registry %s: %w", reg.ID, err)
	}

	if len(entries) == 0 && len(reg.Entries) > 0 {
		// An empty incremental page is expected; an empty full fetch is
		// suspicious.
		if opts.UpdatedSince != "" {
			log.Info("resolver", "incremental fetch returned no entries, using local fallback entries",
				"registry", reg.ID, "fallback_count", len(reg.Entries))
		} else {
			log.Warn("resolver", "remote returned no entries, using local fallback entries",
				"registry", reg.ID, "fallback_count", len(reg.Entries))
		}
		return Resolved{Entries: reg.Entries, Provenance: ProvenanceLocal}, nil
	}

	return Resolved{Entries: entries, Provenance: ProvenanceRemote}, nil
}

// fetchAll accumulates all pages of a remote registry.
func (r *Resolver) fetchAll(ctx context.Context, reg models.Registry, opts Options) ([]any, error) {
	remote := reg.Remote
	var all []any
	cursor := ""

	for page := 0; ; page++ {
		if page >= MaxPages {
			return nil, &contractError{err: fmt.Errorf("registry %s: pagination exceeded %d pages without a terminal page", reg.ID, MaxPages)}
		}

		payload, err := r.fetchPage(ctx, reg, cursor, opts.UpdatedSince)
		if err != nil {
			return nil, err
		}

		entries, err := extractEntries(payload, remote.Format, remote.EntryPath, reg.Kind)
		if err != nil {
			return nil, &contractError{err: fmt.Errorf("registry %s: %w", reg.ID, err)}
		}
		all = append(all, entries...)

		if remote.Pagination == nil {
			return all, nil
		}
		cursor = nextCursor(payload, remote.Pagination.NextCursorPath)
		if cursor == "" {
			return all, nil
		}
	}
}

func (r *Resolver) fetchPage(ctx context.Context, reg models.Registry, cursor, updatedSince string) (any, error) {
	remote := reg.Remote

	u, err := url.Parse(remote.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote url %q: %w", remote.URL, err)
	}
	q := u.Query()
	if remote.SupportsUpdatedSince && updatedSince != "" {
		q.Set(remote.UpdatedSinceParam, updatedSince)
	}
	if remote.Pagination != nil {
		if remote.Pagination.LimitParam != "" && remote.Pagination.Limit > 0 {
			q.Set(remote.Pagination.LimitParam, strconv.Itoa(remote.Pagination.Limit))
		}
		if cursor != "" {
			q.Set(remote.Pagination.CursorParam, cursor)
		}
	}
	u.RawQuery = q.Encode()

	timeout := time.Duration(remote.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if remote.AuthEnv != "" {
		if token, ok := r.lookupEnv(remote.AuthEnv); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", reg.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("registry %s request failed with %s", reg.ID, resp.Status)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", reg.ID, err)
	}
	return payload, nil
}

// extractEntries reads the entry array out of a page payload. A resolved
// value that is not an array is a hard error.
func extractEntries(payload any, format, entryPath string, kind models.Kind) ([]any, error) {
	if format == models.FormatJSONArray {
		arr, ok := payload.([]any)
		if !ok {
			return nil, errors.New("expected remote payload to be an array")
		}
		return arr, nil
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, errors.New("expected remote payload to be an object for catalog-json format")
	}

	path := entryPath
	if path == "" {
		path = models.DefaultEntryPath(kind)
	}
	resolved := resolveByPath(obj, path)
	arr, ok := resolved.([]any)
	if !ok {
		return nil, fmt.Errorf("expected resolved catalog entries to be an array at path: %s", path)
	}
	return arr, nil
}

func resolveByPath(value map[string]any, path string) any {
	var current any = value
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			continue
		}
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[segment]
	}
	return current
}

func nextCursor(payload any, path string) string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	if path == "" {
		path = "next_cursor"
	}
	if s, ok := resolveByPath(obj, path).(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
