package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/turtacn/bref-insight/pkg/errors"
)

// FixturesClient reads data fixtures served under the data prefix.  Its
// Fetch method satisfies the document store's Source contract, so a remote
// server can back a local store.
type FixturesClient struct {
	client *Client
}

// Fetch returns the raw bytes of the fixture at p (e.g. "summary.json").
// A 404 maps to ErrCodeResourceNotFound; every other failure to
// ErrCodeFetchFailed, or ErrCodeFetchTimeout when ctx ended.
func (f *FixturesClient) Fetch(ctx context.Context, p string) ([]byte, error) {
	rel := strings.TrimLeft(strings.ReplaceAll(p, "\\", "/"), "/")
	if rel == "" {
		return nil, errors.New(errors.ErrCodeValidation, "empty fixture path")
	}
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	data, err := f.client.do(ctx, http.MethodGet, f.client.dataPrefix+"/"+strings.Join(segments, "/"), nil)
	if err == nil {
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFetchTimeout, "fixture fetch abandoned").WithDetail(rel)
	}
	if apiErr, ok := err.(*APIError); ok && apiErr.IsNotFound() {
		return nil, errors.New(errors.ErrCodeResourceNotFound, "fixture not found").WithDetail(rel).WithCause(err)
	}
	return nil, errors.Wrap(err, errors.ErrCodeFetchFailed, "fixture fetch failed").WithDetail(rel)
}

//Personal.AI order the ending
