package genai

import (
	"context"
	"net/http"
	"net/url"

	gkerrors "github.com/kbukum/genaikit/errors"
)

// CachedContents is the cachedContents resource.
type CachedContents struct {
	client *Client
}

// Create stores a cache entry. The model defaults to the client default.
func (cc *CachedContents) Create(ctx context.Context, content *CachedContent) (*CachedContent, error) {
	if content == nil {
		return nil, gkerrors.MissingField("cached_content")
	}
	name, err := cc.client.resolveModel(content.Model)
	if err != nil {
		return nil, err
	}
	if len(content.Contents) == 0 && content.SystemInstruction == nil {
		return nil, gkerrors.MissingField("contents")
	}
	if content.TTL != "" && content.ExpireTime != "" {
		return nil, gkerrors.InvalidInput("ttl", "set either ttl or expire_time, not both")
	}

	body := *content
	body.Model = name

	var out CachedContent
	if err := cc.client.call(ctx, "create_cached_content", http.MethodPost, "cachedContents", nil, &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns a cache entry. name may omit the "cachedContents/" prefix.
func (cc *CachedContents) Get(ctx context.Context, name string) (*CachedContent, error) {
	if name == "" {
		return nil, gkerrors.MissingField("name")
	}
	var out CachedContent
	if err := cc.client.call(ctx, "get_cached_content", http.MethodGet, cachedContentName(name), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns one page of cache entries. opts may be nil.
func (cc *CachedContents) List(ctx context.Context, opts *ListOptions) (*ListCachedContentsResponse, error) {
	var out ListCachedContentsResponse
	if err := cc.client.call(ctx, "list_cached_contents", http.MethodGet, "cachedContents", pageQuery(opts), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update changes the expiration of a cache entry.
func (cc *CachedContents) Update(ctx context.Context, name string, update *CachedContentUpdate) (*CachedContent, error) {
	if name == "" {
		return nil, gkerrors.MissingField("name")
	}
	if update == nil || (update.TTL == "") == (update.ExpireTime == "") {
		return nil, gkerrors.InvalidInput("update", "set exactly one of ttl or expire_time")
	}

	mask := "ttl"
	if update.ExpireTime != "" {
		mask = "expireTime"
	}
	query := url.Values{"updateMask": {mask}}

	var out CachedContent
	if err := cc.client.call(ctx, "update_cached_content", http.MethodPatch, cachedContentName(name), query, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a cache entry.
func (cc *CachedContents) Delete(ctx context.Context, name string) error {
	if name == "" {
		return gkerrors.MissingField("name")
	}
	return cc.client.call(ctx, "delete_cached_content", http.MethodDelete, cachedContentName(name), nil, nil, nil)
}
