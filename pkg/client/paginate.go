package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DoPaginated executes a GET request and follows rel="next" Link headers
// until the last page, returning all items in server order. Any page failure
// aborts the whole call; partial results are never returned.
func (c *Client) DoPaginated(ctx context.Context, req Request) ([]json.RawMessage, error) {
	if req.Method != http.MethodGet {
		return nil, fmt.Errorf("paginated requests must be GET, got %s", req.Method)
	}

	var items []json.RawMessage
	next := req

	for {
		resp, err := c.Do(ctx, next)
		if err != nil {
			return nil, err
		}

		page, err := decodePage(resp)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)

		nextURL := nextPageURL(resp.Link())
		if nextURL == "" {
			return items, nil
		}
		// The server encodes page and query into the next URL; follow it
		// exactly rather than re-applying the original query.
		next = Request{Method: http.MethodGet, Path: nextURL}
	}
}

// FetchPage retrieves one explicit page of a paginated endpoint and reports
// the total page count from the rel="last" link. It satisfies the batch
// fetcher's PageFetcher contract in pkg/pagination.
func (c *Client) FetchPage(ctx context.Context, path string, query url.Values, page int) ([]json.RawMessage, int, error) {
	q := url.Values{}
	for name, values := range query {
		q[name] = values
	}
	q.Set("page", strconv.Itoa(page))

	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return nil, 0, err
	}

	items, err := decodePage(resp)
	if err != nil {
		return nil, 0, err
	}

	// On every page but the last, rel="last" names the final page number.
	// On the last page the link is absent and the current page is the total.
	total := page
	if last := lastPageURL(resp.Link()); last != "" {
		if n, err := pageParam(last); err == nil {
			total = n
		}
	}

	return items, total, nil
}

// decodePage interprets a paginated response body, which must be a JSON array.
func decodePage(resp *Response) ([]json.RawMessage, error) {
	var page []json.RawMessage
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, &APIError{
			Kind:       KindAPI,
			StatusCode: resp.StatusCode,
			Message:    "expected list response for paginated endpoint",
			Body:       resp.Body,
			RequestID:  resp.RequestID(),
			Err:        err,
		}
	}
	return page, nil
}

// pageParam extracts the page query parameter from a pagination URL.
func pageParam(rawURL string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(u.Query().Get("page"))
}
