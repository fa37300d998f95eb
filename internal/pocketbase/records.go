package pocketbase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultBatchSize is the page size GetFullList uses when none is given.
const DefaultBatchSize = 200

// ListOptions are the query parameters shared by the list endpoints.
type ListOptions struct {
	Page      int
	PerPage   int
	Sort      string
	Filter    string
	Expand    string
	Fields    string
	SkipTotal bool
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(o.PerPage))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Expand != "" {
		q.Set("expand", o.Expand)
	}
	if o.Fields != "" {
		q.Set("fields", o.Fields)
	}
	if o.SkipTotal {
		q.Set("skipTotal", "1")
	}
	return q
}

// RecordOptions are the query parameters accepted by single record endpoints.
type RecordOptions struct {
	Expand string
	Fields string
}

func (o RecordOptions) query() url.Values {
	q := url.Values{}
	if o.Expand != "" {
		q.Set("expand", o.Expand)
	}
	if o.Fields != "" {
		q.Set("fields", o.Fields)
	}
	return q
}

// ListResult is one page of records.
type ListResult struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalItems int      `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
	Items      []Record `json:"items"`
}

func (c *Client) GetList(ctx context.Context, collection string, opts ListOptions) (*ListResult, error) {
	var res ListResult
	if err := c.send(ctx, http.MethodGet, collectionPath(collection, "records"), opts.query(), nil, &res); err != nil {
		return nil, err
	}
	if res.Items == nil {
		res.Items = []Record{}
	}
	return &res, nil
}

func (c *Client) GetOne(ctx context.Context, collection, id string, opts RecordOptions) (Record, error) {
	var rec Record
	if err := c.send(ctx, http.MethodGet, collectionPath(collection, "records", id), opts.query(), nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetFullList pages through the whole collection. Page and PerPage in opts are ignored.
func (c *Client) GetFullList(ctx context.Context, collection string, batchSize int, opts ListOptions) ([]Record, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	opts.PerPage = batchSize
	opts.SkipTotal = true

	items := []Record{}
	for page := 1; ; page++ {
		opts.Page = page
		res, err := c.GetList(ctx, collection, opts)
		if err != nil {
			return nil, err
		}
		items = append(items, res.Items...)
		if len(res.Items) < batchSize {
			return items, nil
		}
	}
}

// GetFirstListItem returns the first record matching filter, or a 404 ClientError when none does.
func (c *Client) GetFirstListItem(ctx context.Context, collection, filter string, opts ListOptions) (Record, error) {
	opts.Page = 1
	opts.PerPage = 1
	opts.Filter = filter
	opts.SkipTotal = true

	res, err := c.GetList(ctx, collection, opts)
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, &ClientError{
			URL:     c.endpoint(collectionPath(collection, "records"), opts.query()),
			Status:  http.StatusNotFound,
			Message: "The requested resource wasn't found.",
		}
	}
	return res.Items[0], nil
}

// Create never retries: the service has no idempotency key, a resend would duplicate the record.
func (c *Client) Create(ctx context.Context, collection string, body Payload, opts RecordOptions) (Record, error) {
	var rec Record
	if err := c.send(ctx, http.MethodPost, collectionPath(collection, "records"), opts.query(), body, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *Client) Update(ctx context.Context, collection, id string, body Payload, opts RecordOptions) (Record, error) {
	var rec Record
	if err := c.send(ctx, http.MethodPatch, collectionPath(collection, "records", id), opts.query(), body, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.send(ctx, http.MethodDelete, collectionPath(collection, "records", id), nil, nil, nil)
}
