package repository

import (
	"context"

	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/pocketbase"
)

// CollectionRepository is the data access of one backend collection. Every method of a
// repository built on an unavailable handle returns errors.ErrUnavailable.
type CollectionRepository interface {
	Collection() string
	Available() bool
	List(ctx context.Context, opts pocketbase.ListOptions) (*pocketbase.ListResult, error)
	FullList(ctx context.Context, opts pocketbase.ListOptions) ([]pocketbase.Record, error)
	Get(ctx context.Context, id string, opts pocketbase.RecordOptions) (pocketbase.Record, error)
	First(ctx context.Context, filter string, opts pocketbase.ListOptions) (pocketbase.Record, error)
	Create(ctx context.Context, body pocketbase.Payload, opts pocketbase.RecordOptions) (pocketbase.Record, error)
	Update(ctx context.Context, id string, body pocketbase.Payload, opts pocketbase.RecordOptions) (pocketbase.Record, error)
	Delete(ctx context.Context, id string) error
	// FileURL resolves an uploaded file of any collection, so expanded relations resolve too.
	FileURL(collection, recordID, fileName string) string
}

type collectionRepository struct {
	handle     pocketbase.Handle
	collection string
}

// NewCollectionRepository creates a repository for collection on handle.
func NewCollectionRepository(handle pocketbase.Handle, collection string) CollectionRepository {
	return &collectionRepository{handle: handle, collection: collection}
}

func (r *collectionRepository) Collection() string {
	return r.collection
}

func (r *collectionRepository) Available() bool {
	return r.handle.IsAvailable()
}

func (r *collectionRepository) client() (*pocketbase.Client, error) {
	c, ok := r.handle.Client()
	if !ok {
		return nil, apperrors.ErrUnavailable
	}
	return c, nil
}

func (r *collectionRepository) List(ctx context.Context, opts pocketbase.ListOptions) (*pocketbase.ListResult, error) {
	c, err := r.client()
	if err != nil {
		return nil, err
	}
	return c.GetList(ctx, r.collection, opts)
}

func (r *collectionRepository) FullList(ctx context.Context, opts pocketbase.ListOptions) ([]pocketbase.Record, error) {
	c, err := r.client()
	if err != nil {
		return nil, err
	}
	return c.GetFullList(ctx, r.collection, pocketbase.DefaultBatchSize, opts)
}

func (r *collectionRepository) Get(ctx context.Context, id string, opts pocketbase.RecordOptions) (pocketbase.Record, error) {
	c, err := r.client()
	if err != nil {
		return nil, err
	}
	return c.GetOne(ctx, r.collection, id, opts)
}

func (r *collectionRepository) First(ctx context.Context, filter string, opts pocketbase.ListOptions) (pocketbase.Record, error) {
	c, err := r.client()
	if err != nil {
		return nil, err
	}
	return c.GetFirstListItem(ctx, r.collection, filter, opts)
}

func (r *collectionRepository) Create(ctx context.Context, body pocketbase.Payload, opts pocketbase.RecordOptions) (pocketbase.Record, error) {
	c, err := r.client()
	if err != nil {
		return nil, err
	}
	return c.Create(ctx, r.collection, body, opts)
}

func (r *collectionRepository) Update(ctx context.Context, id string, body pocketbase.Payload, opts pocketbase.RecordOptions) (pocketbase.Record, error) {
	c, err := r.client()
	if err != nil {
		return nil, err
	}
	return c.Update(ctx, r.collection, id, body, opts)
}

func (r *collectionRepository) Delete(ctx context.Context, id string) error {
	c, err := r.client()
	if err != nil {
		return err
	}
	return c.Delete(ctx, r.collection, id)
}

func (r *collectionRepository) FileURL(collection, recordID, fileName string) string {
	return r.handle.FileURL(collection, recordID, fileName)
}
