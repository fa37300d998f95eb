package service

import (
	"context"

	"tlgsite/internal/cache"
	"tlgsite/internal/model"
)

// collectionCachePrefixes maps a collection to the cached reads built from it. News items
// embed their tags and advertised roles embed the role, so those entries follow both.
var collectionCachePrefixes = map[string][]string{
	model.CollectionNews:        {newsCachePrefix},
	model.CollectionTags:        {tagsCachePrefix, newsCachePrefix},
	model.CollectionGames:       {gamesCachePrefix},
	model.CollectionPartners:    {partnersCachePrefix},
	model.CollectionUsers:       {usersCachePrefix},
	model.CollectionRoles:       {rolesCachePrefix, recruitmentCachePrefix},
	model.CollectionRecruitment: {recruitmentCachePrefix},
}

// CachePrefixes returns the cache prefixes holding reads of collection.
func CachePrefixes(collection string) []string {
	return collectionCachePrefixes[collection]
}

// InvalidateCollection drops every cached read built from collection. It is called for
// changes made outside the site, which the mutation services never see.
func InvalidateCollection(ctx context.Context, c *cache.Client, collection string) {
	for _, prefix := range CachePrefixes(collection) {
		_ = c.DeletePrefix(ctx, prefix)
	}
}
