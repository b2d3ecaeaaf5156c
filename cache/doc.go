// Package cache provides the read-through cache contract and the key serializer
// shared by the console's list and detail caches.
//
// List screens key their entries with SerializeKey(resource, projectedFilter); detail
// screens key single records with SerializeKey("GetByID", resource, id). Because the
// serializer sorts map keys and treats nil and empty collections alike, field-wise
// equal filters always land on the same key.
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	menu, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (api.Menu, error) {
//		return menus.GetByID(ctx, id)
//	})
//
// Invalidation is prefix based: DeleteByPrefix(ctx, SerializeKey("GetByID", "menus")+KeySeparator)
// drops every detail key of the menus resource.
package cache
