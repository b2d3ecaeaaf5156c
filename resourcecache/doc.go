// Package resourcecache decorates the API resources with the console's caches.
//
// # Overview
//
// A CachedResource wraps the remote resource of one list screen. Reads go
// through two caches and writes go through the mutation protocol:
//
//   - List reads use the listcache: one in-flight request per filter key,
//     entries shared between screens and released with their last observer
//   - GetByID reads use the sturdyc backed cache.CacheService, read-through,
//     with concurrent identical reads coalesced
//   - Mutate runs a mutation.Request; on success both caches are invalidated
//
// # Basic Usage
//
//	services := api.NewServices(client)
//	menus := resourcecache.New[api.Menu](filter.Menus, services.Menus, cacheService, cache.NewDefaultKeySerializer())
//
//	entry, err := menus.List(ctx, filter.New())
//	menu, err := menus.GetByID(ctx, "m-1")
//
//	res := menus.Mutate(ctx, mutation.Request[api.Menu]{
//		Operation: mutation.Create,
//		Input:     form.MenuForm{Name: "Soto", Price: "12000"},
//		Call: func(ctx context.Context) (api.Menu, error) {
//			return services.Menus.Save(ctx, api.MenuInput{Name: "Soto", Price: decimal.NewFromInt(12000)}, nil)
//		},
//		ReturnTo: "/dashboard/menu",
//	})
//
// # Cache Invalidation
//
// Detail keys are tracked in a key registry as they are handed to the cache and
// removed by prefix ("GetByID::<resource>::") when the resource is invalidated.
// List entries are discarded through listcache.Cache.Invalidate. Observers that
// are still mounted refetch on their next read.
//
// When several resources share one mutation.Mutator, pass it with WithMutator
// and register every CachedResource as an invalidator. Without a shared
// mutator each resource builds its own that invalidates only itself.
//
// # Error Handling
//
// Errors from the backend are returned unchanged and never cached. Failed list
// fetches are kept as error entries until the filter changes or the resource
// is invalidated.
package resourcecache
