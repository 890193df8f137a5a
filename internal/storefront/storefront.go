// Package storefront turns user intents into cart mutations, snapshot
// writes and view updates.
package storefront

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/cart"
	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/persist"
	"github.com/xenking/storefront/internal/product"
	"github.com/xenking/storefront/internal/view"
)

// DefaultFetchConcurrency bounds parallel catalog requests during restore
// and search.
const DefaultFetchConcurrency = 8

// ErrNotInCart is returned when a cart adjustment names a product that is
// not in the cart.
var ErrNotInCart = errors.New("product not in cart")

// ErrNotOnGrid is returned when a grid intent names a product that is not
// displayed.
var ErrNotOnGrid = errors.New("product not on grid")

// Options configures an App.
type Options struct {
	Catalog product.Catalog
	Adapter *persist.Adapter
	Surface view.Surface
	Logger  *zap.Logger

	// FetchConcurrency bounds parallel catalog requests. Defaults to
	// DefaultFetchConcurrency.
	FetchConcurrency int
	MeterProvider    metric.MeterProvider
}

// App owns the cart and everything derived from it. Dispatch runs each
// intent to completion before the next one starts.
type App struct {
	mu sync.Mutex

	cart       *cart.Store
	adapter    *persist.Adapter
	catalog    *catalog.Cache
	index      *catalog.Index
	categories []string
	grid       []product.Product
	selectors  map[string]int
	syncer     *view.Synchronizer
	snapshots  view.Snapshotter
	limit      int
	lg         *zap.Logger

	mutations metric.Int64Counter
	intents   metric.Int64Counter
}

// New returns an App with an empty cart. Call Start or Restore to load the
// persisted snapshot.
func New(opts Options) (*App, error) {
	if opts.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if opts.Adapter == nil {
		return nil, errors.New("adapter is required")
	}
	if opts.Surface == nil {
		return nil, errors.New("surface is required")
	}
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	limit := opts.FetchConcurrency
	if limit <= 0 {
		limit = DefaultFetchConcurrency
	}
	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter("storefront")
	mutations, err := meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations persisted"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create mutations counter")
	}
	intents, err := meter.Int64Counter("storefront.intents",
		metric.WithDescription("Intents dispatched"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create intents counter")
	}

	cache, ok := opts.Catalog.(*catalog.Cache)
	if !ok {
		cache = catalog.NewCache(opts.Catalog)
	}

	snapshots, _ := opts.Surface.(view.Snapshotter)

	return &App{
		cart:      cart.New(),
		snapshots: snapshots,
		adapter:   opts.Adapter,
		catalog:   cache,
		selectors: make(map[string]int),
		syncer:    view.NewSynchronizer(opts.Surface),
		limit:     limit,
		lg:        lg,
		mutations: mutations,
		intents:   intents,
	}, nil
}

// Start loads the category list and the full catalog for search, then
// restores the persisted cart. Catalog failures are logged; search then
// returns no results.
func (a *App) Start(ctx context.Context) {
	categories, err := a.catalog.FetchCategories(ctx)
	if err != nil {
		a.lg.Error("Fetch categories", zap.Error(err))
	}
	all, err := a.catalog.FetchAll(ctx)
	if err != nil {
		a.lg.Error("Fetch catalog", zap.Error(err))
	}

	a.mu.Lock()
	a.categories = categories
	if err == nil {
		a.index = catalog.NewIndex(all)
		a.lg.Info("Search index built", zap.Int("products", a.index.Len()))
	}
	a.mu.Unlock()

	a.Restore(ctx)
}

// Restore replaces the cart with the persisted snapshot. Every referenced
// product is fetched concurrently and the view is rendered once after all
// fetches finish. Products the catalog no longer has are dropped from the
// cart; products that failed to load for other reasons stay in the cart
// and render as unavailable. The snapshot is rewritten when it differs
// from the restored cart.
func (a *App) Restore(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	restored, normalized := a.adapter.LoadNormalized(ctx)
	ids := restored.IDs()

	results := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(a.limit)
	for i, id := range ids {
		g.Go(func() error {
			_, err := a.catalog.FetchProduct(ctx, id)
			results[i] = err
			return nil
		})
	}
	_ = g.Wait()

	var pruned []string
	for i, err := range results {
		switch {
		case err == nil:
		case errors.Is(err, product.ErrNotFound):
			restored.Remove(ids[i])
			pruned = append(pruned, ids[i])
		default:
			a.lg.Warn("Restore product",
				zap.String("product_id", ids[i]),
				zap.Error(err),
			)
		}
	}

	a.cart = restored
	if len(pruned) > 0 {
		a.lg.Info("Pruned unknown products from cart", zap.Strings("product_ids", pruned))
	}
	if len(pruned) > 0 || normalized {
		if err := a.adapter.Save(ctx, a.cart); err != nil {
			a.lg.Error("Rewrite cart snapshot", zap.Error(err))
		}
	}
	a.syncer.Refresh(a.cart, a.catalog.Lookup)

	a.lg.Debug("Cart restored",
		zap.Int("entries", a.cart.Len()),
		zap.Int("items", a.cart.TotalItems()),
	)
}

// Dispatch handles one intent. Cart-touching intents return only after
// the snapshot is written and the view refreshed. When the surface can
// take snapshots, Result.View holds the view as this intent left it.
func (a *App) Dispatch(ctx context.Context, in Intent) (Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.intents.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", in.Kind())))

	res, err := a.handle(ctx, in)
	if err == nil && a.snapshots != nil {
		m := a.snapshots.Snapshot()
		res.View = &m
	}
	return res, err
}

func (a *App) handle(ctx context.Context, in Intent) (Result, error) {
	var err error
	switch in := in.(type) {
	case Search:
		return a.search(ctx, in.Query)
	case Suggest:
		return Result{Suggestions: a.index.SuggestTitles(in.Query)}, nil
	case AddToCart:
		err = a.addToCart(ctx, in.ProductID, in.Quantity)
	case AdjustQuantity:
		if in.Origin == OriginCart {
			err = a.adjustCart(ctx, in.ProductID, in.Delta)
		} else {
			err = a.adjustGrid(in.ProductID, in.Delta)
		}
	case RemoveFromCart:
		err = a.removeFromCart(ctx, in.ProductID)
	case CommitCard:
		err = a.commitCard(ctx, in.ProductID)
	default:
		err = errors.Errorf("unknown intent %T", in)
	}
	return Result{}, err
}

// Categories returns the category names loaded by Start.
func (a *App) Categories() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.categories...)
}

// Entries returns the cart contents, most recent first.
func (a *App) Entries() []cart.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cart.Entries()
}

// Selector returns the quantity selected on a grid card.
func (a *App) Selector(id string) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	qty, ok := a.selectors[id]
	return qty, ok
}

func (a *App) search(ctx context.Context, query string) (Result, error) {
	res := a.index.Search(query)
	if len(res.Matches) == 0 {
		a.setGrid(nil)
		return Result{}, nil
	}

	products, err := a.fetchGrid(ctx, res)
	if err != nil {
		a.lg.Error("Search", zap.String("query", query), zap.Error(err))
		return Result{}, err
	}
	a.setGrid(products)
	return Result{Matches: len(res.Matches)}, nil
}

// fetchGrid fetches fresh records for the matches and the listing of the
// best match's category, in that order and without duplicates.
func (a *App) fetchGrid(ctx context.Context, res catalog.SearchResult) ([]product.Product, error) {
	lists := make([][]product.Product, len(res.Matches)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for i, m := range res.Matches {
		g.Go(func() error {
			p, err := a.catalog.FetchProduct(gctx, m.ID)
			if err != nil {
				return errors.Wrapf(err, "fetch product %q", m.ID)
			}
			lists[i] = []product.Product{*p}
			return nil
		})
	}
	g.Go(func() error {
		related, err := a.catalog.FetchCategory(gctx, res.Category)
		if err != nil {
			return errors.Wrapf(err, "fetch category %q", res.Category)
		}
		lists[len(res.Matches)] = related
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []product.Product
	for _, l := range lists {
		out = append(out, l...)
	}
	return product.Dedup(out), nil
}

func (a *App) setGrid(products []product.Product) {
	a.grid = products
	a.selectors = make(map[string]int, len(products))
	for _, p := range products {
		a.selectors[p.ID] = 1
	}
	a.syncer.RenderGrid(products, a.selectors)
}

func (a *App) gridProduct(id string) (product.Product, bool) {
	for _, p := range a.grid {
		if p.ID == id {
			return p, true
		}
	}
	return product.Product{}, false
}

func (a *App) addToCart(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return nil
	}
	if !a.cart.Has(id) {
		if _, ok := a.catalog.Lookup(id); !ok {
			if _, err := a.catalog.FetchProduct(ctx, id); err != nil {
				a.lg.Warn("Add to cart",
					zap.String("product_id", id),
					zap.Error(err),
				)
				return err
			}
		}
	}

	if err := a.mutate(ctx, "add", func(c *cart.Store) { c.Add(id, qty) }); err != nil {
		return err
	}
	a.syncer.Refresh(a.cart, a.catalog.Lookup)
	return nil
}

func (a *App) adjustGrid(id string, delta int) error {
	p, ok := a.gridProduct(id)
	if !ok {
		return ErrNotOnGrid
	}
	qty := cart.Shift(a.selectors[id], delta)
	a.selectors[id] = qty
	a.syncer.SyncQuantityDisplay(view.RegionGrid, p, qty)
	return nil
}

func (a *App) adjustCart(ctx context.Context, id string, delta int) error {
	current := a.cart.Get(id)
	if current == 0 {
		return ErrNotInCart
	}
	qty := cart.Shift(current, delta)
	if qty == 0 {
		return a.removeFromCart(ctx, id)
	}
	if qty == current {
		return nil
	}

	if err := a.mutate(ctx, "adjust", func(c *cart.Store) { c.SetQuantity(id, qty) }); err != nil {
		return err
	}
	if p, ok := a.catalog.Lookup(id); ok {
		a.syncer.SyncQuantityDisplay(view.RegionCart, p, qty)
		a.syncer.RenderCounter(a.cart)
		return nil
	}
	a.syncer.Refresh(a.cart, a.catalog.Lookup)
	return nil
}

func (a *App) removeFromCart(ctx context.Context, id string) error {
	if !a.cart.Has(id) {
		return nil
	}
	if err := a.mutate(ctx, "remove", func(c *cart.Store) { c.Remove(id) }); err != nil {
		return err
	}
	a.syncer.RemoveLine(id)
	a.syncer.RenderCounter(a.cart)
	return nil
}

// commitCard adds the selected quantity to the cart. The selector resets
// to 1 whether or not the add succeeded.
func (a *App) commitCard(ctx context.Context, id string) error {
	p, ok := a.gridProduct(id)
	if !ok {
		return ErrNotOnGrid
	}

	var err error
	if qty := a.selectors[id]; qty > 0 {
		err = a.addToCart(ctx, id, qty)
	}
	a.selectors[id] = 1
	a.syncer.SyncQuantityDisplay(view.RegionGrid, p, 1)
	return err
}

// mutate applies fn and writes the snapshot. When the write fails the
// cart is restored to its previous contents.
func (a *App) mutate(ctx context.Context, op string, fn func(c *cart.Store)) error {
	prev := a.cart.Clone()
	fn(a.cart)
	if a.cart.Equal(prev) {
		return nil
	}

	if err := a.adapter.Save(ctx, a.cart); err != nil {
		a.cart = prev
		a.lg.Error("Persist cart",
			zap.String("op", op),
			zap.Error(err),
		)
		return errors.Wrap(err, op)
	}
	a.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	return nil
}
