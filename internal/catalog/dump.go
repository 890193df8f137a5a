package catalog

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"

	"github.com/xenking/storefront/internal/product"
)

var _ product.Catalog = (*Dump)(nil)

// Dump is an in-memory catalog loaded from a JSON array in the upstream
// product format. It serves offline runs and tests.
type Dump struct {
	products []product.Product
	byID     map[string]int
}

// NewDump builds a Dump from products. Duplicate ids keep the first entry.
func NewDump(products []product.Product) *Dump {
	products = product.Dedup(products)
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}
	return &Dump{products: products, byID: byID}
}

// LoadDump reads a dump file. Paths ending in ".gz" are gunzipped.
func LoadDump(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	return ReadDump(r)
}

// ReadDump decodes a dump from r.
func ReadDump(r io.Reader) (*Dump, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read dump")
	}
	products, err := decodeProducts(jx.DecodeBytes(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode dump")
	}
	return NewDump(products), nil
}

// WriteDumpFile writes products to path, gzipped when path ends in ".gz".
func WriteDumpFile(path string, products []product.Product) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = errors.Wrapf(err, "close %s", path)
		}
	}()

	if !strings.HasSuffix(path, ".gz") {
		return WriteDump(f, products)
	}

	gz := pgzip.NewWriter(f)
	if err := WriteDump(gz, products); err != nil {
		_ = gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "flush gzip")
	}
	return nil
}

// WriteDump encodes products to w in the upstream product format.
func WriteDump(w io.Writer, products []product.Product) error {
	var e jx.Encoder
	encodeProducts(&e, products)
	if _, err := w.Write(e.Bytes()); err != nil {
		return errors.Wrap(err, "write dump")
	}
	return nil
}

// Products returns a copy of all products in dump order.
func (d *Dump) Products() []product.Product {
	return slices.Clone(d.products)
}

// FetchProduct returns the product with id or product.ErrNotFound.
func (d *Dump) FetchProduct(_ context.Context, id string) (*product.Product, error) {
	i, ok := d.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := d.products[i]
	return &p, nil
}

// FetchCategory returns the products in category.
func (d *Dump) FetchCategory(_ context.Context, category string) ([]product.Product, error) {
	out := []product.Product{}
	for _, p := range d.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

// FetchAll returns every product.
func (d *Dump) FetchAll(context.Context) ([]product.Product, error) {
	return d.Products(), nil
}

// FetchCategories returns category names in first-seen order.
func (d *Dump) FetchCategories(context.Context) ([]string, error) {
	out := []string{}
	for _, p := range d.products {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out, nil
}
