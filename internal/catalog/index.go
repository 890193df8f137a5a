package catalog

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/lestrrat-go/ngram"

	"github.com/xenking/storefront/internal/product"
)

const (
	// MinQueryLen is the shortest query that produces suggestions.
	MinQueryLen = 2

	gramSize       = 3
	bloomFPR       = 0.01
	fuzzyThreshold = 0.3
	fuzzyLimit     = 10
)

// SearchResult is the outcome of a search: the matching products and the
// category of the best match, used to pad the grid with related products.
type SearchResult struct {
	Matches  []product.Product
	Category string
}

// Index answers title suggestions and searches over a catalog snapshot.
// It is immutable once built and safe for concurrent use.
type Index struct {
	products []product.Product
	lower    []string
	byTitle  map[string]int
	grams    *bloom.BloomFilter
	fuzzy    *ngram.Index
}

type fuzzyItem struct {
	idx   int
	title string
}

func (f fuzzyItem) Id() string      { return strconv.Itoa(f.idx) }
func (f fuzzyItem) Content() string { return f.title }

// NewIndex indexes products by title.
func NewIndex(products []product.Product) *Index {
	products = product.Dedup(products)

	n := 1
	for _, p := range products {
		n += utf8.RuneCountInString(p.Title)
	}

	idx := &Index{
		products: products,
		lower:    make([]string, len(products)),
		byTitle:  make(map[string]int, len(products)),
		grams:    bloom.NewWithEstimates(uint(n), bloomFPR),
		fuzzy:    ngram.NewIndex(gramSize),
	}
	for i, p := range products {
		title := strings.ToLower(p.Title)
		idx.lower[i] = title
		if _, ok := idx.byTitle[title]; !ok {
			idx.byTitle[title] = i
		}
		for _, g := range trigrams(title) {
			idx.grams.AddString(g)
		}
		// Errors only report items with empty content.
		_ = idx.fuzzy.AddItem(fuzzyItem{idx: i, title: title})
	}
	return idx
}

// Len returns the number of indexed products.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.products)
}

// Suggest returns products whose title contains query, case-insensitively,
// in catalog order. Queries shorter than MinQueryLen match nothing.
func (x *Index) Suggest(query string) []product.Product {
	q := normalize(query)
	if x == nil || utf8.RuneCountInString(q) < MinQueryLen {
		return nil
	}
	// Every trigram of a substring is a trigram of the title, so a trigram
	// absent from the filter rules out all titles.
	for _, g := range trigrams(q) {
		if !x.grams.TestString(g) {
			return nil
		}
	}

	var out []product.Product
	for i, title := range x.lower {
		if strings.Contains(title, q) {
			out = append(out, x.products[i])
		}
	}
	return out
}

// SuggestTitles returns the titles of Suggest(query).
func (x *Index) SuggestTitles(query string) []string {
	matches := x.Suggest(query)
	titles := make([]string, len(matches))
	for i, p := range matches {
		titles[i] = p.Title
	}
	return titles
}

// Search resolves query to products: an exact title match wins, then title
// substring matches, then fuzzy trigram matches ranked by similarity.
func (x *Index) Search(query string) SearchResult {
	q := normalize(query)
	if x == nil || q == "" {
		return SearchResult{}
	}

	if i, ok := x.byTitle[q]; ok {
		return newResult([]product.Product{x.products[i]})
	}
	if matches := x.Suggest(q); len(matches) > 0 {
		return newResult(matches)
	}
	return newResult(x.similar(q))
}

func (x *Index) similar(q string) []product.Product {
	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for res := range x.fuzzy.IterateSimilar(q, fuzzyThreshold, fuzzyLimit) {
		item, ok := res.Item.(fuzzyItem)
		if !ok {
			continue
		}
		hits = append(hits, scored{idx: item.idx, score: res.Score})
	}
	slices.SortStableFunc(hits, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.idx, b.idx)
	})

	out := make([]product.Product, 0, len(hits))
	for _, h := range hits {
		out = append(out, x.products[h.idx])
	}
	return out
}

func newResult(matches []product.Product) SearchResult {
	if len(matches) == 0 {
		return SearchResult{}
	}
	return SearchResult{Matches: matches, Category: matches[0].Category}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func trigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < gramSize {
		return nil
	}
	out := make([]string, 0, len(runes)-gramSize+1)
	for i := 0; i+gramSize <= len(runes); i++ {
		out = append(out, string(runes[i:i+gramSize]))
	}
	return out
}
