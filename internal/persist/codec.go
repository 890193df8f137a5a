package persist

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/cart"
)

// MalformedStorageError indicates a persisted snapshot could not be decoded.
type MalformedStorageError struct {
	Key string
	Err error
}

func (e *MalformedStorageError) Error() string {
	return fmt.Sprintf("malformed snapshot %q: %v", e.Key, e.Err)
}

func (e *MalformedStorageError) Unwrap() error {
	return e.Err
}

// Encode serializes entries as a JSON array of {"id", "quantity"} records.
func Encode(entries []cart.Entry) []byte {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, entry := range entries {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(entry.ProductID) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(entry.Quantity) })
			})
		}
	})
	return e.Bytes()
}

// Decode parses a snapshot produced by Encode. Records are returned as
// stored, including non-positive quantities; filtering is left to the
// caller. Numeric ids are accepted and rendered in base 10. A JSON null
// document decodes to no entries.
func Decode(data []byte) ([]cart.Entry, error) {
	if !jx.Valid(data) {
		return nil, errors.New("invalid json")
	}

	d := jx.DecodeBytes(data)
	switch tt := d.Next(); tt {
	case jx.Null:
		return nil, nil
	case jx.Array:
	default:
		return nil, errors.Errorf("expected array, got %s", tt)
	}

	var entries []cart.Entry
	if err := d.Arr(func(d *jx.Decoder) error {
		entry, err := decodeEntry(d)
		if err != nil {
			return errors.Wrapf(err, "record %d", len(entries))
		}
		entries = append(entries, entry)
		return nil
	}); err != nil {
		return nil, err
	}
	return entries, nil
}

func decodeEntry(d *jx.Decoder) (cart.Entry, error) {
	var entry cart.Entry
	if tt := d.Next(); tt != jx.Object {
		return entry, errors.Errorf("expected object, got %s", tt)
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			id, err := decodeID(d)
			if err != nil {
				return errors.Wrap(err, "id")
			}
			entry.ProductID = id
		case "quantity":
			q, err := decodeQuantity(d)
			if err != nil {
				return errors.Wrap(err, "quantity")
			}
			entry.Quantity = q
		default:
			return d.Skip()
		}
		return nil
	})
	return entry, err
}

func decodeID(d *jx.Decoder) (string, error) {
	switch tt := d.Next(); tt {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", errors.Errorf("unexpected type %s", tt)
	}
}

func decodeQuantity(d *jx.Decoder) (int, error) {
	switch tt := d.Next(); tt {
	case jx.Number:
		f, err := d.Float64()
		if err != nil {
			return 0, err
		}
		if math.Trunc(f) != f {
			return 0, errors.Errorf("quantity %v is not an integer", f)
		}
		// Out of range values saturate so FromEntries can clamp them.
		switch {
		case f >= math.MaxInt:
			return math.MaxInt, nil
		case f <= math.MinInt:
			return math.MinInt, nil
		}
		return int(f), nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		return strconv.Atoi(s)
	case jx.Null:
		return 0, d.Null()
	default:
		return 0, errors.Errorf("unexpected type %s", tt)
	}
}
