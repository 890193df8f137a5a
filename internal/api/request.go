package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

const maxRequestBody = 64 << 10

// requestError is a client error with its response status.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(msg string) error {
	return &requestError{status: http.StatusBadRequest, msg: msg}
}

func unprocessable(msg string) error {
	return &requestError{status: http.StatusUnprocessableEntity, msg: msg}
}

type addItemRequest struct {
	ProductID string
	Quantity  int
}

// decodeAddItem reads {"productId": "1", "quantity": 2}. The id may be a
// number and the quantity defaults to 1.
func decodeAddItem(r *http.Request) (addItemRequest, error) {
	req := addItemRequest{Quantity: 1}
	d, err := readBody(r)
	if err != nil {
		return req, err
	}

	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			id, err := decodeProductID(d)
			if err != nil {
				return err
			}
			req.ProductID = id
			return nil
		case "quantity":
			q, err := decodeInt(d, "quantity")
			if err != nil {
				return err
			}
			req.Quantity = q
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return req, asRequestError(err)
	}

	if req.ProductID == "" {
		return req, unprocessable("productId is required")
	}
	if req.Quantity < 1 {
		return req, unprocessable("quantity must be at least 1")
	}
	return req, nil
}

// decodeDelta reads {"delta": -1}.
func decodeDelta(r *http.Request) (int, error) {
	d, err := readBody(r)
	if err != nil {
		return 0, err
	}

	var (
		delta int
		seen  bool
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "delta" {
			return d.Skip()
		}
		v, err := decodeInt(d, "delta")
		if err != nil {
			return err
		}
		delta, seen = v, true
		return nil
	}); err != nil {
		return 0, asRequestError(err)
	}
	if !seen {
		return 0, unprocessable("delta is required")
	}
	return delta, nil
}

func readBody(r *http.Request) (*jx.Decoder, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		return nil, badRequest("read body")
	}
	if len(body) > maxRequestBody {
		return nil, &requestError{status: http.StatusRequestEntityTooLarge, msg: "body too large"}
	}
	if !jx.Valid(body) {
		return nil, badRequest("body is not valid JSON")
	}
	return jx.DecodeBytes(body), nil
}

func decodeProductID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Int()
		if err != nil {
			return "", unprocessable("productId must be an integer or a string")
		}
		return strconv.Itoa(n), nil
	default:
		return "", unprocessable("productId must be an integer or a string")
	}
}

func decodeInt(d *jx.Decoder, field string) (int, error) {
	if d.Next() != jx.Number {
		return 0, unprocessable(field + " must be an integer")
	}
	n, err := d.Int()
	if err != nil {
		return 0, unprocessable(field + " must be an integer")
	}
	return n, nil
}

// asRequestError keeps field errors and reports anything else, such as a
// non-object body, as a bad request.
func asRequestError(err error) error {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	return badRequest("body must be a JSON object")
}
