package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"TabQueryAPI/internal/filter"
	"TabQueryAPI/internal/model"
	"TabQueryAPI/internal/querystring"
)

const maxBodyBytes = 1 << 20

var (
	errBadBody          = errors.New("invalid request body")
	errMethodNotAllowed = errors.New("method not allowed")
	errModelNotFound    = errors.New("model not found")
)

type requestIDKey struct{}

// WithRequestID stores the request id for handler logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, "" when absent.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// lookupModel resolves the {model} path segment.
func lookupModel(r *http.Request) (*model.Model, error) {
	name := r.PathValue("model")
	m, ok := model.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errModelNotFound, name)
	}
	return m, nil
}

// readRequest binds a filter request from the query string (GET) or a
// JSON body (POST).
func readRequest(w http.ResponseWriter, r *http.Request) (filter.Request, error) {
	switch r.Method {
	case http.MethodGet:
		return querystring.Decode(r.URL.Query())
	case http.MethodPost:
		var req filter.Request
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return filter.Request{}, fmt.Errorf("%w: %v", errBadBody, err)
		}
		for _, group := range [][]filter.SingleOrder{req.Order, req.Sort} {
			for _, o := range group {
				if !o.Dir.Valid() {
					return filter.Request{}, fmt.Errorf("%w: order direction %q of %s must be asc or desc", errBadBody, o.Dir, o.Field)
				}
			}
		}
		return req, nil
	}
	return filter.Request{}, fmt.Errorf("%w: %s", errMethodNotAllowed, r.Method)
}

// prepare runs the common steps of every endpoint.
func prepare(w http.ResponseWriter, r *http.Request) (*model.Model, filter.Request, error) {
	m, err := lookupModel(r)
	if err != nil {
		return nil, filter.Request{}, err
	}
	req, err := readRequest(w, r)
	if err != nil {
		return nil, filter.Request{}, err
	}
	return m, req, nil
}
