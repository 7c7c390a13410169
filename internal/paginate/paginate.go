// Package paginate resolves pagination parameters and shapes fetched windows into
// response envelopes with navigation links.
//
// The work is split into two pure steps, [Resolve] and [Assemble], with the data fetch in
// between left to a collaborator. [Paginate] drives a blocking [Fetcher]; [PaginateCallback]
// drives a [Callback] that reports its result whenever it is ready. Both run the same steps
// and produce identical envelopes.
package paginate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	seyerrs "github.com/jdholdren/pageturn/internal/errors"
)

type (
	// Fetcher locates the window described by a request.
	Fetcher[T any] interface {
		Fetch(ctx context.Context, req Request) (FetchResult[T], error)
	}

	// FetcherFunc adapts a function to [Fetcher].
	FetcherFunc[T any] func(ctx context.Context, req Request) (FetchResult[T], error)

	// Callback is a collaborator that reports through done instead of returning.
	// It must call done exactly once, from any goroutine.
	Callback[T any] func(ctx context.Context, req Request, done func(FetchResult[T], error))

	// Result pairs an envelope with the state to continue from it.
	Result[T any] struct {
		Envelope Envelope[T]
		State    State
	}
)

func (f FetcherFunc[T]) Fetch(ctx context.Context, req Request) (FetchResult[T], error) {
	return f(ctx, req)
}

// Paginate resolves the origin's query, fetches the window and assembles the envelope.
//
// A nil search is passed on as an empty one.
func Paginate[T any](ctx context.Context, cfg Config, origin Origin, search Search, f Fetcher[T]) (Result[T], error) {
	req, err := resolveWithSearch(origin, search, cfg)
	if err != nil {
		return Result[T]{}, err
	}

	res, err := f.Fetch(ctx, req)
	return complete(ctx, req, origin, res, err)
}

// PaginateCallback is [Paginate] for a callback style collaborator. done is called exactly once.
func PaginateCallback[T any](ctx context.Context, cfg Config, origin Origin, search Search, fetch Callback[T], done func(Result[T], error)) {
	req, err := resolveWithSearch(origin, search, cfg)
	if err != nil {
		done(Result[T]{}, err)
		return
	}

	fetch(ctx, req, func(res FetchResult[T], err error) {
		done(complete(ctx, req, origin, res, err))
	})
}

// FromCallback turns a callback style collaborator into a [Fetcher] that blocks until the
// callback reports or ctx is done.
func FromCallback[T any](cb Callback[T]) Fetcher[T] {
	return FetcherFunc[T](func(ctx context.Context, req Request) (FetchResult[T], error) {
		type outcome struct {
			res FetchResult[T]
			err error
		}

		ch := make(chan outcome, 1) // Buffered so a late callback never blocks
		cb(ctx, req, func(res FetchResult[T], err error) {
			ch <- outcome{res: res, err: err}
		})

		select {
		case o := <-ch:
			return o.res, o.err
		case <-ctx.Done():
			return FetchResult[T]{}, ctx.Err()
		}
	})
}

func resolveWithSearch(origin Origin, search Search, cfg Config) (Request, error) {
	req, err := Resolve(origin.Query, cfg)
	if err != nil {
		return Request{}, err
	}
	if search != nil {
		req.Search = search
	}

	return req, nil
}

// complete is the part shared by both adapters once the collaborator has answered.
//
// Collaborator failures become a 422 whose body only says the data was unprocessable; the cause
// stays in the chain for logging. An error caused by ctx ending is returned as is.
func complete[T any](ctx context.Context, req Request, origin Origin, res FetchResult[T], err error) (Result[T], error) {
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil && errors.Is(err, ctxErr) {
		return Result[T]{}, err
	}
	if err != nil {
		return Result[T]{}, fmt.Errorf("%w: %w", seyerrs.E(ErrUnprocessable, http.StatusUnprocessableEntity), err)
	}

	env, state := Assemble(req, res, origin)
	return Result[T]{Envelope: env, State: state}, nil
}
