package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	seyerrs "github.com/jdholdren/pageturn/internal/errors"
	"github.com/jdholdren/pageturn/internal/pageturn"
	"github.com/jdholdren/pageturn/internal/paginate"
	"github.com/jdholdren/pageturn/internal/serverutil"
)

func (s Server) getItems(w http.ResponseWriter, r *http.Request) error {
	q := newListQuery(r.URL.Query())
	if err := serverutil.Validate(s.validate, q); err != nil {
		return err
	}

	res, err := paginate.Paginate(r.Context(), s.pageCfg, paginate.OriginFromURL(r.URL), q.search(), s.fetcher)
	if errors.Is(err, paginate.ErrUnprocessable) {
		slog.WarnContext(r.Context(), "error fetching page", "error", err)
	}
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, res.Envelope)
}

func (s Server) getItem(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["itemID"]

	item, err := s.repo.Item(r.Context(), id)
	if errors.Is(err, pageturn.ErrNotFound) {
		return seyerrs.E(http.StatusNotFound, "item not found")
	}
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, item)
}

func (s Server) getHealth(w http.ResponseWriter, _ *http.Request) error {
	return serverutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
