package http

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
	authmw "github.com/mind-engage/mindengage-assembly/internal/auth/middleware"
	"github.com/mind-engage/mindengage-assembly/internal/itembank"
	"github.com/mind-engage/mindengage-assembly/internal/platform/logger"
	"github.com/mind-engage/mindengage-assembly/internal/rbac"
)

// MountItems registers the item bank routes on r. Callers must have run the
// JWT middleware.
func MountItems(r chi.Router, store itembank.Store, log *logger.Logger) {
	r.With(rbac.Require(rbac.PermItemsWrite)).Post("/", PutItemsHandler(store, log))
	r.With(rbac.Require(rbac.PermItemsRead)).Get("/", ListItemsHandler(store, log))
	r.With(rbac.Require(rbac.PermItemsRead)).Get("/{itemID}", GetItemHandler(store, log))
	r.With(rbac.Require(rbac.PermItemsDelete)).Delete("/{itemID}", DeleteItemHandler(store, log))
}

// PutItemsHandler accepts a JSON body (array or {"items":[...]}) or a
// multipart upload in field "file" holding CSV or JSON.
func PutItemsHandler(store itembank.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := authmw.SubjectFromContext(r.Context())
		var (
			items []assembly.Item
			err   error
		)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			items, err = parseUpload(r)
		} else {
			var body []byte
			if body, err = readBody(w, r); err == nil {
				items, err = itembank.ParseJSON(bytes.NewReader(body))
			}
		}
		if err != nil {
			http.Error(w, "bad items: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := itembank.Normalize(items); err != nil {
			writeError(w, log, err)
			return
		}
		if len(items) == 0 {
			writeJSON(w, http.StatusOK, map[string]any{"inserted": 0, "updated": 0, "ids": []string{}})
			return
		}

		ins, upd, err := store.PutItems(r.Context(), owner, items)
		if err != nil {
			writeError(w, log, err)
			return
		}
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		log.Info("items imported", "owner", owner, "inserted", ins, "updated", upd)
		writeJSON(w, http.StatusOK, map[string]any{"inserted": ins, "updated": upd, "ids": ids})
	}
}

func parseUpload(r *http.Request) ([]assembly.Item, error) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if strings.EqualFold(filepath.Ext(hdr.Filename), ".csv") {
		return itembank.ParseCSV(br)
	}
	// sniff the first non-space byte
	for {
		b, err := br.Peek(1)
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
			continue
		case '[', '{':
			return itembank.ParseJSON(br)
		default:
			return itembank.ParseCSV(br)
		}
	}
}

func ListItemsHandler(store itembank.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := itembank.ListOpts{
			Type:   assembly.ItemType(q.Get("type")),
			Level:  assembly.Level(q.Get("level")),
			Tag:    q.Get("tag"),
			Limit:  queryInt(r, "limit"),
			Offset: queryInt(r, "offset"),
		}
		items, err := store.ListItems(r.Context(), authmw.SubjectFromContext(r.Context()), opts)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func GetItemHandler(store itembank.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, err := store.GetItem(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "itemID"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, it)
	}
}

func DeleteItemHandler(store itembank.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteItem(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "itemID")); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
