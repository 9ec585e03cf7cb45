package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jobtrail/internal/models"
)

const maxRecordBody = 1 << 20

func collectionParam(r *http.Request) models.Collection {
	return models.Collection(chi.URLParam(r, "name"))
}

// ifMatch strips surrounding quotes if present (standard ETag format).
func ifMatch(r *http.Request) string {
	return strings.Trim(r.Header.Get("If-Match"), `"`)
}

func setETag(w http.ResponseWriter, sum string) {
	if sum != "" {
		w.Header().Set("ETag", `"`+sum+`"`)
	}
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (models.Record, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRecordBody)
	var rec models.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil || rec == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return nil, false
	}
	return rec, true
}

func (h *Handler) changed(c models.Collection) {
	if h.notifier != nil {
		h.notifier.PublishChange(c)
	}
}

// GetCollection handles GET /api/collections/{name}.
//
//	@Summary		Raw records of a collection
//	@Tags			collections
//	@Produce		json
//	@Param			name	path		string	true	"Collection"	Enums(applications, interviews, rejections, withdrawals, offers)
//	@Success		200		{object}	CollectionResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{name} [get]
func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Collection(r.Context(), collectionParam(r))
	if err != nil {
		writeError(w, "get collection", err)
		return
	}
	setETag(w, view.Checksum)
	writeJSON(w, http.StatusOK, view)
}

// AddRecord handles POST /api/collections/{name}.
//
//	@Summary		Append a record; an id is generated when absent
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Param			name		path		string	true	"Collection"
//	@Param			If-Match	header		string	false	"Collection checksum for optimistic concurrency"
//	@Success		201			{object}	RecordResponse
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{name} [post]
func (h *Handler) AddRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	c := collectionParam(r)
	res, err := h.svc.AddRecord(r.Context(), c, rec, ifMatch(r))
	if err != nil {
		writeError(w, "add record", err)
		return
	}
	h.changed(c)
	setETag(w, res.Checksum)
	writeJSON(w, http.StatusCreated, res)
}

// UpdateRecord handles PUT /api/collections/{name}/{id}.
//
//	@Summary		Replace a record with optimistic concurrency
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Param			name		path		string	true	"Collection"
//	@Param			id			path		string	true	"Record id"
//	@Param			If-Match	header		string	false	"Collection checksum"
//	@Success		200			{object}	RecordResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{name}/{id} [put]
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	c := collectionParam(r)
	res, err := h.svc.UpdateRecord(r.Context(), c, chi.URLParam(r, "id"), rec, ifMatch(r))
	if err != nil {
		writeError(w, "update record", err)
		return
	}
	h.changed(c)
	setETag(w, res.Checksum)
	writeJSON(w, http.StatusOK, res)
}

// DeleteCollection handles DELETE /api/collections/{name}.
//
//	@Summary		Remove a whole collection file
//	@Tags			collections
//	@Param			name		path	string	true	"Collection"
//	@Param			If-Match	header	string	false	"Collection checksum"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{name} [delete]
func (h *Handler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	c := collectionParam(r)
	if err := h.svc.DeleteCollection(r.Context(), c, ifMatch(r)); err != nil {
		writeError(w, "delete collection", err)
		return
	}
	h.changed(c)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteRecord handles DELETE /api/collections/{name}/{id}.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	c := collectionParam(r)
	sum, err := h.svc.DeleteRecord(r.Context(), c, chi.URLParam(r, "id"), ifMatch(r))
	if err != nil {
		writeError(w, "delete record", err)
		return
	}
	h.changed(c)
	setETag(w, sum)
	w.WriteHeader(http.StatusNoContent)
}
