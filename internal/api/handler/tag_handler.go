package handler

import (
	"encoding/json"
	"net/http"

	"knowledge_hub/internal/api/middleware"
	"knowledge_hub/internal/app/service"
	"knowledge_hub/internal/common"

	"github.com/go-chi/chi/v5"
)

type TagHandler struct {
	tagService *service.TagService
}

func NewTagHandler(tagService *service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (h *TagHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listTags) // public

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticator)
		protected.Post("/", h.createTag)
	})
}

func (h *TagHandler) createTag(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	tag, err := h.tagService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, tag)
}

func (h *TagHandler) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagService.List(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tags)
}
