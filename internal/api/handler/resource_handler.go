package handler

import (
	"encoding/json"
	"net/http"

	"knowledge_hub/internal/api/middleware"
	"knowledge_hub/internal/app/service"
	"knowledge_hub/internal/common"

	"github.com/go-chi/chi/v5"
)

type ResourceHandler struct {
	resourceService *service.ResourceService
}

func NewResourceHandler(rs *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: rs}
}

// RegisterRoutes mounts the resource endpoints; all of them require
// authentication, ownership is checked per operation in the service.
func (h *ResourceHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Post("/", h.createResource)
	r.Get("/", h.listResources)
	r.Get("/user/{userID}", h.listResourcesByUser)
	r.Put("/{resourceID}", h.updateResource)
	r.Delete("/{resourceID}", h.deleteResource)
}

func (h *ResourceHandler) createResource(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.ResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	resource, err := h.resourceService.Create(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resource)
}

func (h *ResourceHandler) listResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resourceService.List(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resources)
}

func (h *ResourceHandler) listResourcesByUser(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resourceService.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resources)
}

func (h *ResourceHandler) updateResource(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.ResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	resource, err := h.resourceService.Update(r.Context(), chi.URLParam(r, "resourceID"), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resource)
}

func (h *ResourceHandler) deleteResource(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.resourceService.Delete(r.Context(), chi.URLParam(r, "resourceID"), userID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondNoContent(w)
}
