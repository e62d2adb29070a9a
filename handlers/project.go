package handlers

import (
	"net/http"

	"project-camp/api/models"
	"project-camp/api/services"
	"project-camp/api/utils"
)

type ProjectHandler struct {
	Service *services.ProjectService
}

func NewProjectHandler(service *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{Service: service}
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	projects, err := h.Service.ListProjects(r.Context(), user.ID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, projects, "Projects fetched successfully")
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req ProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	project, err := h.Service.CreateProject(r.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, project, "Project created successfully")
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	project, err := h.Service.GetProject(r.Context(), user.ID, projectID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, project, "Project fetched successfully")
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req ProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	project, err := h.Service.UpdateProject(r.Context(), user.ID, projectID, req.Name, req.Description)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, project, "Project updated successfully")
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.DeleteProject(r.Context(), user.ID, projectID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{}, "Project deleted successfully")
}

func (h *ProjectHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	members, err := h.Service.ListMembers(r.Context(), user.ID, projectID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, members, "Project members fetched successfully")
}

func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req AddMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	member, err := h.Service.AddMember(r.Context(), user.ID, projectID, req.Email, models.Role(req.Role))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, member, "Member added successfully")
}

func (h *ProjectHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	targetID, err := pathID(r, "userId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req UpdateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	member, err := h.Service.UpdateMemberRole(r.Context(), user.ID, projectID, targetID, models.Role(req.NewRole))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, member, "Member role updated successfully")
}

func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	targetID, err := pathID(r, "userId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.RemoveMember(r.Context(), user.ID, projectID, targetID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{}, "Member removed successfully")
}
