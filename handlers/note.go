package handlers

import (
	"net/http"

	"project-camp/api/services"
	"project-camp/api/utils"
)

type NoteHandler struct {
	Service *services.NoteService
}

func NewNoteHandler(service *services.NoteService) *NoteHandler {
	return &NoteHandler{Service: service}
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	notes, err := h.Service.ListNotes(r.Context(), user.ID, projectID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, notes, "Notes fetched successfully")
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req NoteRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	note, err := h.Service.CreateNote(r.Context(), user.ID, projectID, req.Content)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, note, "Note created successfully")
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	noteID, err := pathID(r, "noteId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	note, err := h.Service.GetNote(r.Context(), user.ID, projectID, noteID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, note, "Note fetched successfully")
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	noteID, err := pathID(r, "noteId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req NoteRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	note, err := h.Service.UpdateNote(r.Context(), user.ID, projectID, noteID, req.Content)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, note, "Note updated successfully")
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	noteID, err := pathID(r, "noteId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.DeleteNote(r.Context(), user.ID, projectID, noteID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{}, "Note deleted successfully")
}
