package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"project-camp/api/models"
	"project-camp/api/services"
	"project-camp/api/utils"
)

type TaskHandler struct {
	Service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{Service: service}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	tasks, err := h.Service.ListTasks(r.Context(), user.ID, projectID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, tasks, "Tasks fetched successfully")
}

// CreateTask accepts a multipart form with "attachments" files, or plain JSON.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req TaskRequest
	var files []*multipart.FileHeader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err = decodeJSON(r, &req)
	} else {
		err = decodeForm(r, &req)
		if err == nil && r.MultipartForm != nil {
			files = r.MultipartForm.File["attachments"]
		}
	}
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	task, err := h.Service.CreateTask(r.Context(), user.ID, projectID, services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  optionalID(req.AssignedTo),
		Status:      models.TaskStatus(req.Status),
	}, files)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, task, "Task created successfully")
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	taskID, err := pathID(r, "taskId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	task, err := h.Service.GetTask(r.Context(), user.ID, projectID, taskID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, task, "Task fetched successfully")
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	taskID, err := pathID(r, "taskId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req TaskPatch
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	update := services.TaskUpdate{Title: req.Title, Description: req.Description}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		update.Status = &status
	}
	if req.AssignedTo != nil {
		update.AssignedTo = optionalID(*req.AssignedTo)
		update.ClearAssignee = update.AssignedTo == nil
	}

	task, err := h.Service.UpdateTask(r.Context(), user.ID, projectID, taskID, update)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, task, "Task updated successfully")
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	taskID, err := pathID(r, "taskId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.DeleteTask(r.Context(), user.ID, projectID, taskID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{}, "Task deleted successfully")
}

func (h *TaskHandler) CreateSubTask(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	taskID, err := pathID(r, "taskId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req SubTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	subtask, err := h.Service.CreateSubTask(r.Context(), user.ID, projectID, taskID, req.Title)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, subtask, "Subtask created successfully")
}

func (h *TaskHandler) UpdateSubTask(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	subTaskID, err := pathID(r, "subTaskId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req SubTaskPatch
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	subtask, err := h.Service.UpdateSubTask(r.Context(), user.ID, projectID, subTaskID, services.SubTaskUpdate{
		Title:       req.Title,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, subtask, "Subtask updated successfully")
}

func (h *TaskHandler) DeleteSubTask(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := projectScope(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	subTaskID, err := pathID(r, "subTaskId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.DeleteSubTask(r.Context(), user.ID, projectID, subTaskID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{}, "Subtask deleted successfully")
}
