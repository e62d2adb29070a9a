package handlers

import (
	"net/http"
	"strings"

	"project-camp/api/middleware"
	"project-camp/api/utils"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	Projects *ProjectHandler
	Tasks    *TaskHandler
	Notes    *NoteHandler
}

type RouterOptions struct {
	CORSOrigin   string
	UploadDir    string
	MaxBodyBytes int64
}

// NewRouter mounts every route under /api/v1 and the uploaded images under
// /images.
func NewRouter(h Handlers, auth *middleware.Authenticator, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	protected := func(f http.HandlerFunc) http.Handler {
		return auth.RequireAuth(f)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/healthcheck", h.Health.Healthcheck).Methods(http.MethodGet)

	a := api.PathPrefix("/auth").Subrouter()
	a.HandleFunc("/register", h.Auth.Register).Methods(http.MethodPost)
	a.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	a.HandleFunc("/refresh-token", h.Auth.RefreshToken).Methods(http.MethodPost)
	a.HandleFunc("/verify-email/{verificationToken}", h.Auth.VerifyEmail).Methods(http.MethodGet)
	a.HandleFunc("/forgot-password", h.Auth.ForgotPassword).Methods(http.MethodPost)
	a.HandleFunc("/reset-password/{resetToken}", h.Auth.ResetPassword).Methods(http.MethodPost)
	a.Handle("/logout", protected(h.Auth.Logout)).Methods(http.MethodPost)
	a.Handle("/change-password", protected(h.Auth.ChangePassword)).Methods(http.MethodPost)
	a.Handle("/resend-email-verification", protected(h.Auth.ResendEmailVerification)).Methods(http.MethodPost)
	a.Handle("/current-user", protected(h.Auth.CurrentUser)).Methods(http.MethodGet)
	a.Handle("/avatar", protected(h.Auth.UpdateAvatar)).Methods(http.MethodPatch)

	p := api.PathPrefix("/projects").Subrouter()
	p.Handle("", protected(h.Projects.ListProjects)).Methods(http.MethodGet)
	p.Handle("", protected(h.Projects.CreateProject)).Methods(http.MethodPost)
	p.Handle("/{projectId}", protected(h.Projects.GetProject)).Methods(http.MethodGet)
	p.Handle("/{projectId}", protected(h.Projects.UpdateProject)).Methods(http.MethodPut)
	p.Handle("/{projectId}", protected(h.Projects.DeleteProject)).Methods(http.MethodDelete)
	p.Handle("/{projectId}/members", protected(h.Projects.ListMembers)).Methods(http.MethodGet)
	p.Handle("/{projectId}/members", protected(h.Projects.AddMember)).Methods(http.MethodPost)
	p.Handle("/{projectId}/members/{userId}", protected(h.Projects.UpdateMemberRole)).Methods(http.MethodPut)
	p.Handle("/{projectId}/members/{userId}", protected(h.Projects.RemoveMember)).Methods(http.MethodDelete)

	t := api.PathPrefix("/tasks/{projectId}").Subrouter()
	t.Handle("", protected(h.Tasks.ListTasks)).Methods(http.MethodGet)
	t.Handle("", protected(h.Tasks.CreateTask)).Methods(http.MethodPost)
	t.Handle("/t/{taskId}", protected(h.Tasks.GetTask)).Methods(http.MethodGet)
	t.Handle("/t/{taskId}", protected(h.Tasks.UpdateTask)).Methods(http.MethodPut)
	t.Handle("/t/{taskId}", protected(h.Tasks.DeleteTask)).Methods(http.MethodDelete)
	t.Handle("/t/{taskId}/subtasks", protected(h.Tasks.CreateSubTask)).Methods(http.MethodPost)
	t.Handle("/st/{subTaskId}", protected(h.Tasks.UpdateSubTask)).Methods(http.MethodPut)
	t.Handle("/st/{subTaskId}", protected(h.Tasks.DeleteSubTask)).Methods(http.MethodDelete)

	n := api.PathPrefix("/notes/{projectId}").Subrouter()
	n.Handle("", protected(h.Notes.ListNotes)).Methods(http.MethodGet)
	n.Handle("", protected(h.Notes.CreateNote)).Methods(http.MethodPost)
	n.Handle("/n/{noteId}", protected(h.Notes.GetNote)).Methods(http.MethodGet)
	n.Handle("/n/{noteId}", protected(h.Notes.UpdateNote)).Methods(http.MethodPut)
	n.Handle("/n/{noteId}", protected(h.Notes.DeleteNote)).Methods(http.MethodDelete)

	r.PathPrefix("/images/").Handler(http.StripPrefix("/images/", imageServer(opts.UploadDir))).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteError(w, utils.NotFound("Route not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteError(w, utils.NewApiError(http.StatusMethodNotAllowed, "Method not allowed"))
	})

	return middleware.CORS(opts.CORSOrigin)(middleware.RequestLogger(middleware.Recover(middleware.LimitBody(opts.MaxBodyBytes)(r))))
}

// imageServer serves files from dir without directory listings.
func imageServer(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			utils.WriteError(w, utils.NotFound("File not found"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
