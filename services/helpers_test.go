package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"project-camp/api/models"
	"project-camp/api/repositories"
	"project-camp/api/utils"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []utils.Email
	err  error
}

func (m *fakeMailer) Send(_ context.Context, email utils.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return m.err
}

func (m *fakeMailer) last(t *testing.T) utils.Email {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email sent")
	return m.sent[len(m.sent)-1]
}

// linkToken returns the last path segment of an emailed link.
func linkToken(email utils.Email) string {
	return email.ActionURL[strings.LastIndex(email.ActionURL, "/")+1:]
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var apiErr *utils.ApiError
	require.ErrorAs(t, err, &apiErr)
	return apiErr.StatusCode
}

func seedUser(t *testing.T, store *repositories.Store, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: strings.ToUpper(username[:1]) + username[1:],
	}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return user
}

// seedProject creates a project owned by admin and adds the given extra members.
func seedProject(t *testing.T, svc *ProjectService, admin *models.User, name string, extra map[*models.User]models.Role) primitive.ObjectID {
	t.Helper()
	ctx := context.Background()
	project, err := svc.CreateProject(ctx, admin.ID, name, "")
	require.NoError(t, err)
	for user, role := range extra {
		_, err := svc.AddMember(ctx, admin.ID, project.ID, user.Email, role)
		require.NoError(t, err)
	}
	return project.ID
}

// uploadFiles builds multipart file headers named after names, each holding
// its own name as content.
func uploadFiles(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		fw, err := mw.CreateFormFile("attachments", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["attachments"]
}

func newUploadStore(t *testing.T) *utils.UploadStore {
	t.Helper()
	return &utils.UploadStore{Dir: t.TempDir(), BaseURL: "http://api.test"}
}

func storedFiles(t *testing.T, uploads *utils.UploadStore) int {
	t.Helper()
	entries, err := os.ReadDir(uploads.Dir)
	require.NoError(t, err)
	return len(entries)
}
