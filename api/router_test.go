package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stashbin/stashbin/internal/auth"
	"github.com/stashbin/stashbin/internal/blob"
	"github.com/stashbin/stashbin/internal/cache"
	"github.com/stashbin/stashbin/internal/config"
	"github.com/stashbin/stashbin/internal/database"
	"github.com/stashbin/stashbin/pkg/models"
	"github.com/stashbin/stashbin/pkg/schemas"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RouterSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	s.db = database.NewTestDatabase(s.T())
}

func (s *RouterSuite) SetupTest() {
	s.db.Where("id IS NOT NULL").Delete(&models.File{})
	s.db.Where("id IS NOT NULL").Delete(&models.User{})

	store, err := blob.NewLocalStore(s.T().TempDir())
	s.Require().NoError(err)

	cnf := &config.ServerCmdConfig{}
	cnf.JWT.Secret = "router-test-secret"
	cnf.JWT.SessionTime = time.Hour
	cnf.Storage.BaseURL = "https://files.example.com"

	s.router = InitRouter(cnf, s.db, store, cache.NewMemoryCache(1024*1024), zap.NewNop())
}

func (s *RouterSuite) doJSON(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) register(username, email, password string) {
	w := s.doJSON(http.MethodPost, "/api/auth/register", gin.H{
		"username":  username,
		"email":     email,
		"full_name": "Test User",
		"password":  password,
	}, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (s *RouterSuite) login(username, password string) *http.Cookie {
	w := s.doJSON(http.MethodPost, "/api/auth/login", gin.H{
		"username": username,
		"password": password,
	}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	s.Require().FailNow("session cookie not set")
	return nil
}

func (s *RouterSuite) upload(cookie *http.Cookie, filename, comment, content string) schemas.FileOut {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	s.Require().NoError(err)
	_, err = part.Write([]byte(content))
	s.Require().NoError(err)
	if comment != "" {
		s.Require().NoError(mw.WriteField("comment", comment))
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/storage/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var out schemas.FileOut
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *RouterSuite) TestAuthFlow() {
	s.register("alice", "alice@example.com", "Passw0rd!")
	cookie := s.login("alice", "Passw0rd!")

	w := s.doJSON(http.MethodGet, "/api/auth/session", nil, cookie)
	s.Require().Equal(http.StatusOK, w.Code)
	var session schemas.UserOut
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &session))
	s.Equal("alice", session.Username)
	s.False(session.IsAdministrator)

	w = s.doJSON(http.MethodGet, "/api/auth/session", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.doJSON(http.MethodPost, "/api/auth/logout", nil, cookie)
	s.Require().Equal(http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			s.Empty(c.Value)
			s.Less(c.MaxAge, 0)
		}
	}
}

func (s *RouterSuite) TestRegisterValidationDetails() {
	w := s.doJSON(http.MethodPost, "/api/auth/register", gin.H{
		"username":  "3bob",
		"email":     "bob@example.com",
		"full_name": "Bob",
		"password":  "abcdef",
	}, nil)
	s.Require().Equal(http.StatusBadRequest, w.Code)

	var out struct {
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	s.Equal("validation failed", out.Message)
	s.Contains(out.Details["username"], "must start with a letter")
	s.Len(out.Details["password"], 3)
}

func (s *RouterSuite) TestLoginFailureIsGeneric() {
	s.register("alice", "alice@example.com", "Passw0rd!")

	wrongPass := s.doJSON(http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "nope"}, nil)
	unknown := s.doJSON(http.MethodPost, "/api/auth/login", gin.H{"username": "ghost", "password": "nope"}, nil)

	s.Equal(http.StatusUnauthorized, wrongPass.Code)
	s.Equal(http.StatusUnauthorized, unknown.Code)
	s.JSONEq(wrongPass.Body.String(), unknown.Body.String())
}

func (s *RouterSuite) TestFileLifecycle() {
	s.register("alice", "alice@example.com", "Passw0rd!")
	cookie := s.login("alice", "Passw0rd!")

	created := s.upload(cookie, "report.pdf", "q3 numbers", "pdf bytes here")
	s.Equal("report.pdf", created.OriginalName)
	s.Equal("q3 numbers", created.Comment)
	s.Equal(fmt.Sprintf("https://files.example.com/api/storage/share/%s", created.ShareToken), created.ShareURL)

	// list
	w := s.doJSON(http.MethodGet, "/api/storage/files", nil, cookie)
	s.Require().Equal(http.StatusOK, w.Code)
	var files []schemas.FileOut
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &files))
	s.Require().Len(files, 1)
	s.Equal("alice", files[0].User)

	// download
	w = s.doJSON(http.MethodGet, fmt.Sprintf("/api/storage/files/%d", created.ID), nil, cookie)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("pdf bytes here", w.Body.String())
	s.Contains(w.Header().Get("Content-Disposition"), "report.pdf")
	s.Equal("application/pdf", w.Header().Get("Content-Type"))

	// rename + comment patch
	w = s.doJSON(http.MethodPatch, fmt.Sprintf("/api/storage/files/%d", created.ID),
		gin.H{"original_name": "final.pdf", "comment": ""}, cookie)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var patched schemas.FileOut
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &patched))
	s.Equal("final.pdf", patched.OriginalName)
	s.Equal("", patched.Comment)
	s.Equal("alice", patched.User)

	// delete
	w = s.doJSON(http.MethodDelete, fmt.Sprintf("/api/storage/files/%d", created.ID), nil, cookie)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.doJSON(http.MethodGet, fmt.Sprintf("/api/storage/files/%d", created.ID), nil, cookie)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestShareLinkIsAnonymous() {
	s.register("alice", "alice@example.com", "Passw0rd!")
	cookie := s.login("alice", "Passw0rd!")
	created := s.upload(cookie, "shared.txt", "", "open sesame")

	// no session on purpose
	req := httptest.NewRequest(http.MethodGet, "/api/storage/share/"+created.ShareToken, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Require().Equal(http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	s.Require().NoError(err)
	s.Equal("open sesame", string(body))

	w = s.doJSON(http.MethodGet, "/api/storage/share/not-a-token", nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestOwnershipOverHTTP() {
	s.register("alice", "alice@example.com", "Passw0rd!")
	s.register("bobby", "bob@example.com", "Passw0rd!")
	aliceCookie := s.login("alice", "Passw0rd!")
	bobCookie := s.login("bobby", "Passw0rd!")

	created := s.upload(aliceCookie, "private.txt", "", "alice only")

	w := s.doJSON(http.MethodGet, fmt.Sprintf("/api/storage/files/%d", created.ID), nil, bobCookie)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.doJSON(http.MethodDelete, fmt.Sprintf("/api/storage/files/%d", created.ID), nil, bobCookie)
	s.Equal(http.StatusForbidden, w.Code)

	// bob sees only his own listing
	w = s.doJSON(http.MethodGet, "/api/storage/files", nil, bobCookie)
	s.Require().Equal(http.StatusOK, w.Code)
	var files []schemas.FileOut
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &files))
	s.Empty(files)
}

func (s *RouterSuite) TestAdminSurface() {
	s.register("alice", "alice@example.com", "Passw0rd!")
	s.register("admin1", "admin@example.com", "Passw0rd!")
	s.Require().NoError(s.db.Model(&models.User{}).
		Where("username = ?", "admin1").
		UpdateColumn("is_administrator", true).Error)

	aliceCookie := s.login("alice", "Passw0rd!")
	adminCookie := s.login("admin1", "Passw0rd!")

	// non-admins are rejected
	w := s.doJSON(http.MethodGet, "/api/auth/users", nil, aliceCookie)
	s.Equal(http.StatusForbidden, w.Code)

	s.upload(aliceCookie, "seen.txt", "", "visible to admin")

	w = s.doJSON(http.MethodGet, "/api/auth/users", nil, adminCookie)
	s.Require().Equal(http.StatusOK, w.Code)
	var users []schemas.UserOut
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &users))
	s.Require().Len(users, 2)
	s.Equal("alice", users[0].Username)
	s.Equal(int64(1), users[0].FilesCount)

	// admin sees every file
	w = s.doJSON(http.MethodGet, "/api/storage/files", nil, adminCookie)
	s.Require().Equal(http.StatusOK, w.Code)
	var files []schemas.FileOut
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &files))
	s.Len(files, 1)

	// promote then demote
	w = s.doJSON(http.MethodPatch, fmt.Sprintf("/api/auth/users/%d", users[0].ID),
		gin.H{"is_administrator": true}, adminCookie)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated schemas.UserOut
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	s.True(updated.IsAdministrator)

	// delete account with its files
	w = s.doJSON(http.MethodDelete, fmt.Sprintf("/api/auth/users/%d", users[0].ID), nil, adminCookie)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.doJSON(http.MethodGet, fmt.Sprintf("/api/auth/users/%d", users[0].ID), nil, adminCookie)
	s.Equal(http.StatusNotFound, w.Code)
}
