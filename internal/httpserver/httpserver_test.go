package httpserver_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/course_market/internal/access"
	"github.com/Skotchmaster/course_market/internal/events"
	"github.com/Skotchmaster/course_market/internal/httpserver"
	"github.com/Skotchmaster/course_market/internal/metrics"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/repo/repotest"
	"github.com/Skotchmaster/course_market/internal/search"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/upload"
	"github.com/Skotchmaster/course_market/pkg/tokens"
)

const strongPassword = "Secret123!"

type server struct {
	e       *echo.Echo
	repo    *repo.GormRepo
	codec   *tokens.Codec
	metrics *metrics.Metrics
}

func newDeps(db *gorm.DB, codec *tokens.Codec, m *metrics.Metrics) *httpserver.Deps {
	r := &repo.GormRepo{DB: db}
	rec := &events.Recorder{}
	idx := search.Database{Repo: r}

	admin := &service.AdminService{Repo: r, Events: rec, Index: idx, Observe: m.Moderation}
	return &httpserver.Deps{
		DB:       db,
		Resolver: &access.Resolver{Tokens: codec, Store: r},
		Metrics:  m,
		Auth:     &httpserver.AuthHTTP{Svc: &service.AuthService{Repo: r, Tokens: codec, TokenTTL: time.Hour, Events: rec}},
		Admin:    &httpserver.AdminHTTP{Svc: admin},
		Users:    &httpserver.UserHTTP{Svc: &service.UserService{Repo: r, Events: rec, Admin: admin}},
		Catalog: &httpserver.CatalogHTTP{Svc: &service.CatalogService{
			Repo: r, Uploads: upload.Static{}, Search: idx, Index: idx, Events: rec,
		}},
		Sessions: &httpserver.SessionHTTP{Svc: &service.SessionService{Repo: r, Uploads: upload.Static{}, Events: rec}},
		Engage:   &httpserver.EngagementHTTP{Svc: &service.EngagementService{Repo: r}},
	}
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := repotest.Open(t)
	codec := tokens.NewCodec([]byte("http-test-secret"))
	m := metrics.New(prometheus.NewRegistry())

	e := echo.New()
	httpserver.Register(e, newDeps(db, codec, m))
	return &server{e: e, repo: &repo.GormRepo{DB: db}, codec: codec, metrics: m}
}

type reply struct {
	Code        int
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	AccessToken string          `json:"accessToken"`
	User        struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func (s *server) do(t *testing.T, method, path, token, body string) reply {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := reply{Code: rec.Code}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return out
}

func registerBody(username, phone string) string {
	b, _ := json.Marshal(map[string]any{
		"name":            "Test User",
		"username":        username,
		"email":           username + "@example.com",
		"phone":           phone,
		"password":        strongPassword,
		"confirmPassword": strongPassword,
	})
	return string(b)
}

func (s *server) register(t *testing.T, username, phone string) reply {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/v1/auth/register", "", registerBody(username, phone))
	require.Equal(t, http.StatusCreated, res.Code, res.Message)
	require.NotEmpty(t, res.AccessToken)
	return res
}

func (s *server) login(t *testing.T, identifier string) reply {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"identifier":"`+identifier+`","password":"`+strongPassword+`"}`)
}

func TestGate_AnonymousAndBadCredentials(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	admin := s.register(t, "alice", "5550000001")

	expired, _, err := s.codec.WithClock(func() time.Time { return time.Now().Add(-48 * time.Hour) }).Sign(admin.User.ID, time.Hour)
	require.NoError(t, err)
	foreign, _, err := tokens.NewCodec([]byte("someone-else")).Sign(admin.User.ID, time.Hour)
	require.NoError(t, err)
	tampered := admin.AccessToken[:len(admin.AccessToken)-2] + "xx"

	tests := []struct {
		name  string
		token string
	}{
		{"anonymous", ""},
		{"expired", expired},
		{"foreign secret", foreign},
		{"tampered", tampered},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		res := s.do(t, http.MethodGet, "/api/v1/admin/get-all-users", tt.token, "")
		assert.Equal(t, http.StatusForbidden, res.Code, tt.name)
		assert.Equal(t, "Only admins is allowed to get all users", res.Message, tt.name)
	}

	res := s.do(t, http.MethodGet, "/api/v1/admin/get-all-users", admin.AccessToken, "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Users fetched successfully", res.Message)

	assert.Equal(t, float64(len(tests)), testutil.ToFloat64(s.metrics.GateDenialsTotal.WithLabelValues("/api/v1/admin/get-all-users", "anonymous")))
}

func TestBanFlow(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	admin := s.register(t, "alice", "5550000001")
	bob := s.register(t, "bob", "5550000002")
	assert.Equal(t, "ADMIN", admin.User.Role)
	assert.Equal(t, "USER", bob.User.Role)

	res := s.do(t, http.MethodGet, "/api/v1/auth/me", bob.AccessToken, "")
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(t, http.MethodPost, "/api/v1/admin/ban-user/"+bob.User.ID, bob.AccessToken, "")
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Only admins is allowed to ban a user", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/admin/ban-user/"+bob.User.ID, admin.AccessToken, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "User banned successfully", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/admin/ban-user/"+bob.User.ID, admin.AccessToken, `{"reason":"again and again"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "User is already banned", res.Message)

	// An outstanding token stops working once its identity is banned.
	res = s.do(t, http.MethodGet, "/api/v1/auth/me", bob.AccessToken, "")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.login(t, "bob")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Access denied, your account has been banned", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/admin/unban-user/"+bob.User.ID, admin.AccessToken, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "User unbanned successfully", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/admin/unban-user/"+bob.User.ID, admin.AccessToken, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "User is not banned", res.Message)

	res = s.login(t, "bob@example.com")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Login successful", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/admin/ban-user/"+admin.User.ID, admin.AccessToken, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "You cannot ban yourself", res.Message)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.ModerationTotal.WithLabelValues("ban", "rejected")))
}

func TestRoleAndAdminInvariants(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	admin := s.register(t, "alice", "5550000001")
	bob := s.register(t, "bob", "5550000002")

	res := s.do(t, http.MethodPatch, "/api/v1/admin/update-user-role/"+admin.User.ID, admin.AccessToken, `{"role":"user"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "You cannot update your own role", res.Message)

	res = s.do(t, http.MethodDelete, "/api/v1/admin/delete-user/"+admin.User.ID, admin.AccessToken, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "You cannot remove the last admin", res.Message)

	res = s.do(t, http.MethodDelete, "/api/v1/user/delete/"+admin.User.ID, admin.AccessToken, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "You cannot remove the last admin", res.Message)

	res = s.do(t, http.MethodDelete, "/api/v1/user/delete/"+admin.User.ID, bob.AccessToken, "")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(t, http.MethodPatch, "/api/v1/admin/update-user-role/"+bob.User.ID, admin.AccessToken, `{"role":"teacher"}`)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "User role updated successfully", res.Message)

	res = s.do(t, http.MethodPatch, "/api/v1/admin/update-user-role/"+bob.User.ID, admin.AccessToken, `{"role":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Role must be admin, teacher, or user", res.Message)

	res = s.do(t, http.MethodDelete, "/api/v1/user/delete/"+bob.User.ID, bob.AccessToken, "")
	assert.Equal(t, http.StatusOK, res.Code)

	n, err := s.repo.CountAdmins(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func (s *server) createCourse(t *testing.T, token string) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/v1/course-category/create", token, `{"name":"web development","href":"web development"}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Message)
	var cat struct {
		CourseCategory struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Href string `json:"href"`
		} `json:"courseCategory"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &cat))
	assert.Equal(t, "Web Development", cat.CourseCategory.Name)
	assert.Equal(t, "web-development", cat.CourseCategory.Href)

	body, _ := json.Marshal(map[string]any{
		"title":              "Go for the web",
		"categoryId":         cat.CourseCategory.ID,
		"description":        "Build web services with Go",
		"coverName":          "go web cover",
		"coverType":          "image",
		"slug":               "go-for-the-web",
		"price":              49.5,
		"discountPercentage": 10,
	})
	res = s.do(t, http.MethodPost, "/api/v1/course/create", token, string(body))
	require.Equal(t, http.StatusCreated, res.Code, res.Message)
	var created struct {
		Course struct {
			ID string `json:"id"`
		} `json:"course"`
		UploadURL string `json:"uploadUrl"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &created))
	assert.Equal(t, "https://dummy-upload-url.com/go-web-cover", created.UploadURL)
	return created.Course.ID
}

func TestPurchase(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	admin := s.register(t, "alice", "5550000001")
	bob := s.register(t, "bob", "5550000002")
	courseID := s.createCourse(t, admin.AccessToken)

	res := s.do(t, http.MethodPost, "/api/v1/course/create", bob.AccessToken, `{}`)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Only admins and teachers are allowed to create a course", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/course/purchase/"+courseID, "", "")
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "You should be logged in to purchase a course", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/course/purchase/"+courseID, admin.AccessToken, "")
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "You have already purchased this course", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/course/purchase/"+courseID, bob.AccessToken, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Course purchased successfully", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/course/purchase/"+courseID, bob.AccessToken, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "You have already purchased this course", res.Message)

	res = s.do(t, http.MethodGet, "/api/v1/course/"+courseID, bob.AccessToken, "")
	require.Equal(t, http.StatusOK, res.Code)
	var details struct {
		DoesUserHaveFullAccess bool `json:"doesUserHaveFullAccess"`
		NumberOfStudents       int  `json:"numberOfStudents"`
		Ratings                struct {
			Average float64 `json:"average"`
		} `json:"ratings"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &details))
	assert.True(t, details.DoesUserHaveFullAccess)
	assert.Equal(t, 1, details.NumberOfStudents)
	assert.Equal(t, 5.0, details.Ratings.Average)
}

func TestPurchase_Concurrent(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	admin := s.register(t, "alice", "5550000001")
	bob := s.register(t, "bob", "5550000002")
	courseID := s.createCourse(t, admin.AccessToken)

	const attempts = 6
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/course/purchase/"+courseID, nil)
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+bob.AccessToken)
			rec := httptest.NewRecorder()
			s.e.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}()
	}
	wg.Wait()

	ok := 0
	for _, c := range codes {
		if c == http.StatusOK {
			ok++
			continue
		}
		assert.Equal(t, http.StatusBadRequest, c)
	}
	assert.Equal(t, 1, ok)

	n, err := s.repo.CountPurchases(t.Context(), courseID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRequestShapeErrors(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	res := s.do(t, http.MethodPost, "/api/v1/auth/register", "", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Invalid JSON format in request body", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/auth/register", "", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Request body is required", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/auth/register", "", `{"name":"Al"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Name must be at least 3 characters", res.Message)

	body := strings.Replace(registerBody("carol", "5550000003"), `"confirmPassword":"`+strongPassword+`"`, `"confirmPassword":"Other123!"`, 1)
	res = s.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Password and confirm password do not match", res.Message)

	s.register(t, "carol", "5550000003")
	res = s.do(t, http.MethodPost, "/api/v1/auth/register", "", registerBody("carol", "5550000004"))
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Username is already taken", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"identifier":"carol","password":"Wrong123!"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Invalid credentials", res.Message)

	res = s.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"password":"x"}`)
	assert.Equal(t, "Email or username is required", res.Message)

	res = s.do(t, http.MethodGet, "/api/v1/course/not-an-id", "", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Course ID is invalid", res.Message)

	res = s.do(t, http.MethodGet, "/api/v1/course/ffffffffffffffffffffffff", "", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Course not found", res.Message)

	res = s.do(t, http.MethodGet, "/api/v1/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = s.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestResolverStoreFailure(t *testing.T) {
	t.Parallel()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(errors.New("connection reset by peer"))

	codec := tokens.NewCodec([]byte("http-test-secret"))
	e := echo.New()
	httpserver.Register(e, newDeps(db, codec, metrics.New(prometheus.NewRegistry())))

	tok, _, err := codec.Sign("aaaaaaaaaaaaaaaaaaaaaaaa", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
