package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/deskflow/helpdesk/internal/api/http/handlers"
	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/platform/mail"
	"github.com/deskflow/helpdesk/internal/platform/realtime"
	"github.com/deskflow/helpdesk/internal/platform/storage"
	"github.com/deskflow/helpdesk/internal/repository/memory"
	"github.com/deskflow/helpdesk/internal/service"
	"github.com/deskflow/helpdesk/pkg/util/validation"
)

type testServer struct {
	app     *fiber.App
	store   *memory.Store
	tokens  *auth.TokenManager
	metrics *observability.Metrics
	dept    *domain.Department
	cat     *domain.Category
	admin   *domain.User
	agent   *domain.User
	client  *domain.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher(logger)
	objects := storage.NewMemoryStorage()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}}

	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: store.Users(), DepartmentRepo: store.Departments()})
	assignment := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: store.Tickets(),
		UserRepo:   store.Users(),
		TxManager:  store.TxManager(),
		Dispatcher: dispatcher,
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     store.Tickets(),
		UserRepo:       store.Users(),
		DepartmentRepo: store.Departments(),
		CategoryRepo:   store.Categories(),
		Assignment:     assignment,
		TxManager:      store.TxManager(),
		Dispatcher:     dispatcher,
		ObjectStore:    objects,
	})
	catalog := service.NewCatalogService(service.CatalogDependencies{
		DepartmentRepo: store.Departments(),
		CategoryRepo:   store.Categories(),
		SolutionRepo:   store.Solutions(),
		TxManager:      store.TxManager(),
	})
	chatbotService := service.NewChatbotService(service.ChatbotDependencies{CategoryRepo: store.Categories(), SolutionRepo: store.Solutions()})
	hub := realtime.NewHub(logger)
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:       dispatcher,
		NotificationRepo: store.Notifications(),
		UserRepo:         store.Users(),
		Pusher:           hub,
		Mailer:           mail.NewLogSender(logger),
		Config:           config.NotificationConfig{RealtimeEnabled: true},
	})
	notifications.RegisterHandlers()
	stats := service.NewStatsService(service.StatsDependencies{
		StatsRepo:      store.Stats(),
		UserRepo:       store.Users(),
		DepartmentRepo: store.Departments(),
	})
	availability := service.NewAvailabilityService(service.AvailabilityDependencies{
		AvailabilityRepo: store.Availability(),
		UserRepo:         store.Users(),
		TxManager:        store.TxManager(),
	})
	users := service.NewUserService(service.UserDependencies{
		UserRepo:       store.Users(),
		DepartmentRepo: store.Departments(),
		ObjectStore:    objects,
	})

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Users())
	v := validation.New()
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk", "test", map[string]handlers.Pinger{"postgres": nil}),
		Auth:           handlers.NewAuthHandler(authService, v),
		Tickets:        handlers.NewTicketsHandler(tickets, assignment, v),
		Catalog:        handlers.NewCatalogHandler(catalog, assignment, v),
		Chatbot:        handlers.NewChatbotHandler(chatbotService, v),
		Notifications:  handlers.NewNotificationsHandler(notifications),
		Realtime:       handlers.NewRealtimeHandler(hub, authMiddleware, logger),
		Stats:          handlers.NewStatsHandler(stats),
		Availability:   handlers.NewAvailabilityHandler(availability, v),
		Users:          handlers.NewUsersHandler(users),
		AuthMiddleware: authMiddleware,
	})

	s := &testServer{app: app, store: store, tokens: authService.TokenManager(), metrics: metrics}
	var err error
	s.dept, err = catalog.CreateDepartment(ctx, service.DepartmentInput{Name: "Informatique"})
	require.NoError(t, err)
	s.cat, err = catalog.CreateCategory(ctx, service.CategoryInput{Name: "Informatique", DepartmentID: &s.dept.ID, Keywords: []string{"wifi"}})
	require.NoError(t, err)
	_, err = catalog.CreateSolution(ctx, service.SolutionInput{Title: "Wifi", Content: "Redémarrez la box.", Keywords: []string{"wifi"}, CategoryID: s.cat.ID})
	require.NoError(t, err)

	s.admin = s.addUser(t, "admin", domain.RoleAdmin, nil)
	s.agent = s.addUser(t, "agent", domain.RoleAgent, &s.dept.ID)
	s.client = s.addUser(t, "client", domain.RoleClient, nil)
	return s
}

func (s *testServer) addUser(t *testing.T, name string, role domain.Role, dept *string) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", Role: role, DepartmentID: dept}
	require.NoError(t, s.store.Users().Create(context.Background(), u))
	return u
}

func (s *testServer) token(t *testing.T, u *domain.User) string {
	t.Helper()
	tok, _, err := s.tokens.GenerateToken(u)
	require.NoError(t, err)
	return tok
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, as *domain.User, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(t, as))
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *nethttp.Request) (int, envelope) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealthReportsDisabledDependencies(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/health/ready", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "disabled", body.Dependencies["postgres"])
}

func TestRegisterThenUseToken(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, "POST", "/auth/register", nil, map[string]string{
		"name": "Awa", "email": "awa@example.com", "password": "motdepasse",
	})
	require.Equal(t, fiber.StatusCreated, status)
	session := decode[struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}](t, env)
	assert.Equal(t, "Client", session.User.Role)

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Auth.Token)
	status, _ = s.send(t, req)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, "POST", "/auth/register", nil, map[string]string{"name": "x", "email": "bad", "password": "court"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "email")
	assert.Contains(t, env.Error.Details, "password")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, "GET", "/api/tickets", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, env = s.do(t, "GET", "/nowhere", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, "POST", "/api/tickets", s.client, map[string]any{
		"title":       "Wifi en panne",
		"description": "Plus de wifi au bureau",
		"category_id": s.cat.ID,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	created := decode[struct {
		ID              string  `json:"id"`
		Status          string  `json:"status"`
		DepartmentID    string  `json:"department_id"`
		AssignedAgentID *string `json:"assigned_agent_id"`
	}](t, env)
	assert.Equal(t, "new", created.Status)
	assert.Equal(t, s.dept.ID, created.DepartmentID)
	require.NotNil(t, created.AssignedAgentID)
	assert.Equal(t, s.agent.ID, *created.AssignedAgentID)

	status, _ = s.do(t, "PATCH", "/api/tickets/"+created.ID, s.agent, map[string]any{"status": "resolved", "resolution_notes": "box redémarrée"})
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, "POST", "/api/tickets/"+created.ID+"/comments", s.client, map[string]string{"text": "Merci"})
	require.Equal(t, fiber.StatusCreated, status)
	comment := decode[struct {
		ID string `json:"id"`
	}](t, env)

	status, _ = s.do(t, "DELETE", "/api/tickets/"+created.ID+"/comments/"+comment.ID, s.client, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = s.do(t, "PUT", "/api/tickets/"+created.ID+"/close", s.client, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(t, "PUT", "/api/tickets/"+created.ID+"/close", s.agent, map[string]string{"satisfaction": "Satisfait"})
	require.Equal(t, fiber.StatusOK, status)
	closed := decode[struct {
		Status   string `json:"status"`
		ClosedBy string `json:"closed_by"`
		Comments []struct {
			Text    string `json:"text"`
			Deleted bool   `json:"deleted"`
		} `json:"comments"`
	}](t, env)
	assert.Equal(t, "closed", closed.Status)
	assert.Equal(t, s.agent.ID, closed.ClosedBy)
	require.Len(t, closed.Comments, 1)
	assert.True(t, closed.Comments[0].Deleted)
	assert.Empty(t, closed.Comments[0].Text)

	status, env = s.do(t, "PUT", "/api/tickets/"+created.ID+"/close", s.agent, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	require.NotNil(t, env.Error)

	status, env = s.do(t, "GET", "/api/notifications?unread=true", s.agent, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, decode[[]service.NotificationView](t, env))
}

func TestAdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, "POST", "/api/departments", s.agent, map[string]string{"name": "RH"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, "POST", "/api/departments", s.admin, map[string]string{"name": "RH"})
	assert.Equal(t, fiber.StatusCreated, status)

	status, _ = s.do(t, "POST", "/api/users", s.client, map[string]any{
		"name": "x", "email": "x@example.com", "password": "motdepasse", "role": "Admin",
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env := s.do(t, "GET", "/api/departments/"+s.dept.ID+"/agents", s.client, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, env), 1)
}

func TestChatbotEndpoints(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, "POST", "/api/chatbot/detect-category", s.client, map[string]string{"message": "mon wifi coupe"})
	require.Equal(t, fiber.StatusOK, status)
	cat := decode[*struct {
		Name string `json:"name"`
	}](t, env)
	require.NotNil(t, cat)
	assert.Equal(t, "Informatique", cat.Name)

	status, env = s.do(t, "POST", "/api/chatbot/detect-category", s.client, map[string]string{"message": "bonjour"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "null", string(env.Data))

	status, env = s.do(t, "POST", "/api/chatbot/response", s.client, map[string]string{"category": "Informatique", "message": "wifi lent"})
	require.Equal(t, fiber.StatusOK, status)
	reply := decode[struct {
		Reply           string   `json:"reply"`
		MatchedKeywords []string `json:"matched_keywords"`
	}](t, env)
	assert.Equal(t, "Redémarrez la box.", reply.Reply)
	assert.Equal(t, []string{"wifi"}, reply.MatchedKeywords)

	status, _ = s.do(t, "POST", "/api/chatbot/response", s.client, map[string]string{"category": "Inconnue", "message": "wifi"})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUploadAttachment(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, "POST", "/api/tickets", s.client, map[string]any{
		"title": "Écran", "description": "Écran cassé au bureau", "category_id": s.cat.ID,
	})
	require.Equal(t, fiber.StatusCreated, status)
	ticketID := decode[struct {
		ID string `json:"id"`
	}](t, env).ID

	upload := func(contentType string) int {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="capture.png"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest("POST", "/api/tickets/"+ticketID+"/files", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+s.token(t, s.client))
		code, _ := s.send(t, req)
		return code
	}

	assert.Equal(t, fiber.StatusCreated, upload("image/png"))
	assert.Equal(t, fiber.StatusBadRequest, upload("application/zip"))
}

func TestMalformedPathIDsAreRejected(t *testing.T) {
	s := newTestServer(t)
	cases := []struct{ method, path string }{
		{"GET", "/api/tickets/abc"},
		{"PATCH", "/api/tickets/abc"},
		{"DELETE", "/api/tickets/" + s.cat.ID + "/comments/not-a-uuid"},
		{"GET", "/api/departments/abc/agents"},
		{"GET", "/api/categories/abc"},
		{"PUT", "/api/notifications/abc/read"},
		{"GET", "/api/users/abc"},
		{"DELETE", "/api/users/abc"},
		{"GET", "/api/users/abc/availability"},
		{"DELETE", "/api/availability/slots/abc"},
	}
	for _, tc := range cases {
		status, env := s.do(t, tc.method, tc.path, s.admin, map[string]any{})
		assert.Equal(t, fiber.StatusBadRequest, status, tc.path)
		require.NotNil(t, env.Error, tc.path)
		assert.Equal(t, "VALIDATION_FAILED", env.Error.Code, tc.path)
	}

	status, _ := s.do(t, "GET", "/api/tickets/"+s.cat.ID, s.admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestStatsEndpoints(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, "POST", "/api/tickets", s.client, map[string]any{
		"title": "Wifi", "description": "Plus de wifi au bureau", "category_id": s.cat.ID,
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = s.do(t, "GET", "/api/stats", s.agent, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = s.do(t, "GET", "/api/stats?period=2y", s.admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env := s.do(t, "GET", "/api/stats?period=1w", s.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	dash := decode[struct {
		Period string `json:"period"`
		Totals struct {
			All     int `json:"total_tickets"`
			Agents  int `json:"agents"`
			Clients int `json:"clients"`
		} `json:"totals"`
		ByCategory []struct {
			Name string `json:"name"`
		} `json:"by_category"`
		Trend []struct {
			Label string `json:"label"`
		} `json:"trend"`
	}](t, env)
	assert.Equal(t, "1w", dash.Period)
	assert.Equal(t, 1, dash.Totals.All)
	assert.Equal(t, 1, dash.Totals.Agents)
	assert.Equal(t, 1, dash.Totals.Clients)
	require.Len(t, dash.ByCategory, 1)
	assert.Equal(t, "Informatique", dash.ByCategory[0].Name)
	assert.NotEmpty(t, dash.Trend)

	status, _ = s.do(t, "GET", "/api/stats/agent", s.admin, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, env = s.do(t, "GET", "/api/stats/agent", s.agent, nil)
	require.Equal(t, fiber.StatusOK, status)
	mine := decode[struct {
		Department *struct {
			Name string `json:"name"`
		} `json:"department"`
		Totals struct {
			All int `json:"total_tickets"`
		} `json:"totals"`
		Trend []json.RawMessage `json:"trend"`
	}](t, env)
	assert.Equal(t, 1, mine.Totals.All)
	require.NotNil(t, mine.Department)
	assert.Equal(t, "Informatique", mine.Department.Name)
	assert.Len(t, mine.Trend, 7)
}

func TestAvailabilityEndpoints(t *testing.T) {
	s := newTestServer(t)
	type slot struct {
		ID    string `json:"id"`
		Day   string `json:"day"`
		Start string `json:"start"`
		End   string `json:"end"`
	}

	status, env := s.do(t, "PUT", "/api/availability", s.agent, map[string]any{
		"slots": []map[string]string{
			{"day": "Mardi", "start": "14:00", "end": "18:00"},
			{"day": "Lundi", "start": "8:30", "end": "12:00"},
		},
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	slots := decode[[]slot](t, env)
	require.Len(t, slots, 2)
	assert.Equal(t, slot{ID: slots[0].ID, Day: "Lundi", Start: "08:30", End: "12:00"}, slots[0])

	status, _ = s.do(t, "PUT", "/api/availability", s.agent, map[string]any{
		"slots": []map[string]string{{"day": "Monday", "start": "08:00", "end": "09:00"}},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env = s.do(t, "POST", "/api/availability/slots", s.agent, map[string]string{"day": "Jeudi", "start": "09:00", "end": "10:00"})
	require.Equal(t, fiber.StatusCreated, status)
	added := decode[slot](t, env)
	status, _ = s.do(t, "POST", "/api/availability/slots", s.agent, map[string]string{"day": "Jeudi", "start": "09:00", "end": "10:00"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(t, "GET", "/api/users/"+s.agent.ID+"/availability", s.client, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, env = s.do(t, "GET", "/api/users/"+s.agent.ID+"/availability", s.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]slot](t, env), 3)

	status, _ = s.do(t, "DELETE", "/api/availability/slots/"+added.ID, s.agent, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	status, env = s.do(t, "GET", "/api/availability", s.agent, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]slot](t, env), 2)

	status, env = s.do(t, "GET", "/api/availability", s.client, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "[]", string(env.Data))
}

func TestUserAdministration(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, "GET", "/api/users", s.agent, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, env := s.do(t, "GET", "/api/users?role=Agent", s.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, env), 1)

	status, env = s.do(t, "PUT", "/api/users/"+s.client.ID, s.admin, map[string]any{"name": "Awa", "verified": true})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	updated := decode[struct {
		Name     string `json:"name"`
		Verified bool   `json:"verified"`
	}](t, env)
	assert.Equal(t, "Awa", updated.Name)
	assert.True(t, updated.Verified)

	status, _ = s.do(t, "PUT", "/api/users/"+s.client.ID, s.agent, map[string]any{"name": "x"})
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = s.do(t, "GET", "/api/users/"+s.admin.ID, s.client, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, "POST", "/api/tickets", s.client, map[string]any{
		"title": "Wifi", "description": "Plus de wifi au bureau", "category_id": s.cat.ID,
	})
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = s.do(t, "DELETE", "/api/users/"+s.client.ID, s.admin, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(t, "DELETE", "/api/users/"+s.agent.ID, s.admin, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = s.do(t, "GET", "/api/users/"+s.agent.ID, s.admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestProfileAndAvatar(t *testing.T) {
	s := newTestServer(t)
	type profile struct {
		Name      string   `json:"name"`
		Phone     string   `json:"phone"`
		Skills    []string `json:"skills"`
		AvatarURL string   `json:"avatar_url"`
	}

	status, env := s.do(t, "GET", "/api/me/profile", s.client, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{}, decode[profile](t, env).Skills)

	status, env = s.do(t, "PUT", "/api/me/profile", s.client, map[string]any{
		"phone": "+221 77 000 00 00", "skills": []string{"Excel", "excel"},
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	got := decode[profile](t, env)
	assert.Equal(t, "+221 77 000 00 00", got.Phone)
	assert.Equal(t, []string{"Excel"}, got.Skills)

	status, _ = s.do(t, "PUT", "/api/me/profile", s.client, map[string]any{"linkedin": "pas une url"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="moi.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("\xff\xd8\xff"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/me/avatar", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(t, s.client))
	status, env = s.send(t, req)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	avatar := decode[profile](t, env)
	assert.Contains(t, avatar.AvatarURL, "memory://avatars/"+s.client.ID+"/")
}
