package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/rutina-app/backend/internal/auth"
	"github.com/rutina-app/backend/internal/habits"
	"github.com/rutina-app/backend/internal/server"
	"github.com/rutina-app/backend/internal/users"
	"gorm.io/gorm"
)

var flowNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newAPIHandler(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := func() time.Time { return flowNow }
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:flow_test_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&users.User{}, &habits.Habit{}, &habits.HabitLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	userService, err := users.NewService(users.ServiceConfig{Database: db, Clock: clock})
	if err != nil {
		t.Fatalf("failed to build user service: %v", err)
	}
	catalog, err := habits.NewCatalog(habits.CatalogConfig{Database: db, Clock: clock})
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	recorder, err := habits.NewRecorder(habits.RecorderConfig{Database: db, Catalog: catalog})
	if err != nil {
		t.Fatalf("failed to build recorder: %v", err)
	}
	summary, err := habits.NewSummary(habits.SummaryConfig{Database: db, Catalog: catalog})
	if err != nil {
		t.Fatalf("failed to build summary: %v", err)
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenManager: auth.NewTokenIssuer(auth.TokenIssuerConfig{
			SigningSecret: []byte("integration-secret"),
			Issuer:        "rutina-auth",
			Audience:      "rutina-api",
			Clock:         clock,
		}),
		UserService: userService,
		Catalog:     catalog,
		Recorder:    recorder,
		Summary:     summary,
		Clock:       clock,
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	return handler
}

func call(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return payload
}

func TestRegisterLoginTrackAndReadDashboard(t *testing.T) {
	handler := newAPIHandler(t)

	registered := call(t, handler, http.MethodPost, "/auth/register", "",
		`{"name":"Ana Torres","email":"ana@example.com","password":"correct-horse"}`)
	if registered.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", registered.Code, registered.Body.String())
	}

	loggedIn := call(t, handler, http.MethodPost, "/auth/login", "",
		`{"email":"ana@example.com","password":"correct-horse"}`)
	if loggedIn.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", loggedIn.Code, loggedIn.Body.String())
	}
	token := decode(t, loggedIn)["access_token"].(string)

	createdYesNo := call(t, handler, http.MethodPost, "/habits", token,
		`{"name":"Morning run","type":"yes_no"}`)
	if createdYesNo.Code != http.StatusCreated {
		t.Fatalf("habit create failed: %d %s", createdYesNo.Code, createdYesNo.Body.String())
	}
	runID := uint64(decode(t, createdYesNo)["habit"].(map[string]any)["id"].(float64))

	createdQuit := call(t, handler, http.MethodPost, "/habits", token,
		`{"name":"No smoking","type":"quit"}`)
	if createdQuit.Code != http.StatusCreated {
		t.Fatalf("habit create failed: %d %s", createdQuit.Code, createdQuit.Body.String())
	}
	quitID := uint64(decode(t, createdQuit)["habit"].(map[string]any)["id"].(float64))

	for _, date := range []string{"2026-03-08", "2026-03-09", "2026-03-10"} {
		logged := call(t, handler, http.MethodPost, fmt.Sprintf("/habits/%d/logs", runID), token,
			fmt.Sprintf(`{"date":%q,"bool_value":true}`, date))
		if logged.Code != http.StatusCreated {
			t.Fatalf("log for %s failed: %d %s", date, logged.Code, logged.Body.String())
		}
	}
	relapse := call(t, handler, http.MethodPost, fmt.Sprintf("/habits/%d/logs", quitID), token,
		`{"date":"2026-03-04","bool_value":true,"note":"rough day"}`)
	if relapse.Code != http.StatusCreated {
		t.Fatalf("relapse log failed: %d %s", relapse.Code, relapse.Body.String())
	}

	dashboard := call(t, handler, http.MethodGet, "/dashboard", token, "")
	if dashboard.Code != http.StatusOK {
		t.Fatalf("dashboard failed: %d %s", dashboard.Code, dashboard.Body.String())
	}
	entries := decode(t, dashboard)["habits"].([]any)
	if len(entries) != 2 {
		t.Fatalf("expected two dashboard entries, got %d", len(entries))
	}

	streaksByName := map[string]float64{}
	for _, raw := range entries {
		entry := raw.(map[string]any)
		name := entry["habit"].(map[string]any)["name"].(string)
		streaksByName[name] = entry["current_streak"].(float64)
	}
	if streaksByName["Morning run"] != 3 {
		t.Fatalf("expected run streak of 3, got %v", streaksByName["Morning run"])
	}
	if streaksByName["No smoking"] != 6 {
		t.Fatalf("expected 6 days since relapse, got %v", streaksByName["No smoking"])
	}

	deleted := call(t, handler, http.MethodDelete, fmt.Sprintf("/habits/%d", runID), token, "")
	if deleted.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", deleted.Code, deleted.Body.String())
	}
	after := call(t, handler, http.MethodGet, "/dashboard", token, "")
	if len(decode(t, after)["habits"].([]any)) != 1 {
		t.Fatalf("expected the deleted habit to leave the dashboard")
	}
}
