package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tenkoh/awsswitch/pkg/logger"
	"github.com/tenkoh/awsswitch/pkg/profile"
	"github.com/tenkoh/awsswitch/pkg/repository"
	"github.com/tenkoh/awsswitch/pkg/settings"
	"github.com/tenkoh/awsswitch/pkg/switcher"
)

const testCredentials = `[default]
aws_access_key_id = AKIADEFAULT
aws_secret_access_key = defaultsecret
region = us-east-1
awsswitch_origin = personal

[work]
aws_access_key_id = AKIAWORK
aws_secret_access_key = worksecret
region = eu-west-1

[broken]
aws_access_key_id = AKIABROKEN

[personal]
aws_access_key_id = AKIAPERSONAL
aws_secret_access_key = personalsecret
region = ap-northeast-1
`

type testEnv struct {
	handler         *APIHandler
	credentialsPath string
	notices         []string
}

func newTestEnv(t *testing.T, credentials string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	credentialsPath := filepath.Join(dir, "credentials")
	if credentials != "" {
		if err := os.WriteFile(credentialsPath, []byte(credentials), 0o600); err != nil {
			t.Fatalf("Failed to write credentials: %v", err)
		}
	}

	log := logger.NewNopLogger()
	store := repository.NewFileSystemCredentialStoreWithPath(credentialsPath)
	lister := profile.NewLister(store, log)

	env := &testEnv{credentialsPath: credentialsPath}
	sw := switcher.New(&switcher.Dependencies{
		Lister:   lister,
		Promoter: profile.NewPromoter(store, log),
		Status:   &switcher.Status{},
		Notifier: switcher.NotifierFunc(func(msg string) {
			env.notices = append(env.notices, msg)
		}),
	}, log)

	env.handler = NewAPIHandler(&Dependencies{
		ProfileProvider: lister,
		Switcher:        sw,
		Settings:        settings.NewStoreWithPath(filepath.Join(dir, "settings.toml")),
		Logger:          log,
	})
	return env
}

func do(h http.HandlerFunc, method, body string) (*httptest.ResponseRecorder, APIResponse) {
	req := httptest.NewRequest(method, "/api", strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)

	var response APIResponse
	json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&response)
	return w, response
}

func TestAPIHandler_HandleProfiles(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		expectedStatus int
		expectedData   interface{}
	}{
		{
			name:           "empty body lists non-default profiles",
			method:         "POST",
			expectedStatus: http.StatusOK,
			expectedData:   map[string]interface{}{"profiles": []interface{}{"broken", "personal", "work"}},
		},
		{
			name:           "query filters case-insensitively",
			method:         "POST",
			body:           `{"query":"WO"}`,
			expectedStatus: http.StatusOK,
			expectedData:   map[string]interface{}{"profiles": []interface{}{"work"}},
		},
		{
			name:           "include default",
			method:         "POST",
			body:           `{"includeDefault":true}`,
			expectedStatus: http.StatusOK,
			expectedData:   map[string]interface{}{"profiles": []interface{}{"broken", "default", "personal", "work"}},
		},
		{
			name:           "invalid json",
			method:         "POST",
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "method not allowed",
			method:         "GET",
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, testCredentials)
			w, response := do(env.handler.HandleProfiles, tt.method, tt.body)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			if diff := cmp.Diff(tt.expectedData, response.Data); diff != "" {
				t.Errorf("Response data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAPIHandler_HandleProfiles_MissingStore(t *testing.T) {
	env := newTestEnv(t, "")
	w, response := do(env.handler.HandleProfiles, "POST", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	want := map[string]interface{}{"profiles": []interface{}{}}
	if diff := cmp.Diff(want, response.Data); diff != "" {
		t.Errorf("Response data mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIHandler_HandleSwitch(t *testing.T) {
	tests := []struct {
		name           string
		credentials    string
		body           string
		expectedStatus int
		expectedCode   string
		expectedActive string
	}{
		{
			name:           "successful switch",
			credentials:    testCredentials,
			body:           `{"profile":"work"}`,
			expectedStatus: http.StatusOK,
			expectedActive: "work",
		},
		{
			name:           "blank profile",
			credentials:    testCredentials,
			body:           `{"profile":"   "}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "EMPTY_PROFILE_NAME",
			expectedActive: "personal",
		},
		{
			name:           "unknown profile",
			credentials:    testCredentials,
			body:           `{"profile":"ghost"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "EMPTY_OR_MISSING_CREDENTIALS",
			expectedActive: "personal",
		},
		{
			name:           "too few fields",
			credentials:    testCredentials,
			body:           `{"profile":"broken"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_SCHEMA",
			expectedActive: "personal",
		},
		{
			name:           "missing credentials file",
			body:           `{"profile":"work"}`,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "STORE_NOT_FOUND",
		},
		{
			name:           "invalid json",
			credentials:    testCredentials,
			body:           `not json`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_INPUT",
			expectedActive: "personal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.credentials)
			w, response := do(env.handler.HandleSwitch, "POST", tt.body)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if response.Code != tt.expectedCode {
				t.Errorf("Expected code %q, got %q", tt.expectedCode, response.Code)
			}
			if got := env.handler.deps.Switcher.Active(); got != tt.expectedActive {
				t.Errorf("Active() = %q, want %q", got, tt.expectedActive)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			want := map[string]interface{}{
				"message": "Selected work as default",
				"active":  "work",
			}
			if diff := cmp.Diff(want, response.Data); diff != "" {
				t.Errorf("Response data mismatch (-want +got):\n%s", diff)
			}

			snapshot, err := repository.NewFileSystemCredentialStoreWithPath(env.credentialsPath).Load()
			if err != nil {
				t.Fatalf("Failed to reload credentials: %v", err)
			}
			rec, _ := snapshot.Profile(profile.ReservedProfile)
			if origin, _ := rec.Get(profile.OriginField); origin != "work" {
				t.Errorf("default origin = %q, want %q", origin, "work")
			}
		})
	}
}

func TestAPIHandler_HandleSwitch_InvalidInputNotice(t *testing.T) {
	env := newTestEnv(t, testCredentials)
	w, response := do(env.handler.HandleSwitch, "POST", `{"profile":`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if response.Code != "INVALID_INPUT" {
		t.Errorf("Expected code INVALID_INPUT, got %q", response.Code)
	}
	want := "Invalid input for field 'body'. Please check the input format and try again"
	if response.Error != want {
		t.Errorf("Error = %q, want %q", response.Error, want)
	}
}

func TestAPIHandler_HandleSwitch_UnparseableStore(t *testing.T) {
	env := newTestEnv(t, "[work\naws_access_key_id = AKIAWORK\n")
	w, response := do(env.handler.HandleSwitch, "POST", `{"profile":"work"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if response.Code != "STORE_PARSE" {
		t.Errorf("Expected code STORE_PARSE, got %q", response.Code)
	}
	if !strings.Contains(response.Error, "Fix the INI syntax") {
		t.Errorf("expected the store suggestion, got %q", response.Error)
	}
}

func TestAPIHandler_HandleSwitch_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, testCredentials)
	w, _ := do(env.handler.HandleSwitch, "GET", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}
}

func TestAPIHandler_HandleStatus(t *testing.T) {
	env := newTestEnv(t, testCredentials)

	w, response := do(env.handler.HandleStatus, "POST", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if diff := cmp.Diff(map[string]interface{}{"active": "personal"}, response.Data); diff != "" {
		t.Errorf("Response data mismatch (-want +got):\n%s", diff)
	}

	do(env.handler.HandleSwitch, "POST", `{"profile":"work"}`)

	_, response = do(env.handler.HandleStatus, "POST", "")
	if diff := cmp.Diff(map[string]interface{}{"active": "work"}, response.Data); diff != "" {
		t.Errorf("Response data after switch mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIHandler_HandleSettings(t *testing.T) {
	env := newTestEnv(t, testCredentials)

	tests := []struct {
		name           string
		method         string
		body           string
		expectedStatus int
		expectedData   interface{}
	}{
		{
			name:           "read default",
			method:         "POST",
			expectedStatus: http.StatusOK,
			expectedData:   map[string]interface{}{"value": settings.DefaultValue},
		},
		{
			name:           "update",
			method:         "POST",
			body:           `{"value":"team-a"}`,
			expectedStatus: http.StatusOK,
			expectedData:   map[string]interface{}{"value": "team-a"},
		},
		{
			name:           "read after update",
			method:         "POST",
			body:           `{}`,
			expectedStatus: http.StatusOK,
			expectedData:   map[string]interface{}{"value": "team-a"},
		},
		{
			name:           "method not allowed",
			method:         "GET",
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	// Cases share env and run in order.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := do(env.handler.HandleSettings, tt.method, tt.body)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			if diff := cmp.Diff(tt.expectedData, response.Data); diff != "" {
				t.Errorf("Response data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAPIHandler_HandleShutdown(t *testing.T) {
	env := newTestEnv(t, testCredentials)

	select {
	case <-env.handler.ShutdownChannel():
		t.Fatal("shutdown signalled before request")
	default:
	}

	w, _ := do(env.handler.HandleShutdown, "POST", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	// A second request must not panic on the closed channel.
	do(env.handler.HandleShutdown, "POST", "")

	select {
	case <-env.handler.ShutdownChannel():
	default:
		t.Error("shutdown channel was not closed")
	}
}

func TestAPIHandler_HandleHealth(t *testing.T) {
	env := newTestEnv(t, testCredentials)
	w, response := do(env.handler.HandleHealth, "POST", "")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !response.Success {
		t.Error("Expected success response")
	}
	data, ok := response.Data.(map[string]interface{})
	if !ok || data["status"] != "ok" {
		t.Errorf("unexpected health data: %v", response.Data)
	}
}
