package circle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sergeymaysak/logicircle/internal/adapter/driven/circle"
)

// fakeService emulates the Circle control plane and the per-camera
// media node on a single httptest server. Tests point accessory
// nodeIds at the server's own host so image requests land here too.
type fakeService struct {
	t   *testing.T
	srv *httptest.Server

	mu           sync.Mutex
	logins       int
	loginStatus  int
	loginDelay   time.Duration
	setCookie    bool
	lastEmail    string
	lastPassword string

	accessories []map[string]any
	infoStatus  int  // non-zero forces this status on the info endpoint
	infoOnce401 bool // next info request returns 401, then clears

	activitiesBody  string // overrides the default activities response
	lastActivityReq map[string]any

	images    map[string][]byte
	anticache map[string][]int64
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()

	f := &fakeService{
		t:           t,
		loginStatus: http.StatusOK,
		setCookie:   true,
		images:      map[string][]byte{},
		anticache:   map[string][]int64{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/accounts/authorization", f.handleLogin)
	mux.HandleFunc("GET /api/accessories", f.handleList)
	mux.HandleFunc("GET /api/accessories/{id}", f.handleInfo)
	mux.HandleFunc("GET /api/accessories/{id}/image", f.handleImage)
	mux.HandleFunc("POST /api/accessories/{id}/activities", f.handleActivities)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// host returns the server's host:port, used as accessory nodeId.
func (f *fakeService) host() string {
	return strings.TrimPrefix(f.srv.URL, "http://")
}

// addAccessory registers an accessory spec whose media node is this server.
func (f *fakeService) addAccessory(id, name string, extra map[string]any) {
	spec := map[string]any{
		"accessoryId": id,
		"nodeId":      f.host(),
		"name":        name,
	}
	for k, v := range extra {
		spec[k] = v
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessories = append(f.accessories, spec)
}

func (f *fakeService) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

// configure mutates handler-visible settings under the service mutex,
// keeping test writes race-free against in-flight handlers.
func (f *fakeService) configure(fn func(*fakeService)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeService) lastCredentials() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastEmail, f.lastPassword
}

func (f *fakeService) lastActivityPayload() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActivityReq
}

func (f *fakeService) anticacheValues(id string) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.anticache[id]...)
}

func (f *fakeService) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&creds)

	f.mu.Lock()
	f.logins++
	f.lastEmail = creds.Email
	f.lastPassword = creds.Password
	status := f.loginStatus
	delay := f.loginDelay
	setCookie := f.setCookie
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if status < 200 || status >= 300 {
		w.WriteHeader(status)
		return
	}
	if setCookie {
		http.SetCookie(w, &http.Cookie{Name: "prod_session", Value: "session-token", Path: "/"})
	}
	w.WriteHeader(status)
}

func (f *fakeService) handleList(w http.ResponseWriter, r *http.Request) {
	if !f.authenticated(r) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("{}"))
		return
	}

	f.mu.Lock()
	specs := f.accessories
	if specs == nil {
		specs = []map[string]any{}
	}
	body, err := json.Marshal(specs)
	f.mu.Unlock()
	if err != nil {
		f.t.Errorf("encoding accessory list: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (f *fakeService) handleInfo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f.mu.Lock()
	status := f.infoStatus
	if f.infoOnce401 {
		status = http.StatusUnauthorized
		f.infoOnce401 = false
	}
	var body []byte
	if status == 0 {
		for _, spec := range f.accessories {
			if spec["accessoryId"] == id {
				body, _ = json.Marshal(spec)
				break
			}
		}
	}
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("{}"))
		return
	}
	if body == nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("{}"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (f *fakeService) handleImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	value, err := strconv.ParseInt(r.URL.Query().Get("anticache"), 10, 64)
	if err != nil {
		f.t.Errorf("image request must carry a numeric anticache value: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.anticache[id] = append(f.anticache[id], value)
	data := f.images[id]
	f.mu.Unlock()

	if !f.authenticated(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}

func (f *fakeService) handleActivities(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)

	f.mu.Lock()
	f.lastActivityReq = payload
	body := f.activitiesBody
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if body == "" {
		body = `{"activities": [{"activityId": "act-1"}, {"activityId": "act-2"}]}`
	}
	_, _ = w.Write([]byte(body))
}

func (f *fakeService) authenticated(r *http.Request) bool {
	_, err := r.Cookie("prod_session")
	return err == nil
}

// newTestSession creates a Session pointed at the fake service, with a
// fresh cookie-jar client.
func newTestSession(t *testing.T, f *fakeService) *circle.Session {
	t.Helper()

	client, err := circle.NewHTTPClient()
	require.NoError(t, err)

	session, err := circle.NewSessionWithBaseURL("user@example.com", "hunter2", client, f.srv.URL)
	require.NoError(t, err)
	return session
}
