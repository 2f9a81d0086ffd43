package birddog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient points a client at a mock device. The constructor pins the
// REST port to 8080, so tests rebind the base URL to the test server.
func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient("192.168.100.100")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	c.baseURL = serverURL
	return c
}

func TestNewClient_RewritesPort(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"192.168.100.100", "http://192.168.100.100:8080"},
		{"192.168.100.100:9000", "http://192.168.100.100:8080"},
		{"http://birddog-12345.local", "http://birddog-12345.local:8080"},
	}

	for _, tc := range cases {
		c, err := NewClient(tc.in)
		if err != nil {
			t.Errorf("NewClient(%q) error = %v", tc.in, err)
			continue
		}
		if c.baseURL != tc.want {
			t.Errorf("NewClient(%q) baseURL = %q, want %q", tc.in, c.baseURL, tc.want)
		}
	}
}

func TestGet_DecodesJSONOrRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.Write([]byte(`{"mode":"encode"}`))
		case "/raw":
			w.Write([]byte("plain device text"))
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	res, err := c.Get(context.Background(), "json", nil)
	if err != nil {
		t.Fatalf("Get(json) error = %v", err)
	}
	if !res.Structured {
		t.Error("JSON body should decode as structured")
	}
	if got := res.JSON.Get("mode").String(); got != "encode" {
		t.Errorf("mode = %q, want encode", got)
	}

	res, err = c.Get(context.Background(), "raw", nil)
	if err != nil {
		t.Fatalf("Get(raw) error = %v", err)
	}
	if res.Structured {
		t.Error("non-JSON body should stay raw")
	}
	if res.Text() != "plain device text" {
		t.Errorf("Text() = %q", res.Text())
	}
}

func TestGet_QueryParams(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("channel")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if _, err := c.Get(context.Background(), "endpoint", map[string]string{"channel": "2"}); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if gotQuery != "2" {
		t.Errorf("query channel = %q, want 2", gotQuery)
	}
}

func TestGet_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Get(context.Background(), "hostname", nil)
	if err == nil {
		t.Fatal("Get() should fail on non-success status")
	}
	if !IsHTTPError(err) {
		t.Errorf("error should be HTTP error, got %v", err)
	}
}

func TestPost_NoBody(t *testing.T) {
	var gotAccept string
	var gotLen int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotLen = r.ContentLength
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if _, err := c.Post(context.Background(), "restart", nil, PostOptions{}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if gotAccept != "text" {
		t.Errorf("Accept = %q, want text", gotAccept)
	}
	if gotLen > 0 {
		t.Errorf("body length = %d, want none", gotLen)
	}
}

func TestPost_JSONBody(t *testing.T) {
	var gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte("success"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if _, err := c.Post(context.Background(), "connectTo", map[string]string{"sourceName": "CAM 1"}, PostOptions{}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody != `{"sourceName":"CAM 1"}` {
		t.Errorf("body = %q", gotBody)
	}
}

func TestPost_FormEncoded(t *testing.T) {
	var gotContentType, gotValue string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		r.ParseForm()
		gotValue = r.PostForm.Get("key")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if _, err := c.Post(context.Background(), "endpoint", map[string]string{"key": "value"}, PostOptions{FormEncoded: true}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q, want form encoding", gotContentType)
	}
	if gotValue != "value" {
		t.Errorf("form key = %q, want value", gotValue)
	}
}

func TestGetHostname(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hostname" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("birddog-4k12345"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	hostname, err := c.GetHostname(context.Background())
	if err != nil {
		t.Fatalf("GetHostname() error = %v", err)
	}
	if hostname != "birddog-4k12345" {
		t.Errorf("hostname = %q", hostname)
	}
}

func TestReboot_SuppressesTriggerError(t *testing.T) {
	rebootCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hostname":
			w.Write([]byte("birddog-4k12345"))
		case "/reboot":
			rebootCalls++
			// The device drops the connection mid-reboot; a broken response
			// here must not surface to the caller
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if err := c.Reboot(context.Background()); err != nil {
		t.Errorf("Reboot() error = %v, trigger errors should be suppressed", err)
	}
	if rebootCalls != 1 {
		t.Errorf("reboot trigger called %d times, want 1", rebootCalls)
	}
}

func TestReboot_RequiresReachableDevice(t *testing.T) {
	rebootCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hostname":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/reboot":
			rebootCalls++
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if err := c.Reboot(context.Background()); err == nil {
		t.Error("Reboot() should fail when the reachability check fails")
	}
	if rebootCalls != 0 {
		t.Errorf("reboot trigger called %d times, want 0", rebootCalls)
	}
}

func TestRestart_PropagatesTriggerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hostname":
			w.Write([]byte("birddog-4k12345"))
		case "/restart":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	err := c.Restart(context.Background())
	if err == nil {
		t.Fatal("Restart() should propagate trigger errors")
	}
	if !IsHTTPError(err) {
		t.Errorf("error should be HTTP error, got %v", err)
	}
}

func TestGetOperationMode(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    OperationMode
		wantErr bool
	}{
		{"raw text", "decode", OperationModeDecode, false},
		{"json object", `{"mode":"encode"}`, OperationModeEncode, false},
		{"json missing mode key", `{"other":"x"}`, 0, true},
		{"garbage mode name", `{"mode":"sideways"}`, 0, true},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(tc.body))
		}))

		c := newTestClient(t, server.URL)
		mode, err := c.GetOperationMode(context.Background())
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: GetOperationMode() should fail", tc.name)
			} else if !IsDecodeError(err) {
				t.Errorf("%s: error should be decode error, got %v", tc.name, err)
			}
		} else {
			if err != nil {
				t.Errorf("%s: GetOperationMode() error = %v", tc.name, err)
			} else if mode != tc.want {
				t.Errorf("%s: mode = %v, want %v", tc.name, mode, tc.want)
			}
		}
		server.Close()
	}
}

func TestGetAudioSetup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analogaudiosetup" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"AnalogAudioInGain":"50","AnalogAudioOutGain":"75","AnalogAudiooutputselect":"DecodeMain"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	setup, err := c.GetAudioSetup(context.Background())
	if err != nil {
		t.Fatalf("GetAudioSetup() error = %v", err)
	}
	want := AudioOutputSetup{InputGain: 50, OutputGain: 75, OutputSelect: AudioOutputDecodeMain}
	if setup != want {
		t.Errorf("setup = %+v, want %+v", setup, want)
	}
}

func TestGetSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sourceName":"Studio Cam 2"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	src, err := c.GetSource(context.Background())
	if err != nil {
		t.Fatalf("GetSource() error = %v", err)
	}
	if src.Name != "Studio Cam 2" {
		t.Errorf("source name = %q", src.Name)
	}
	if src.Index != -1 {
		t.Errorf("source index = %d, want -1 (not from a listing)", src.Index)
	}
}

func TestGetSource_MissingKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"idle"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if _, err := c.GetSource(context.Background()); !IsDecodeError(err) {
		t.Errorf("GetSource() error = %v, want decode error", err)
	}
}

// newSourceListServer mocks the two endpoints ListSources touches.
func newSourceListServer(onConnect func(body string) string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/connectTo":
			if r.Method == http.MethodPost {
				body, _ := io.ReadAll(r.Body)
				w.Write([]byte(onConnect(string(body))))
				return
			}
			w.Write([]byte(`{"sourceName":"Studio Cam 2"}`))
		case "/List":
			w.Write([]byte(`{"Studio Cam 1":"192.168.100.50:5961","Studio Cam 2":"192.168.100.51:5961","Atem Out":"192.168.100.60:5961"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestListSources(t *testing.T) {
	server := newSourceListServer(func(string) string { return successAck })
	defer server.Close()

	c := newTestClient(t, server.URL)
	sources, err := c.ListSources(context.Background())
	if err != nil {
		t.Fatalf("ListSources() error = %v", err)
	}

	wantNames := []string{"Studio Cam 1", "Studio Cam 2", "Atem Out"}
	if len(sources) != len(wantNames) {
		t.Fatalf("got %d sources, want %d", len(sources), len(wantNames))
	}

	currentCount := 0
	for i, src := range sources {
		if src.Name != wantNames[i] {
			t.Errorf("sources[%d].Name = %q, want %q (device order must be preserved)", i, src.Name, wantNames[i])
		}
		if src.Index != i {
			t.Errorf("sources[%d].Index = %d", i, src.Index)
		}
		if src.IsCurrent {
			currentCount++
			if src.Name != "Studio Cam 2" {
				t.Errorf("IsCurrent set on %q", src.Name)
			}
		}
	}
	if currentCount != 1 {
		t.Errorf("%d sources flagged current, want exactly 1", currentCount)
	}
	if sources[0].Address != "192.168.100.50:5961" {
		t.Errorf("sources[0].Address = %q", sources[0].Address)
	}
}

func TestSetSource(t *testing.T) {
	var gotBody string
	server := newSourceListServer(func(body string) string {
		gotBody = body
		return successAck
	})
	defer server.Close()

	c := newTestClient(t, server.URL)
	if err := c.SetSource(context.Background(), "Atem Out"); err != nil {
		t.Fatalf("SetSource() error = %v", err)
	}
	if gotBody != `{"sourceName":"Atem Out"}` {
		t.Errorf("connectTo body = %q", gotBody)
	}
}

func TestSetSource_BadAcknowledgement(t *testing.T) {
	server := newSourceListServer(func(string) string { return "failed" })
	defer server.Close()

	c := newTestClient(t, server.URL)
	err := c.SetSource(context.Background(), "Atem Out")
	if err == nil {
		t.Fatal("SetSource() should fail without the literal success ack")
	}
	if !IsProtocolError(err) {
		t.Errorf("error should be protocol error, got %v", err)
	}
}

func TestSetSourceIndex(t *testing.T) {
	var gotBody string
	server := newSourceListServer(func(body string) string {
		gotBody = body
		return successAck
	})
	defer server.Close()

	c := newTestClient(t, server.URL)
	if err := c.SetSourceIndex(context.Background(), 2); err != nil {
		t.Fatalf("SetSourceIndex() error = %v", err)
	}
	if gotBody != `{"sourceName":"Atem Out"}` {
		t.Errorf("connectTo body = %q, index 2 should resolve to the listing's third entry", gotBody)
	}
}

func TestSetSourceIndex_OutOfRange(t *testing.T) {
	writes := 0
	server := newSourceListServer(func(string) string {
		writes++
		return successAck
	})
	defer server.Close()

	c := newTestClient(t, server.URL)
	err := c.SetSourceIndex(context.Background(), 9)
	if err == nil {
		t.Fatal("SetSourceIndex(9) should fail")
	}
	if !IsLookupError(err) {
		t.Errorf("error should be lookup error, got %v", err)
	}
	if writes != 0 {
		t.Errorf("%d write requests issued, want 0", writes)
	}
}

func TestOpen_PreparesCompanionWithoutLogin(t *testing.T) {
	c := newTestClient(t, "http://192.168.100.100:8080")

	if err := c.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !c.isOpen {
		t.Error("Open() should mark the client open")
	}
	if c.web == nil {
		t.Fatal("Open() should prepare the companion web backend")
	}
	if c.web.loggedIn {
		t.Error("companion must not log in until first delegated call")
	}
	if c.web.isOpen {
		t.Error("companion must not open until first delegated call")
	}
	// Companion shares the client's session by reference
	if c.web.sess.client != c.sess.client {
		t.Error("companion should share the client's session")
	}
	if c.web.sess.owned {
		t.Error("companion's view of the shared session should be borrowed")
	}
}

func TestClose_CascadesThroughCompanion(t *testing.T) {
	logoutCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.Write([]byte("ok"))
		case "/logout":
			logoutCalls++
			w.Write([]byte("ok"))
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx := context.Background()
	if err := c.Open(ctx); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// Force the companion through login, rebinding it to the mock device
	c.web.baseURL = server.URL
	if err := c.web.Open(ctx); err != nil {
		t.Fatalf("companion Open() error = %v", err)
	}

	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if logoutCalls != 1 {
		t.Errorf("logout called %d times, want 1", logoutCalls)
	}
	if c.web != nil {
		t.Error("Close() should drop the companion")
	}
	if c.sess.client != nil {
		t.Error("Close() should release the owned session")
	}
	if c.isOpen {
		t.Error("Close() should clear the open flag")
	}
}

func TestClose_ReleasesSessionWhenLogoutFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.Write([]byte("ok"))
		case "/logout":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx := context.Background()
	if err := c.Open(ctx); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	c.web.baseURL = server.URL
	if err := c.web.Open(ctx); err != nil {
		t.Fatalf("companion Open() error = %v", err)
	}

	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if c.sess.client != nil {
		t.Error("session must be released even when logout fails")
	}
}

func TestClose_ToleratesAbsentCompanion(t *testing.T) {
	c := newTestClient(t, "http://192.168.100.100:8080")
	if err := c.Close(context.Background()); err != nil {
		t.Errorf("Close() without Open error = %v", err)
	}
}
