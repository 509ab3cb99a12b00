package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "GadgetBrowser" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte("payload"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type settlement struct {
	status  int
	payload []byte
}

func issueAndWait(t *testing.T, c *Client, url string) settlement {
	t.Helper()
	done := make(chan settlement, 1)
	c.Issue(url, func(status int, payload []byte) {
		done <- settlement{status, payload}
	})

	select {
	case s := <-done:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("request was not settled")
		return settlement{}
	}
}

func TestClient_Get(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient()

	data, err := c.Get(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Get() = %q, want payload", data)
	}

	_, err = c.Get(context.Background(), srv.URL+"/missing")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Errorf("Get(/missing) error = %v, want StatusError 404", err)
	}
}

func TestClient_GetRateLimited(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient()
	c.SetRateLimit(1024)

	data, err := c.Get(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Get() = %q, want payload", data)
	}

	c.SetRateLimit(0)
	if c.bucket != nil {
		t.Error("SetRateLimit(0) should remove the limit")
	}
}

func TestClient_DownloadFile(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient()
	dest := filepath.Join(t.TempDir(), "plugins.xml")

	var written int64
	err := c.DownloadFile(context.Background(), srv.URL+"/ok", dest, func(w, total int64) {
		written = w
	})
	if err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("file content = %q, want payload", data)
	}
	if written != int64(len("payload")) {
		t.Errorf("progress reported %d bytes, want %d", written, len("payload"))
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}
}

func TestClient_DownloadFileError(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient()
	dest := filepath.Join(t.TempDir(), "plugins.xml")

	if err := c.DownloadFile(context.Background(), srv.URL+"/missing", dest, nil); err == nil {
		t.Fatal("expected error but got none")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("no file should be written for a failed download")
	}
}

func TestClient_IssueSettles(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient()

	tests := []struct {
		name        string
		url         string
		wantStatus  int
		wantPayload string
	}{
		{"success", srv.URL + "/ok", http.StatusOK, "payload"},
		{"not found", srv.URL + "/missing", http.StatusNotFound, ""},
		{"transport error", "http://127.0.0.1:1/unreachable", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := issueAndWait(t, c, tt.url)
			if s.status != tt.wantStatus {
				t.Errorf("status = %d, want %d", s.status, tt.wantStatus)
			}
			if string(s.payload) != tt.wantPayload {
				t.Errorf("payload = %q, want %q", s.payload, tt.wantPayload)
			}
		})
	}

	c.Wait()
}

func TestClient_CancelSuppressesSettlement(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient()

	var mu sync.Mutex
	settled := false
	h := c.Issue(srv.URL+"/slow", func(int, []byte) {
		mu.Lock()
		settled = true
		mu.Unlock()
	})

	c.Cancel(h)
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if settled {
		t.Error("cancelled request should not settle")
	}
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Code: 404, Status: "404 Not Found"}
	if got := err.Error(); got != "HTTP 404: 404 Not Found" {
		t.Errorf("Error() = %q", got)
	}
}
