package publish

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kamusis/modelpub/internal/client"
)

type reply struct {
	status int
	body   string
}

type recordedRequest struct {
	Method    string
	Path      string
	Fields    map[string]string
	Files     map[string]string
	Filenames map[string]string
	Body      string
}

// fakeServer answers each path with a scripted sequence of replies. The last
// reply of a script repeats.
type fakeServer struct {
	mu       sync.Mutex
	scripts  map[string][]reply
	requests []recordedRequest
	srv      *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{scripts: map[string][]reply{}}
	fs.srv = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method:    r.Method,
		Path:      strings.TrimPrefix(r.URL.Path, "/pentaho/"),
		Fields:    map[string]string{},
		Files:     map[string]string{},
		Filenames: map[string]string{},
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				rec.Fields[k] = v[0]
			}
			for k, fhs := range r.MultipartForm.File {
				f, _ := fhs[0].Open()
				b, _ := io.ReadAll(f)
				_ = f.Close()
				rec.Files[k] = string(b)
				rec.Filenames[k] = fhs[0].Filename
			}
		}
	} else {
		b, _ := io.ReadAll(r.Body)
		rec.Body = string(b)
	}

	fs.mu.Lock()
	fs.requests = append(fs.requests, rec)
	script := fs.scripts[rec.Path]
	var rep reply
	switch len(script) {
	case 0:
		rep = reply{status: http.StatusNotFound}
	case 1:
		rep = script[0]
	default:
		rep = script[0]
		fs.scripts[rec.Path] = script[1:]
	}
	fs.mu.Unlock()

	w.WriteHeader(rep.status)
	_, _ = w.Write([]byte(rep.body))
}

func (fs *fakeServer) script(path string, replies ...reply) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.scripts[path] = replies
}

func (fs *fakeServer) calls(path string) []recordedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []recordedRequest
	for _, r := range fs.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (fs *fakeServer) total() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.requests)
}

func (fs *fakeServer) endpoint() ServerEndpoint {
	return NewServerEndpoint("test-server", fs.srv.URL+"/pentaho/", "admin", "password")
}

func (fs *fakeServer) client() *client.Client {
	return fs.endpoint().Client(2 * time.Second)
}

func okReply(body string) reply     { return reply{status: http.StatusOK, body: body} }
func rejectReply(body string) reply { return reply{status: http.StatusInternalServerError, body: body} }

// decider records the names it was asked about and answers with answer.
type decider struct {
	answer bool
	asked  []string
}

func (d *decider) ConfirmOverwrite(name string) bool {
	d.asked = append(d.asked, name)
	return d.answer
}

// notifier records feedback and answers questions with answer.
type notifier struct {
	answer bool
	got    []Feedback
}

func (n *notifier) Notify(fb Feedback) bool {
	n.got = append(n.got, fb)
	return fb.Question && n.answer
}

func (n *notifier) outcomes() []Outcome {
	out := make([]Outcome, 0, len(n.got))
	for _, fb := range n.got {
		out = append(out, fb.Outcome)
	}
	return out
}
