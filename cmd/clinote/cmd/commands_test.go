package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinote/clinote/internal/config"
)

func init() {
	color.NoColor = true
}

type testServer struct {
	server *httptest.Server

	mu    sync.Mutex
	paths []string
}

// newTestServer answers "METHOD /path" keys from routes; anything else is 404.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) *testServer {
	t.Helper()
	ts := &testServer{}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.paths = append(ts.paths, r.Method+" "+r.URL.Path)
		ts.mu.Unlock()

		if h, ok := routes[r.Method+" "+r.URL.Path]; ok {
			h(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) sent(call string) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	n := 0
	for _, p := range ts.paths {
		if p == call {
			n++
		}
	}
	return n
}

func jsonReply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the CLI with a private config dir so no user config leaks in.
func run(t *testing.T, ts *testServer, args ...string) result {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	if ts != nil {
		args = append([]string{"--backend", ts.server.URL}, args...)
	}
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDoctorsCommand_ListsCodes(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /list-doctors":       jsonReply(`{"doctors":["1001","1002"]}`),
		"GET /style-sample-count": jsonReply(`{"count":3}`),
	})

	res := run(t, ts, "doctors")
	require.NoError(t, res.err)
	assert.Equal(t, "1001\n1002\n", res.stdout)
}

func TestDoctorsCommand_EmptyList(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /list-doctors": jsonReply(`{"doctors":[]}`),
	})

	res := run(t, ts, "doctors")
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "no doctors available")
}

func TestDoctorsCreateCommand(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /create-doctor":     jsonReply(`{"status":"created","doctor_id":"2056"}`),
		"GET /list-doctors":       jsonReply(`{"doctors":["2056"]}`),
		"GET /style-sample-count": jsonReply(`{"count":0}`),
	})

	res := run(t, ts, "doctors", "create", "2056")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Doctor profile ready: 2056")
	assert.Contains(t, res.stderr, "Need at least 5")
	assert.Equal(t, 1, ts.sent("POST /create-doctor"))
}

func TestDoctorsCreateCommand_Rejected(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /create-doctor": jsonReply(`{"status":"invalid"}`),
	})

	res := run(t, ts, "doctors", "create", "2056")
	assert.EqualError(t, res.err, "could not create doctor 2056")
}

func TestSamplesCountCommand(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /style-sample-count": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1002", r.URL.Query().Get("doctor_id"))
			w.Write([]byte(`{"count":5}`))
		},
	})

	res := run(t, ts, "--doctor", "1002", "samples", "count")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Doctor: 1002")
	assert.Contains(t, res.stdout, "Samples: 5 Style engine active")
}

func TestSamplesUploadCommand_HaltsOnFirstError(t *testing.T) {
	var uploads []string
	var mu sync.Mutex
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /upload-style-sample": func(w http.ResponseWriter, r *http.Request) {
			_, fh, err := r.FormFile("file")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			uploads = append(uploads, fh.Filename)
			mu.Unlock()
			if fh.Filename == "f2.txt" {
				w.Write([]byte(`{"error":"unsupported format"}`))
				return
			}
			w.Write([]byte(`{"status":"ok"}`))
		},
		"GET /style-sample-count": jsonReply(`{"count":1}`),
	})
	dir := t.TempDir()
	f1 := writeFile(t, dir, "f1.txt", "one")
	f2 := writeFile(t, dir, "f2.txt", "two")
	f3 := writeFile(t, dir, "f3.txt", "three")

	res := run(t, ts, "--doctor", "1001", "samples", "upload", f1, f2, f3)
	assert.EqualError(t, res.err, "Error: unsupported format")
	assert.Equal(t, []string{"f1.txt", "f2.txt"}, uploads)
}

func TestDraftCommand_SavesDraft(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /style-sample-count": jsonReply(`{"count":6}`),
		"POST /transcribe-docx": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1001", r.FormValue("doctor_id"))
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
			w.Write([]byte("DOCX"))
		},
	})
	dir := t.TempDir()
	out := t.TempDir()
	audio := writeFile(t, dir, "visit.wav", "RIFF")

	res := run(t, ts, "--doctor", "1001", "--out", out, "draft", audio)
	require.NoError(t, res.err)

	saved := filepath.Join(out, "draft.docx")
	assert.Equal(t, saved, strings.TrimSpace(res.stdout))
	assert.Contains(t, res.stderr, "Draft downloaded successfully.")
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "DOCX", string(data))
}

func TestDraftCommand_BackendRejects(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /style-sample-count": jsonReply(`{"count":6}`),
		"POST /transcribe-docx": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})
	out := t.TempDir()
	audio := writeFile(t, t.TempDir(), "visit.wav", "RIFF")

	res := run(t, ts, "--doctor", "1001", "--out", out, "draft", audio)
	assert.EqualError(t, res.err, "Transcription failed.")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDraftCommand_MissingFile(t *testing.T) {
	res := run(t, nil, "draft", filepath.Join(t.TempDir(), "absent.wav"))
	assert.ErrorContains(t, res.err, "opening dictation")
}

func TestAuditCommand_UsesServerFilename(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /run-audit": func(w http.ResponseWriter, r *http.Request) {
			_, fh, err := r.FormFile("feedback_zip")
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, "feedback.zip", fh.Filename)
			w.Header().Set("Content-Disposition", `attachment; filename="audit_report_0412.xlsx"`)
			w.Write([]byte("XLSX"))
		},
	})
	out := t.TempDir()
	zip := writeFile(t, t.TempDir(), "feedback.zip", "PK")

	res := run(t, ts, "--out", out, "audit", zip)
	require.NoError(t, res.err)
	assert.Equal(t, filepath.Join(out, "audit_report_0412.xlsx"), strings.TrimSpace(res.stdout))
}

func TestRestyleCommand_FallbackFilename(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /style-sample-count": jsonReply(`{"count":6}`),
		"POST /style/doctor/1001/generate": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "pt seen today", r.FormValue("raw_draft"))
			w.Write([]byte("DOCX"))
		},
	})
	out := t.TempDir()
	raw := writeFile(t, t.TempDir(), "raw.txt", "pt seen today")

	res := run(t, ts, "--doctor", "1001", "--out", out, "restyle", raw)
	require.NoError(t, res.err)
	assert.FileExists(t, filepath.Join(out, "styled_draft.docx"))
}

func TestStatusCommand(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /health":             jsonReply(`{"status":"ok"}`),
		"GET /list-doctors":       jsonReply(`{"doctors":["1001"]}`),
		"GET /style-sample-count": jsonReply(`{"count":0}`),
		"GET /has-samples":        jsonReply(`{"has_samples":false}`),
	})

	res := run(t, ts, "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "backend healthy")
	assert.Contains(t, res.stdout, "Doctor: 1001")
	assert.Contains(t, res.stdout, "no style samples stored yet")
	assert.Equal(t, 1, ts.sent("GET /list-doctors"))
}

func TestStatusCommand_ConfiguredDoctor(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /health":             jsonReply(`{"status":"ok"}`),
		"GET /list-doctors":       jsonReply(`{"doctors":["1001","2056"]}`),
		"GET /style-sample-count": jsonReply(`{"count":6}`),
		"GET /has-samples":        jsonReply(`{"has_samples":true}`),
	})

	res := run(t, ts, "--doctor", "2056", "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Doctors: 2")
	assert.Contains(t, res.stdout, "Doctor: 2056")
	assert.Contains(t, res.stdout, "Samples: 6")
	assert.NotContains(t, res.stdout, "no style samples")
	assert.Equal(t, 1, ts.sent("GET /list-doctors"))
	assert.Equal(t, 1, ts.sent("GET /style-sample-count"))
}

func TestStatusCommand_Unreachable(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.server.Close()

	res := run(t, ts, "status")
	assert.ErrorContains(t, res.err, "backend unreachable")
}

func TestInitCommand_WritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinote.yaml")

	res := run(t, nil, "--config", path, "--backend", "http://10.0.0.5:8000", "--doctor", "2056", "init")
	require.NoError(t, res.err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8000", cfg.Backend.URL)
	assert.Equal(t, "2056", cfg.Doctor)

	res = run(t, nil, "--config", path, "init")
	assert.ErrorContains(t, res.err, "already exists")

	res = run(t, nil, "--config", path, "--backend", "http://10.0.0.9:8000", "init", "--force")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, `Replacing: backend http://10.0.0.5:8000, doctor "2056"`)

	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.9:8000", cfg.Backend.URL)
	assert.Equal(t, "2056", cfg.Doctor, "unchanged keys come from the existing file")
}

func TestConfigFileFeedsCommands(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /list-doctors": jsonReply(`{"doctors":["3003"]}`),
	})
	path := filepath.Join(t.TempDir(), "clinote.yaml")
	cfg := config.Default()
	cfg.Backend.URL = ts.server.URL
	cfg.Log.File = filepath.Join(t.TempDir(), "clinote.log")
	require.NoError(t, config.Save(path, cfg))

	res := run(t, nil, "--config", path, "doctors")
	require.NoError(t, res.err)
	assert.Equal(t, "3003\n", res.stdout)
}
