package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/vibe/internal/curator"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/services"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/desertthunder/vibe/internal/tasks"
	tu "github.com/desertthunder/vibe/internal/testing"
)

const (
	songJSON   = `{"song":{"song_id":1,"song_name":"A","artist":"B","genre":"GN0100","issue_year":2001}}`
	searchJSON = `{"query":"a","total":1,"items":[{"song_id":1,"song_name":"A","artist":"B"}]}`
	healthJSON = `{"status":"ok","engine_version":"stage3_v1","audio_model":"myna","meta_full_count":10,"redis_connected":true}`
)

// backendMux serves every endpoint the CLI calls. Seed 999 and song 404 fail.
func backendMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/recommend", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("seed_id") == "999" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tu.SampleResponseJSON))
	})
	mux.HandleFunc("/songs/1", tu.JSONHandler(http.StatusOK, songJSON))
	mux.HandleFunc("/songs/404", tu.JSONHandler(http.StatusNotFound, `{"detail":"Song not found"}`))
	mux.HandleFunc("/search", tu.JSONHandler(http.StatusOK, searchJSON))
	mux.HandleFunc("/health", tu.JSONHandler(http.StatusOK, healthJSON))
	return mux
}

type testEnv struct {
	runner  *Runner
	output  *bytes.Buffer
	backend *tu.Backend
	config  *shared.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := tu.NewBackend(t, backendMux().ServeHTTP)

	config := shared.DefaultConfig()
	config.Backend.BaseURL = backend.URL
	config.Database.Path = filepath.Join(t.TempDir(), "vibe.db")
	config.Log.File = filepath.Join(t.TempDir(), "vibe-tui.log")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Client: services.NewClient(config.Backend, nil),
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})
	return &testEnv{runner: runner, output: output, backend: backend, config: config}
}

// run executes args against a fresh command tree and returns what was written.
func (e *testEnv) run(args ...string) (string, error) {
	e.output.Reset()
	err := e.runner.app().Run(context.Background(), append([]string{"vibe"}, args...))
	return e.output.String(), err
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			client := services.NewClient(config.Backend, httpClient)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Client:     client,
				HTTPClient: httpClient,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.client != client {
				t.Error("expected client to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built from client")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if runner.client != nil || runner.engine != nil {
				t.Error("client should wait for configuration")
			}
		})
	})

	t.Run("load", func(t *testing.T) {
		t.Run("reads --config and builds the client", func(t *testing.T) {
			backend := tu.NewBackend(t, tu.JSONHandler(http.StatusOK, healthJSON))
			path := filepath.Join(t.TempDir(), "config.toml")
			content := "[backend]\nbase_url = \"" + backend.URL + "\"\ndefault_k = 7\n"
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("setup failed: %v", err)
			}

			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})
			if err := runner.app().Run(context.Background(), []string{"vibe", "--config", path, "health"}); err != nil {
				t.Fatalf("health failed: %v", err)
			}

			if runner.client == nil || runner.client.BaseURL() != backend.URL {
				t.Fatalf("expected client for %s", backend.URL)
			}
			if runner.client.DefaultK() != 7 {
				t.Errorf("expected default k 7, got %d", runner.client.DefaultK())
			}
			if runner.config.Batch.Workers != tasks.DefaultWorkers {
				t.Errorf("expected missing keys to keep defaults, got %d workers", runner.config.Batch.Workers)
			}
		})

		t.Run("rejects invalid config", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[backend]\ndefault_k = 500\n"), 0644); err != nil {
				t.Fatalf("setup failed: %v", err)
			}

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
			err := runner.app().Run(context.Background(), []string{"vibe", "--config", path, "health"})
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"tui", "recommend", "song", "search", "health", "batch", "history", "setup"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestRecommendCommand(t *testing.T) {
	t.Run("Plain Output", func(t *testing.T) {
		env := newTestEnv(t)

		out, err := env.run("recommend", "123456")
		if err != nil {
			t.Fatalf("recommend failed: %v", err)
		}

		for _, want := range []string{"Playlist for you", "Based on: X by Y", "1. B - A (0.900)"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}

		q := env.backend.Query(0)
		if q.Get("seed_id") != "123456" || q.Get("k") != "20" {
			t.Errorf("unexpected query %v", q)
		}
	})

	t.Run("JSON Output With K", func(t *testing.T) {
		env := newTestEnv(t)

		out, err := env.run("recommend", "--json", "--k", "5", "123456")
		if err != nil {
			t.Fatalf("recommend failed: %v", err)
		}

		var resp models.RecommendationResponse
		if err := shared.UnmarshalJSON([]byte(out), &resp); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if resp.Seed.SongID != 123456 || resp.Len() != 1 {
			t.Errorf("unexpected response %+v", resp)
		}
		if env.backend.Query(0).Get("k") != "5" {
			t.Errorf("expected k=5, got %v", env.backend.Query(0))
		}
	})

	t.Run("Export", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(t.TempDir(), "out.csv")

		out, err := env.run("recommend", "--format", "csv", "--output", path, "123456")
		if err != nil {
			t.Fatalf("recommend failed: %v", err)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(out, "Exported 1 songs to "+path) {
			t.Errorf("unexpected output %q", out)
		}
		if !strings.HasPrefix(tu.MustReadFile(t, path), "Rank,SongID") {
			t.Error("export is not CSV")
		}
	})

	t.Run("Invalid Seed Makes No Request", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.run("recommend", "12.5")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err == nil || !strings.Contains(err.Error(), curator.ValidationMessage) {
			t.Errorf("expected validation message, got %v", err)
		}
		if env.backend.Requests() != 0 {
			t.Errorf("expected zero requests, got %d", env.backend.Requests())
		}
	})

	t.Run("Backend Failure", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.run("recommend", "999")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if err == nil || !strings.Contains(err.Error(), curator.FailureMessage) {
			t.Errorf("expected failure message, got %v", err)
		}
	})

	t.Run("Invalid Format", func(t *testing.T) {
		env := newTestEnv(t)

		if _, err := env.run("recommend", "--format", "xml", "1"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
		if env.backend.Requests() != 0 {
			t.Error("format should be checked before requesting")
		}
	})

	t.Run("Missing Seed", func(t *testing.T) {
		env := newTestEnv(t)

		if _, err := env.run("recommend"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestHistoryCommands(t *testing.T) {
	t.Run("Recorded Then Listed Shown And Deleted", func(t *testing.T) {
		env := newTestEnv(t)

		if _, err := env.run("recommend", "123456"); err != nil {
			t.Fatalf("recommend failed: %v", err)
		}

		out, err := env.run("history", "list")
		if err != nil {
			t.Fatalf("history list failed: %v", err)
		}
		if !strings.Contains(out, "#1") || !strings.Contains(out, "X by Y") {
			t.Errorf("expected recorded entry, got:\n%s", out)
		}

		out, err = env.run("history", "show", "#1")
		if err != nil {
			t.Fatalf("history show failed: %v", err)
		}
		if !strings.Contains(out, "#1 recorded") || !strings.Contains(out, "1. B - A (0.900)") {
			t.Errorf("unexpected show output:\n%s", out)
		}

		out, err = env.run("history", "show", "--json", "1")
		if err != nil {
			t.Fatalf("history show --json failed: %v", err)
		}
		if !strings.Contains(out, `"sequence": 1`) || !strings.Contains(out, `"k": 20`) {
			t.Errorf("unexpected JSON output:\n%s", out)
		}

		if _, err := env.run("history", "delete", "#1"); err != nil {
			t.Fatalf("history delete failed: %v", err)
		}

		out, err = env.run("history", "list")
		if err != nil {
			t.Fatalf("history list failed: %v", err)
		}
		if !strings.Contains(out, "No playlists recorded yet") {
			t.Errorf("expected empty history after delete, got:\n%s", out)
		}
	})

	t.Run("No History Flag", func(t *testing.T) {
		env := newTestEnv(t)

		if _, err := env.run("recommend", "--no-history", "123456"); err != nil {
			t.Fatalf("recommend failed: %v", err)
		}

		out, err := env.run("history", "list", "--json")
		if err != nil {
			t.Fatalf("history list failed: %v", err)
		}
		if strings.TrimSpace(out) != "[]" {
			t.Errorf("expected empty JSON list, got %q", out)
		}
	})

	t.Run("Failed Requests Are Not Recorded", func(t *testing.T) {
		env := newTestEnv(t)

		env.run("recommend", "999")

		out, err := env.run("history", "list", "--seed", "999")
		if err != nil {
			t.Fatalf("history list failed: %v", err)
		}
		if !strings.Contains(out, "No playlists recorded yet") {
			t.Errorf("expected no entries, got:\n%s", out)
		}
	})

	t.Run("Unknown Reference", func(t *testing.T) {
		env := newTestEnv(t)

		if _, err := env.run("history", "show", "#42"); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Errorf("expected ErrHistoryNotFound, got %v", err)
		}
		if _, err := env.run("history", "delete"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestCatalogCommands(t *testing.T) {
	t.Run("Song", func(t *testing.T) {
		env := newTestEnv(t)

		out, err := env.run("song", "1")
		if err != nil {
			t.Fatalf("song failed: %v", err)
		}
		for _, want := range []string{"A by B", "GN0100", "2001"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("Song Not Found", func(t *testing.T) {
		env := newTestEnv(t)

		if _, err := env.run("song", "404"); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("Song Invalid ID", func(t *testing.T) {
		env := newTestEnv(t)

		if _, err := env.run("song", "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if env.backend.Requests() != 0 {
			t.Error("expected no request for invalid id")
		}
	})

	t.Run("Search", func(t *testing.T) {
		env := newTestEnv(t)

		out, err := env.run("search", "--limit", "5", "a")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(out, "Found 1 songs") || !strings.Contains(out, "A by B") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if env.backend.Query(0).Get("limit") != "5" {
			t.Errorf("expected limit=5, got %v", env.backend.Query(0))
		}
	})

	t.Run("Health", func(t *testing.T) {
		env := newTestEnv(t)

		out, err := env.run("health")
		if err != nil {
			t.Fatalf("health failed: %v", err)
		}
		if !strings.Contains(out, "✓ Backend ok") || !strings.Contains(out, "connected") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("Health Unreachable", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.Close()

		if _, err := env.run("health"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestBatchCommand(t *testing.T) {
	t.Run("Exports Every Seed", func(t *testing.T) {
		env := newTestEnv(t)
		dir := t.TempDir()

		out, err := env.run("batch", "--format", "markdown", "--output-dir", dir, "--rate", "1000", "123456", "999", "abc")
		if err != nil {
			t.Fatalf("batch failed: %v", err)
		}

		if !strings.Contains(out, "Completed: 1 succeeded, 2 failed") {
			t.Errorf("unexpected summary:\n%s", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "recommendations_123456.md"))
		tu.AssertFileExists(t, filepath.Join(dir, tasks.ManifestFilename))

		list, err := env.run("history", "list")
		if err != nil {
			t.Fatalf("history list failed: %v", err)
		}
		if !strings.Contains(list, "#1") {
			t.Errorf("expected batch success in history, got:\n%s", list)
		}
	})

	t.Run("Requires Seeds", func(t *testing.T) {
		env := newTestEnv(t)

		if _, err := env.run("batch"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("Config", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(t.TempDir(), "config.toml")

		if _, err := env.run("--config", path, "setup", "config"); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, path)

		out, err := env.run("--config", path, "setup", "config")
		if err != nil {
			t.Fatalf("second setup config failed: %v", err)
		}
		if !strings.Contains(out, "already exists") {
			t.Errorf("expected existing config notice, got %q", out)
		}
	})

	t.Run("Database", func(t *testing.T) {
		env := newTestEnv(t)

		if _, err := env.run("setup", "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		tu.AssertFileExists(t, env.config.Database.Path)
	})
}
