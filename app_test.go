package main

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"doc-translator/internal/translate"
	"doc-translator/internal/types"
	"doc-translator/internal/userstore"
)

// upperStub uppercases input; inputs in failOn fail instead.
type upperStub struct {
	failOn map[string]bool
	calls  int
}

func (s *upperStub) Translate(ctx context.Context, text string, onDelta func(string)) (string, error) {
	s.calls++
	if s.failOn[text] {
		return "", errors.New("endpoint unavailable")
	}
	return strings.ToUpper(text), nil
}

func newTestApp(t *testing.T, stub translate.Translator) *App {
	t.Helper()
	dir := t.TempDir()

	app, err := NewAppWithConfig(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("NewAppWithConfig() returned error: %v", err)
	}
	if err := app.config.Load(); err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	store, err := userstore.NewFileStore(filepath.Join(dir, "users.json"))
	if err != nil {
		t.Fatalf("NewFileStore() returned error: %v", err)
	}
	app.users = store

	app.newTranslator = func(ctx context.Context, cfg translate.ClientConfig) (translate.Translator, error) {
		return stub, nil
	}
	return app
}

func encode(content string) string {
	return base64.StdEncoding.EncodeToString([]byte(content))
}

func TestUploadFileValidation(t *testing.T) {
	app := newTestApp(t, &upperStub{})

	tests := []struct {
		name     string
		fileName string
		data     string
	}{
		{"unsupported extension", "image.png", encode("binary")},
		{"no extension", "README", encode("text")},
		{"invalid base64", "notes.txt", "!!! not base64 !!!"},
		{"oversize", "big.txt", encode(strings.Repeat("x", MaxUploadBytes+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := app.UploadFile(tt.fileName, tt.data); !types.IsCode(err, types.ErrValidation) {
				t.Errorf("UploadFile(%q) error = %v, want validation error", tt.fileName, err)
			}
		})
	}

	if jobs := app.GetJobs(); len(jobs) != 0 {
		t.Errorf("rejected uploads must not queue jobs, got %d", len(jobs))
	}
}

func TestUploadFileSizeLimitBoundary(t *testing.T) {
	app := newTestApp(t, &upperStub{})

	// A file of exactly the limit is accepted.
	if _, err := app.UploadFile("exact.txt", encode(strings.Repeat("x", MaxUploadBytes))); err != nil {
		t.Errorf("UploadFile() at the limit returned error: %v", err)
	}
	// One byte over is rejected.
	if _, err := app.UploadFile("over.txt", encode(strings.Repeat("x", MaxUploadBytes+1))); !types.IsCode(err, types.ErrValidation) {
		t.Errorf("UploadFile() over the limit error = %v, want validation error", err)
	}
}

func TestUploadFileMalformedDocx(t *testing.T) {
	app := newTestApp(t, &upperStub{})

	_, err := app.UploadFile("broken.docx", encode("not a zip archive"))
	if !types.IsCode(err, types.ErrMalformedDocument) {
		t.Errorf("UploadFile() error = %v, want malformed document error", err)
	}

	// The job stays in the list, terminally errored, and a run skips it.
	jobs := app.GetJobs()
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want the failed upload listed", len(jobs))
	}
	if jobs[0].Status != types.JobError || jobs[0].Error == "" {
		t.Errorf("failed upload job = %+v, want error status with message", jobs[0])
	}

	if err := app.TranslateAll(); err != nil {
		t.Fatalf("TranslateAll() returned error: %v", err)
	}
	if got := app.GetJobs()[0]; got.Status != types.JobError || got.Artifact != nil {
		t.Errorf("errored job must not be processed, got %+v", got)
	}
}

func TestUploadAndTranslateAll(t *testing.T) {
	stub := &upperStub{}
	app := newTestApp(t, stub)

	job, err := app.UploadFile("notes.md", encode("hello\n\nworld"))
	if err != nil {
		t.Fatalf("UploadFile() returned error: %v", err)
	}
	if job.Status != types.JobUploading {
		t.Errorf("fresh job status = %q, want uploading (received, awaiting a run)", job.Status)
	}

	if err := app.TranslateAll(); err != nil {
		t.Fatalf("TranslateAll() returned error: %v", err)
	}

	jobs := app.GetJobs()
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	got := jobs[0]
	if got.Status != types.JobCompleted {
		t.Fatalf("job status = %q (error: %s), want completed", got.Status, got.Error)
	}
	if got.Progress != 100 {
		t.Errorf("job progress = %d, want 100", got.Progress)
	}
	if got.Artifact == nil {
		t.Fatal("completed job should carry an artifact")
	}
	if got.Artifact.Name != "translated_notes.md" {
		t.Errorf("artifact name = %q", got.Artifact.Name)
	}
	if string(got.Artifact.Data) != "HELLO\n\nWORLD" {
		t.Errorf("artifact data = %q", got.Artifact.Data)
	}
	if stub.calls != 2 {
		t.Errorf("got %d translation calls, want one per paragraph", stub.calls)
	}
}

func TestTranslateAllProcessesQueueInOrder(t *testing.T) {
	app := newTestApp(t, &upperStub{})

	if _, err := app.UploadFile("a.txt", encode("first")); err != nil {
		t.Fatalf("UploadFile(a.txt) returned error: %v", err)
	}
	if _, err := app.UploadFile("b.txt", encode("second")); err != nil {
		t.Fatalf("UploadFile(b.txt) returned error: %v", err)
	}

	if err := app.TranslateAll(); err != nil {
		t.Fatalf("TranslateAll() returned error: %v", err)
	}

	jobs := app.GetJobs()
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if jobs[0].FileName != "a.txt" || jobs[1].FileName != "b.txt" {
		t.Errorf("jobs out of upload order: %q, %q", jobs[0].FileName, jobs[1].FileName)
	}
	for _, job := range jobs {
		if job.Status != types.JobCompleted {
			t.Errorf("job %s status = %q, want completed", job.FileName, job.Status)
		}
	}
}

func TestTranslateAllChunkFailurePassesThrough(t *testing.T) {
	stub := &upperStub{failOn: map[string]bool{"bad paragraph": true}}
	app := newTestApp(t, stub)

	if _, err := app.UploadFile("notes.md", encode("good one\n\nbad paragraph\n\nanother")); err != nil {
		t.Fatalf("UploadFile() returned error: %v", err)
	}
	if err := app.TranslateAll(); err != nil {
		t.Fatalf("TranslateAll() returned error: %v", err)
	}

	job := app.GetJobs()[0]
	if job.Status != types.JobCompleted {
		t.Fatalf("job status = %q, want completed despite chunk failure", job.Status)
	}
	if got := string(job.Artifact.Data); got != "GOOD ONE\n\nbad paragraph\n\nANOTHER" {
		t.Errorf("artifact = %q, want failed chunk passed through", got)
	}

	var sawError bool
	for _, entry := range app.GetLogEntries() {
		if entry.Severity == types.SeverityError {
			sawError = true
		}
	}
	if !sawError {
		t.Error("chunk failure should leave an error log entry")
	}
}

func TestTranslateAllClientFailureIsLogged(t *testing.T) {
	app := newTestApp(t, &upperStub{})
	app.newTranslator = func(ctx context.Context, cfg translate.ClientConfig) (translate.Translator, error) {
		return nil, types.NewAppError(types.ErrConfig, "no model configured", nil)
	}

	if _, err := app.UploadFile("notes.txt", encode("content")); err != nil {
		t.Fatalf("UploadFile() returned error: %v", err)
	}
	if err := app.TranslateAll(); !types.IsCode(err, types.ErrConfig) {
		t.Fatalf("TranslateAll() error = %v, want config error", err)
	}

	var logged bool
	for _, entry := range app.GetLogEntries() {
		if entry.Severity == types.SeverityError && strings.Contains(entry.Message, "translation client") {
			logged = true
		}
	}
	if !logged {
		t.Error("client construction failure should leave an error log entry")
	}
}

func TestArtifactAccess(t *testing.T) {
	app := newTestApp(t, &upperStub{})

	if _, err := app.GetArtifactDataURL("no-such-job"); !types.IsCode(err, types.ErrValidation) {
		t.Errorf("unknown job error = %v, want validation error", err)
	}

	job, _ := app.UploadFile("notes.txt", encode("content"))
	if _, err := app.GetArtifactDataURL(job.ID); !types.IsCode(err, types.ErrValidation) {
		t.Errorf("pending job error = %v, want validation error", err)
	}

	if err := app.TranslateAll(); err != nil {
		t.Fatalf("TranslateAll() returned error: %v", err)
	}

	url, err := app.GetArtifactDataURL(job.ID)
	if err != nil {
		t.Fatalf("GetArtifactDataURL() returned error: %v", err)
	}
	want := "data:text/plain;base64," + encode("CONTENT")
	if url != want {
		t.Errorf("data URL = %q, want %q", url, want)
	}
}

func TestClearJobs(t *testing.T) {
	app := newTestApp(t, &upperStub{})

	app.UploadFile("notes.txt", encode("content"))
	app.TranslateAll()

	if err := app.ClearJobs(); err != nil {
		t.Fatalf("ClearJobs() returned error: %v", err)
	}
	if len(app.GetJobs()) != 0 {
		t.Error("jobs should be gone after clear")
	}
	if len(app.GetLogEntries()) != 0 {
		t.Error("log should be gone after clear")
	}
}

func TestGetSettingsMasksAPIKey(t *testing.T) {
	app := newTestApp(t, &upperStub{})

	if err := app.SaveSettings("sk-verysecretkey12345", "https://example.com/v1", "gpt-4o-mini", "", "fr", 1); err != nil {
		t.Fatalf("SaveSettings() returned error: %v", err)
	}

	settings := app.GetSettings()
	if settings.APIKey != "****2345" {
		t.Errorf("APIKey = %q, want masked key", settings.APIKey)
	}
	if settings.BaseURL != "https://example.com/v1" {
		t.Errorf("BaseURL = %q", settings.BaseURL)
	}

	// Saving a masked key back keeps the stored key.
	if err := app.SaveSettings(settings.APIKey, "", "", "", "fr", 1); err != nil {
		t.Fatalf("second SaveSettings() returned error: %v", err)
	}
	if got := app.config.GetAPIKey(); got != "sk-verysecretkey12345" {
		t.Errorf("stored key = %q, want original preserved", got)
	}
}

func TestLoginAppliesUserSettings(t *testing.T) {
	app := newTestApp(t, &upperStub{})
	app.SaveSettings("sk-key", "https://default.example/v1", "gpt-4o-mini", "", "", 1)

	if _, err := app.RegisterUser("a@b.com", "A", "pw"); err != nil {
		t.Fatalf("RegisterUser() returned error: %v", err)
	}
	if _, err := app.Login("a@b.com", "pw"); err != nil {
		t.Fatalf("Login() returned error: %v", err)
	}
	if _, err := app.UpdateUserSettings("https://user.example/v1", "gpt-4o", ""); err != nil {
		t.Fatalf("UpdateUserSettings() returned error: %v", err)
	}

	cfg := app.clientConfig()
	if cfg.BaseURL != "https://user.example/v1" {
		t.Errorf("BaseURL = %q, want the user's endpoint", cfg.BaseURL)
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("Model = %q, want the user's model", cfg.Model)
	}

	app.Logout()
	cfg = app.clientConfig()
	if cfg.BaseURL != "https://default.example/v1" {
		t.Errorf("after logout BaseURL = %q, want the default endpoint", cfg.BaseURL)
	}
}

func TestUpdateUserSettingsRequiresLogin(t *testing.T) {
	app := newTestApp(t, &upperStub{})
	if _, err := app.UpdateUserSettings("e", "m", ""); !types.IsCode(err, types.ErrValidation) {
		t.Errorf("UpdateUserSettings() error = %v, want validation error", err)
	}
}
