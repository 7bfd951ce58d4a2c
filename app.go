package main

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"doc-translator/internal/assemble"
	"doc-translator/internal/config"
	"doc-translator/internal/document"
	"doc-translator/internal/logger"
	"doc-translator/internal/translate"
	"doc-translator/internal/types"
	"doc-translator/internal/userstore"
)

// Event names for frontend communication
const (
	EventJobStatus        = "job-status"
	EventJobProgress      = "job-progress"
	EventJobLog           = "job-log"
	EventJobComplete      = "job-complete"
	EventTranslatePartial = "translate-partial"
)

// MaxUploadBytes is the upload size limit enforced before a file reaches the
// translation pipeline.
const MaxUploadBytes = 10 << 20

// allowedExtensions is the upload extension whitelist.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".md":   true,
	".txt":  true,
}

// translatorFactory builds the translator used for a batch run; tests
// substitute a stub here.
type translatorFactory func(ctx context.Context, cfg translate.ClientConfig) (translate.Translator, error)

// jobState pairs a job's public view with the parsed document behind it.
type jobState struct {
	job *types.FileJob
	doc *types.ParsedDocument
}

// App is the main Wails application controller. It owns the upload queue,
// drives translation jobs one file at a time, and exposes settings and user
// bindings to the frontend.
type App struct {
	ctx    context.Context
	config *config.Manager
	users  userstore.Store

	jobsMu   sync.RWMutex
	jobs     map[string]*jobState
	jobOrder []string

	logMu      sync.Mutex
	logEntries []types.LogEntry

	runMu       sync.Mutex
	translating bool
	cancelRun   context.CancelFunc

	userMu     sync.RWMutex
	activeUser *types.User

	newTranslator translatorFactory

	// isWailsRuntime indicates if the app is running in a Wails environment.
	// This is used to safely skip EventsEmit calls during tests.
	isWailsRuntime bool
}

// NewApp creates a new App application struct.
func NewApp() *App {
	return &App{
		jobs: make(map[string]*jobState),
		newTranslator: func(ctx context.Context, cfg translate.ClientConfig) (translate.Translator, error) {
			return translate.NewClient(ctx, cfg)
		},
	}
}

// NewAppWithConfig creates a new App with a custom config path. This is
// useful for testing or when a specific configuration location is needed.
func NewAppWithConfig(configPath string) (*App, error) {
	app := NewApp()

	manager, err := config.NewManager(configPath)
	if err != nil {
		return nil, err
	}
	app.config = manager
	return app, nil
}

// SetWailsRuntime sets the Wails runtime flag. This should be called from
// main.go when the app is started in Wails mode.
func (a *App) SetWailsRuntime(isWails bool) {
	a.isWailsRuntime = isWails
}

// safeEmit safely emits an event to the frontend. It only emits events when
// running in a Wails environment.
func (a *App) safeEmit(eventName string, data ...interface{}) {
	if !a.isWailsRuntime {
		logger.Debug("event emit skipped (not in Wails runtime)",
			logger.String("event", eventName))
		return
	}
	runtime.EventsEmit(a.ctx, eventName, data...)
}

// startup is called when the app starts. The context is saved so we can
// call the runtime methods.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	logger.Info("application starting up")

	if a.config == nil {
		manager, err := config.NewManager("")
		if err != nil {
			logger.Error("failed to create config manager", err)
			return
		}
		a.config = manager
	}

	if err := a.config.Load(); err != nil {
		logger.Warn("failed to load config, using defaults", logger.Err(err))
	}

	if a.users == nil {
		store, err := userstore.NewFileStore("")
		if err != nil {
			logger.Error("failed to open user store", err)
		} else {
			a.users = store
		}
	}
}

// shutdown is called when the app terminates.
func (a *App) shutdown(ctx context.Context) {
	a.CancelTranslation()
	logger.Info("application shutting down")
}

// UploadFile validates and parses an uploaded file, queueing a translation
// job for it. The content arrives base64-encoded, optionally as a data URL.
func (a *App) UploadFile(fileName string, base64Data string) (*types.FileJob, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return nil, types.NewAppErrorWithDetails(types.ErrValidation,
			"unsupported file type", "allowed: pdf, docx, md, txt", nil)
	}

	if strings.HasPrefix(base64Data, "data:") {
		if idx := strings.Index(base64Data, ","); idx >= 0 {
			base64Data = base64Data[idx+1:]
		}
	}
	// DecodedLen overestimates by at most two padding bytes, so this rejects
	// oversized payloads without materializing them while a file of exactly
	// the limit still passes the exact check below.
	if base64.StdEncoding.DecodedLen(len(base64Data)) > MaxUploadBytes+2 {
		return nil, types.NewAppError(types.ErrValidation, "file exceeds the 10 MiB upload limit", nil)
	}
	data, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return nil, types.NewAppError(types.ErrValidation, "file content is not valid base64", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, types.NewAppError(types.ErrValidation, "file exceeds the 10 MiB upload limit", nil)
	}

	job := &types.FileJob{
		ID:       uuid.NewString(),
		FileName: fileName,
		Status:   types.JobIdle,
	}
	st := &jobState{job: job}

	a.jobsMu.Lock()
	a.jobs[job.ID] = st
	a.jobOrder = append(a.jobOrder, job.ID)
	a.jobsMu.Unlock()
	a.safeEmit(EventJobStatus, jobView(job))

	a.setJobStatus(st, types.JobUploading)

	doc, err := document.Parse(fileName, data)
	if err != nil {
		logger.Warn("upload rejected", logger.String("file", fileName), logger.Err(err))
		a.jobsMu.Lock()
		job.Error = err.Error()
		a.jobsMu.Unlock()
		a.setJobStatus(st, types.JobError)
		return nil, err
	}
	st.doc = doc

	if a.config != nil {
		a.config.SetLastUsedFile(fileName)
	}

	logger.Info("file uploaded",
		logger.String("file", fileName),
		logger.String("job", job.ID),
		logger.Int("bytes", len(data)))
	// The job rests at uploading until a translation run picks it up.
	return jobView(job), nil
}

// TranslateAll runs every queued job, one file at a time, in upload order.
// It returns once the whole queue has been processed or the run is
// cancelled; progress is reported through events.
func (a *App) TranslateAll() error {
	a.runMu.Lock()
	if a.translating {
		a.runMu.Unlock()
		return types.NewAppError(types.ErrValidation, "a translation run is already in progress", nil)
	}
	baseCtx := a.ctx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	a.translating = true
	a.cancelRun = cancel
	a.runMu.Unlock()

	defer func() {
		cancel()
		a.runMu.Lock()
		a.translating = false
		a.cancelRun = nil
		a.runMu.Unlock()
	}()

	tr, err := a.newTranslator(ctx, a.clientConfig())
	if err != nil {
		logger.Error("failed to create translation client", err)
		a.appendLog(types.LogEntry{
			Time:     time.Now(),
			Message:  "failed to create translation client: " + err.Error(),
			Severity: types.SeverityError,
		})
		return err
	}

	for _, id := range a.pendingJobIDs() {
		if ctx.Err() != nil {
			break
		}
		a.jobsMu.RLock()
		st := a.jobs[id]
		a.jobsMu.RUnlock()
		if st == nil {
			continue
		}
		a.processJob(ctx, tr, st)
	}
	return nil
}

// CancelTranslation stops the current run after the in-flight chunk. Jobs
// already completed keep their artifacts.
func (a *App) CancelTranslation() {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.cancelRun != nil {
		logger.Info("translation run cancelled")
		a.cancelRun()
	}
}

// IsTranslating reports whether a translation run is in progress.
func (a *App) IsTranslating() bool {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.translating
}

// pendingJobIDs returns the IDs of jobs still waiting to run, in upload
// order.
func (a *App) pendingJobIDs() []string {
	a.jobsMu.RLock()
	defer a.jobsMu.RUnlock()

	var ids []string
	for _, id := range a.jobOrder {
		st := a.jobs[id]
		if st == nil || st.doc == nil {
			continue
		}
		if st.job.Status == types.JobIdle || st.job.Status == types.JobUploading {
			ids = append(ids, id)
		}
	}
	return ids
}

// processJob runs one job through translation and reassembly. Failures mark
// the job as errored; they never abort the queue.
func (a *App) processJob(ctx context.Context, tr translate.Translator, st *jobState) {
	a.setJobStatus(st, types.JobProcessing)

	opts := assemble.Options{
		FileLabel: st.job.FileName,
		Workers:   a.workers(),
		OnProgress: func(completed, total int) {
			a.jobsMu.Lock()
			st.job.Progress = completed * 100 / total
			progress := st.job.Progress
			a.jobsMu.Unlock()
			a.safeEmit(EventJobProgress, map[string]interface{}{
				"jobId":     st.job.ID,
				"completed": completed,
				"total":     total,
				"progress":  progress,
			})
		},
		OnLog: a.appendLog,
		OnPartial: func(chunkIndex int, partial string) {
			a.safeEmit(EventTranslatePartial, map[string]interface{}{
				"jobId": st.job.ID,
				"chunk": chunkIndex,
				"text":  partial,
			})
		},
	}

	a.setJobStatus(st, types.JobTranslating)

	artifact, err := assemble.Reassemble(ctx, tr, st.doc, opts)
	if err != nil {
		logger.Error("job failed", err, logger.String("job", st.job.ID))
		a.jobsMu.Lock()
		st.job.Error = err.Error()
		a.jobsMu.Unlock()
		a.setJobStatus(st, types.JobError)
		return
	}

	a.jobsMu.Lock()
	st.job.Artifact = artifact
	st.job.Progress = 100
	a.jobsMu.Unlock()
	a.setJobStatus(st, types.JobCompleted)

	logger.Info("job completed",
		logger.String("job", st.job.ID),
		logger.String("artifact", artifact.Name),
		logger.Int("bytes", artifact.Size))
	a.safeEmit(EventJobComplete, jobView(st.job))
}

// setJobStatus applies a status transition if it is legal and notifies the
// frontend.
func (a *App) setJobStatus(st *jobState, status types.JobStatus) {
	a.jobsMu.Lock()
	if !types.CanTransition(st.job.Status, status) {
		a.jobsMu.Unlock()
		logger.Warn("illegal job status transition skipped",
			logger.String("job", st.job.ID),
			logger.String("from", string(st.job.Status)),
			logger.String("to", string(status)))
		return
	}
	st.job.Status = status
	view := jobView(st.job)
	a.jobsMu.Unlock()
	a.safeEmit(EventJobStatus, view)
}

// appendLog records an activity log entry and forwards it to the frontend
// log panel.
func (a *App) appendLog(entry types.LogEntry) {
	a.logMu.Lock()
	a.logEntries = append(a.logEntries, entry)
	a.logMu.Unlock()
	a.safeEmit(EventJobLog, entry)
}

// GetJobs returns the current jobs in upload order.
func (a *App) GetJobs() []*types.FileJob {
	a.jobsMu.RLock()
	defer a.jobsMu.RUnlock()

	jobs := make([]*types.FileJob, 0, len(a.jobOrder))
	for _, id := range a.jobOrder {
		if st := a.jobs[id]; st != nil {
			jobs = append(jobs, jobView(st.job))
		}
	}
	return jobs
}

// GetLogEntries returns the accumulated activity log.
func (a *App) GetLogEntries() []types.LogEntry {
	a.logMu.Lock()
	defer a.logMu.Unlock()
	return append([]types.LogEntry(nil), a.logEntries...)
}

// ClearJobs drops all jobs and the activity log. It is rejected while a run
// is in progress.
func (a *App) ClearJobs() error {
	if a.IsTranslating() {
		return types.NewAppError(types.ErrValidation, "cannot clear jobs while translating", nil)
	}

	a.jobsMu.Lock()
	a.jobs = make(map[string]*jobState)
	a.jobOrder = nil
	a.jobsMu.Unlock()

	a.logMu.Lock()
	a.logEntries = nil
	a.logMu.Unlock()
	return nil
}

// DownloadArtifact saves a completed job's artifact to a user-selected
// location and returns the chosen path. An empty path means the user
// cancelled the dialog.
func (a *App) DownloadArtifact(jobID string) (string, error) {
	artifact, err := a.artifactFor(jobID)
	if err != nil {
		return "", err
	}

	savePath, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Save translated file",
		DefaultFilename: artifact.Name,
	})
	if err != nil {
		logger.Error("save dialog error", err)
		return "", types.NewAppError(types.ErrInternal, "failed to open save dialog", err)
	}
	if savePath == "" {
		return "", nil // User cancelled
	}

	if err := os.WriteFile(savePath, artifact.Data, 0644); err != nil {
		logger.Error("failed to write artifact", err, logger.String("path", savePath))
		return "", types.NewAppError(types.ErrInternal, "failed to save translated file", err)
	}

	logger.Info("artifact saved", logger.String("path", savePath))
	return savePath, nil
}

// GetArtifactDataURL returns a completed job's artifact as a base64 data
// URL, for browser-side download links.
func (a *App) GetArtifactDataURL(jobID string) (string, error) {
	artifact, err := a.artifactFor(jobID)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(artifact.Data)
	return "data:" + mimeTypeFor(artifact.Name) + ";base64," + encoded, nil
}

func (a *App) artifactFor(jobID string) (*types.Artifact, error) {
	a.jobsMu.RLock()
	defer a.jobsMu.RUnlock()

	st, ok := a.jobs[jobID]
	if !ok {
		return nil, types.NewAppError(types.ErrValidation, "unknown job", nil)
	}
	if st.job.Artifact == nil {
		return nil, types.NewAppError(types.ErrValidation, "job has no translated output yet", nil)
	}
	return st.job.Artifact, nil
}

func mimeTypeFor(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".md", ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// GetSettings returns the current settings with the API key masked.
func (a *App) GetSettings() *types.Config {
	if a.config == nil {
		return &types.Config{}
	}
	cfg := *a.config.GetConfig()
	cfg.APIKey = maskAPIKey(cfg.APIKey)
	return &cfg
}

// SaveSettings saves the application settings from the frontend. A masked
// API key means "keep the stored one".
func (a *App) SaveSettings(apiKey, baseURL, model, customModel, targetLanguage string, workers int) error {
	if a.config == nil {
		return types.NewAppError(types.ErrConfig, "configuration is not initialized", nil)
	}
	if strings.HasPrefix(apiKey, "****") {
		apiKey = ""
	}
	if err := a.config.UpdateConfig(apiKey, baseURL, model, customModel, targetLanguage, workers); err != nil {
		return err
	}
	logger.Info("settings saved",
		logger.String("baseURL", a.config.GetBaseURL()),
		logger.String("model", a.config.GetModel()),
		logger.Int("workers", a.config.GetWorkers()))
	return nil
}

// TestAPIConnection checks that the endpoint answers with the given
// credentials by listing its models.
func (a *App) TestAPIConnection(apiKey, baseURL string) error {
	if strings.HasPrefix(apiKey, "****") && a.config != nil {
		apiKey = a.config.GetAPIKey()
	}
	if apiKey == "" {
		return types.NewAppError(types.ErrConfig, "API key must not be empty", nil)
	}
	if baseURL == "" {
		return types.NewAppError(types.ErrConfig, "base URL must not be empty", nil)
	}

	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := translate.NewModelLister(baseURL, apiKey).ListModels(ctx)
	if err != nil {
		logger.Error("API connection test failed", err)
		return err
	}
	logger.Info("API connection test successful")
	return nil
}

// ListModels returns the models offered by the configured endpoint.
func (a *App) ListModels() ([]translate.ModelInfo, error) {
	if a.config == nil {
		return nil, types.NewAppError(types.ErrConfig, "configuration is not initialized", nil)
	}
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return translate.NewModelLister(a.config.GetBaseURL(), a.config.GetAPIKey()).ListModels(ctx)
}

// RegisterUser creates a local user record.
func (a *App) RegisterUser(email, name, credential string) (*types.User, error) {
	if a.users == nil {
		return nil, types.NewAppError(types.ErrUserStore, "user store is not initialized", nil)
	}
	return a.users.Register(email, name, credential)
}

// Login authenticates against the local user store and makes the user's
// endpoint and model settings active for subsequent runs.
func (a *App) Login(email, credential string) (*types.User, error) {
	if a.users == nil {
		return nil, types.NewAppError(types.ErrUserStore, "user store is not initialized", nil)
	}
	user, err := a.users.Authenticate(email, credential)
	if err != nil {
		return nil, err
	}

	a.userMu.Lock()
	a.activeUser = user
	a.userMu.Unlock()

	logger.Info("user logged in", logger.String("email", user.Email))
	return user, nil
}

// Logout clears the active user.
func (a *App) Logout() {
	a.userMu.Lock()
	a.activeUser = nil
	a.userMu.Unlock()
}

// UpdateUserSettings stores endpoint and model choices on the active user's
// record.
func (a *App) UpdateUserSettings(endpoint, modelName, customModel string) (*types.User, error) {
	a.userMu.RLock()
	active := a.activeUser
	a.userMu.RUnlock()
	if active == nil {
		return nil, types.NewAppError(types.ErrValidation, "no user is logged in", nil)
	}

	user, err := a.users.UpdateSettings(active.Email, endpoint, modelName, customModel)
	if err != nil {
		return nil, err
	}

	a.userMu.Lock()
	a.activeUser = user
	a.userMu.Unlock()
	return user, nil
}

// clientConfig builds the translation endpoint settings for a run. The
// active user's stored choices take precedence over the application config.
func (a *App) clientConfig() translate.ClientConfig {
	cfg := translate.ClientConfig{}
	if a.config != nil {
		cfg.APIKey = a.config.GetAPIKey()
		cfg.BaseURL = a.config.GetBaseURL()
		cfg.Model = a.config.GetModel()
		cfg.TargetLanguage = a.config.GetTargetLanguage()
	}

	a.userMu.RLock()
	user := a.activeUser
	a.userMu.RUnlock()
	if user != nil {
		if user.Endpoint != "" {
			cfg.BaseURL = user.Endpoint
		}
		if user.CustomModel != "" {
			cfg.Model = user.CustomModel
		} else if user.ModelName != "" {
			cfg.Model = user.ModelName
		}
	}
	return cfg
}

func (a *App) workers() int {
	if a.config == nil {
		return 1
	}
	return a.config.GetWorkers()
}

// jobView returns a copy of the job safe to hand to the frontend.
func jobView(job *types.FileJob) *types.FileJob {
	c := *job
	return &c
}

// maskAPIKey hides all but the last four characters of a key.
func maskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
