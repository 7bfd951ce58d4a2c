// Package types defines core data types and enums shared across the
// document translator application.
package types

import "time"

// Config 应用配置
type Config struct {
	APIKey          string `json:"api_key"`
	BaseURL         string `json:"base_url"` // OpenAI 兼容 API 的 Base URL
	Model           string `json:"model"`
	CustomModel     string `json:"custom_model"`     // 自定义模型名，优先于 Model
	TargetLanguage  string `json:"target_language"`  // BCP-47 标签，例如 "zh"；空值表示中英互译
	Workers         int    `json:"workers"`          // 批量翻译并发数，默认 1（顺序处理）
	WorkDirectory   string `json:"work_directory"`
	LastUsedFile    string `json:"last_used_file"`
}

// DocumentFormat 文档格式枚举
type DocumentFormat string

const (
	// FormatDocx is a zipped-XML word processing document; text lives in
	// markup leaf nodes and the rest of the archive must survive untouched.
	FormatDocx DocumentFormat = "docx"
	// FormatMarkdown is paragraph-delimited text.
	FormatMarkdown DocumentFormat = "markdown"
	// FormatText is plain text translated as a single unit.
	FormatText DocumentFormat = "text"
	// FormatPDF is paged text; translation runs per page and the output is
	// always plain text.
	FormatPDF DocumentFormat = "pdf"
)

// ParsedDocument 解析后的文档
// Created once per uploaded file. The archive payload is the structural
// handle for docx reassembly and is the only part mutated downstream.
type ParsedDocument struct {
	FileName string         `json:"file_name"`
	Format   DocumentFormat `json:"format"`
	// Text is the full extracted text; for docx it stays empty because
	// extraction is deferred to reassembly, which needs node-level access.
	Text string `json:"text"`
	// PageTexts holds per-page text for paged formats, in page order.
	PageTexts []string `json:"page_texts,omitempty"`
	// Payload is the original file bytes, retained so reassembly can mutate
	// only text-bearing content.
	Payload []byte `json:"-"`
}

// JobStatus 任务状态枚举
type JobStatus string

const (
	JobIdle        JobStatus = "idle"
	JobUploading   JobStatus = "uploading"
	JobProcessing  JobStatus = "processing"
	JobTranslating JobStatus = "translating"
	JobCompleted   JobStatus = "completed"
	JobError       JobStatus = "error"
)

// jobRank orders the status enumeration; transitions only move forward,
// except JobError which is terminal and reachable from anywhere.
var jobRank = map[JobStatus]int{
	JobIdle:        0,
	JobUploading:   1,
	JobProcessing:  2,
	JobTranslating: 3,
	JobCompleted:   4,
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to JobStatus) bool {
	if from == JobError {
		return false
	}
	if to == JobError {
		return true
	}
	return jobRank[to] > jobRank[from]
}

// FileJob 文件翻译任务
type FileJob struct {
	ID       string    `json:"id"`
	FileName string    `json:"file_name"`
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"` // 0-100
	Error    string    `json:"error,omitempty"`
	// Artifact is the translated output, present once Status is completed.
	Artifact *Artifact `json:"artifact,omitempty"`
}

// Artifact 可下载的翻译结果
type Artifact struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
	Size int    `json:"size"`
}

// LogSeverity 日志条目级别
type LogSeverity string

const (
	SeverityInfo    LogSeverity = "info"
	SeveritySuccess LogSeverity = "success"
	SeverityWarning LogSeverity = "warning"
	SeverityError   LogSeverity = "error"
)

// LogEntry 翻译过程日志条目
// Append-only, ordered by emission time, used only for the UI log panel and
// never for control flow.
type LogEntry struct {
	Time       time.Time   `json:"time"`
	FileLabel  string      `json:"file_label"`
	Message    string      `json:"message"`
	Severity   LogSeverity `json:"severity"`
	DurationMs int64       `json:"duration_ms,omitempty"`
}

// User 本地用户记录
// The credential is stored in cleartext in the local store; this is a demo
// convenience, not a security model.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Credential  string    `json:"credential,omitempty"`
	ModelName   string    `json:"model_name,omitempty"`
	Endpoint    string    `json:"endpoint,omitempty"`
	CustomModel string    `json:"custom_model,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrMalformedDocument ErrorCode = "MALFORMED_DOCUMENT"
	ErrTranslateRequest  ErrorCode = "TRANSLATE_REQUEST_FAILED"
	ErrValidation        ErrorCode = "VALIDATION_ERROR"
	ErrConfig            ErrorCode = "CONFIG_ERROR"
	ErrUserStore         ErrorCode = "USER_STORE_ERROR"
	ErrInternal          ErrorCode = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// IsCode reports whether err is an *AppError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}
