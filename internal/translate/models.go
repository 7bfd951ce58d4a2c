package translate

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"doc-translator/internal/types"
)

// ModelInfo describes one model offered by the configured endpoint.
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ModelLister fetches the model catalog from an OpenAI-compatible endpoint.
type ModelLister struct {
	baseURL string
	apiKey  string
	http    *resty.Client
}

// NewModelLister builds a lister for the given endpoint.
func NewModelLister(baseURL, apiKey string) *ModelLister {
	return &ModelLister{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    resty.New().SetTimeout(20 * time.Second),
	}
}

// ListModels queries GET <baseURL>/models and returns the available models
// sorted by ID.
func (l *ModelLister) ListModels(ctx context.Context) ([]ModelInfo, error) {
	url := strings.TrimRight(l.baseURL, "/") + "/models"

	var resp struct {
		Data []ModelInfo `json:"data"`
	}
	r, err := l.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+l.apiKey).
		SetResult(&resp).
		Get(url)
	if err != nil {
		return nil, types.NewAppError(types.ErrTranslateRequest, "failed to list models", err)
	}
	if r.IsError() {
		return nil, types.NewAppErrorWithDetails(types.ErrTranslateRequest,
			"model listing rejected by endpoint", r.Status()+": "+r.String(), nil)
	}

	models := resp.Data
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}
