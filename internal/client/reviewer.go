package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

// Reviewer — клиент сервиса ревью. Единственный вызов — POST /flag.
type Reviewer struct {
	base   string
	http   *http.Client
	rel    *Reliability
	logger *zap.Logger
}

func NewReviewer(baseURL string, timeout time.Duration, logger *zap.Logger) *Reviewer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Reviewer{
		base:   baseURL,
		http:   &http.Client{Timeout: timeout},
		rel:    NewReliability("reviewer"),
		logger: logger.Named("reviewer-client"),
	}
}

// Flag передает заказ ревьюеру. Один выстрел без ретраев: по протоколу
// флаггинга неудача логируется вызывающим и на этом все. Предохранитель
// лишь перестает дергать недоступного ревьюера после серии отказов.
func (r *Reviewer) Flag(ctx context.Context, order domain.Order) error {
	return r.rel.Do(ctx, func(ctx context.Context) error {
		raw, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+"/flag", bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: reviewer returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
		}
		return nil
	})
}
