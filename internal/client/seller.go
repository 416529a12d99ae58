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

// Seller — HTTP-клиент авторитетного сервиса заказов. Все вызовы идут с
// явным таймаутом: истечение трактуется как ErrUpstreamUnavailable, а не
// как вечное ожидание.
type Seller struct {
	base   string
	http   *http.Client
	rel    *Reliability
	logger *zap.Logger
}

func NewSeller(baseURL string, timeout time.Duration, logger *zap.Logger) *Seller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Seller{
		base:   baseURL,
		http:   &http.Client{Timeout: timeout},
		rel:    NewReliability("seller"),
		logger: logger.Named("seller-client"),
	}
}

// OrderRequest — заявка POST /order.
type OrderRequest struct {
	AccountID string `json:"accountId"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Agent     bool   `json:"agent"`
}

// resolveResponse — форма ответа /approve и /revert.
type resolveResponse struct {
	Message string       `json:"message"`
	Order   domain.Order `json:"order"`
}

// Products возвращает каталог. Чтение идемпотентно — с ретраями.
func (s *Seller) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := s.rel.DoIdempotent(ctx, func(ctx context.Context) error {
		return s.getJSON(ctx, "/products", &products)
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Pending возвращает заказы в pending_confirmation (для сверки ревьюера).
func (s *Seller) Pending(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.rel.DoIdempotent(ctx, func(ctx context.Context) error {
		return s.getJSON(ctx, "/pending", &orders)
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// PlaceOrder отправляет заказ продавцу. Один выстрел: ретрай без
// идемпотентного ключа создал бы дубликат заказа.
func (s *Seller) PlaceOrder(ctx context.Context, req OrderRequest) (*domain.Order, error) {
	var order domain.Order
	err := s.rel.Do(ctx, func(ctx context.Context) error {
		return s.postJSON(ctx, "/order", req, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Approve переводит pending_confirmation -> delivered.
func (s *Seller) Approve(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.resolve(ctx, "/approve", orderID)
}

// Revert переводит pending_confirmation|error -> reverted.
func (s *Seller) Revert(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.resolve(ctx, "/revert", orderID)
}

func (s *Seller) resolve(ctx context.Context, path, orderID string) (*domain.Order, error) {
	var resp resolveResponse
	err := s.rel.Do(ctx, func(ctx context.Context) error {
		return s.postJSON(ctx, path, map[string]string{"orderId": orderID}, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

func (s *Seller) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return s.do(req, out)
}

func (s *Seller) postJSON(ctx context.Context, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, out)
}

func (s *Seller) do(req *http.Request, out interface{}) error {
	resp, err := s.http.Do(req)
	if err != nil {
		// Сюда попадает и истекший таймаут клиента
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamUnavailable, err)
		}
		return nil
	}

	return s.mapError(resp)
}

// mapError поднимает ошибку продавца до доменной, чтобы ревьюер и агент
// могли отдать вызывающему тот же класс отказа (404 остается 404 и т.д.).
func (s *Seller) mapError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, body.Error)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrValidation, body.Error)
	default:
		return fmt.Errorf("%w: seller returned %d: %s",
			domain.ErrUpstreamUnavailable, resp.StatusCode, body.Error)
	}
}
