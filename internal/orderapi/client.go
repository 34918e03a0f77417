// Package orderapi предоставляет клиент удалённого API заказов: оценки, выдача,
// оформление, покупатели и избранное.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/storefront/internal/model"
)

// ErrNotFound возвращается, если запрошенная запись не существует.
var ErrNotFound = errors.New("not found")

// CodeCancelled - структурированный код ошибки для отменённого заказа.
const CodeCancelled = "cancelled"

// maxRetryWait ограничивает ожидание по заголовку Retry-After.
const maxRetryWait = 10 * time.Second

// APIError описывает ошибку, которую вернул удалённый API.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Params  map[string]string `json:"params,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("order api: status %d", e.Status)
	}
	return e.Message
}

// Client инкапсулирует HTTP-взаимодействие с API заказов.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	maxRetryWait time.Duration
}

// NewClient создаёт HTTP-клиент для обращения к API заказов по указанному адресу.
func NewClient(baseURL string) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		maxRetryWait: maxRetryWait,
	}
}

// Auth - результат входа покупателя.
type Auth struct {
	Token   string        `json:"access_token"`
	Profile model.Profile `json:"customer"`
}

type ratingRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

type orderRequest struct {
	RevenueCenterID int64            `json:"revenue_center_id"`
	ServiceType     string           `json:"service_type"`
	OrderType       string           `json:"order_type,omitempty"`
	CartTotal       decimal.Decimal  `json:"cart_total"`
	DeviceType      model.DeviceType `json:"device_type,omitempty"`
	Tip             *decimal.Decimal `json:"tip,omitempty"`
}

func newOrderRequest(order model.Order, tip *decimal.Decimal) orderRequest {
	return orderRequest{
		RevenueCenterID: order.RevenueCenterID(),
		ServiceType:     order.ServiceType,
		OrderType:       order.OrderType,
		CartTotal:       order.CartTotal,
		DeviceType:      order.DeviceType,
		Tip:             tip,
	}
}

// GetOrderRating запрашивает оценку заказа по её идентификатору.
func (c *Client) GetOrderRating(ctx context.Context, ratingUUID string) (*model.OrderRating, error) {
	var rating model.OrderRating
	if err := c.do(ctx, http.MethodGet, "/order-ratings/"+url.PathEscape(ratingUUID), "", nil, &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}

// UpdateOrderRating сохраняет оценку и возвращает её актуальное состояние.
func (c *Client) UpdateOrderRating(ctx context.Context, ratingUUID string, rating model.OrderRating) (*model.OrderRating, error) {
	req := ratingRequest{Rating: rating.Rating, Comment: rating.Comment}
	var updated model.OrderRating
	if err := c.do(ctx, http.MethodPut, "/order-ratings/"+url.PathEscape(ratingUUID), "", req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UnsubscribeOrderRating отписывает покупателя от писем с просьбой об оценке.
func (c *Client) UnsubscribeOrderRating(ctx context.Context, ratingUUID string) error {
	return c.do(ctx, http.MethodPost, "/order-ratings/"+url.PathEscape(ratingUUID)+"/unsubscribe", "", nil, nil)
}

// GetOrderFulfillment запрашивает статус выдачи заказа.
func (c *Client) GetOrderFulfillment(ctx context.Context, orderID int64) (*model.Fulfillment, error) {
	var f model.Fulfillment
	path := "/orders/" + strconv.FormatInt(orderID, 10) + "/fulfillment"
	if err := c.do(ctx, http.MethodGet, path, "", nil, &f); err != nil {
		return nil, err
	}
	if f.OrderID == 0 {
		f.OrderID = orderID
	}
	return &f, nil
}

// ValidateOrder запрашивает серверный чек для заказа.
func (c *Client) ValidateOrder(ctx context.Context, token string, order model.Order) (*model.Check, error) {
	var check model.Check
	if err := c.do(ctx, http.MethodPost, "/orders/validate", token, newOrderRequest(order, nil), &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// SubmitOrder оформляет заказ. Ошибки полей формы приходят в APIError.Params.
func (c *Client) SubmitOrder(ctx context.Context, token string, order model.Order, tip *decimal.Decimal) (*model.CompletedOrder, error) {
	var completed model.CompletedOrder
	if err := c.do(ctx, http.MethodPost, "/orders", token, newOrderRequest(order, tip), &completed); err != nil {
		return nil, err
	}
	return &completed, nil
}

// LoginCustomer выполняет вход покупателя по почте и паролю.
func (c *Client) LoginCustomer(ctx context.Context, email, password string) (*Auth, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var auth Auth
	if err := c.do(ctx, http.MethodPost, "/customer/login", "", req, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// LogoutCustomer отзывает токен покупателя.
func (c *Client) LogoutCustomer(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/customer/logout", token, nil, nil)
}

// SendPasswordResetEmail просит API отправить письмо со ссылкой на сброс пароля.
func (c *Client) SendPasswordResetEmail(ctx context.Context, email, linkURL string) error {
	req := struct {
		Email   string `json:"email"`
		LinkURL string `json:"link_url"`
	}{email, linkURL}
	return c.do(ctx, http.MethodPost, "/customer/send-reset-link", "", req, nil)
}

// GetCustomerFavorites возвращает избранное покупателя.
func (c *Client) GetCustomerFavorites(ctx context.Context, token string) ([]model.Favorite, error) {
	var resp struct {
		Data []model.Favorite `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/customer/favorites", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = []model.Favorite{}
	}
	return resp.Data, nil
}

// do выполняет запрос. На 429 ждёт Retry-After (не дольше maxRetryWait) и повторяет запрос один раз.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("order api client not configured")
	}

	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, method, path, token, payload)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			wait := retryAfter(resp.Header.Get("Retry-After"), c.maxRetryWait)
			drain(resp)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}

		return decodeResponse(resp, out)
	}
}

func (c *Client) send(ctx context.Context, method, path, token string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, readAPIError(resp))
	case resp.StatusCode >= 400:
		return readAPIError(resp)
	case resp.StatusCode == http.StatusNoContent || out == nil:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, apiErr)
	}
	return apiErr
}

func retryAfter(v string, limit time.Duration) time.Duration {
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0
	}
	d := time.Duration(seconds) * time.Second
	if d > limit {
		return limit
	}
	return d
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// IsNotFound сообщает, что запись не найдена.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ErrorCode возвращает структурированный код ошибки API, если он есть.
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// Message возвращает текст ошибки для показа покупателю.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

// FormErrors возвращает ошибки полей формы из ответа API.
// Общая ошибка формы попадает под ключ "form".
func FormErrors(err error) map[string]string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return map[string]string{"form": err.Error()}
	}
	out := make(map[string]string, len(apiErr.Params)+1)
	for k, v := range apiErr.Params {
		out[k] = v
	}
	if _, ok := out["form"]; !ok {
		out["form"] = apiErr.Error()
	}
	return out
}
