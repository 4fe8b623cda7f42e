package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iwaseano/yoga-reserve/internal/booking"
)

const defaultRequestTimeout = 15 * time.Second

// HTTPClient talks to a real reservation backend over its REST surface.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for the backend at baseURL. A nil
// httpClient falls back to a client with a default timeout.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

func (c *HTTPClient) Login(ctx context.Context, req booking.LoginRequest) (booking.LoginResponse, error) {
	var resp booking.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", req, &resp)
	return resp, err
}

func (c *HTTPClient) Register(ctx context.Context, req booking.RegisterRequest) (booking.LoginResponse, error) {
	var resp booking.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", "", req, &resp)
	return resp, err
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (booking.RefreshResponse, error) {
	var resp booking.RefreshResponse
	err := c.do(ctx, http.MethodPost, "/auth/refresh", "", booking.RefreshRequest{Refresh: refreshToken}, &resp)
	return resp, err
}

func (c *HTTPClient) Services(ctx context.Context, token string) ([]booking.Service, error) {
	var services []booking.Service
	if err := c.authedDo(ctx, http.MethodGet, "/services", token, nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}

func (c *HTTPClient) Service(ctx context.Context, token string, serviceID int64) (booking.Service, error) {
	var service booking.Service
	err := c.authedDo(ctx, http.MethodGet, fmt.Sprintf("/services/%d", serviceID), token, nil, &service)
	return service, err
}

func (c *HTTPClient) Slots(ctx context.Context, token string, serviceID int64, date string) (booking.ServiceSlots, error) {
	var slots booking.ServiceSlots
	path := fmt.Sprintf("/services/%d/slots?date=%s", serviceID, url.QueryEscape(date))
	err := c.authedDo(ctx, http.MethodGet, path, token, nil, &slots)
	return slots, err
}

func (c *HTTPClient) CreateBooking(ctx context.Context, token string, req booking.CreateBookingRequest) (booking.CreateBookingResponse, error) {
	var resp booking.CreateBookingResponse
	err := c.authedDo(ctx, http.MethodPost, "/bookings", token, req, &resp)
	return resp, err
}

func (c *HTTPClient) MyBookings(ctx context.Context, token string) ([]booking.BookingDetail, error) {
	var bookings []booking.BookingDetail
	if err := c.authedDo(ctx, http.MethodGet, "/bookings/mine", token, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *HTTPClient) CancelBooking(ctx context.Context, token string, bookingID int64) (booking.CancelBookingResponse, error) {
	var resp booking.CancelBookingResponse
	err := c.authedDo(ctx, http.MethodDelete, fmt.Sprintf("/bookings/%d", bookingID), token, nil, &resp)
	return resp, err
}

func (c *HTTPClient) AllBookings(ctx context.Context, token string) ([]booking.AdminBookingDetail, error) {
	var bookings []booking.AdminBookingDetail
	if err := c.authedDo(ctx, http.MethodGet, "/admin/bookings", token, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// authedDo fails with ErrNotAuthenticated before any network access when the
// token is empty.
func (c *HTTPClient) authedDo(ctx context.Context, method, path, token string, payload, dst any) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	return c.do(ctx, method, path, token, payload, dst)
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, payload, dst any) error {
	var body *bytes.Buffer
	if payload != nil {
		body = &bytes.Buffer{}
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		reqBody = body
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// decodeError converts a non-success response into a BackendError. The
// message comes from the body's "detail" field; bodies that are not valid
// JSON fall back to the generic message.
func decodeError(resp *http.Response) error {
	backendErr := &BackendError{Status: resp.StatusCode}

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		backendErr.Detail = body.Detail
	}
	return backendErr
}
