package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/fcastdev/fcast-cli/internal/domain"
)

type marketPayload struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Status     string    `json:"status"`
	YesPercent float64   `json:"yes_percent"`
	Pool       int64     `json:"pool"`
	ClosesAt   time.Time `json:"closes_at"`
}

func (c *Client) ListMarkets(ctx context.Context, status domain.MarketStatus) ([]domain.Market, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}

	var payload struct {
		Markets []marketPayload `json:"markets"`
	}
	if err := c.getJSON(ctx, "/markets", query, &payload); err != nil {
		return nil, err
	}

	markets := make([]domain.Market, 0, len(payload.Markets))
	for _, m := range payload.Markets {
		markets = append(markets, m.toDomain())
	}
	return markets, nil
}

func (c *Client) GetMarket(ctx context.Context, id domain.MarketID) (domain.Market, error) {
	var payload struct {
		Market marketPayload `json:"market"`
	}
	if err := c.getJSON(ctx, "/markets/"+string(id), nil, &payload); err != nil {
		return domain.Market{}, err
	}
	if payload.Market.ID == "" {
		return domain.Market{}, errors.New("market response missing market")
	}
	return payload.Market.toDomain(), nil
}

// PlaceForecast stakes chips on a market outcome. Stake rules (minimums,
// market status) are enforced server-side; the client just reports them.
func (c *Client) PlaceForecast(ctx context.Context, forecast domain.Forecast) (int64, error) {
	body := map[string]any{
		"outcome": forecast.Outcome,
		"stake":   forecast.Stake,
	}

	var payload struct {
		Chips int64 `json:"chips"`
	}
	err := c.postJSON(ctx, "/markets/"+string(forecast.MarketID)+"/forecasts", body, &payload)
	if err != nil {
		return 0, err
	}
	return payload.Chips, nil
}

// UploadAvatar sends a multipart body. The content type comes from the
// multipart writer so the boundary survives the gateway untouched.
func (c *Client) UploadAvatar(ctx context.Context, filename string, avatar io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("avatar", filename)
	if err != nil {
		return fmt.Errorf("create avatar form file: %w", err)
	}
	if _, err := io.Copy(part, avatar); err != nil {
		return fmt.Errorf("copy avatar payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize avatar form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/users/avatar", nil, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.gateway.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, nil)
}

func (m marketPayload) toDomain() domain.Market {
	return domain.Market{
		ID:         domain.MarketID(m.ID),
		Question:   m.Question,
		Status:     domain.MarketStatus(m.Status),
		YesPercent: m.YesPercent,
		Pool:       m.Pool,
		ClosesAt:   m.ClosesAt,
	}
}
