package api

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

	"github.com/radieske/tips-platform/internal/shared/winrate"
	"github.com/radieske/tips-platform/internal/tips-api/dto"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// Client chama a API de palpites com bearer token
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(base, token string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) ApprovedBets(ctx context.Context) ([]prediction.Record, error) {
	var out dto.BetsResponse
	if err := c.do(ctx, http.MethodGet, "/bets/approved", nil, &out); err != nil {
		return nil, err
	}
	return out.Bets, nil
}

func (c *Client) Approve(ctx context.Context, req dto.ApproveRequest) error {
	return c.do(ctx, http.MethodPost, "/bets/approve", req, nil)
}

func (c *Client) DeleteBet(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/bets/"+url.PathEscape(id), nil, nil)
}

// RunSettlement devolve quantos palpites mudaram de status
func (c *Client) RunSettlement(ctx context.Context) (int, error) {
	var out dto.SettlementResponse
	if err := c.do(ctx, http.MethodPost, "/settlement/run", nil, &out); err != nil {
		return 0, err
	}
	return out.Settled, nil
}

func (c *Client) TrainingAll(ctx context.Context) ([]prediction.Record, error) {
	var out dto.TrainingResponse
	if err := c.do(ctx, http.MethodGet, "/training/all", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) TrainingStats(ctx context.Context) (winrate.Summary, error) {
	var out dto.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/training/stats", nil, &out); err != nil {
		return winrate.Summary{}, err
	}
	return out.Stats, nil
}

func (c *Client) LiveSignals(ctx context.Context) ([]prediction.Record, error) {
	var out dto.SignalsResponse
	if err := c.do(ctx, http.MethodGet, "/mobile/live-signals", nil, &out); err != nil {
		return nil, err
	}
	return out.Signals, nil
}

func (c *Client) LiveHistory(ctx context.Context) ([]prediction.Record, error) {
	var out dto.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/mobile/live-history", nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

// envelope lê só o necessário para detectar falha de aplicação
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e envelope) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindTransport, Op: op, Message: "encode request: " + err.Error(), Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Message: err.Error(), Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Status: res.StatusCode, Message: "read body: " + err.Error(), Err: err}
	}

	var env envelope
	hasBody := len(bytes.TrimSpace(raw)) > 0
	if hasBody {
		_ = json.Unmarshal(raw, &env)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := env.text()
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return &Error{Kind: KindHTTP, Op: op, Status: res.StatusCode, Message: msg}
	}

	if env.Success != nil && !*env.Success {
		msg := env.text()
		if msg == "" {
			msg = "request failed"
		}
		return &Error{Kind: KindApplication, Op: op, Status: res.StatusCode, Message: msg}
	}

	if out == nil || !hasBody {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindApplication, Op: op, Status: res.StatusCode, Message: fmt.Sprintf("invalid response: %v", err), Err: err}
	}
	return nil
}
