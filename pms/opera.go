package pms

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/warp/cashflow-engine/fiscal"
)

// OperaClient talks to Oracle Opera Cloud. Requests ride a circuit
// breaker and a client-side rate limit; the OAuth token is cached and
// refreshed a minute before its reported expiry.
type OperaClient struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	log     zerolog.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

var _ Client = (*OperaClient)(nil)

// NewOperaClient readies a live client. Timeout defaults to 15s and
// the request budget to 5 per second.
func NewOperaClient(cfg Config, logger zerolog.Logger) *OperaClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	logger = logger.With().Str("component", "opera").Logger()
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "opera",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("opera circuit state changed")
		},
	})

	return &OperaClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		log:     logger,
	}
}

func collaborator(op string, err error) error {
	return &fiscal.CollaboratorError{Service: "opera", Op: op, Err: err}
}

// === WIRE TYPES ===

type wireRate struct {
	Date         string          `json:"date"`
	RatePlanCode string          `json:"ratePlanCode"`
	RoomType     string          `json:"roomType"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

type wireAmount struct {
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
}

type wireRateAmount struct {
	Adults int        `json:"adults"`
	Amount wireAmount `json:"amount"`
}

type wireRatePush struct {
	RatePlanCode string           `json:"ratePlanCode"`
	RoomType     string           `json:"roomType"`
	Start        string           `json:"start"`
	End          string           `json:"end"`
	RateAmounts  []wireRateAmount `json:"rateAmounts"`
}

type wireInventory struct {
	Date       string  `json:"date"`
	TotalRooms int     `json:"totalRooms"`
	Available  int     `json:"available"`
	Occupied   int     `json:"occupied"`
	Occupancy  float64 `json:"occupancy"`
}

type wireRateCode struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// === TRANSPORT ===

// send pushes one request through the limiter and the breaker and
// returns the response body on any 2xx status.
func (c *OperaClient) send(req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	res, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// authenticate returns a valid bearer token, reusing the cached one
// until a minute before expiry.
func (c *OperaClient) authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.expires) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	payload, err := json.Marshal(map[string]string{
		"grant_type": "password",
		"username":   c.cfg.Username,
		"password":   c.cfg.Password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/oauth/v1/tokens", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+credentials)

	body, err := c.send(req)
	if err != nil {
		return "", err
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("token response missing access_token")
	}
	if out.ExpiresIn <= 0 {
		out.ExpiresIn = 3600
	}

	c.mu.Lock()
	c.token = out.AccessToken
	c.expires = time.Now().Add(time.Duration(out.ExpiresIn-60) * time.Second)
	c.mu.Unlock()

	c.log.Info().Msg("authenticated with opera cloud")
	return out.AccessToken, nil
}

// do issues one authenticated API call and decodes the response into
// out when given.
func (c *OperaClient) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.authenticate(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-hotelid", c.cfg.HotelID)

	raw, err := c.send(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// === OPERATIONS ===

// CurrentRates reads the published rates for one plan across a window.
func (c *OperaClient) CurrentRates(ctx context.Context, window fiscal.DateRange, rateCode string) ([]RateRecord, error) {
	if err := window.Validate(0); err != nil {
		return nil, err
	}
	if rateCode == "" {
		rateCode = DefaultRateCode
	}

	q := url.Values{}
	q.Set("startDate", window.Start.String())
	q.Set("endDate", window.End.String())
	q.Set("ratePlanCode", rateCode)
	path := fmt.Sprintf("/par/v1/hotels/%s/rates?%s", c.cfg.HotelID, q.Encode())

	var out struct {
		Rates []wireRate `json:"rates"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, collaborator("current_rates", err)
	}

	records := make([]RateRecord, 0, len(out.Rates))
	for _, r := range out.Rates {
		date, err := fiscal.ParseDate(r.Date)
		if err != nil {
			return nil, collaborator("current_rates", fmt.Errorf("bad rate date %q: %w", r.Date, err))
		}
		records = append(records, RateRecord{
			Date:         date,
			RatePlanCode: r.RatePlanCode,
			RoomType:     r.RoomType,
			Amount:       r.Amount,
			Currency:     r.Currency,
		})
	}
	return records, nil
}

// UpdateRate pushes one night's rate for one and two adults.
func (c *OperaClient) UpdateRate(ctx context.Context, update RateUpdate) error {
	update = update.withDefaults()
	if err := update.validate(); err != nil {
		return err
	}

	amount, _ := update.Amount.Round(2).Float64()
	night := wireRatePush{
		RatePlanCode: update.RateCode,
		RoomType:     update.RoomType,
		Start:        update.Date.String(),
		End:          update.Date.String(),
		RateAmounts: []wireRateAmount{
			{Adults: 1, Amount: wireAmount{Amount: amount, CurrencyCode: update.Currency}},
			{Adults: 2, Amount: wireAmount{Amount: amount, CurrencyCode: update.Currency}},
		},
	}
	body := map[string][]wireRatePush{"rates": {night}}

	path := fmt.Sprintf("/par/v1/hotels/%s/rates", c.cfg.HotelID)
	if err := c.do(ctx, http.MethodPut, path, body, nil); err != nil {
		return collaborator("update_rate", err)
	}
	return nil
}

// BulkUpdateRates pushes each update in turn and reports per-night
// outcomes. Individual failures are counted, not fatal.
func (c *OperaClient) BulkUpdateRates(ctx context.Context, updates []RateUpdate) (BulkResult, error) {
	result := BulkResult{Total: len(updates)}

	for _, update := range updates {
		if err := ctx.Err(); err != nil {
			return result, collaborator("bulk_update_rates", err)
		}

		err := c.UpdateRate(ctx, update)
		if err != nil {
			c.log.Warn().Err(err).Str("date", update.Date.String()).Msg("rate update failed")
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Details = append(result.Details, UpdateDetail{
			Date:    update.Date,
			Amount:  update.Amount,
			Success: err == nil,
		})
	}
	return result, nil
}

// Inventory reads room availability across a window.
func (c *OperaClient) Inventory(ctx context.Context, window fiscal.DateRange) ([]InventoryDay, error) {
	if err := window.Validate(0); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("startDate", window.Start.String())
	q.Set("endDate", window.End.String())
	path := fmt.Sprintf("/inv/v1/hotels/%s/availability?%s", c.cfg.HotelID, q.Encode())

	var out struct {
		Availability []wireInventory `json:"availability"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, collaborator("inventory", err)
	}

	days := make([]InventoryDay, 0, len(out.Availability))
	for _, r := range out.Availability {
		date, err := fiscal.ParseDate(r.Date)
		if err != nil {
			return nil, collaborator("inventory", fmt.Errorf("bad inventory date %q: %w", r.Date, err))
		}
		days = append(days, InventoryDay{
			Date:         date,
			TotalRooms:   r.TotalRooms,
			Available:    r.Available,
			Occupied:     r.Occupied,
			OccupancyPct: r.Occupancy,
		})
	}
	return days, nil
}

// Occupancy derives the sold fraction for one date from inventory.
func (c *OperaClient) Occupancy(ctx context.Context, date fiscal.Date) (float64, error) {
	if date.IsZero() {
		return 0, &fiscal.InputError{Field: "date", Value: "zero", Reason: "must be a valid calendar date"}
	}

	days, err := c.Inventory(ctx, fiscal.DateRange{Start: date, End: date})
	if err != nil {
		return 0, err
	}
	if len(days) == 0 || days[0].TotalRooms == 0 {
		return 0, collaborator("occupancy", fmt.Errorf("no inventory for %s", date))
	}
	d := days[0]
	return float64(d.TotalRooms-d.Available) / float64(d.TotalRooms), nil
}

// RateCodes lists the rate plans the hotel sells.
func (c *OperaClient) RateCodes(ctx context.Context) ([]RateCode, error) {
	path := fmt.Sprintf("/par/v1/hotels/%s/rateCodes", c.cfg.HotelID)

	var out struct {
		RateCodes []wireRateCode `json:"rateCodes"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, collaborator("rate_codes", err)
	}

	codes := make([]RateCode, 0, len(out.RateCodes))
	for _, r := range out.RateCodes {
		codes = append(codes, RateCode{Code: r.Code, Name: r.Name, Description: r.Description})
	}
	return codes, nil
}
