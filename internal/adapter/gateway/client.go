package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/polkiloo/checkout/internal/domain/model"
)

const (
	sessionPath     = "/gwprocess/v4/api.php"
	validationPath  = "/validator/api/validationserverAPI.php"
	transactionPath = "/validator/api/merchantTransIDvalidationAPI.php"

	maxAttempts = 2
)

// Client exposes operations of the payment processor.
type Client interface {
	InitSession(ctx context.Context, req SessionRequest) (*model.GatewaySession, error)
	Validate(ctx context.Context, validationID string) (*model.Validation, error)
	QueryTransaction(ctx context.Context, transactionID string) ([]model.Validation, error)
}

// Options configures HTTPClient.
type Options struct {
	BaseURL         string
	StoreID         string
	StorePassword   string
	Timeout         time.Duration
	CallbackBaseURL string
	Currency        string
}

// Customer is the buyer information forwarded to the hosted payment page.
type Customer struct {
	Name     string
	Email    string
	Phone    string
	Address1 string
	Address2 string
	City     string
	PostCode string
	Country  string
}

// SessionRequest describes the order a payment session is opened for.
type SessionRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	Customer    Customer
	ProductName string
	NumItems    int
}

// HTTPClient implements Client over the processor's form/JSON API.
type HTTPClient struct {
	baseURL     *url.URL
	callbackURL *url.URL
	storeID     string
	storePass   string
	currency    string
	httpClient  *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

type sessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

type validationResponse struct {
	Status         string `json:"status"`
	TranID         string `json:"tran_id"`
	ValID          string `json:"val_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	CurrencyType   string `json:"currency_type"`
	CurrencyAmount string `json:"currency_amount"`
	BankTranID     string `json:"bank_tran_id"`
}

type transactionResponse struct {
	APIConnect string            `json:"APIConnect"`
	Element    []json.RawMessage `json:"element"`
}

// NewHTTPClient creates gateway client. Missing credentials are reported per call.
func NewHTTPClient(opts Options, logger *slog.Logger) (*HTTPClient, error) {
	base, err := parseAbsolute("gateway", opts.BaseURL)
	if err != nil {
		return nil, err
	}
	callback, err := parseAbsolute("callback", opts.CallbackBaseURL)
	if err != nil {
		return nil, err
	}
	unit, err := currency.ParseISO(opts.Currency)
	if err != nil {
		return nil, fmt.Errorf("gateway currency: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:     base,
		callbackURL: callback,
		storeID:     opts.StoreID,
		storePass:   opts.StorePassword,
		currency:    unit.String(),
		logger:      logger,
		now:         time.Now,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func parseAbsolute(name, raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s url: %w", name, err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("%s url must be absolute", name)
	}
	return parsed, nil
}

// InitSession opens a hosted payment page for the order.
func (c *HTTPClient) InitSession(ctx context.Context, req SessionRequest) (*model.GatewaySession, error) {
	const op = "init session"
	if err := c.checkCredentials(op); err != nil {
		return nil, err
	}

	form := c.sessionForm(req)
	body, err := c.do(ctx, op, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(sessionPath).String(), strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	var data sessionResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &Error{Op: op, Reason: ReasonRejected, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !strings.EqualFold(data.Status, "SUCCESS") || data.GatewayPageURL == "" {
		c.logger.Warn("gateway session rejected",
			slog.String("order_id", req.OrderID),
			slog.String("status", data.Status),
			slog.String("reason", data.FailedReason),
		)
		return nil, &Error{Op: op, Reason: ReasonRejected, Err: errors.New(orUnknown(data.FailedReason))}
	}

	return &model.GatewaySession{
		SessionID:   data.SessionKey,
		RedirectURL: data.GatewayPageURL,
		CreatedAt:   c.now(),
	}, nil
}

// Validate asks the processor whether the validation token denotes a genuine payment.
func (c *HTTPClient) Validate(ctx context.Context, validationID string) (*model.Validation, error) {
	const op = "validate"
	if err := c.checkCredentials(op); err != nil {
		return nil, err
	}
	if validationID == "" {
		return nil, &Error{Op: op, Reason: ReasonRejected, Err: errors.New("empty validation id")}
	}

	query := c.credentials()
	query.Set("val_id", validationID)
	query.Set("v", "1")
	query.Set("format", "json")

	body, err := c.do(ctx, op, c.getRequest(ctx, validationPath, query))
	if err != nil {
		return nil, err
	}

	validation, err := decodeValidation(body)
	if err != nil {
		return nil, &Error{Op: op, Reason: ReasonRejected, Err: err}
	}
	if validation.ValidationID == "" {
		validation.ValidationID = validationID
	}
	return validation, nil
}

// QueryTransaction lists the processor's records for a merchant transaction id.
func (c *HTTPClient) QueryTransaction(ctx context.Context, transactionID string) ([]model.Validation, error) {
	const op = "query transaction"
	if err := c.checkCredentials(op); err != nil {
		return nil, err
	}

	query := c.credentials()
	query.Set("tran_id", transactionID)
	query.Set("format", "json")

	body, err := c.do(ctx, op, c.getRequest(ctx, transactionPath, query))
	if err != nil {
		return nil, err
	}

	var data transactionResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &Error{Op: op, Reason: ReasonRejected, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !strings.EqualFold(data.APIConnect, "DONE") {
		return nil, &Error{Op: op, Reason: ReasonRejected, Err: fmt.Errorf("api connect %s", orUnknown(data.APIConnect))}
	}

	result := make([]model.Validation, 0, len(data.Element))
	for _, raw := range data.Element {
		validation, err := decodeValidation(raw)
		if err != nil {
			return nil, &Error{Op: op, Reason: ReasonRejected, Err: err}
		}
		result = append(result, *validation)
	}
	return result, nil
}

func (c *HTTPClient) checkCredentials(op string) error {
	if c.storeID == "" || c.storePass == "" {
		return &Error{Op: op, Reason: ReasonConfigMissing, Err: ErrConfigMissing}
	}
	return nil
}

func (c *HTTPClient) credentials() url.Values {
	v := url.Values{}
	v.Set("store_id", c.storeID)
	v.Set("store_passwd", c.storePass)
	return v
}

func (c *HTTPClient) sessionForm(req SessionRequest) url.Values {
	form := c.credentials()
	form.Set("total_amount", req.Amount.StringFixed(2))
	form.Set("currency", c.currency)
	form.Set("tran_id", req.OrderID)
	form.Set("success_url", c.callback("/payment/success-redirect/", req.OrderID))
	form.Set("fail_url", c.callback("/payment/fail-redirect/", req.OrderID))
	form.Set("cancel_url", c.callback("/payment/cancel-redirect/", req.OrderID))
	form.Set("ipn_url", c.callback("/payment/ipn", ""))

	cust := req.Customer
	form.Set("cus_name", cust.Name)
	form.Set("cus_email", cust.Email)
	form.Set("cus_phone", cust.Phone)
	form.Set("cus_add1", cust.Address1)
	form.Set("cus_add2", cust.Address2)
	form.Set("cus_city", cust.City)
	form.Set("cus_postcode", cust.PostCode)
	form.Set("cus_country", orDefault(cust.Country, "Bangladesh"))

	form.Set("shipping_method", "Courier")
	form.Set("ship_name", cust.Name)
	form.Set("ship_add1", cust.Address1)
	form.Set("ship_city", cust.City)
	form.Set("ship_postcode", orDefault(cust.PostCode, "0000"))
	form.Set("ship_country", orDefault(cust.Country, "Bangladesh"))

	form.Set("product_name", orDefault(req.ProductName, "Order "+req.OrderID))
	form.Set("product_category", "general")
	form.Set("product_profile", "physical-goods")
	form.Set("num_of_item", strconv.Itoa(req.NumItems))
	return form
}

func (c *HTTPClient) callback(prefix, orderID string) string {
	u := *c.callbackURL
	u.Path = path.Join(u.Path, prefix, orderID)
	return u.String()
}

func (c *HTTPClient) endpoint(p string) *url.URL {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	return &u
}

func (c *HTTPClient) getRequest(ctx context.Context, p string, query url.Values) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		u := c.endpoint(p)
		u.RawQuery = query.Encode()
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("Accept", "application/json")
		return r, nil
	}
}

// do performs the request, retrying once on transport failures and 5xx answers.
func (c *HTTPClient) do(ctx context.Context, op string, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, &Error{Op: op, Reason: ReasonRejected, Err: err}
		}

		body, status, err := c.send(req)
		switch {
		case err != nil:
			lastErr = err
		case status >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("unexpected status %d", status)
		case status != http.StatusOK:
			c.logger.Error("gateway request failed", slog.String("op", op), slog.Int("status", status), slog.String("body", string(body)))
			return nil, &Error{Op: op, Reason: ReasonRejected, Err: fmt.Errorf("unexpected status %d", status)}
		default:
			return body, nil
		}

		if ctx.Err() != nil {
			break
		}
		c.logger.Warn("gateway call failed", slog.String("op", op), slog.Int("attempt", attempt), slog.String("error", lastErr.Error()))
	}
	return nil, &Error{Op: op, Reason: ReasonNetwork, Err: lastErr}
}

func (c *HTTPClient) send(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func decodeValidation(body []byte) (*model.Validation, error) {
	var data validationResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode validation: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode validation: %w", err)
	}

	amountStr, curr := data.Amount, data.Currency
	if data.CurrencyAmount != "" && data.CurrencyType != "" {
		amountStr, curr = data.CurrencyAmount, data.CurrencyType
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		amount = decimal.Zero
	}

	status := strings.ToUpper(strings.TrimSpace(data.Status))
	return &model.Validation{
		Verified:          status == "VALID" || status == "VALIDATED",
		Status:            status,
		TransactionID:     data.TranID,
		ValidationID:      data.ValID,
		BankTransactionID: data.BankTranID,
		Amount:            amount,
		Currency:          strings.ToUpper(curr),
		Raw:               raw,
	}, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orUnknown(value string) string {
	return orDefault(value, "unknown")
}
