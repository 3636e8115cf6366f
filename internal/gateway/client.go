package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blossomshop/cart-client/pkg/auth"
	"github.com/blossomshop/cart-client/pkg/config"
	pkgerrors "github.com/blossomshop/cart-client/pkg/errors"
	"github.com/blossomshop/cart-client/pkg/logger"
	"github.com/blossomshop/cart-client/pkg/metrics"
	"github.com/go-playground/validator/v10"
)

// CredentialSource yields the bearer token for the current session, or an
// empty string when the shopper is signed out.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the marketplace cart and flower endpoints.
type Client interface {
	AddItem(ctx context.Context, req AddItemRequest) (*CartSummary, error)
	UpdateQuantity(ctx context.Context, req UpdateQuantityRequest) (*CartSummary, error)
	RemoveItem(ctx context.Context, flowerID string) error
	FetchCart(ctx context.Context) ([]RemoteLine, error)
	GetFlower(ctx context.Context, flowerID string) (*FlowerDetail, error)
	SearchFlowers(ctx context.Context, name string) ([]FlowerDetail, error)
}

type client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	userAgent   string
	credentials CredentialSource
	validate    *validator.Validate
	logg        *logger.Logger
	cartMetrics *metrics.CartMetrics
}

// NewClient builds a gateway client for the configured backend.
func NewClient(cfg config.GatewayConfig, credentials CredentialSource, logg *logger.Logger, cartMetrics *metrics.CartMetrics) (Client, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential source required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing gateway base url: %w", err)
	}
	return &client{
		baseURL:     base,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		userAgent:   cfg.UserAgent,
		credentials: credentials,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logg:        logg,
		cartMetrics: cartMetrics,
	}, nil
}

// AddItem posts a line to the server cart. The backend answers with the
// uniform success/message envelope; a false success is a business rejection.
func (c *client) AddItem(ctx context.Context, req AddItemRequest) (*CartSummary, error) {
	if err := c.validate.StructCtx(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid add-item payload")
	}

	env, err := c.do(ctx, http.MethodPost, "Cart/add-item", req)
	if err != nil {
		return nil, err
	}
	return &CartSummary{ItemCount: env.ItemCount, Message: env.Message}, nil
}

// UpdateQuantity replaces a line's quantity on the server cart. Quantity
// zero removes the line.
func (c *client) UpdateQuantity(ctx context.Context, req UpdateQuantityRequest) (*CartSummary, error) {
	if err := c.validate.StructCtx(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid update-quantity payload")
	}

	env, err := c.do(ctx, http.MethodPut, "Cart/update-quantity", req)
	if err != nil {
		return nil, err
	}
	return &CartSummary{ItemCount: env.ItemCount, Message: env.Message}, nil
}

// RemoveItem deletes a line from the server cart.
func (c *client) RemoveItem(ctx context.Context, flowerID string) error {
	if strings.TrimSpace(flowerID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "flower id is required")
	}
	_, err := c.do(ctx, http.MethodDelete, "Cart/remove-item/"+url.PathEscape(flowerID), nil)
	return err
}

// FetchCart returns the authoritative server cart.
func (c *client) FetchCart(ctx context.Context) ([]RemoteLine, error) {
	var lines []RemoteLine
	if err := c.doJSON(ctx, http.MethodGet, "Cart", nil, &lines, true); err != nil {
		return nil, err
	}
	return lines, nil
}

// GetFlower loads a single flower's catalog detail. Catalog reads are
// public; no credential is attached.
func (c *client) GetFlower(ctx context.Context, flowerID string) (*FlowerDetail, error) {
	if strings.TrimSpace(flowerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flower id is required")
	}
	var detail FlowerDetail
	if err := c.doJSON(ctx, http.MethodGet, "Flowers/"+url.PathEscape(flowerID), nil, &detail, false); err != nil {
		return nil, err
	}
	return &detail, nil
}

// SearchFlowers looks flowers up by (partial) name.
func (c *client) SearchFlowers(ctx context.Context, name string) ([]FlowerDetail, error) {
	query := url.Values{"name": []string{name}}
	var results []FlowerDetail
	if err := c.doJSON(ctx, http.MethodGet, "Flowers/searchbyname?"+query.Encode(), nil, &results, false); err != nil {
		return nil, err
	}
	return results, nil
}

// do performs an authenticated call whose response uses the envelope shape.
func (c *client) do(ctx context.Context, method, path string, body any) (*Envelope, error) {
	var env Envelope
	if err := c.doJSON(ctx, method, path, body, &env, true); err != nil {
		return nil, err
	}
	if !env.Success {
		message := env.Message
		if message == "" {
			message = "the shop declined the cart change"
		}
		return nil, pkgerrors.New(pkgerrors.CodeRejected, message)
	}
	return &env, nil
}

func (c *client) doJSON(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	endpoint := endpointLabel(method, path)
	started := time.Now()
	err := c.roundTrip(ctx, method, path, body, out, authenticated)
	c.cartMetrics.ObserveGateway(endpoint, time.Since(started))
	if err != nil {
		c.cartMetrics.IncGatewayFailure(endpoint, string(pkgerrors.CodeOf(err)))
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "endpoint", endpoint), "marketplace call failed: "+err.Error())
		}
	}
	return err
}

func (c *client) roundTrip(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	ref, err := url.Parse(path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request url")
	}
	target := c.baseURL.ResolveReference(ref)

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if authenticated {
		token, err := c.credentials.Token(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading session credential")
		}
		if token == "" {
			return pkgerrors.New(pkgerrors.CodeUnauthenticated, "no session credential present")
		}
		if claims, err := auth.InspectAccessToken(token); err == nil && claims.ExpiredAt(time.Now()) {
			return pkgerrors.New(pkgerrors.CodeUnauthenticated, "session credential expired")
		}
		req.Header.Set("Authorization", auth.BearerHeader(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnreachable, err, "calling marketplace")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnreachable, err, "reading marketplace response")
	}

	if err := c.checkStatus(resp.StatusCode, raw); err != nil {
		return err
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding marketplace response")
		}
	}
	return nil
}

func (c *client) checkStatus(status int, raw []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthenticated, "session rejected by marketplace")
	case status == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
	case status >= 400 && status < 500:
		message := messageFromEnvelope(raw)
		if message == "" {
			message = "request rejected with status " + strconv.Itoa(status)
		}
		return pkgerrors.New(pkgerrors.CodeRejected, message)
	default:
		return pkgerrors.New(pkgerrors.CodeUnreachable, "marketplace returned status "+strconv.Itoa(status))
	}
}

func messageFromEnvelope(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Message
}

func endpointLabel(method, path string) string {
	if i := strings.IndexAny(path, "?"); i >= 0 {
		path = path[:i]
	}
	// Collapse path parameters so metric cardinality stays bounded.
	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return method + " " + strings.Join(parts, "/")
}
