package tokenization

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gosell/internal/crypto"
	tapErrors "gosell/internal/errors"
	"gosell/internal/models"
	"gosell/internal/transport"
	"gosell/internal/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultUserAgent = "gosell-go/1.0"
	DefaultLocale    = "en"

	HeaderRequestID        = "X-Request-ID"
	HeaderEncryptionScheme = "X-Encryption-Scheme"
)

// Client talks to the tokenization API. It is safe for concurrent use.
type Client struct {
	baseURL   string
	secretKey string
	keyID     string

	transport transport.Transport
	keys      crypto.KeyProvider
	scheme    crypto.Scheme
	encoder   *crypto.Encoder

	logger    log.FieldLogger
	executor  Executor
	locale    string
	userAgent string
	now       func() time.Time
	newID     func() string
}

// Option configures a Client.
type Option func(*Client)

func WithTransport(t transport.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithKeyProvider sets where the default encryption key comes from.
func WithKeyProvider(p crypto.KeyProvider) Option {
	return func(c *Client) { c.keys = p }
}

// WithScheme sets the scheme used with per-request key overrides.
func WithScheme(s crypto.Scheme) Option {
	return func(c *Client) { c.scheme = s }
}

func WithKeyID(id string) Option {
	return func(c *Client) { c.keyID = id }
}

func WithLogger(l log.FieldLogger) Option {
	return func(c *Client) { c.logger = l }
}

// WithExecutor sets where completion functions run.
func WithExecutor(e Executor) Option {
	return func(c *Client) { c.executor = e }
}

func WithLocale(locale string) Option {
	return func(c *Client) { c.locale = locale }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client for the API rooted at baseURL, e.g.
// https://api.example.com/v2.
func NewClient(baseURL, secretKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	if secretKey == "" {
		return nil, ErrMissingSecretKey
	}

	c := &Client{
		baseURL:   strings.TrimRight(u.String(), "/"),
		secretKey: secretKey,
		scheme:    crypto.SchemeRSAPKCS1,
		encoder:   crypto.NewEncoder(),
		locale:    DefaultLocale,
		userAgent: DefaultUserAgent,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = transport.NewHTTP(nil)
	}
	if c.keys == nil {
		c.keys = crypto.NewKeyStore(nil)
	}
	if c.logger == nil {
		c.logger = utils.DiscardLogger()
	}
	if c.executor == nil {
		c.executor = inlineExecutor
	}
	if c.keyID == "" {
		c.keyID = secretKey[:min(len(secretKey), 12)]
	}
	return c, nil
}

// KeyProvider returns where the client reads its default encryption key.
func (c *Client) KeyProvider() crypto.KeyProvider { return c.keys }

// CreateToken exchanges card data or a wallet token for a token. Card data
// is encrypted before it leaves the process; a card request with no usable
// key fails without touching the network.
func (c *Client) CreateToken(ctx context.Context, req models.TokenRequest, done func(*models.Token, error)) *Call {
	const op = "create_token"
	call, ctx := newCall(ctx, c, op, done)
	logger := call.logger.WithField("type", req.Type())

	call.advance(StateValidating)
	if err := req.Validate(); err != nil {
		logger.WithError(err).Warn("token request rejected")
		fail(call, done, tapErrors.NewSerializationError("invalid token request", err))
		return call
	}

	call.advance(StateEncoding)
	body, scheme, tapErr := c.encodeTokenRequest(req)
	if tapErr != nil {
		logger.WithField("kind", tapErr.Kind()).Warn("token request not encoded")
		fail(call, done, tapErr)
		return call
	}

	httpReq, tapErr := c.newRequest(call, http.MethodPost, "/tokens", body)
	if tapErr != nil {
		fail(call, done, tapErr)
		return call
	}
	if scheme != "" {
		httpReq.Header.Set(HeaderEncryptionScheme, string(scheme))
	}

	dispatch(ctx, c, call, httpReq, done, acceptToken)
	return call
}

// CreateWalletToken parses raw wallet token bytes and tokenizes them.
// Bytes that do not form a well-formed token fail with a serialization
// error and are never sent.
func (c *Client) CreateWalletToken(ctx context.Context, data []byte, done func(*models.Token, error)) *Call {
	token, err := models.ParseWalletToken(data)
	if err != nil {
		call, _ := newCall(ctx, c, "create_token", done)
		call.advance(StateValidating)
		call.logger.WithError(err).Warn("wallet token rejected")
		fail(call, done, tapErrors.NewSerializationError("malformed wallet token", err))
		return call
	}
	return c.CreateToken(ctx, models.NewWalletRequest(*token), done)
}

// ListCards returns the cards saved for a customer.
func (c *Client) ListCards(ctx context.Context, customerID string, done func(*models.CardList, error)) *Call {
	call, ctx := newCall(ctx, c, "list_cards", done)

	call.advance(StateValidating)
	if customerID == "" {
		fail(call, done, tapErrors.NewSerializationError("invalid list request", ErrEmptyCustomerID))
		return call
	}

	call.advance(StateEncoding)
	req, tapErr := c.newRequest(call, http.MethodGet, "/card/"+url.PathEscape(customerID), nil)
	if tapErr != nil {
		fail(call, done, tapErr)
		return call
	}
	dispatch(ctx, c, call, req, done, acceptCardList)
	return call
}

// DeleteCard removes a saved card from a customer.
func (c *Client) DeleteCard(ctx context.Context, cardID, customerID string, done func(*models.DeleteCardResult, error)) *Call {
	call, ctx := newCall(ctx, c, "delete_card", done)

	call.advance(StateValidating)
	switch {
	case customerID == "":
		fail(call, done, tapErrors.NewSerializationError("invalid delete request", ErrEmptyCustomerID))
		return call
	case cardID == "":
		fail(call, done, tapErrors.NewSerializationError("invalid delete request", ErrEmptyCardID))
		return call
	}

	call.advance(StateEncoding)
	path := "/card/" + url.PathEscape(customerID) + "/" + url.PathEscape(cardID)
	req, tapErr := c.newRequest(call, http.MethodDelete, path, nil)
	if tapErr != nil {
		fail(call, done, tapErr)
		return call
	}
	dispatch(ctx, c, call, req, done, acceptDeleteResult)
	return call
}

// SaveCard attaches the card behind a token to a customer.
func (c *Client) SaveCard(ctx context.Context, customerID, tokenID string, done func(*models.SavedCard, error)) *Call {
	call, ctx := newCall(ctx, c, "save_card", done)

	call.advance(StateValidating)
	switch {
	case customerID == "":
		fail(call, done, tapErrors.NewSerializationError("invalid save request", ErrEmptyCustomerID))
		return call
	case tokenID == "":
		fail(call, done, tapErrors.NewSerializationError("invalid save request", ErrEmptyTokenID))
		return call
	}

	call.advance(StateEncoding)
	body, err := marshalBody(models.SaveCardRequest{Source: tokenID})
	if err != nil {
		fail(call, done, err)
		return call
	}
	req, tapErr := c.newRequest(call, http.MethodPost, "/card/"+url.PathEscape(customerID), body)
	if tapErr != nil {
		fail(call, done, tapErr)
		return call
	}
	dispatch(ctx, c, call, req, done, acceptSavedCard)
	return call
}

func (c *Client) CreateTokenSync(ctx context.Context, req models.TokenRequest) (*models.Token, error) {
	return wait(func(done func(*models.Token, error)) *Call { return c.CreateToken(ctx, req, done) })
}

func (c *Client) ListCardsSync(ctx context.Context, customerID string) (*models.CardList, error) {
	return wait(func(done func(*models.CardList, error)) *Call { return c.ListCards(ctx, customerID, done) })
}

func (c *Client) DeleteCardSync(ctx context.Context, cardID, customerID string) (*models.DeleteCardResult, error) {
	return wait(func(done func(*models.DeleteCardResult, error)) *Call {
		return c.DeleteCard(ctx, cardID, customerID, done)
	})
}

func (c *Client) SaveCardSync(ctx context.Context, customerID, tokenID string) (*models.SavedCard, error) {
	return wait(func(done func(*models.SavedCard, error)) *Call { return c.SaveCard(ctx, customerID, tokenID, done) })
}

func wait[T any](start func(done func(*T, error)) *Call) (*T, error) {
	var (
		value *T
		err   error
	)
	start(func(v *T, e error) {
		value, err = v, e
	}).Wait()
	return value, err
}

// encodeTokenRequest builds the request body. Cards are encrypted; wallet
// tokens are sent as structured data.
func (c *Client) encodeTokenRequest(req models.TokenRequest) ([]byte, crypto.Scheme, *tapErrors.TapError) {
	if req.Type() != models.PaymentTypeCard {
		body, err := marshalBody(req)
		return body, "", err
	}

	key, tapErr := c.resolveKey(req)
	if tapErr != nil {
		return nil, "", tapErr
	}

	payload, err := c.encoder.Encode(req, key)
	if err != nil {
		if te, ok := tapErrors.AsTapError(err); ok {
			return nil, "", te
		}
		return nil, "", tapErrors.NewEncryptionError(tapErrors.ReasonEncryptFailed, err)
	}

	body, tapErr := marshalBody(encryptedBody{Type: payload.Type(), TokenData: payload.Ciphertext()})
	if tapErr != nil {
		return nil, "", tapErr
	}
	return body, key.Scheme(), nil
}

// resolveKey prefers the key carried by the request over the configured
// one.
func (c *Client) resolveKey(req models.TokenRequest) (*crypto.EncryptionKey, *tapErrors.TapError) {
	if material := req.EncryptionKeyOverride(); material != "" {
		key, err := crypto.ParseEncryptionKey(material, c.scheme)
		if err != nil {
			return nil, tapErrors.NewEncryptionError(tapErrors.ReasonInvalidKey, err)
		}
		return key, nil
	}
	if key, ok := c.keys.CurrentEncryptionKey(); ok {
		return key, nil
	}
	return nil, tapErrors.NewEncryptionError(tapErrors.ReasonMissingKey, nil)
}

type encryptedBody struct {
	Type      models.PaymentType `json:"type"`
	TokenData string             `json:"token_data"`
}

func (c *Client) newRequest(call *Call, method, path string, body []byte) (*transport.Request, *tapErrors.TapError) {
	bearer, err := utils.SignRequestToken(c.secretKey, c.keyID, call.id, models.ScopesFor(call.operation), c.now())
	if err != nil {
		return nil, tapErrors.NewSerializationError("request could not be signed", err)
	}

	header := make(http.Header)
	header.Set("Accept", "application/json")
	header.Set("Authorization", "Bearer "+bearer)
	header.Set(HeaderRequestID, call.id)
	header.Set("User-Agent", c.userAgent)
	header.Set("Accept-Language", c.locale)
	if body != nil {
		header.Set("Content-Type", "application/json")
	}

	return &transport.Request{
		Method: method,
		URL:    c.baseURL + path,
		Header: header,
		Body:   body,
	}, nil
}

// dispatch sends req on a worker goroutine and delivers the decoded
// outcome. A panic anywhere in the worker becomes a decoding error.
func dispatch[T any](ctx context.Context, c *Client, call *Call, req *transport.Request, done func(*T, error), accept acceptFunc[T]) {
	call.advance(StateDispatched)
	logger := call.logger.WithFields(log.Fields{"method": req.Method})
	logger.Debug("request dispatched")

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.WithField("panic", r).Error("request worker panicked")
				fail(call, done, tapErrors.NewDecodingError("internal failure", fmt.Errorf("%w: %v", ErrWorkerPanic, r)))
			}
		}()

		resp, err := c.transport.Send(ctx, req)
		if err != nil {
			te := transport.Wrap(err)
			if fail(call, done, tapErrors.NewNetworkError(te.Kind, te)) {
				logger.WithField("network", te.Kind).Warn("request failed in transport")
			}
			return
		}

		value, tapErr := decodeResponse(resp, accept)
		fields := log.Fields{"status": resp.StatusCode}
		if tapErr != nil {
			if fail(call, done, tapErr) {
				logger.WithFields(fields).WithField("kind", tapErr.Kind()).Warn("request failed")
			}
			return
		}
		if succeed(call, done, value) {
			logger.WithFields(fields).Info("request succeeded")
		} else {
			logger.WithFields(fields).Debug("late response dropped")
		}
	}()
}
