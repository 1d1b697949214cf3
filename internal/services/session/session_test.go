package session

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gosell/internal/config"
	"gosell/internal/crypto"
	tapErrors "gosell/internal/errors"
	"gosell/internal/models"
	"gosell/internal/services/tokenization"
	"gosell/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func privateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

func publicKeyPEM(t *testing.T, scheme crypto.Scheme) string {
	t.Helper()
	key, err := crypto.NewDecryptor(privateKey(t)).PublicKey(scheme)
	require.NoError(t, err)
	material, err := key.MarshalPEM()
	require.NoError(t, err)
	return material
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:   "https://api.example.test/v2",
		SecretKey: "sk_test_secret",
		KeyID:     "pk_test_1",
		Locale:    "en",
		LogLevel:  "error",
	}
}

// recorder answers every request with a fixed body and keeps what it saw.
type recorder struct {
	mu       sync.Mutex
	requests []*transport.Request
	status   int
	body     string
}

func (r *recorder) send(_ context.Context, req *transport.Request) (*transport.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return &transport.Response{StatusCode: r.status, Body: []byte(r.body)}, nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func (r *recorder) last() *transport.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[len(r.requests)-1]
}

func newTestSession(t *testing.T, cfg *config.Config, rec *recorder) *Session {
	t.Helper()
	s, err := FromConfig(cfg, tokenization.WithTransport(transport.Func(rec.send)))
	require.NoError(t, err)
	return s
}

func TestFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.EncryptionKey = publicKeyPEM(t, crypto.SchemeRSAOAEP)
	cfg.EncryptionScheme = "rsa-oaep"

	s, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.True(t, s.HasEncryptionKey())
	assert.NotNil(t, s.Client())

	cfg.EncryptionScheme = "rot13"
	_, err = FromConfig(cfg)
	assert.ErrorIs(t, err, crypto.ErrUnsupportedScheme)

	cfg.EncryptionScheme = ""
	cfg.EncryptionKey = "garbage"
	_, err = FromConfig(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.BaseURL = "::"
	_, err = FromConfig(cfg)
	assert.ErrorIs(t, err, tokenization.ErrInvalidBaseURL)
}

func TestCreateToken_FromFields(t *testing.T) {
	cfg := testConfig()
	cfg.EncryptionKey = publicKeyPEM(t, crypto.SchemeHybrid)
	cfg.EncryptionScheme = string(crypto.SchemeHybrid)
	rec := &recorder{status: 200, body: `{"id":"tok_123","brand":"visa","last4":"4242"}`}
	s := newTestSession(t, cfg, rec)

	address := &models.Address{Type: "billing", Line1: "1 Main St", City: "Kuwait City", Country: "KW"}
	var (
		tok *models.Token
		err error
	)
	s.CreateToken(context.Background(), "4242424242424242", "12", "25", "123", "A B", address, "",
		func(v *models.Token, e error) { tok, err = v, e }).Wait()
	require.NoError(t, err)
	assert.Equal(t, "tok_123", tok.ID)
	assert.Equal(t, "4242", tok.Last4)

	var body struct {
		TokenData string `json:"token_data"`
	}
	require.NoError(t, json.Unmarshal(rec.last().Body, &body))
	req, derr := crypto.NewDecryptor(privateKey(t)).DecryptRequest(body.TokenData, crypto.SchemeHybrid)
	require.NoError(t, derr)
	card, ok := req.Card()
	require.True(t, ok)
	assert.Equal(t, "A B", card.CardholderName)
	require.NotNil(t, card.Address)
	assert.Equal(t, "Kuwait City", card.Address.City)
}

func TestSetEncryptionKey(t *testing.T) {
	rec := &recorder{status: 200, body: `{"id":"tok_1"}`}
	s := newTestSession(t, testConfig(), rec)
	require.False(t, s.HasEncryptionKey())

	create := func() error {
		var err error
		s.CreateToken(context.Background(), "4242424242424242", "12", "25", "123", "A B", nil, "",
			func(_ *models.Token, e error) { err = e }).Wait()
		return err
	}

	err := create()
	assert.ErrorIs(t, err, tapErrors.ErrEncryption)
	assert.Equal(t, 0, rec.count())

	require.NoError(t, s.SetEncryptionKey(publicKeyPEM(t, crypto.SchemeRSAPKCS1)))
	assert.NoError(t, create())
	assert.Equal(t, 1, rec.count())

	assert.Error(t, s.SetEncryptionKey("garbage"))
	assert.True(t, s.HasEncryptionKey())

	s.ClearEncryptionKey()
	assert.ErrorIs(t, create(), tapErrors.ErrEncryption)
	assert.Equal(t, 1, rec.count())
}

func TestNew_NilKeysUsesClientStore(t *testing.T) {
	rec := &recorder{status: 200, body: `{"id":"tok_1"}`}
	cfg := testConfig()
	client, err := tokenization.NewClient(cfg.BaseURL, cfg.SecretKey, tokenization.WithTransport(transport.Func(rec.send)))
	require.NoError(t, err)

	s := New(client, nil, "")
	assert.False(t, s.HasEncryptionKey())
	require.NoError(t, s.SetEncryptionKey(publicKeyPEM(t, crypto.SchemeRSAPKCS1)))
	assert.True(t, s.HasEncryptionKey())

	var createErr error
	s.CreateToken(context.Background(), "4242424242424242", "12", "25", "123", "A B", nil, "",
		func(_ *models.Token, e error) { createErr = e }).Wait()
	assert.NoError(t, createErr)
	assert.Equal(t, 1, rec.count())

	s.ClearEncryptionKey()
	assert.False(t, s.HasEncryptionKey())
}

type fixedKey struct{}

func (fixedKey) CurrentEncryptionKey() (*crypto.EncryptionKey, bool) { return nil, false }

func TestNew_NilKeysWithCustomProvider(t *testing.T) {
	cfg := testConfig()
	client, err := tokenization.NewClient(cfg.BaseURL, cfg.SecretKey, tokenization.WithKeyProvider(fixedKey{}))
	require.NoError(t, err)

	s := New(client, nil, crypto.SchemeRSAOAEP)
	assert.NotPanics(t, func() {
		assert.False(t, s.HasEncryptionKey())
		require.NoError(t, s.SetEncryptionKey(publicKeyPEM(t, crypto.SchemeRSAOAEP)))
		assert.True(t, s.HasEncryptionKey())
		s.ClearEncryptionKey()
	})
}

func TestCreateToken_PerRequestKey(t *testing.T) {
	rec := &recorder{status: 200, body: `{"id":"tok_1"}`}
	s := newTestSession(t, testConfig(), rec)

	var err error
	s.CreateToken(context.Background(), "4242424242424242", "12", "25", "123", "A B", nil,
		publicKeyPEM(t, crypto.SchemeRSAPKCS1), func(_ *models.Token, e error) { err = e }).Wait()
	assert.NoError(t, err)
	assert.False(t, s.HasEncryptionKey())
}

func TestCreateApplePayToken(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "models", "testdata", "applepay_token.json"))
	require.NoError(t, err)

	rec := &recorder{status: 200, body: `{"id":"tok_ap","card":{"brand":"visa","last_four":"a81a"}}`}
	s := newTestSession(t, testConfig(), rec)

	var tok *models.Token
	s.CreateApplePayToken(context.Background(), data, func(v *models.Token, e error) { tok, err = v, e }).Wait()
	require.NoError(t, err)
	assert.Equal(t, "tok_ap", tok.ID)

	var body struct {
		Type      string             `json:"type"`
		TokenData models.WalletToken `json:"token_data"`
	}
	require.NoError(t, json.Unmarshal(rec.last().Body, &body))
	assert.Equal(t, "applepay", body.Type)
	assert.Equal(t, models.WalletVersionEC, body.TokenData.Version)
}

func TestCreateApplePayToken_RejectsEmptyData(t *testing.T) {
	rec := &recorder{status: 200, body: `{"id":"tok_ap"}`}
	s := newTestSession(t, testConfig(), rec)

	for _, data := range [][]byte{nil, {}, []byte(`{"version":"EC_v1","data":"x"`)} {
		var (
			calls int
			err   error
		)
		s.CreateApplePayToken(context.Background(), data, func(_ *models.Token, e error) {
			calls++
			err = e
		}).Wait()
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, tapErrors.ErrSerialization)
	}
	assert.Equal(t, 0, rec.count())
}

func TestRetrieveAllCards(t *testing.T) {
	rec := &recorder{status: 200, body: `{"cards":[{"id":"card_1","last4":"4242"},{"id":"card_2","last4":"4444"}]}`}
	s := newTestSession(t, testConfig(), rec)

	var (
		cards []models.SavedCard
		err   error
	)
	s.RetrieveAllCards(context.Background(), "cus_1", func(c []models.SavedCard, e error) { cards, err = c, e }).Wait()
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "card_2", cards[1].ID)
	assert.Equal(t, "https://api.example.test/v2/card/cus_1", rec.last().URL)
}

func TestDeleteCard(t *testing.T) {
	rec := &recorder{status: 200, body: `{"id":"card_1","deleted":true}`}
	s := newTestSession(t, testConfig(), rec)

	var (
		deleted bool
		err     error
	)
	s.DeleteCard(context.Background(), "card_1", "cus_1", func(d bool, e error) { deleted, err = d, e }).Wait()
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestErrorsForwardedUnchanged(t *testing.T) {
	rec := &recorder{status: 404, body: `{"errors":[{"code":3002,"description":"Card not found"},{"code":77,"description":"later"}]}`}
	s := newTestSession(t, testConfig(), rec)

	var (
		deleted = true
		err     error
	)
	s.DeleteCard(context.Background(), "card_1", "cus_1", func(d bool, e error) { deleted, err = d, e }).Wait()
	assert.False(t, deleted)

	tapErr, ok := tapErrors.AsTapError(err)
	require.True(t, ok)
	details := tapErr.Details()
	require.Len(t, details, 2)
	assert.Equal(t, tapErrors.ErrorCodeCardNotFound, details[0].Code)
	assert.Equal(t, tapErrors.ErrorCodeUnknown, details[1].Code)
	assert.Equal(t, "later", details[1].Description)
}

func TestSaveCard(t *testing.T) {
	rec := &recorder{status: 200, body: `{"id":"card_1","customer":"cus_1"}`}
	s := newTestSession(t, testConfig(), rec)

	var (
		card *models.SavedCard
		err  error
	)
	s.SaveCard(context.Background(), "cus_1", "tok_1", func(c *models.SavedCard, e error) { card, err = c, e }).Wait()
	require.NoError(t, err)
	assert.Equal(t, "card_1", card.ID)
	assert.JSONEq(t, `{"source":"tok_1"}`, string(rec.last().Body))
}
