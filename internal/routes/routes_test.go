package routes

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gosell/internal/crypto"
	tapErrors "gosell/internal/errors"
	"gosell/internal/middleware"
	"gosell/internal/models"
	creditcard "gosell/internal/services/credit-card"
	"gosell/internal/services/tokenization"
	"gosell/internal/transport"
	"gosell/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "sk_test_secret"
	testBaseURL = "https://sandbox.example.test/v2"
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

func newSandbox(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{UnescapePath: true})
	SetupRoutes(app, Deps{
		Auth:      middleware.NewRequestAuth(testSecret, nil, nil),
		Cards:     creditcard.NewService(creditcard.Config{Pepper: []byte("pepper")}),
		Decryptor: crypto.NewDecryptor(privateKey(t)),
	})
	return app
}

// fiberTransport sends client requests straight into the app.
func fiberTransport(app *fiber.App) transport.Transport {
	return transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		httpReq := httptest.NewRequest(req.Method, req.URL, bytes.NewReader(req.Body)).WithContext(ctx)
		for k, v := range req.Header {
			httpReq.Header[k] = v
		}
		resp, err := app.Test(httpReq, -1)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &transport.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
	})
}

func newClient(t *testing.T, app *fiber.App, scheme crypto.Scheme, opts ...tokenization.Option) *tokenization.Client {
	t.Helper()
	key, err := crypto.NewDecryptor(privateKey(t)).PublicKey(scheme)
	require.NoError(t, err)

	opts = append([]tokenization.Option{
		tokenization.WithTransport(fiberTransport(app)),
		tokenization.WithKeyProvider(crypto.NewKeyStore(key)),
		tokenization.WithScheme(scheme),
		tokenization.WithLogger(utils.DiscardLogger()),
	}, opts...)
	client, err := tokenization.NewClient(testBaseURL, testSecret, opts...)
	require.NoError(t, err)
	return client
}

func card() models.CardData {
	return models.CardData{
		Number:          "4242424242424242",
		ExpirationMonth: "12",
		ExpirationYear:  "2035",
		CVC:             "123",
		CardholderName:  "Jane Doe",
		Address:         &models.Address{City: "Kuwait City", Country: "KW"},
	}
}

func requireAPIError(t *testing.T, err error, status int, code tapErrors.ErrorCode) {
	t.Helper()
	te, ok := tapErrors.AsTapError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, tapErrors.KindAPI, te.Kind())
	assert.Equal(t, status, te.StatusCode())
	assert.True(t, te.HasCode(code), "details: %v", te.Details())
}

func TestSandbox_CreateToken(t *testing.T) {
	app := newSandbox(t)

	for _, scheme := range []crypto.Scheme{crypto.SchemeRSAPKCS1, crypto.SchemeRSAOAEP, crypto.SchemeHybrid} {
		t.Run(string(scheme), func(t *testing.T) {
			client := newClient(t, app, scheme)
			tok, err := client.CreateTokenSync(context.Background(), models.NewCardRequest(card()))
			require.NoError(t, err)
			assert.NotEmpty(t, tok.ID)
			assert.Equal(t, "visa", tok.Brand)
			assert.Equal(t, "4242", tok.Last4)
			assert.Equal(t, "12", tok.ExpMonth)
			assert.Equal(t, "2035", tok.ExpYear)
			assert.NotEmpty(t, tok.Fingerprint)
		})
	}
}

func TestSandbox_InvalidCard(t *testing.T) {
	client := newClient(t, newSandbox(t), crypto.SchemeRSAPKCS1)

	bad := card()
	bad.Number = "4242424242424241"
	bad.CVC = "1"
	_, err := client.CreateTokenSync(context.Background(), models.NewCardRequest(bad))
	requireAPIError(t, err, http.StatusBadRequest, tapErrors.ErrorCodeInvalidCardNumber)

	te, _ := tapErrors.AsTapError(err)
	assert.True(t, te.HasCode(tapErrors.ErrorCodeInvalidCardCVC))
}

func TestSandbox_WrongKey(t *testing.T) {
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	key, err := crypto.NewEncryptionKey(&other.PublicKey, crypto.SchemeRSAOAEP)
	require.NoError(t, err)

	client := newClient(t, newSandbox(t), crypto.SchemeRSAOAEP,
		tokenization.WithKeyProvider(crypto.NewKeyStore(key)))
	_, err = client.CreateTokenSync(context.Background(), models.NewCardRequest(card()))
	requireAPIError(t, err, http.StatusBadRequest, tapErrors.ErrorCodeDecryptionFailed)
}

func TestSandbox_WrongSecret(t *testing.T) {
	app := newSandbox(t)
	key, err := crypto.NewDecryptor(privateKey(t)).PublicKey(crypto.SchemeRSAPKCS1)
	require.NoError(t, err)

	client, err := tokenization.NewClient(testBaseURL, "sk_wrong",
		tokenization.WithTransport(fiberTransport(app)),
		tokenization.WithKeyProvider(crypto.NewKeyStore(key)),
		tokenization.WithLogger(utils.DiscardLogger()))
	require.NoError(t, err)

	_, err = client.ListCardsSync(context.Background(), "cus_1")
	requireAPIError(t, err, http.StatusUnauthorized, tapErrors.ErrorCodeUnauthorized)
}

func TestSandbox_WalletToken(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "models", "testdata", "applepay_token.json"))
	require.NoError(t, err)

	client := newClient(t, newSandbox(t), crypto.SchemeRSAPKCS1)
	var (
		tok   *models.Token
		opErr error
	)
	client.CreateWalletToken(context.Background(), data, func(v *models.Token, e error) {
		tok, opErr = v, e
	}).Wait()
	require.NoError(t, opErr)
	assert.Equal(t, "applepay", tok.Type)
	assert.Equal(t, "visa", tok.Brand)
	assert.Len(t, tok.Last4, 4)
}

func TestSandbox_CardLifecycle(t *testing.T) {
	client := newClient(t, newSandbox(t), crypto.SchemeHybrid)
	ctx := context.Background()

	tok, err := client.CreateTokenSync(ctx, models.NewCardRequest(card()))
	require.NoError(t, err)

	saved, err := client.SaveCardSync(ctx, "cus 1", tok.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus 1", saved.Customer)
	assert.Equal(t, "4242", saved.Last4)

	_, err = client.SaveCardSync(ctx, "cus 1", tok.ID)
	requireAPIError(t, err, http.StatusNotFound, tapErrors.ErrorCodeTokenNotFound)

	list, err := client.ListCardsSync(ctx, "cus 1")
	require.NoError(t, err)
	require.Len(t, list.Cards, 1)
	assert.Equal(t, saved.ID, list.Cards[0].ID)
	assert.False(t, list.HasMore)

	deleted, err := client.DeleteCardSync(ctx, saved.ID, "cus 1")
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	assert.Equal(t, saved.ID, deleted.ID)

	_, err = client.DeleteCardSync(ctx, saved.ID, "cus 1")
	requireAPIError(t, err, http.StatusNotFound, tapErrors.ErrorCodeCardNotFound)

	list, err = client.ListCardsSync(ctx, "cus 1")
	require.NoError(t, err)
	assert.Empty(t, list.Cards)
}

func TestSandbox_Health(t *testing.T) {
	app := newSandbox(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","version":"1.0.0","services":{"redis":"memory","database":"memory"}}`, string(body))
}

func TestSandbox_ListCardsPaginates(t *testing.T) {
	app := newSandbox(t)
	client := newClient(t, app, crypto.SchemeHybrid)
	ctx := context.Background()

	for _, number := range []string{"4242424242424242", "5555555555554444", "378282246310005"} {
		c := card()
		c.Number = number
		tok, err := client.CreateTokenSync(ctx, models.NewCardRequest(c))
		require.NoError(t, err)
		_, err = client.SaveCardSync(ctx, "cus_page", tok.ID)
		require.NoError(t, err)
	}

	list := func(query string) models.CardList {
		t.Helper()
		bearer, err := utils.SignRequestToken(testSecret, "pk_test_1", uuid.NewString(), []string{models.ScopeCardsRead}, time.Now())
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/v2/card/cus_page"+query, nil)
		req.Header.Set("Authorization", "Bearer "+bearer)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out models.CardList
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	first := list("?limit=2")
	require.Len(t, first.Cards, 2)
	assert.True(t, first.HasMore)

	rest := list("?limit=2&starting_after=" + first.Cards[1].ID)
	require.Len(t, rest.Cards, 1)
	assert.False(t, rest.HasMore)
	assert.NotContains(t, []string{first.Cards[0].ID, first.Cards[1].ID}, rest.Cards[0].ID)
}
