package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	tapErrors "gosell/internal/errors"
	"gosell/internal/models"

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

func sampleCard() models.CardData {
	return models.CardData{
		Number:          "4242424242424242",
		ExpirationMonth: "12",
		ExpirationYear:  "25",
		CVC:             "123",
		CardholderName:  "A B",
	}
}

func TestEncoder_RoundTrip(t *testing.T) {
	priv := privateKey(t)
	dec := NewDecryptor(priv)

	cards := []models.CardData{
		sampleCard(),
		{Number: "5555555555554444", ExpirationMonth: "01", ExpirationYear: "30", CVC: "9999", CardholderName: "Zoë Ñandú"},
	}
	schemes := []Scheme{SchemeRSAPKCS1, SchemeRSAOAEP, SchemeHybrid}

	for _, scheme := range schemes {
		key, err := dec.PublicKey(scheme)
		require.NoError(t, err)

		for _, card := range cards {
			t.Run(string(scheme)+"/"+card.LastFour(), func(t *testing.T) {
				req := models.NewCardRequest(card)

				payload, err := NewEncoder().Encode(req, key)
				require.NoError(t, err)
				assert.Equal(t, models.PaymentTypeCard, payload.Type())
				assert.NotEmpty(t, payload.Ciphertext())

				plain, err := json.Marshal(req)
				require.NoError(t, err)
				assert.NotEqual(t, string(plain), payload.Ciphertext())
				assert.NotContains(t, payload.Ciphertext(), card.Number)

				got, err := dec.DecryptRequest(payload.Ciphertext(), scheme)
				require.NoError(t, err)
				gotCard, ok := got.Card()
				require.True(t, ok)
				assert.Equal(t, card, gotCard)
			})
		}
	}
}

func TestEncoder_MissingKey(t *testing.T) {
	_, err := NewEncoder().Encode(models.NewCardRequest(sampleCard()), nil)
	require.Error(t, err)

	tapErr, ok := tapErrors.AsTapError(err)
	require.True(t, ok)
	assert.Equal(t, tapErrors.KindEncryption, tapErr.Kind())
	assert.Equal(t, tapErrors.ReasonMissingKey, tapErr.Reason())
}

func TestEncoder_InvalidRequestIsSerializationError(t *testing.T) {
	key, err := NewDecryptor(privateKey(t)).PublicKey(SchemeRSAPKCS1)
	require.NoError(t, err)

	card := sampleCard()
	card.CVC = ""
	_, err = NewEncoder().Encode(models.NewCardRequest(card), key)
	assert.ErrorIs(t, err, tapErrors.ErrSerialization)

	_, err = NewEncoder().Encode(models.TokenRequest{}, key)
	assert.ErrorIs(t, err, tapErrors.ErrSerialization)

	card = sampleCard()
	card.CardholderName = string([]byte{0xff, 0xfe})
	_, err = NewEncoder().Encode(models.NewCardRequest(card), nil)
	assert.ErrorIs(t, err, tapErrors.ErrSerialization, "serialization is checked before the key")
}

func TestEncoder_PlaintextTooLong(t *testing.T) {
	dec := NewDecryptor(privateKey(t))
	card := sampleCard()
	card.Address = &models.Address{
		Line1: strings.Repeat("a", 120),
		Line2: strings.Repeat("b", 120),
		City:  "Kuwait City",
	}
	req := models.NewCardRequest(card)

	for _, scheme := range []Scheme{SchemeRSAPKCS1, SchemeRSAOAEP} {
		key, err := dec.PublicKey(scheme)
		require.NoError(t, err)

		_, err = NewEncoder().Encode(req, key)
		tapErr, ok := tapErrors.AsTapError(err)
		require.True(t, ok, scheme)
		assert.Equal(t, tapErrors.KindEncryption, tapErr.Kind())
		assert.Equal(t, tapErrors.ReasonPlaintextTooLong, tapErr.Reason())
	}

	key, err := dec.PublicKey(SchemeHybrid)
	require.NoError(t, err)
	payload, err := NewEncoder().Encode(req, key)
	require.NoError(t, err)

	got, err := dec.DecryptRequest(payload.Ciphertext(), SchemeHybrid)
	require.NoError(t, err)
	gotCard, _ := got.Card()
	assert.Equal(t, card, gotCard)
}

func TestEncoder_SealWipesPlaintext(t *testing.T) {
	dec := NewDecryptor(privateKey(t))
	isZero := func(b []byte) bool {
		for _, c := range b {
			if c != 0 {
				return false
			}
		}
		return true
	}

	for _, scheme := range []Scheme{SchemeRSAPKCS1, SchemeRSAOAEP, SchemeHybrid} {
		key, err := dec.PublicKey(scheme)
		require.NoError(t, err)

		plaintext, err := json.Marshal(models.NewCardRequest(sampleCard()))
		require.NoError(t, err)
		_, err = NewEncoder().seal(models.PaymentTypeCard, plaintext, key)
		require.NoError(t, err, scheme)
		assert.True(t, isZero(plaintext), scheme)
	}

	key, err := dec.PublicKey(SchemeRSAPKCS1)
	require.NoError(t, err)
	tooLong := []byte(strings.Repeat("x", 1024))
	_, err = NewEncoder().seal(models.PaymentTypeCard, tooLong, key)
	require.Error(t, err)
	assert.True(t, isZero(tooLong))

	missing := []byte(`{"number":"4242424242424242"}`)
	_, err = NewEncoder().seal(models.PaymentTypeCard, missing, nil)
	require.Error(t, err)
	assert.True(t, isZero(missing))
}

func TestEncoder_WalletRequest(t *testing.T) {
	dec := NewDecryptor(privateKey(t))
	key, err := dec.PublicKey(SchemeHybrid)
	require.NoError(t, err)

	wallet := models.WalletToken{
		Version:   models.WalletVersionEC,
		Data:      base64.StdEncoding.EncodeToString([]byte("data")),
		Signature: base64.StdEncoding.EncodeToString([]byte("sig")),
		Header: models.WalletTokenHeader{
			EphemeralPublicKey: base64.StdEncoding.EncodeToString([]byte("epk")),
			PublicKeyHash:      base64.StdEncoding.EncodeToString([]byte("hash")),
			TransactionID:      "1c072b6b",
		},
	}
	payload, err := NewEncoder().Encode(models.NewWalletRequest(wallet), key)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentTypeApplePay, payload.Type())

	got, err := dec.DecryptRequest(payload.Ciphertext(), SchemeHybrid)
	require.NoError(t, err)
	gotWallet, ok := got.Wallet()
	require.True(t, ok)
	assert.Equal(t, wallet, gotWallet)
}

func TestParsePublicKey(t *testing.T) {
	priv := privateKey(t)
	pkix, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pkcs1 := x509.MarshalPKCS1PublicKey(&priv.PublicKey)

	key, err := NewEncryptionKey(&priv.PublicKey, SchemeRSAPKCS1)
	require.NoError(t, err)
	pemText, err := key.MarshalPEM()
	require.NoError(t, err)

	inputs := map[string]string{
		"pem":          pemText,
		"pkix base64":  base64.StdEncoding.EncodeToString(pkix),
		"pkcs1 base64": base64.StdEncoding.EncodeToString(pkcs1),
		"wrapped":      wrapLines(base64.StdEncoding.EncodeToString(pkix), 64),
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			pub, err := ParsePublicKey(input)
			require.NoError(t, err)
			assert.Equal(t, 0, pub.N.Cmp(priv.PublicKey.N))
		})
	}

	for _, bad := range []string{"", "not a key", base64.StdEncoding.EncodeToString([]byte("garbage"))} {
		_, err := ParsePublicKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey)
	}
}

func TestNewEncryptionKey_RejectsWeakKeys(t *testing.T) {
	weak, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	_, err = NewEncryptionKey(&weak.PublicKey, SchemeRSAPKCS1)
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewEncryptionKey(&privateKey(t).PublicKey, Scheme("rot13"))
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("")
	require.NoError(t, err)
	assert.Equal(t, SchemeRSAPKCS1, s)

	s, err = ParseScheme(" HYBRID ")
	require.NoError(t, err)
	assert.Equal(t, SchemeHybrid, s)

	_, err = ParseScheme("aes")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestDecryptor_RejectsTamperedHybrid(t *testing.T) {
	dec := NewDecryptor(privateKey(t))
	key, err := dec.PublicKey(SchemeHybrid)
	require.NoError(t, err)

	payload, err := NewEncoder().Encode(models.NewCardRequest(sampleCard()), key)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(payload.Ciphertext())
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01

	_, err = dec.Decrypt(base64.StdEncoding.EncodeToString(raw), SchemeHybrid)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func wrapLines(s string, width int) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteString("\n")
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}
