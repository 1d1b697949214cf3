package handlers

import (
	"encoding/json"

	"gosell/internal/crypto"
	tapErrors "gosell/internal/errors"
	"gosell/internal/models"
	creditcard "gosell/internal/services/credit-card"
	"gosell/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// HeaderEncryptionScheme names the scheme a card payload was sealed with.
const HeaderEncryptionScheme = "X-Encryption-Scheme"

type TokenHandler struct {
	cards     *creditcard.Service
	decryptor *crypto.Decryptor
	logger    log.FieldLogger
}

func NewTokenHandler(cards *creditcard.Service, decryptor *crypto.Decryptor, logger log.FieldLogger) *TokenHandler {
	return &TokenHandler{
		cards:     cards,
		decryptor: decryptor,
		logger:    logger,
	}
}

type tokenBody struct {
	Type      models.PaymentType `json:"type"`
	TokenData json.RawMessage    `json:"token_data"`
}

// CreateToken handles POST /tokens. Card data arrives encrypted; wallet
// tokens arrive as structured JSON.
func (h *TokenHandler) CreateToken(c *fiber.Ctx) error {
	var body tokenBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.BadRequest(c, tapErrors.ErrorCodeInvalidRequestType, "request body must be a JSON object")
	}

	switch body.Type {
	case models.PaymentTypeCard:
		return h.createCardToken(c, body.TokenData)
	case models.PaymentTypeApplePay:
		return h.createWalletToken(c, body.TokenData)
	default:
		return response.BadRequest(c, tapErrors.ErrorCodeInvalidRequestType, "unsupported request type")
	}
}

func (h *TokenHandler) createCardToken(c *fiber.Ctx, tokenData json.RawMessage) error {
	var ciphertext string
	if err := json.Unmarshal(tokenData, &ciphertext); err != nil || ciphertext == "" {
		return response.BadRequest(c, tapErrors.ErrorCodeInvalidTokenData, "token_data must be an encrypted string")
	}

	scheme, err := crypto.ParseScheme(c.Get(HeaderEncryptionScheme))
	if err != nil {
		return response.BadRequest(c, tapErrors.ErrorCodeInvalidTokenData, "unsupported encryption scheme")
	}

	req, err := h.decryptor.DecryptRequest(ciphertext, scheme)
	if err != nil {
		h.logger.WithField("scheme", scheme).Warn("card payload could not be decrypted")
		return response.BadRequest(c, tapErrors.ErrorCodeDecryptionFailed, "token data could not be decrypted")
	}

	card, ok := req.Card()
	if !ok {
		return response.BadRequest(c, tapErrors.ErrorCodeInvalidRequestType, "encrypted payload is not a card")
	}

	token, err := h.cards.TokenizeCard(c.UserContext(), card)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return response.Success(c, token)
}

func (h *TokenHandler) createWalletToken(c *fiber.Ctx, tokenData json.RawMessage) error {
	wallet, err := models.ParseWalletToken(tokenData)
	if err != nil {
		return response.BadRequest(c, tapErrors.ErrorCodeInvalidWalletToken, "malformed wallet token")
	}

	token, err := h.cards.TokenizeWallet(c.UserContext(), *wallet)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return response.Success(c, token)
}
