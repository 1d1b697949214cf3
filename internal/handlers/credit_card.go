package handlers

import (
	"encoding/json"

	tapErrors "gosell/internal/errors"
	"gosell/internal/models"
	creditcard "gosell/internal/services/credit-card"
	"gosell/internal/utils"
	"gosell/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const maxCardPage = 100

type CreditCardHandler struct {
	cardService *creditcard.Service
	logger      log.FieldLogger
}

func NewCreditCardHandler(cardService *creditcard.Service, logger log.FieldLogger) *CreditCardHandler {
	return &CreditCardHandler{
		cardService: cardService,
		logger:      logger,
	}
}

// SaveCard handles POST /card/:customer.
func (h *CreditCardHandler) SaveCard(c *fiber.Ctx) error {
	var input models.SaveCardRequest
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return response.BadRequest(c, tapErrors.ErrorCodeInvalidTokenData, "invalid request format")
	}

	card, err := h.cardService.SaveCard(c.UserContext(), c.Params("customer"), input.Source)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return response.Success(c, card)
}

// GetCards handles GET /card/:customer. Supports limit and starting_after.
func (h *CreditCardHandler) GetCards(c *fiber.Ctx) error {
	cards, err := h.cardService.ListCards(c.UserContext(), c.Params("customer"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	page, hasMore := utils.Paginate(cards, utils.GetPagination(c, maxCardPage, maxCardPage), func(card models.SavedCard) string {
		return card.ID
	})
	return response.Success(c, models.CardList{Cards: page, HasMore: hasMore})
}

// DeleteCard handles DELETE /card/:customer/:card.
func (h *CreditCardHandler) DeleteCard(c *fiber.Ctx) error {
	cardID := c.Params("card")
	if err := h.cardService.DeleteCard(c.UserContext(), c.Params("customer"), cardID); err != nil {
		return respondError(c, h.logger, err)
	}
	return response.Success(c, models.DeleteCardResult{ID: cardID, Deleted: true})
}
