package creditcard

import (
	"strconv"
	"strings"
	"time"

	tapErrors "gosell/internal/errors"
	"gosell/internal/models"
)

// ValidateCard checks the card fields and returns one detail per problem,
// or nil when the card is acceptable at now.
func ValidateCard(card models.CardData, now time.Time) []tapErrors.ErrorDetail {
	var details []tapErrors.ErrorDetail
	add := func(code tapErrors.ErrorCode, description string) {
		details = append(details, tapErrors.ErrorDetail{Code: code, Description: description})
	}

	if !isDigits(card.Number) || len(card.Number) < 12 || len(card.Number) > 19 || !isValidCardNumber(card.Number) {
		add(tapErrors.ErrorCodeInvalidCardNumber, "invalid card number")
	}

	month, monthErr := parseExpiryMonth(card.ExpirationMonth)
	if monthErr != nil {
		add(tapErrors.ErrorCodeInvalidExpirationMonth, "expiration month must be between 01 and 12")
	}
	year, yearErr := parseExpiryYear(card.ExpirationYear)
	if yearErr != nil {
		add(tapErrors.ErrorCodeInvalidExpirationYear, "invalid expiration year")
	}
	if monthErr == nil && yearErr == nil && isExpired(month, year, now) {
		add(tapErrors.ErrorCodeCardExpired, "card has expired")
	}

	if !isDigits(card.CVC) || len(card.CVC) < 3 || len(card.CVC) > 4 {
		add(tapErrors.ErrorCodeInvalidCardCVC, "cvc must be 3 or 4 digits")
	}

	if strings.TrimSpace(card.CardholderName) == "" {
		add(tapErrors.ErrorCodeInvalidCardholderName, "cardholder name is required")
	}

	return details
}

func parseExpiryMonth(value string) (int, error) {
	if !isDigits(value) || len(value) > 2 {
		return 0, strconv.ErrSyntax
	}
	month, err := strconv.Atoi(value)
	if err != nil || month < 1 || month > 12 {
		return 0, strconv.ErrRange
	}
	return month, nil
}

// parseExpiryYear accepts YY or YYYY.
func parseExpiryYear(value string) (int, error) {
	if !isDigits(value) || (len(value) != 2 && len(value) != 4) {
		return 0, strconv.ErrSyntax
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if len(value) == 2 {
		year += 2000
	}
	return year, nil
}

// A card is valid through the last day of its expiry month.
func isExpired(month, year int, now time.Time) bool {
	currentYear, currentMonth, _ := now.Date()
	return year < currentYear || (year == currentYear && month < int(currentMonth))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Luhn Algorithm: Used to validate credit card numbers
func isValidCardNumber(cardNumber string) bool {
	var sum int
	shouldDouble := false

	for i := len(cardNumber) - 1; i >= 0; i-- {
		digit := int(cardNumber[i] - '0')

		if shouldDouble {
			digit = digit * 2
			if digit > 9 {
				digit -= 9
			}
		}

		sum += digit
		shouldDouble = !shouldDouble
	}

	return sum%10 == 0
}
