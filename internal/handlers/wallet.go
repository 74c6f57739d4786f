// Package handlers exposes the ledger over HTTP. It is a thin layer:
// all money semantics live in the ledger service.
package handlers

import (
	"errors"
	"strconv"

	"ewallet/internal/models"
	"ewallet/internal/services/auth"
	"ewallet/internal/services/cards"
	"ewallet/internal/services/ledger"
	"ewallet/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// userRef adapts a bare user id to a ledger owner.
type userRef uint

func (u userRef) OwnerRef() models.OwnerRef {
	return models.OwnerRef{Type: "user", ID: strconv.FormatUint(uint64(u), 10)}
}

type WalletHandler struct {
	ledgerService ledger.Service
	authService   auth.Service
}

func NewWalletHandler(ledgerService ledger.Service, authService auth.Service) *WalletHandler {
	return &WalletHandler{
		ledgerService: ledgerService,
		authService:   authService,
	}
}

func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	wallet, err := h.ledgerService.Wallet(c.Context(), userRef(claims.UserID))
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		return utils.InternalError(c, "Failed to get wallet")
	}

	return utils.Success(c, fiber.Map{"wallet": wallet})
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)

	transactions := make([]*models.Transaction, 0, limit)
	i := 0
	for txn, err := range h.ledgerService.Transactions(c.Context(), userRef(claims.UserID)) {
		if err != nil {
			return utils.InternalError(c, "Failed to list transactions")
		}
		if i >= offset {
			transactions = append(transactions, txn)
			if len(transactions) == limit {
				break
			}
		}
		i++
	}

	return utils.Success(c, fiber.Map{"transactions": transactions})
}

func (h *WalletHandler) TopUp(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount   int64                  `json:"amount"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	txn, err := h.ledgerService.TopUp(c.Context(), userRef(claims.UserID), ledger.TopUpRequest{
		Name:     models.TransactionNameTopUp,
		Amount:   input.Amount,
		Metadata: models.NewJSON(input.Metadata),
	})
	if err != nil {
		return writeLedgerError(c, err)
	}

	return utils.Success(c, fiber.Map{"transaction": txn})
}

// TopUpWithCard tokenizes the card first, then credits the wallet with
// the token recorded in the transaction metadata.
func (h *WalletHandler) TopUpWithCard(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount      int64  `json:"amount"`
		CardNumber  string `json:"card_number"`
		ExpiryMonth string `json:"expiry_month"`
		ExpiryYear  string `json:"expiry_year"`
		CVV         string `json:"cvv"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Amount < 1 {
		return utils.BadRequest(c, "Amount must be greater than 0")
	}

	cardToken, err := cards.Tokenize(cards.CardInput{
		Number:      input.CardNumber,
		ExpiryMonth: input.ExpiryMonth,
		ExpiryYear:  input.ExpiryYear,
		CVV:         input.CVV,
	})
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	txn, err := h.ledgerService.TopUp(c.Context(), userRef(claims.UserID), ledger.TopUpRequest{
		Name:   models.TransactionNameTopUp,
		Amount: input.Amount,
		Metadata: models.JSON{
			"card_token": cardToken.Token,
			"card_type":  cardToken.CardType,
		},
	})
	if err != nil {
		return writeLedgerError(c, err)
	}

	return utils.Success(c, fiber.Map{"transaction": txn})
}

func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount   int64                  `json:"amount"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	txn, err := h.ledgerService.Withdraw(c.Context(), userRef(claims.UserID), ledger.WithdrawRequest{
		Name:     models.TransactionNameWithdraw,
		Amount:   input.Amount,
		Metadata: models.NewJSON(input.Metadata),
	})
	if err != nil {
		return writeLedgerError(c, err)
	}

	return utils.Success(c, fiber.Map{"transaction": txn})
}

func (h *WalletHandler) Transfer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		ToUserID uint                   `json:"to_user_id"`
		Name     string                 `json:"name"`
		Amount   int64                  `json:"amount"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	// The ledger takes any owner; confirming the user exists keeps
	// typos from opening wallets for nobody.
	if _, err := h.authService.GetUserByID(input.ToUserID); err != nil {
		return utils.NotFound(c, "Destination user not found")
	}

	name := input.Name
	if name == "" {
		name = models.TransactionNameGift
	}

	transfer, err := h.ledgerService.Transfer(c.Context(), userRef(claims.UserID), ledger.TransferRequest{
		To:           userRef(input.ToUserID),
		Name:         name,
		Amount:       input.Amount,
		FromMetadata: models.NewJSON(input.Metadata),
		ToMetadata:   models.NewJSON(input.Metadata),
	})
	if err != nil {
		return writeLedgerError(c, err)
	}

	return utils.Success(c, fiber.Map{"transfer": transfer})
}

func writeLedgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return utils.BadRequest(c, "Amount must be greater than 0")
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return utils.UnprocessableEntity(c, "Insufficient balance")
	case errors.Is(err, ledger.ErrWriteConflict):
		return utils.Conflict(c, "Wallet is busy, try again")
	default:
		return utils.InternalError(c, "Operation failed")
	}
}
