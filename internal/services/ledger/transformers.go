package ledger

import (
	"fmt"

	"ewallet/internal/models"
)

// Fields is the transformer output: everything stored on a transaction
// besides its identity, wallet and type. Transformers are pure; they
// must not decide balance changes.
type Fields struct {
	Name           string
	Amount         int64
	Status         models.TransactionStatus
	OpeningBalance *int64
	ClosingBalance *int64
	Metadata       models.JSON
}

// The four transformer roles. Each is independently substitutable per
// deployment through the Registry.

type TopUpTransformer interface {
	TransformTopUp(wallet *models.Wallet, req TopUpRequest) Fields
}

type WithdrawTransformer interface {
	TransformWithdraw(wallet *models.Wallet, req WithdrawRequest) Fields
}

type TransferFromTransformer interface {
	TransformTransferFrom(wallet *models.Wallet, req TransferRequest) Fields
}

type TransferToTransformer interface {
	TransformTransferTo(wallet *models.Wallet, req TransferRequest) Fields
}

// Role names a transformer slot in the Registry.
type Role string

const (
	RoleTopUp        Role = "top_up"
	RoleWithdraw     Role = "withdraw"
	RoleTransferFrom Role = "transfer_from"
	RoleTransferTo   Role = "transfer_to"
)

// Registry maps roles to transformer implementations. Entries are
// registered as plain values and asserted to the role's interface when
// an operation starts, so a wrong-typed entry fails fast with
// ErrTransformerConfig before anything is written.
type Registry struct {
	entries map[Role]any
}

// NewRegistry returns a registry pre-populated with the default
// transformers for all four roles.
func NewRegistry() *Registry {
	return &Registry{entries: map[Role]any{
		RoleTopUp:        DefaultTopUpTransformer{},
		RoleWithdraw:     DefaultWithdrawTransformer{},
		RoleTransferFrom: DefaultTransferFromTransformer{},
		RoleTransferTo:   DefaultTransferToTransformer{},
	}}
}

// Register substitutes the implementation for one role.
func (r *Registry) Register(role Role, transformer any) {
	r.entries[role] = transformer
}

func (r *Registry) topUp() (TopUpTransformer, error) {
	t, ok := r.entries[RoleTopUp].(TopUpTransformer)
	if !ok {
		return nil, fmt.Errorf("%w: %s transformer must implement TopUpTransformer", ErrTransformerConfig, RoleTopUp)
	}
	return t, nil
}

func (r *Registry) withdraw() (WithdrawTransformer, error) {
	t, ok := r.entries[RoleWithdraw].(WithdrawTransformer)
	if !ok {
		return nil, fmt.Errorf("%w: %s transformer must implement WithdrawTransformer", ErrTransformerConfig, RoleWithdraw)
	}
	return t, nil
}

func (r *Registry) transferFrom() (TransferFromTransformer, error) {
	t, ok := r.entries[RoleTransferFrom].(TransferFromTransformer)
	if !ok {
		return nil, fmt.Errorf("%w: %s transformer must implement TransferFromTransformer", ErrTransformerConfig, RoleTransferFrom)
	}
	return t, nil
}

func (r *Registry) transferTo() (TransferToTransformer, error) {
	t, ok := r.entries[RoleTransferTo].(TransferToTransformer)
	if !ok {
		return nil, fmt.Errorf("%w: %s transformer must implement TransferToTransformer", ErrTransformerConfig, RoleTransferTo)
	}
	return t, nil
}

// Default transformers: straight pass-through of the request fields.

type DefaultTopUpTransformer struct{}

func (DefaultTopUpTransformer) TransformTopUp(wallet *models.Wallet, req TopUpRequest) Fields {
	return Fields{
		Name:     req.Name,
		Amount:   req.Amount,
		Status:   statusOrCompleted(req.Status),
		Metadata: req.Metadata,
	}
}

type DefaultWithdrawTransformer struct{}

func (DefaultWithdrawTransformer) TransformWithdraw(wallet *models.Wallet, req WithdrawRequest) Fields {
	return Fields{
		Name:     req.Name,
		Amount:   req.Amount,
		Status:   statusOrCompleted(req.Status),
		Metadata: req.Metadata,
	}
}

// Both transfer sides settle immediately unless a substituted
// transformer says otherwise.

type DefaultTransferFromTransformer struct{}

func (DefaultTransferFromTransformer) TransformTransferFrom(wallet *models.Wallet, req TransferRequest) Fields {
	return Fields{
		Name:     req.Name,
		Amount:   req.Amount,
		Status:   models.TransactionStatusCompleted,
		Metadata: req.FromMetadata,
	}
}

type DefaultTransferToTransformer struct{}

func (DefaultTransferToTransformer) TransformTransferTo(wallet *models.Wallet, req TransferRequest) Fields {
	return Fields{
		Name:     req.Name,
		Amount:   req.Amount,
		Status:   models.TransactionStatusCompleted,
		Metadata: req.ToMetadata,
	}
}

func statusOrCompleted(s *models.TransactionStatus) models.TransactionStatus {
	if s != nil {
		return *s
	}
	return models.TransactionStatusCompleted
}
