package events

import (
	"math/big"
	"strings"

	"veledger/core/types"
	"veledger/crypto"
)

const (
	// TypeTransfer is emitted for token balance movements.
	TypeTransfer = "transfer.token"
	// TypeMint is emitted when a token minter issues new supply.
	TypeMint = "transfer.mint"
	// TypeApproval is emitted when an allowance is set.
	TypeApproval = "transfer.approval"
)

type Transfer struct {
	Token  crypto.Address
	Symbol string
	From   crypto.Address
	To     crypto.Address
	Amount *big.Int
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	attrs := map[string]string{}
	if symbol := strings.ToUpper(strings.TrimSpace(e.Symbol)); symbol != "" {
		attrs["symbol"] = symbol
	}
	setAddress(attrs, "token", e.Token)
	attrs["from"] = e.From.String()
	attrs["to"] = e.To.String()
	attrs["amount"] = formatAmount(e.Amount)
	return &types.Event{Type: TypeTransfer, Attributes: attrs}
}

type Mint struct {
	Token  crypto.Address
	To     crypto.Address
	Amount *big.Int
}

func (Mint) EventType() string { return TypeMint }

func (e Mint) Event() *types.Event {
	attrs := map[string]string{"amount": formatAmount(e.Amount)}
	setAddress(attrs, "token", e.Token)
	setAddress(attrs, "to", e.To)
	return &types.Event{Type: TypeMint, Attributes: attrs}
}

type Approval struct {
	Token   crypto.Address
	Owner   crypto.Address
	Spender crypto.Address
	Amount  *big.Int
}

func (Approval) EventType() string { return TypeApproval }

func (e Approval) Event() *types.Event {
	attrs := map[string]string{"amount": formatAmount(e.Amount)}
	setAddress(attrs, "token", e.Token)
	setAddress(attrs, "owner", e.Owner)
	setAddress(attrs, "spender", e.Spender)
	return &types.Event{Type: TypeApproval, Attributes: attrs}
}
