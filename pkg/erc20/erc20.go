// Package erc20 binds the standard fungible token interface to catalog tokens.
package erc20

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ava-labs/token-catalog/pkg/tokens"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ABI is the subset of the ERC-20 interface exposed by Contract.
const ABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

// ErrInvalidAddress is returned when a token address is not a 20-byte hex address.
var ErrInvalidAddress = errors.New("invalid token address")

var parsedABI = sync.OnceValues(func() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(ABI))
})

// Contract is an ERC-20 handle for one catalog token on one chain connection.
type Contract struct {
	token    tokens.Token
	address  common.Address
	contract *bind.BoundContract
}

// New binds token's contract address to backend. The token itself is not queried.
func New(token tokens.Token, backend bind.ContractBackend) (*Contract, error) {
	if !common.IsHexAddress(token.Address) {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidAddress, token.Symbol, token.Address)
	}

	parsed, err := parsedABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}

	address := common.HexToAddress(token.Address)
	return &Contract{
		token:    token,
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Token returns the catalog record the handle was built from.
func (c *Contract) Token() tokens.Token {
	return c.token
}

// Address returns the checksummed contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// BalanceOf returns owner's balance in base units.
func (c *Contract) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return c.callUint256(ctx, "balanceOf", owner)
}

// Allowance returns how much spender may still transfer on behalf of owner.
func (c *Contract) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return c.callUint256(ctx, "allowance", owner, spender)
}

// Transfer sends amount base units to to.
func (c *Contract) Transfer(opts *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Transaction, error) {
	tx, err := c.contract.Transact(opts, "transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("erc20 %s transfer: %w", c.token.Symbol, err)
	}
	return tx, nil
}

// Approve allows spender to transfer up to amount base units.
func (c *Contract) Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	tx, err := c.contract.Transact(opts, "approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("erc20 %s approve: %w", c.token.Symbol, err)
	}
	return tx, nil
}

func (c *Contract) callUint256(ctx context.Context, method string, args ...any) (*big.Int, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("erc20 %s %s: %w", c.token.Symbol, method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("erc20 %s %s: expected 1 output, got %d", c.token.Symbol, method, len(out))
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
