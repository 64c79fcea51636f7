package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"

	"github.com/ava-labs/token-catalog/pkg/erc20"
	"github.com/ava-labs/token-catalog/pkg/tokens"
	"github.com/ava-labs/token-catalog/pkg/utils"
)

func balance(c *cli.Context) error {
	cfg, err := buildBalanceConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newFactory(cfg.Sources, cfg.Provider, sugar, nil)()
	p.Start(ctx)
	defer p.Close()

	catalog, err := p.Wait(ctx)
	if err != nil {
		return fmt.Errorf("failed to load token catalog: %w", err)
	}

	token, ok := catalog.Lookup(cfg.Symbol)
	if !ok {
		return fmt.Errorf("token %q is not in the catalog", cfg.Symbol)
	}

	var want *big.Int
	if cfg.Amount != "" {
		want, err = tokens.ParseUnits(cfg.Amount, token.Decimals)
		if err != nil {
			return fmt.Errorf("%w: amount %q: %w", errInvalidConfig, cfg.Amount, err)
		}
		if want.Sign() < 0 {
			return fmt.Errorf("%w: amount %q is negative", errInvalidConfig, cfg.Amount)
		}
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to dial rpc: %w", err)
	}
	defer client.Close()

	contract, err := erc20.New(token, client)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", token.Symbol, err)
	}
	sugar.Debugw("querying balance",
		"symbol", token.Symbol,
		"token", utils.ShortAddress(contract.Address().Hex()),
		"owner", utils.ShortAddress(cfg.Owner),
	)

	owner := common.HexToAddress(cfg.Owner)
	bal, err := contract.BalanceOf(ctx, owner)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s %s\n", tokens.FormatUnits(bal, token.Decimals), token.Symbol)

	available := bal
	if cfg.Spender != "" {
		allowance, err := contract.Allowance(ctx, owner, common.HexToAddress(cfg.Spender))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "allowance %s %s\n", tokens.FormatUnits(allowance, token.Decimals), token.Symbol)
		if allowance.Cmp(available) < 0 {
			available = allowance
		}
	}

	if want != nil {
		fmt.Fprintf(c.App.Writer, "covers %s %s: %t\n",
			tokens.FormatUnits(want, token.Decimals), token.Symbol, available.Cmp(want) >= 0)
	}
	return nil
}
