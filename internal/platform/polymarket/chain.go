package polymarket

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// USDCAddress is the USDC contract on Polygon, where Polymarket collateral
// lives.
const USDCAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

// DefaultPolygonRPC is a public Polygon JSON-RPC endpoint.
const DefaultPolygonRPC = "https://polygon-rpc.com"

// balanceOfSelector is the 4-byte selector of balanceOf(address).
var balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

// usdcDecimals converts raw token units to dollars.
var usdcDecimals = big.NewFloat(1e6)

// ChainReader reads the USDC balance of a wallet from the Polygon chain.
type ChainReader struct {
	client *ethclient.Client
	usdc   common.Address
	wallet common.Address
}

// NewChainReader dials the Polygon RPC endpoint and prepares balance queries
// for the given wallet address.
func NewChainReader(ctx context.Context, rpcURL, walletAddress string) (*ChainReader, error) {
	if rpcURL == "" {
		rpcURL = DefaultPolygonRPC
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("polymarket/chain: dial %s: %w", rpcURL, err)
	}
	return &ChainReader{
		client: client,
		usdc:   common.HexToAddress(USDCAddress),
		wallet: common.HexToAddress(walletAddress),
	}, nil
}

// USDCBalance returns the wallet's USDC balance in dollars.
func (r *ChainReader) USDCBalance(ctx context.Context) (float64, error) {
	data := append(append([]byte{}, balanceOfSelector...),
		common.LeftPadBytes(r.wallet.Bytes(), 32)...)

	result, err := r.client.CallContract(ctx, ethereum.CallMsg{
		To:   &r.usdc,
		Data: data,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("polymarket/chain: balanceOf call: %w", err)
	}

	raw := new(big.Int).SetBytes(result)
	dollars, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), usdcDecimals).Float64()
	return dollars, nil
}

// Close releases the RPC connection.
func (r *ChainReader) Close() {
	r.client.Close()
}
