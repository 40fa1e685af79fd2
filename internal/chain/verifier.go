// Package chain verifies escrow deposits against on-chain state. Nothing the
// client claims is trusted: the transaction calldata is re-decoded and the
// receipt logs re-scanned server side.
package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const escrowABIJSON = `[
	{"name":"deposit","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"battleId","type":"uint256"},
		{"name":"amount","type":"uint256"}
	],"outputs":[]}
]`

const erc20ABIJSON = `[
	{"anonymous":false,"name":"Transfer","type":"event","inputs":[
		{"indexed":true,"name":"from","type":"address"},
		{"indexed":true,"name":"to","type":"address"},
		{"indexed":false,"name":"value","type":"uint256"}
	]}
]`

var (
	ErrTxNotFound       = errors.New("tx_not_found")
	ErrReceiptNotFound  = errors.New("receipt_not_found")
	ErrTxReverted       = errors.New("tx_reverted")
	ErrAddressMismatch  = errors.New("address_mismatch")
	ErrCalldataMismatch = errors.New("calldata_mismatch")
	ErrBadStake         = errors.New("bad_stake")
	ErrTransferNotFound = errors.New("transfer_not_found")
)

// Stake denominations accepted by the escrow, in whole tokens.
var allowedStakeUnits = []int64{1, 5, 10}

// VerifiedDeposit is the chain-derived view of a confirmed deposit.
type VerifiedDeposit struct {
	Amount        *big.Int
	ChainID       int64
	TokenAddress  string
	EscrowAddress string
}

type Verifier struct {
	client  Client
	escrow  common.Address
	token   common.Address
	deposit abi.Method
	// keccak256("Transfer(address,address,uint256)")
	transferTopic common.Hash
	allowed       []*big.Int
}

func NewVerifier(client Client, escrowAddress, tokenAddress string, tokenDecimals int) (*Verifier, error) {
	if !common.IsHexAddress(escrowAddress) {
		return nil, fmt.Errorf("invalid escrow address %q", escrowAddress)
	}
	if !common.IsHexAddress(tokenAddress) {
		return nil, fmt.Errorf("invalid token address %q", tokenAddress)
	}
	escrowABI, err := abi.JSON(strings.NewReader(escrowABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse escrow abi: %w", err)
	}
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(tokenDecimals)), nil)
	allowed := make([]*big.Int, 0, len(allowedStakeUnits))
	for _, u := range allowedStakeUnits {
		allowed = append(allowed, new(big.Int).Mul(big.NewInt(u), scale))
	}
	return &Verifier{
		client:        client,
		escrow:        common.HexToAddress(escrowAddress),
		token:         common.HexToAddress(tokenAddress),
		deposit:       escrowABI.Methods["deposit"],
		transferTopic: erc20ABI.Events["Transfer"].ID,
		allowed:       allowed,
	}, nil
}

// VerifyDeposit checks that txHash is a successful deposit(battleId, amount)
// call from address into the escrow, carrying a matching ERC-20 Transfer of
// exactly amount. Checks run in order and the first failure wins.
func (v *Verifier) VerifyDeposit(ctx context.Context, battleID int64, address, txHash string) (*VerifiedDeposit, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: malformed address", ErrAddressMismatch)
	}
	player := common.HexToAddress(address)
	hash := common.HexToHash(txHash)

	tx, pending, err := v.client.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrTxNotFound
		}
		return nil, fmt.Errorf("fetch tx: %w", err)
	}
	if pending {
		return nil, ErrReceiptNotFound
	}
	receipt, err := v.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("fetch receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, ErrTxReverted
	}

	chainID, err := v.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return nil, fmt.Errorf("recover sender: %w", err)
	}
	if sender != player {
		return nil, fmt.Errorf("%w: tx sender %s is not %s", ErrAddressMismatch, sender.Hex(), player.Hex())
	}
	if tx.To() == nil || *tx.To() != v.escrow {
		return nil, fmt.Errorf("%w: tx target is not the escrow", ErrAddressMismatch)
	}

	callBattleID, amount, err := v.decodeDepositCall(tx.Data())
	if err != nil {
		return nil, err
	}
	if callBattleID.Cmp(big.NewInt(battleID)) != 0 {
		return nil, fmt.Errorf("%w: calldata battle %s != %d", ErrCalldataMismatch, callBattleID, battleID)
	}
	if !v.allowedStake(amount) {
		return nil, fmt.Errorf("%w: %s base units", ErrBadStake, amount)
	}
	if !v.findTransfer(receipt.Logs, player, amount) {
		return nil, ErrTransferNotFound
	}

	return &VerifiedDeposit{
		Amount:        amount,
		ChainID:       chainID.Int64(),
		TokenAddress:  v.token.Hex(),
		EscrowAddress: v.escrow.Hex(),
	}, nil
}

func (v *Verifier) decodeDepositCall(data []byte) (*big.Int, *big.Int, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], v.deposit.ID) {
		return nil, nil, fmt.Errorf("%w: not a deposit call", ErrCalldataMismatch)
	}
	args, err := v.deposit.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCalldataMismatch, err)
	}
	battleID, ok1 := args[0].(*big.Int)
	amount, ok2 := args[1].(*big.Int)
	if !ok1 || !ok2 {
		return nil, nil, fmt.Errorf("%w: unexpected argument types", ErrCalldataMismatch)
	}
	return battleID, amount, nil
}

func (v *Verifier) allowedStake(amount *big.Int) bool {
	for _, a := range v.allowed {
		if amount.Cmp(a) == 0 {
			return true
		}
	}
	return false
}

// findTransfer scans receipt logs for a Transfer emitted by the token
// contract moving exactly amount from the player to the escrow.
func (v *Verifier) findTransfer(logs []*types.Log, player common.Address, amount *big.Int) bool {
	for _, lg := range logs {
		if lg.Address != v.token {
			continue
		}
		if len(lg.Topics) != 3 || lg.Topics[0] != v.transferTopic {
			continue
		}
		from := common.BytesToAddress(lg.Topics[1].Bytes())
		to := common.BytesToAddress(lg.Topics[2].Bytes())
		value := new(big.Int).SetBytes(lg.Data)
		if from == player && to == v.escrow && value.Cmp(amount) == 0 {
			return true
		}
	}
	return false
}
