package rpc

import (
	"encoding/json"
	"math/big"

	"ultrachain/core/types"
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ContractCallParams addresses a mutating invocation. Msg is the tagged
// message forwarded verbatim to the contract.
type ContractCallParams struct {
	Contract string          `json:"contract"`
	Sender   string          `json:"sender"`
	Msg      json.RawMessage `json:"msg"`
}

// ContractQueryParams addresses a read-only query.
type ContractQueryParams struct {
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
}

type BalanceParams struct {
	Address string `json:"address"`
	Denom   string `json:"denom,omitempty"`
}

// ExecuteResult mirrors types.Response with amounts rendered as strings.
type ExecuteResult struct {
	Attributes []types.Attribute `json:"attributes"`
	Events     []*types.Event    `json:"events,omitempty"`
	Messages   []BankSendResult  `json:"messages,omitempty"`
}

type BankSendResult struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type BalanceResponse struct {
	Address string `json:"address"`
	Denom   string `json:"denom"`
	Amount  string `json:"amount"`
}

func executeResult(resp *types.Response) ExecuteResult {
	if resp == nil {
		return ExecuteResult{Attributes: []types.Attribute{}}
	}
	out := ExecuteResult{Attributes: resp.Attributes, Events: resp.Events}
	if out.Attributes == nil {
		out.Attributes = []types.Attribute{}
	}
	for _, msg := range resp.Messages {
		out.Messages = append(out.Messages, BankSendResult{
			From:   msg.From,
			To:     msg.To,
			Denom:  msg.Denom,
			Amount: amountString(msg.Amount),
		})
	}
	return out
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
