package solana

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

func TestParseTransactionError(t *testing.T) {
	d := json.NewDecoder(bytes.NewBufferString(`{"InstructionError":[2,{"Custom":3}]}`))

	var raw interface{}
	assert.NoError(t, d.Decode(&raw))

	e, err := ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.NotNil(t, e.InstructionError())
	assert.Equal(t, 2, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorCustom, e.InstructionError().ErrorKey())
	assert.NotNil(t, e.InstructionError().CustomError())
	assert.Equal(t, CustomError(3), *e.InstructionError().CustomError())
	assert.Equal(t, "Error processing Instruction 2: custom program error: 0x3", e.Error())

	d = json.NewDecoder(bytes.NewBufferString(`{"InstructionError":[0,"InsufficientFunds"]}`))
	assert.NoError(t, d.Decode(&raw))

	e, err = ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.NotNil(t, e.InstructionError())
	assert.Equal(t, 0, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorInsufficientFunds, e.InstructionError().ErrorKey())

	d = json.NewDecoder(bytes.NewBufferString(`"BlockhashNotFound"`))
	assert.NoError(t, d.Decode(&raw))

	e, err = ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorBlockhashNotFound, e.ErrorKey())
	assert.Nil(t, e.InstructionError())
	assert.Equal(t, "BlockhashNotFound", e.Error())

	e, err = ParseTransactionError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = ParseTransactionError(12)
	assert.Error(t, err)
}

func TestNewTransactionError(t *testing.T) {
	d := json.NewDecoder(bytes.NewBufferString(`"AccountInUse"`))
	var expected interface{}
	require.NoError(t, d.Decode(&expected))

	e := NewTransactionError(TransactionErrorAccountInUse)
	assert.Equal(t, expected, e.raw)

	// Raw values round trip through JSON so they compare with decoded input
	roundTrip := func(e *TransactionError) interface{} {
		s, err := e.JSONString()
		require.NoError(t, err)

		var v interface{}
		require.NoError(t, json.Unmarshal([]byte(s), &v))
		return v
	}

	d = json.NewDecoder(bytes.NewBufferString(`{"InstructionError":[0,"InvalidArgument"]}`))
	require.NoError(t, d.Decode(&expected))
	e = NewInstructionTransactionError(0, errors.New(string(InstructionErrorInvalidArgument)))
	assert.Equal(t, expected, roundTrip(e))
	assert.Equal(t, InstructionErrorInvalidArgument, e.InstructionError().ErrorKey())

	d = json.NewDecoder(bytes.NewBufferString(`{"InstructionError":[2,{"Custom":3}]}`))
	require.NoError(t, d.Decode(&expected))
	e = NewInstructionTransactionError(2, CustomError(3))
	assert.Equal(t, expected, roundTrip(e))
	assert.Equal(t, InstructionErrorCustom, e.InstructionError().ErrorKey())
}

func TestParseRPCError(t *testing.T) {
	txErr, err := ParseRPCError(nil)
	assert.NoError(t, err)
	assert.Nil(t, txErr)

	txErr, err = ParseRPCError(&jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"err": map[string]interface{}{
				"InstructionError": []interface{}{json.Number("0"), map[string]interface{}{"Custom": json.Number("1")}},
			},
			"logs": []interface{}{
				"Program 3bgYVS545pqFRKpY4UYgmSxc997QWfivVp3j2QVqb1t8 invoke [1]",
				"Program log: Instruction: Withdraw",
			},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, txErr)
	assert.Equal(t, TransactionErrorInstructionError, txErr.ErrorKey())
	assert.Equal(t, CustomError(1), *txErr.InstructionError().CustomError())
	assert.Len(t, txErr.Logs(), 2)

	txErr, err = ParseRPCError(&jsonrpc.RPCError{
		Code: -32002,
		Data: map[string]interface{}{"err": nil},
	})
	assert.NoError(t, err)
	assert.Nil(t, txErr)

	_, err = ParseRPCError(&jsonrpc.RPCError{Code: -32002, Data: "unexpected"})
	assert.Error(t, err)
}

func TestParseJSONNumber(t *testing.T) {
	tc := []interface{}{
		"1",
		1.0,
		json.Number("1"),
	}
	for i, c := range tc {
		v, err := parseJSONNumber(c)
		assert.NoError(t, err)
		assert.Equal(t, 1, v, i)
	}

	_, err := parseJSONNumber(true)
	assert.Error(t, err)
}
