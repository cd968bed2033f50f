package vault_program

import (
	"bytes"
	"fmt"
)

const (
	UserDepositAccountSize = (8 + // discriminator
		8) // balance
)

// sha256("account:UserDeposit")[:8]
var UserDepositAccountDiscriminator = []byte{69, 238, 23, 217, 255, 137, 185, 35}

type UserDepositAccount struct {
	Balance uint64
}

func (obj *UserDepositAccount) Unmarshal(data []byte) error {
	if len(data) < UserDepositAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, UserDepositAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getUint64(data, &obj.Balance, &offset)

	return nil
}

func (obj *UserDepositAccount) Marshal() []byte {
	data := make([]byte, UserDepositAccountSize)

	var offset int
	putDiscriminator(data, UserDepositAccountDiscriminator, &offset)
	putUint64(data, obj.Balance, &offset)

	return data
}

func (obj *UserDepositAccount) String() string {
	return fmt.Sprintf("UserDepositAccount{balance=%d}", obj.Balance)
}
