package vault

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-vault/pkg/cache"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

const (
	addressCacheBudget = 1024

	vaultAddressKey = "vault"
)

// addressBook derives the vault program addresses, remembering the result
// since finding a bump can take many hash attempts.
type addressBook struct {
	program ed25519.PublicKey
	cache   cache.Cache[ed25519.PublicKey]
}

func newAddressBook(program ed25519.PublicKey) *addressBook {
	return &addressBook{
		program: vault_program.ProgramOrDefault(program),
		cache:   cache.New[ed25519.PublicKey](addressCacheBudget),
	}
}

func (b *addressBook) userDeposit(user ed25519.PublicKey) (ed25519.PublicKey, error) {
	return b.derive("user_deposit:"+base58.Encode(user), func() (ed25519.PublicKey, error) {
		address, _, err := vault_program.GetUserDepositAddress(&vault_program.GetUserDepositAddressArgs{
			Program: b.program,
			User:    user,
		})
		return address, err
	})
}

func (b *addressBook) vault() (ed25519.PublicKey, error) {
	return b.derive(vaultAddressKey, func() (ed25519.PublicKey, error) {
		address, _, err := vault_program.GetVaultAddress(&vault_program.GetVaultAddressArgs{
			Program: b.program,
		})
		return address, err
	})
}

func (b *addressBook) derive(key string, find func() (ed25519.PublicKey, error)) (ed25519.PublicKey, error) {
	if address, ok := b.cache.Retrieve(key); ok {
		return address, nil
	}

	address, err := find()
	if err != nil {
		return nil, err
	}

	// A concurrent caller may have inserted it first, which is fine
	_ = b.cache.Insert(key, address, 1)
	return address, nil
}
