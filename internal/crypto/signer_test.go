package crypto

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known throwaway key (hardhat account #0). Never holds funds.
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testOrder() OrderPayload {
	return OrderPayload{
		Salt:          "479249096354",
		Maker:         "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Signer:        "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       "71321045679252212594626385532706912750332728571942532289631379312455583992563",
		MakerAmount:   "50000000",
		TakerAmount:   "100000000",
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          0,
		SignatureType: 0,
	}
}

func TestNewSignerDerivesAddress(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), s.Address())

	prefixed, err := NewSigner("0x"+testKeyHex, 137)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), prefixed.Address())
}

func TestNewSignerRejectsBadKey(t *testing.T) {
	_, err := NewSigner("not-a-key", 137)
	require.Error(t, err)
}

func TestSignAuthMessage(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)

	sig, err := s.SignAuthMessage(s.Address().Hex(), 1756700000, 0)
	require.NoError(t, err)

	// 0x + 65 bytes of r||s||v.
	require.Len(t, sig, 132)
	assert.Equal(t, "0x", sig[:2])
	v := sig[len(sig)-2:]
	assert.Contains(t, []string{"1b", "1c"}, v)

	// ECDSA here uses a deterministic nonce, so re-signing matches.
	again, err := s.SignAuthMessage(s.Address().Hex(), 1756700000, 0)
	require.NoError(t, err)
	assert.Equal(t, sig, again)

	other, err := s.SignAuthMessage(s.Address().Hex(), 1756700001, 0)
	require.NoError(t, err)
	assert.NotEqual(t, sig, other)
}

func TestSignOrder(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)

	sig, err := s.SignOrder(testOrder())
	require.NoError(t, err)
	require.Len(t, sig, 132)

	flipped := testOrder()
	flipped.Side = 1
	other, err := s.SignOrder(flipped)
	require.NoError(t, err)
	assert.NotEqual(t, sig, other)
}

func TestSignOrderRejectsBadNumericField(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)

	bad := testOrder()
	bad.Salt = "0xdeadbeef"
	_, err = s.SignOrder(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salt")
}

func TestChainIDChangesDomain(t *testing.T) {
	mainnet, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)
	amoy, err := NewSigner(testKeyHex, 80002)
	require.NoError(t, err)

	a, err := mainnet.SignOrder(testOrder())
	require.NoError(t, err)
	b, err := amoy.SignOrder(testOrder())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestU256Width(t *testing.T) {
	assert.Len(t, u256(big.NewInt(0)), 32)
	assert.Len(t, u256(new(big.Int).Lsh(big.NewInt(1), 300)), 32)
}
