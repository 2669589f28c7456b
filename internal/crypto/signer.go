package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Keccak256 hashes of the canonical EIP-712 type strings the exchange leg
// signs against. The type strings must match the exchange contracts byte
// for byte.
var (
	typeHashDomain = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId)"),
	)
	typeHashAuth = ethcrypto.Keccak256(
		[]byte("ClobAuth(address address,uint256 timestamp,uint256 nonce)"),
	)
	typeHashOrder = ethcrypto.Keccak256(
		[]byte("Order(uint256 salt,address maker,address signer,address taker,uint256 tokenId,uint256 makerAmount,uint256 takerAmount,uint256 expiration,uint256 nonce,uint256 feeRateBps,uint8 side,uint8 signatureType)"),
	)
)

// OrderPayload is the signable body of one exchange-leg order. Addresses
// and uint256 values travel as strings so JSON round-trips never lose
// precision.
type OrderPayload struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          int    `json:"side"`          // 0 = BUY, 1 = SELL
	SignatureType int    `json:"signatureType"` // 0 = EOA
}

// Signer signs the EIP-712 payloads the exchange leg needs: the auth
// message that derives an API key and the orders themselves. One Signer
// wraps the hedge wallet for the lifetime of the process.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address

	// Domain separators are fixed per chain, so both are derived once.
	authDomain  []byte
	orderDomain []byte
}

// NewSigner derives the hedge wallet from a hex private key. chainID is
// 137 for Polygon mainnet, 80002 for the Amoy testnet.
func NewSigner(privateKeyHex string, chainID int) (*Signer, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: invalid private key: %w", err)
	}

	sep := domainSeparator("ClobAuthDomain", "1", chainID)
	return &Signer{
		key:         key,
		address:     ethcrypto.PubkeyToAddress(key.PublicKey),
		authDomain:  sep,
		orderDomain: sep,
	}, nil
}

// Address returns the hedge wallet address.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignAuthMessage signs the ClobAuth message used to derive an exchange
// API key. Returns a 65-byte r||s||v signature, hex encoded.
func (s *Signer) SignAuthMessage(address string, timestamp, nonce int64) (string, error) {
	structHash := ethcrypto.Keccak256(
		typeHashAuth,
		common.LeftPadBytes(common.HexToAddress(address).Bytes(), 32),
		u256(big.NewInt(timestamp)),
		u256(big.NewInt(nonce)),
	)
	return s.sign(typedDataDigest(s.authDomain, structHash))
}

// SignOrder signs one exchange-leg order.
func (s *Signer) SignOrder(order OrderPayload) (string, error) {
	structHash, err := orderStructHash(order)
	if err != nil {
		return "", err
	}
	return s.sign(typedDataDigest(s.orderDomain, structHash))
}

// domainSeparator is keccak256(typeHash || nameHash || versionHash || chainId).
func domainSeparator(name, version string, chainID int) []byte {
	return ethcrypto.Keccak256(
		typeHashDomain,
		ethcrypto.Keccak256([]byte(name)),
		ethcrypto.Keccak256([]byte(version)),
		u256(big.NewInt(int64(chainID))),
	)
}

// typedDataDigest is keccak256("\x19\x01" || domainSeparator || structHash).
func typedDataDigest(domain, structHash []byte) []byte {
	return ethcrypto.Keccak256([]byte{0x19, 0x01}, domain, structHash)
}

func (s *Signer) sign(digest []byte) (string, error) {
	sig, err := ethcrypto.Sign(digest, s.key)
	if err != nil {
		return "", fmt.Errorf("crypto/signer: signing: %w", err)
	}
	// go-ethereum yields v in {0,1}; the exchange verifies v in {27,28}.
	if sig[64] < 27 {
		sig[64] += 27
	}
	return "0x" + hex.EncodeToString(sig), nil
}

func orderStructHash(o OrderPayload) ([]byte, error) {
	words := make([][]byte, 0, 13)
	words = append(words, typeHashOrder)

	salt, err := decimalWord("salt", o.Salt)
	if err != nil {
		return nil, err
	}
	words = append(words, salt)

	for _, addr := range []string{o.Maker, o.Signer, o.Taker} {
		words = append(words, common.LeftPadBytes(common.HexToAddress(addr).Bytes(), 32))
	}

	for _, f := range []struct {
		name  string
		value string
	}{
		{"tokenId", o.TokenID},
		{"makerAmount", o.MakerAmount},
		{"takerAmount", o.TakerAmount},
		{"expiration", o.Expiration},
		{"nonce", o.Nonce},
		{"feeRateBps", o.FeeRateBps},
	} {
		w, err := decimalWord(f.name, f.value)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}

	words = append(words,
		u256(big.NewInt(int64(o.Side))),
		u256(big.NewInt(int64(o.SignatureType))),
	)
	return ethcrypto.Keccak256(words...), nil
}

// decimalWord parses a base-10 uint256 field into its 32-byte ABI word.
func decimalWord(field, value string) ([]byte, error) {
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("crypto/signer: invalid %s %q", field, value)
	}
	return u256(n), nil
}

// u256 is the 32-byte big-endian ABI encoding of n.
func u256(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	return common.LeftPadBytes(b, 32)
}
