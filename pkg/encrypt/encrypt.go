package encrypt

import (
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// 定義錯誤信息
var (
	ErrInvalidAddress  = errors.New("address must be 0x followed by 40 hex characters")
	ErrAddressChecksum = errors.New("address checksum mismatch")
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Keccak256 returns the legacy Keccak-256 digest used by Ethereum
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// ChecksumAddress converts a 0x-prefixed hex address to its EIP-55 mixed-case form.
// The input must already be a well-formed address.
func ChecksumAddress(addr string) string {
	lower := strings.ToLower(strings.TrimPrefix(addr, "0x"))
	hash := hex.EncodeToString(Keccak256([]byte(lower)))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && hash[i] >= '8' {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}

// ValidateAddress 驗證 EVM 地址並回傳 checksum 格式.
// All-lower or all-upper hex is accepted as is; mixed case must match EIP-55.
func ValidateAddress(addr string) (string, error) {
	if !addressPattern.MatchString(addr) {
		return "", ErrInvalidAddress
	}
	body := addr[2:]
	checksummed := ChecksumAddress(addr)
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return checksummed, nil
	}
	if checksummed != addr {
		return "", ErrAddressChecksum
	}
	return checksummed, nil
}
