package chain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeTickBits interprets an on-chain I32 bit pattern as a signed tick.
func DecodeTickBits(bits uint32) int {
	return int(int32(bits))
}

// EncodeTickBits converts a signed tick to its I32 bit pattern.
func EncodeTickBits(tick int) uint32 {
	return uint32(int32(tick))
}

// poolTypeArgs extracts the two coin type arguments from a pool object type
// such as "0xabc::pool::Pool<0x2::sui::SUI, 0xdef::usdc::USDC>".
func poolTypeArgs(objectType string) (string, string, error) {
	open := strings.Index(objectType, "<")
	close := strings.LastIndex(objectType, ">")
	if open < 0 || close <= open {
		return "", "", fmt.Errorf("object type %q has no type arguments", objectType)
	}

	inner := objectType[open+1 : close]
	parts := splitTypeArgs(inner)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("object type %q: expected 2 type arguments, got %d", objectType, len(parts))
	}
	return normalizeCoinType(parts[0]), normalizeCoinType(parts[1]), nil
}

// splitTypeArgs splits comma-separated type arguments at the top nesting
// level only, so generic arguments with their own brackets stay intact.
func splitTypeArgs(inner string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range inner {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(inner[start:]))
	return parts
}

// normalizeCoinType ensures a coin type carries its 0x address prefix.
// Object field names come back without it.
func normalizeCoinType(coinType string) string {
	coinType = strings.TrimSpace(coinType)
	if coinType == "" || strings.HasPrefix(coinType, "0x") {
		return coinType
	}
	return "0x" + coinType
}

// nativeCoinSuffix is the module path of the gas-paying coin. The address
// part may be short ("0x2") or fully padded depending on the source, so only
// the suffix is compared.
const nativeCoinSuffix = "::sui::SUI"

// IsNativeCoin reports whether a coin type is the gas-paying coin.
func IsNativeCoin(coinType string) bool {
	return strings.HasSuffix(coinType, nativeCoinSuffix)
}

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
