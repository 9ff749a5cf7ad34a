package click

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Signature computes the Click callback signature: the md5 hex digest of the
// ordered concatenation fixed by the provider contract. All operands are the
// raw form values, not parsed numbers.
func Signature(secret, transID, serviceID, merchantTransID, amount, action, signTime string) string {
	sum := md5.Sum([]byte(transID + serviceID + secret + merchantTransID + amount + action + signTime))
	return hex.EncodeToString(sum[:])
}

// VerifySignature compares the provider-sent sign_string in constant time.
func VerifySignature(secret, transID, serviceID, merchantTransID, amount, action, signTime, signString string) bool {
	expected := Signature(secret, transID, serviceID, merchantTransID, amount, action, signTime)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signString))) == 1
}
