package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Amount is a non-negative integer in the contract's smallest unit
// (yoctoNEAR for rates and deposits). It never goes through float64.
type Amount struct {
	digits string
}

func ParseAmount(raw string) (Amount, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Amount{}, fmt.Errorf("amount is empty")
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return Amount{}, fmt.Errorf("amount %q is not a non-negative integer", raw)
		}
	}

	n, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return Amount{}, fmt.Errorf("amount %q is not a non-negative integer", raw)
	}

	return Amount{digits: n.String()}, nil
}

func MustAmount(raw string) Amount {
	a, err := ParseAmount(raw)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) String() string {
	if a.digits == "" {
		return "0"
	}
	return a.digits
}

func (a Amount) IsZero() bool {
	return a.digits == "" || a.digits == "0"
}

// Mul returns a*n without overflow.
func (a Amount) Mul(n uint64) Amount {
	value, _ := new(big.Int).SetString(a.String(), 10)
	value.Mul(value, new(big.Int).SetUint64(n))
	return Amount{digits: value.String()}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both "123" and 123; u128 values routinely exceed
// float64 precision so bare numbers are taken from their literal text.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
