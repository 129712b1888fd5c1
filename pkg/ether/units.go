package ether

import (
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

var weiPerEther = new(big.Float).SetInt(big.NewInt(params.Ether))

// WeiToEther converts an amount of wei into whole-ether units.
//
// The division happens on arbitrary precision floats; precision is only lost
// at the final conversion to float64.
//
func WeiToEther(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}

	v, _ := new(big.Float).
		SetPrec(256).
		Quo(new(big.Float).SetInt(wei), weiPerEther).
		Float64()

	return v
}
