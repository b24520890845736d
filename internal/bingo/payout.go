package bingo

import "github.com/shopspring/decimal"

var (
	// winnerShare is the fraction of the pot paid to the winner.
	winnerShare = decimal.RequireFromString("0.8")
	// afterServiceCharge removes the 3% service charge.
	afterServiceCharge = decimal.RequireFromString("0.97")
)

// Payout returns floor(pot * 0.8 * 0.97), computed exactly.
func Payout(pot int64) int64 {
	return decimal.NewFromInt(pot).
		Mul(winnerShare).
		Mul(afterServiceCharge).
		Floor().
		IntPart()
}
