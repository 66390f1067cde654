package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// 金額在傳輸層是十進位字串 (如 "100.50")，
// 進核心前一律轉成 int64 最小貨幣單位，核心永遠不碰浮點數

var (
	// ErrInvalidAmountFormat 金額字串無法解析
	ErrInvalidAmountFormat = errors.New("invalid amount format")

	// ErrTooManyDecimalPlaces 小數位數超過貨幣精度
	ErrTooManyDecimalPlaces = errors.New("too many decimal places")
)

// 貨幣精度的唯一定義處，核心的最小單位換算由此推導
const (
	// Scale 小數位數
	Scale = 2
	// MinorUnits 每一元對應的最小貨幣單位數 (10^Scale)
	MinorUnits = 100
)

// Parse 解析十進位金額字串為最小貨幣單位
// 不做正負驗證 (金額 <= 0 由核心用 ErrAmountMustBePositive 拒絕)
//
// 範例:
//
//	"100.50" => 10050
//	"0.005"  => ErrTooManyDecimalPlaces
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmountFormat
	}
	return FromDecimal(d)
}

// FromDecimal 轉換 decimal.Decimal 為最小貨幣單位
func FromDecimal(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(Scale)
	if !shifted.IsInteger() {
		return 0, ErrTooManyDecimalPlaces
	}
	if !shifted.BigInt().IsInt64() {
		return 0, ErrInvalidAmountFormat
	}
	return shifted.IntPart(), nil
}

// Format 轉最小貨幣單位回十進位字串，固定兩位小數
//
// 範例:
//
//	10050 => "100.50"
func Format(minor int64) string {
	return decimal.New(minor, -Scale).StringFixed(Scale)
}
