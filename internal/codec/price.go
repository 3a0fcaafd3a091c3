package codec

import (
	"bytes"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/schema"
	"main/pkg/framing"
)

// AppendPricePoint appends one SYMBOL,PRICE record to dst with the
// price formatted to exactly two decimals.
func AppendPricePoint(dst []byte, p schema.PricePoint) []byte {
	dst = append(dst, p.Symbol...)
	dst = append(dst, ',')
	return append(dst, decimal.NewFromFloat(p.Price).StringFixed(2)...)
}

// AppendPriceTick appends one framed record per price point to dst.
// The concatenation is byte-identical to a whole batch joined by the
// delimiter, but framing each record on its own leaves nothing for a
// receiver to mis-split when the same byte separates records.
func AppendPriceTick(dst []byte, points []schema.PricePoint) []byte {
	for _, p := range points {
		dst = AppendPricePoint(dst, p)
		dst = append(dst, framing.Delimiter)
	}
	return dst
}

// ParsePricePoint parses one SYMBOL,PRICE record.
func ParsePricePoint(src []byte) (schema.PricePoint, error) {
	i := bytes.IndexByte(src, ',')
	if i < 0 {
		return schema.PricePoint{}, errors.New("price record missing separator")
	}
	symbol := string(src[:i])
	if symbol == "" {
		return schema.PricePoint{}, errors.New("price record missing symbol")
	}
	price, err := strconv.ParseFloat(string(src[i+1:]), 64)
	if err != nil {
		return schema.PricePoint{}, errors.Wrap(err, "parse price")
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return schema.PricePoint{}, errors.Errorf("price not finite: %s", src[i+1:])
	}
	return schema.PricePoint{Symbol: symbol, Price: price}, nil
}
