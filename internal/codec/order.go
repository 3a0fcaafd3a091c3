package codec

import (
	"encoding/json"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// EncodeOrderIntent appends the intent's JSON form to dst.
func EncodeOrderIntent(dst []byte, intent schema.OrderIntent) ([]byte, error) {
	payload, err := json.Marshal(intent)
	if err != nil {
		return dst, errors.Wrap(err, "marshal order intent")
	}
	return append(dst, payload...), nil
}

// DecodeOrderIntent parses and validates an order intent payload.
func DecodeOrderIntent(src []byte) (schema.OrderIntent, error) {
	var intent schema.OrderIntent
	if err := json.Unmarshal(src, &intent); err != nil {
		return schema.OrderIntent{}, errors.Wrap(err, "unmarshal order intent")
	}
	if intent.Symbol == "" {
		return schema.OrderIntent{}, errors.New("order intent missing symbol")
	}
	if intent.Side != schema.SideBuy && intent.Side != schema.SideSell {
		return schema.OrderIntent{}, errors.Errorf("order intent invalid side: %q", intent.Side)
	}
	if intent.Quantity <= 0 {
		return schema.OrderIntent{}, errors.Errorf("order intent invalid quantity: %d", intent.Quantity)
	}
	return intent, nil
}
