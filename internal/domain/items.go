package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrMissingItems is returned when a cart sale carries no item snapshot.
var ErrMissingItems = errors.New("sale has no items")

// ParseCartItems decodes a stored item snapshot. Older rows hold the cart
// as JSON text, newer ones as an embedded array; numeric fields may be
// strings in either form. Legacy keys (product_id, food_id,
// selling_price, cost) are understood.
func ParseCartItems(raw interface{}) ([]CartItem, error) {
	switch v := raw.(type) {
	case nil:
		return nil, ErrMissingItems
	case []CartItem:
		return v, nil
	case string:
		return parseItemsText([]byte(v))
	case []byte:
		return parseItemsText(v)
	case json.RawMessage:
		return parseItemsText(v)
	case primitive.A:
		return parseItemList([]interface{}(v))
	case []interface{}:
		return parseItemList(v)
	case []map[string]interface{}:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return parseItemList(out)
	default:
		return nil, fmt.Errorf("unsupported items payload of type %T", raw)
	}
}

func parseItemsText(b []byte) ([]CartItem, error) {
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, ErrMissingItems
	}
	var list []interface{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("decode items text: %w", err)
	}
	return parseItemList(list)
}

func parseItemList(list []interface{}) ([]CartItem, error) {
	if len(list) == 0 {
		return nil, ErrMissingItems
	}
	items := make([]CartItem, 0, len(list))
	for i, el := range list {
		m, err := itemMap(el)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		it, err := itemFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func itemMap(el interface{}) (map[string]interface{}, error) {
	switch v := el.(type) {
	case map[string]interface{}:
		return v, nil
	case primitive.M:
		return map[string]interface{}(v), nil
	case primitive.D:
		m := make(map[string]interface{}, len(v))
		for _, e := range v {
			m[e.Key] = e.Value
		}
		return m, nil
	default:
		m, err := cast.ToStringMapE(el)
		if err != nil {
			return nil, fmt.Errorf("not an object: %T", el)
		}
		return m, nil
	}
}

func firstPresent(m map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func floatField(m map[string]interface{}, keys ...string) (float64, error) {
	v, ok := firstPresent(m, keys...)
	if !ok {
		return 0, nil
	}
	if s, isStr := v.(string); isStr {
		v = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", keys[0], err)
	}
	return f, nil
}

func itemFromMap(m map[string]interface{}) (CartItem, error) {
	name := cast.ToString(m["name"])
	if name == "" {
		return CartItem{}, errors.New("item without name")
	}
	var it CartItem
	it.Name = name
	if ref, ok := firstPresent(m, "ref_id", "product_id", "food_id"); ok {
		it.RefID = cast.ToString(ref)
	}
	var err error
	if it.UnitPrice, err = floatField(m, "unit_price", "selling_price", "cost"); err != nil {
		return CartItem{}, err
	}
	if it.CostPrice, err = floatField(m, "cost_price"); err != nil {
		return CartItem{}, err
	}
	if it.MRP, err = floatField(m, "mrp"); err != nil {
		return CartItem{}, err
	}
	if it.Tax, err = floatField(m, "tax"); err != nil {
		return CartItem{}, err
	}
	qty, err := floatField(m, "quantity")
	if err != nil {
		return CartItem{}, err
	}
	if qty != math.Trunc(qty) {
		return CartItem{}, fmt.Errorf("fractional quantity %v", qty)
	}
	it.Quantity = int(qty)
	if it.Quantity < 1 {
		return CartItem{}, ErrInvalidQuantity
	}
	return it, nil
}
