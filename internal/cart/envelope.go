package cart

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Envelope is the persisted cart shape: {"state":{"items":[...]},"version":n}.
// Version is carried through untouched; old shapes are not migrated.
type Envelope struct {
	Items   []Item
	Version int
}

type wireItem struct {
	BranchID     string      `json:"branchId"`
	VariantID    string      `json:"variantId"`
	ProductName  string      `json:"productName"`
	VariantLabel string      `json:"variantLabel"`
	UnitPrice    json.Number `json:"unitPrice"`
	Qty          int         `json:"qty"`
	ImageURL     *string     `json:"imageUrl,omitempty"`
}

type wireEnvelope struct {
	State struct {
		Items []wireItem `json:"items"`
	} `json:"state"`
	Version int `json:"version"`
}

// EncodeEnvelope renders env in the persisted shape with unitPrice as a JSON number.
func EncodeEnvelope(env Envelope) ([]byte, error) {
	var out wireEnvelope
	out.Version = env.Version
	out.State.Items = make([]wireItem, 0, len(env.Items))
	for _, it := range env.Items {
		out.State.Items = append(out.State.Items, wireItem{
			BranchID:     it.BranchID,
			VariantID:    it.VariantID,
			ProductName:  it.ProductName,
			VariantLabel: it.VariantLabel,
			UnitPrice:    json.Number(it.UnitPrice.String()),
			Qty:          it.Qty,
			ImageURL:     it.ImageURL,
		})
	}
	return json.Marshal(out)
}

// DecodeEnvelope never fails: unparseable input yields an empty envelope and every
// entry that does not match the item shape is dropped on its own.
func DecodeEnvelope(raw []byte) Envelope {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return Envelope{}
	}
	doc := gjson.ParseBytes(raw)

	var env Envelope
	if v := doc.Get("version"); v.Type == gjson.Number {
		env.Version = int(v.Int())
	}

	items := doc.Get("state.items")
	if !items.IsArray() {
		return env
	}
	items.ForEach(func(_, entry gjson.Result) bool {
		if item, ok := decodeItem(entry); ok {
			env.Items = append(env.Items, item)
		}
		return true
	})
	return env
}

func decodeItem(entry gjson.Result) (Item, bool) {
	if !entry.IsObject() {
		return Item{}, false
	}

	var item Item
	for key, dst := range map[string]*string{
		"branchId":     &item.BranchID,
		"variantId":    &item.VariantID,
		"productName":  &item.ProductName,
		"variantLabel": &item.VariantLabel,
	} {
		v := entry.Get(key)
		if v.Type != gjson.String {
			return Item{}, false
		}
		*dst = v.Str
	}
	if item.BranchID == "" || item.VariantID == "" {
		return Item{}, false
	}

	price := entry.Get("unitPrice")
	if price.Type != gjson.Number {
		return Item{}, false
	}
	unitPrice, err := decimal.NewFromString(price.Raw)
	if err != nil {
		return Item{}, false
	}
	item.UnitPrice = unitPrice

	qty := entry.Get("qty")
	if qty.Type != gjson.Number || qty.Num != math.Trunc(qty.Num) || qty.Num < 1 {
		return Item{}, false
	}
	item.Qty = int(qty.Int())

	switch img := entry.Get("imageUrl"); img.Type {
	case gjson.String:
		url := img.Str
		item.ImageURL = &url
	case gjson.Null:
	default:
		return Item{}, false
	}

	return item, true
}
