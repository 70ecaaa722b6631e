package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordSetPromotesToList(t *testing.T) {
	rec := Map()
	rec.Set("image", Value("a.jpg"))
	assert.Equal(t, KindValue, rec.Get("image").Kind())

	// A second element with the same name collapses into a list,
	// like repeated XML elements.
	rec.Set("image", Value("b.jpg"))
	assert.Equal(t, KindList, rec.Get("image").Kind())

	items := rec.Get("image").Items()
	assert.Len(t, items, 2)
	assert.Equal(t, "a.jpg", items[0].Text())
	assert.Equal(t, "b.jpg", items[1].Text())

	rec.Set("image", Value("c.jpg"))
	assert.Len(t, rec.Get("image").Items(), 3)
}

func TestRecordAccessorsAreTotal(t *testing.T) {
	var nilRec *Record

	assert.Equal(t, "", nilRec.Text())
	assert.Equal(t, "", nilRec.Str("anything"))
	assert.Nil(t, nilRec.Get("anything"))
	assert.Nil(t, nilRec.Items())
	assert.Equal(t, 0, nilRec.Len())

	leaf := Value("x")
	assert.Nil(t, leaf.Get("child"))
	assert.Equal(t, "", leaf.Str("child"))

	// Items on a non-list behaves as a single-element list.
	assert.Len(t, leaf.Items(), 1)
}

func TestFromRow(t *testing.T) {
	header := []string{"productCode", "language", "name"}
	row := []string{"P1", "it", "Penna"}

	rec := FromRow(header, row)
	assert.Equal(t, "P1", rec.Str("productCode"))
	assert.Equal(t, "it", rec.Str("language"))
	assert.Equal(t, "Penna", rec.Str("name"))

	// Short rows must not panic.
	short := FromRow(header, []string{"P2"})
	assert.Equal(t, "P2", short.Str("productCode"))
	assert.Equal(t, "", short.Str("name"))
}

func TestFromJSON(t *testing.T) {
	src := map[string]any{
		"sku":   "X1",
		"qty":   float64(5),
		"price": 12.5,
		"scale": []any{
			map[string]any{"minimum_quantity": float64(10), "price": 9.9},
		},
		"printable": true,
		"missing":   nil,
	}

	rec := FromJSON(src)
	assert.Equal(t, "X1", rec.Str("sku"))
	assert.Equal(t, "5", rec.Str("qty"))
	assert.Equal(t, "12.5", rec.Str("price"))
	assert.Equal(t, "true", rec.Str("printable"))
	assert.Equal(t, "", rec.Str("missing"))

	scale := rec.Get("scale").Items()
	assert.Len(t, scale, 1)
	assert.Equal(t, "10", scale[0].Str("minimum_quantity"))
}
