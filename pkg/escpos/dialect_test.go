package escpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDialect(t *testing.T) {
	testCases := []struct {
		name string
		want Dialect
	}{
		{"snbc", SNBC},
		{"SNBC", SNBC},
		{" snbc ", SNBC},
		{"p3", CustomP3},
		{"custom", CustomP3},
		{"customp3", CustomP3},
		{"epic", Epic},
		{"transact", Epic},
		{"", Unknown},
		{"star", Unknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseDialect(tc.name))
		})
	}
}

func TestDialectFromVendor(t *testing.T) {
	assert.Equal(t, SNBC, DialectFromVendor("SNBC Co., Ltd."))
	assert.Equal(t, CustomP3, DialectFromVendor("Custom SpA"))
	assert.Equal(t, Epic, DialectFromVendor("TransAct Technologies"))
	assert.Equal(t, Unknown, DialectFromVendor("Star Micronics"))
	assert.Equal(t, Unknown, DialectFromVendor(""))
}

func TestDialectFromIDs(t *testing.T) {
	d, ok := DialectFromIDs(0x154f, 0x154f)
	assert.True(t, ok)
	assert.Equal(t, SNBC, d)

	_, ok = DialectFromIDs(0x04b8, 0x0202)
	assert.False(t, ok)
}

func TestDialectString(t *testing.T) {
	assert.Equal(t, "snbc", SNBC.String())
	assert.Equal(t, "p3", CustomP3.String())
	assert.Equal(t, "epic", Epic.String())
	assert.Equal(t, "unknown", Unknown.String())
	assert.Equal(t, "unknown", Dialect(99).String())
}

func TestDialectCapabilities(t *testing.T) {
	assert.True(t, SNBC.HasStatusBack())
	assert.False(t, CustomP3.HasStatusBack())
	assert.False(t, Epic.HasStatusBack())

	assert.True(t, SNBC.HasFullCut())
	assert.False(t, CustomP3.HasFullCut())
	assert.True(t, Epic.HasFullCut())
	assert.False(t, Unknown.HasFullCut())
}
