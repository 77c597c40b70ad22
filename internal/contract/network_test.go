package contract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"smartcontract-gateway.backend/internal/contract"
)

func TestParseBlockTag(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "latest"},
		{raw: "latest", want: "latest"},
		{raw: " Pending ", want: "pending"},
		{raw: "earliest", want: "earliest"},
		{raw: "0x10", want: "0x10"},
		{raw: "255", want: "0xff"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			tag, err := contract.ParseBlockTag(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tag.String())
		})
	}

	for _, raw := range []string{"finalized-ish", "-1", "0xzz"} {
		_, err := contract.ParseBlockTag(raw)
		assert.Error(t, err, raw)
	}
}

func TestBlockTag_ZeroValueIsLatest(t *testing.T) {
	var tag contract.BlockTag
	assert.Equal(t, "latest", tag.String())
	assert.Equal(t, "0x0", contract.BlockNumber(0).String())
}
