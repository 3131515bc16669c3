package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask("  "))
	assert.Equal(t, "****", Mask("abcd"))
	assert.Equal(t, "****wxyz", Mask("s3cr3t-wxyz"))
}

func TestMaskFields(t *testing.T) {
	in := map[string]any{"client_id": "acme", "client_secret": "s3cr3t-wxyz", "attempts": 3}

	out := MaskFields(in, "client_secret", "attempts")

	assert.Equal(t, "acme", out["client_id"])
	assert.Equal(t, "****wxyz", out["client_secret"])
	assert.Equal(t, 3, out["attempts"])
	assert.Equal(t, "s3cr3t-wxyz", in["client_secret"])
	assert.Nil(t, MaskFields(nil))
}
