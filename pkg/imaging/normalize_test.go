package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePixels() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	return img
}

func TestNormalizeJPEGToPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, samplePixels(), nil))

	out, err := NormalizeToPNG(buf.Bytes())
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 8, decoded.Bounds().Dx())
}

func TestNormalizePNGIsStable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, samplePixels()))

	first, err := NormalizeToPNG(buf.Bytes())
	require.NoError(t, err)
	second, err := NormalizeToPNG(buf.Bytes())
	require.NoError(t, err)

	// 同样的输入必须得到同样的字节，存储路径才是确定性的
	assert.Equal(t, first, second)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := NormalizeToPNG([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupported)
}
