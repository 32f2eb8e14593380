package ocr

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestNormalizeWithinBoundUnchanged(t *testing.T) {
	src := testImage(800, 600)
	out := Normalize(src, 1024)
	assert.Equal(t, src.Bounds(), out.Bounds())
}

func TestNormalizeScalesLongestAxisToBound(t *testing.T) {
	out := Normalize(testImage(2048, 1536), 1024)
	b := out.Bounds()
	assert.Equal(t, 1024, b.Dx())
	assert.Equal(t, 768, b.Dy())
}

func TestNormalizePreservesAspectRatio(t *testing.T) {
	out := Normalize(testImage(3000, 1000), 1024)
	b := out.Bounds()
	assert.Equal(t, 1024, b.Dx())
	// 1000/3000 * 1024 = 341.33; allow 1px rounding.
	assert.InDelta(t, 341, b.Dy(), 1)
}

func TestNormalizePortrait(t *testing.T) {
	out := Normalize(testImage(600, 1600), 1024)
	b := out.Bounds()
	assert.Equal(t, 1024, b.Dy())
	assert.Equal(t, 384, b.Dx())
}

func TestDataURLRoundTrip(t *testing.T) {
	url, err := DataURL(testImage(10, 20), DefaultJPEGQuality)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/jpeg;base64,"))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 10, decoded.Bounds().Dx())
	assert.Equal(t, 20, decoded.Bounds().Dy())
}

func TestPrepareDecodesAndBounds(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(2000, 500), nil))

	url, err := Prepare(&buf, 1024, DefaultJPEGQuality)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	decoded, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 1024, decoded.Bounds().Dx())
	assert.Equal(t, 256, decoded.Bounds().Dy())
}

func TestPrepareRejectsGarbage(t *testing.T) {
	_, err := Prepare(strings.NewReader("definitely not an image"), 1024, DefaultJPEGQuality)
	assert.Error(t, err)
}
