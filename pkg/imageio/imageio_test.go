package imageio

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linerestore/internal/models"
)

// createTestImage creates a grayscale test image with the given pattern
func createTestImage(width, height int, pattern func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: pattern(x, y)})
		}
	}
	return img
}

// TestSaveAndLoad writes lossless formats and reads them back
func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	img := createTestImage(12, 7, func(x, y int) uint8 { return uint8(x*20 + y) })
	want := ToGray(img)

	for _, ext := range []string{"png", "tif", "bmp"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "out", "img."+ext)
			require.NoError(t, Save(img, path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.True(t, want.Equal(ToGray(loaded)))
		})
	}

	assert.Error(t, Save(img, filepath.Join(dir, "img.xyz")))
	_, err := Load(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

// TestArrayConversion converts gray and color images to arrays and back
func TestArrayConversion(t *testing.T) {
	gray := createTestImage(4, 3, func(x, y int) uint8 { return uint8(10*x + y) })
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 3))
	rgba.SetRGBA(1, 2, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	assert.True(t, IsGray(gray))
	assert.False(t, IsGray(rgba))

	a, b := ToArrays(gray, gray)
	assert.Equal(t, 1, a.Channels)
	assert.Equal(t, 1, b.Channels)
	assert.Equal(t, int32(21), a.At(1, 2, 0))

	a, b = ToArrays(gray, rgba)
	assert.Equal(t, 3, a.Channels)
	assert.Equal(t, 3, b.Channels)
	assert.Equal(t, []int32{200, 100, 50}, b.Pixel(2, 1))
	assert.Equal(t, []int32{21, 21, 21}, a.Pixel(1, 2))

	img, err := ToImage(b)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, img.At(1, 2))

	arr := models.NewPixelArray(1, 2, 1)
	arr.Set(0, 0, 0, -5)
	arr.Set(0, 1, 0, 300)
	img, err = ToImage(arr)
	require.NoError(t, err)
	assert.Equal(t, color.Gray{Y: 0}, img.At(0, 0))
	assert.Equal(t, color.Gray{Y: 255}, img.At(1, 0))

	_, err = ToImage(models.NewPixelArray(1, 1, 2))
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "scans/page1_recovered.png", OutputPath("scans/page1.tif", "_recovered", "png"))
	assert.Equal(t, "page_tagged.jpg", OutputPath("page", "_tagged", ".jpg"))
}
