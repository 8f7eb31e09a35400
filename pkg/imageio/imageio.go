// Package imageio loads and writes the scanned images and converts between
// image.Image and the 8-bit sample arrays used by the restoration pipeline.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"linerestore/internal/models"
)

// Load decodes an image file. PNG, JPEG, GIF, TIFF, BMP and WebP are supported.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// Save encodes img using the format implied by the file extension.
func Save(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		err = png.Encode(file, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 95})
	case ".tif", ".tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	case ".bmp":
		err = bmp.Encode(file, img)
	default:
		err = fmt.Errorf("unsupported output format %q", ext)
	}
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}

// IsGray reports whether img stores a single gray channel.
func IsGray(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return true
	}
	return false
}

// ToGray converts img to a single-channel array of 8-bit luma.
func ToGray(img image.Image) *models.PixelArray {
	b := img.Bounds()
	arr := models.NewPixelArray(b.Dy(), b.Dx(), 1)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			arr.Set(y, x, 0, int32(g.Y))
		}
	}
	return arr
}

// ToRGB converts img to a three-channel array of 8-bit samples; alpha is dropped.
func ToRGB(img image.Image) *models.PixelArray {
	b := img.Bounds()
	arr := models.NewPixelArray(b.Dy(), b.Dx(), 3)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			arr.SetPixel(y, x, []int32{int32(c.R), int32(c.G), int32(c.B)})
		}
	}
	return arr
}

// ToArrays converts the damaged and reference images to arrays with a shared
// channel count: gray when both are gray, RGB otherwise.
func ToArrays(damaged, reference image.Image) (*models.PixelArray, *models.PixelArray) {
	if IsGray(damaged) && IsGray(reference) {
		return ToGray(damaged), ToGray(reference)
	}
	return ToRGB(damaged), ToRGB(reference)
}

// ToImage converts a 1- or 3-channel array back to an image, clamping samples
// to [0, 255].
func ToImage(arr *models.PixelArray) (image.Image, error) {
	rect := image.Rect(0, 0, arr.Cols, arr.Rows)
	switch arr.Channels {
	case 1:
		img := image.NewGray(rect)
		for y := 0; y < arr.Rows; y++ {
			for x := 0; x < arr.Cols; x++ {
				img.SetGray(x, y, color.Gray{Y: clamp(arr.At(y, x, 0))})
			}
		}
		return img, nil
	case 3:
		img := image.NewRGBA(rect)
		for y := 0; y < arr.Rows; y++ {
			for x := 0; x < arr.Cols; x++ {
				px := arr.Pixel(y, x)
				img.SetRGBA(x, y, color.RGBA{R: clamp(px[0]), G: clamp(px[1]), B: clamp(px[2]), A: 255})
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("%w: cannot build an image from %d channels", models.ErrInvalidArgument, arr.Channels)
	}
}

// SaveArray converts arr and writes it to path.
func SaveArray(arr *models.PixelArray, path string) error {
	img, err := ToImage(arr)
	if err != nil {
		return err
	}
	return Save(img, path)
}

// OutputPath derives "<dir>/<base><suffix>.<format>" from the input path.
func OutputPath(input, suffix, format string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + suffix + "." + strings.TrimPrefix(format, ".")
}

func clamp(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
