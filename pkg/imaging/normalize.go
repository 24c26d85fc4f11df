// Package imaging 将用户上传的任意凭证 (PDF / 常见图片格式) 归一化为
// 标准 PNG，保证后续展示与存储路径的一致性。
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/http"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/gen2brain/go-fitz"
)

// ProofDPI PDF 栅格化使用的固定 DPI
const ProofDPI = 150

// ErrUnsupported 上传内容既不是 PDF 也不是可解码图片
var ErrUnsupported = fmt.Errorf("unsupported proof content type")

// NormalizeToPNG 把凭证内容转为标准 PNG 字节。
// PDF 只取第一页 (凭证约定单页)。
func NormalizeToPNG(data []byte) ([]byte, error) {
	contentType := http.DetectContentType(data)

	var img image.Image
	switch {
	case contentType == "application/pdf":
		doc, err := fitz.NewFromMemory(data)
		if err != nil {
			return nil, fmt.Errorf("open pdf: %w", err)
		}
		defer doc.Close()

		rendered, err := doc.ImageDPI(0, ProofDPI)
		if err != nil {
			return nil, fmt.Errorf("rasterize pdf: %w", err)
		}
		img = rendered
	default:
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, ErrUnsupported
		}
		img = decoded
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
