package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"sync/atomic"
	"time"
)

var placeholderPalette = []string{
	"#ff6b6b",
	"#4ecdc4",
	"#45b7d1",
	"#96ceb4",
	"#ffeaa7",
	"#dda0dd",
	"#ffb347",
	"#98d8c8",
}

// Placeholder renders a coloured SVG card carrying the prompt text. It is
// used when no image backend is configured.
type Placeholder struct {
	next atomic.Uint64
}

func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

func (p *Placeholder) Generate(ctx context.Context, prompt string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	index := p.next.Add(1) - 1
	color := placeholderPalette[index%uint64(len(placeholderPalette))]
	caption := []rune(prompt)
	if len(caption) > 30 {
		caption = append(caption[:30], []rune("...")...)
	}
	svg := fmt.Sprintf(`<svg width="512" height="512" xmlns="http://www.w3.org/2000/svg">`+
		`<rect width="512" height="512" fill="%s"/>`+
		`<text x="256" y="240" font-family="Arial, sans-serif" font-size="24" fill="white" text-anchor="middle" font-weight="bold">Generated Image</text>`+
		`<text x="256" y="280" font-family="Arial, sans-serif" font-size="16" fill="white" text-anchor="middle">%s</text>`+
		`</svg>`, color, html.EscapeString(string(caption)))
	handle := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
	return Result{Handle: handle, Latency: time.Since(start)}, nil
}
