// Package export renders a moodboard to downloadable artifacts: a PNG
// bitmap of the canvas, and a single-page PDF wrapping that bitmap.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"moodboard/core"
	"moodboard/palette"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	// Minimum canvas extent; boards grow beyond it when items overflow.
	minCanvasWidth  = 1200.0
	minCanvasHeight = 800.0

	canvasMargin = 40.0
)

var (
	regularFont *truetype.Font
	boldFont    *truetype.Font
)

func init() {
	var err error
	if regularFont, err = truetype.Parse(goregular.TTF); err != nil {
		panic(fmt.Sprintf("parse goregular: %v", err))
	}
	if boldFont, err = truetype.Parse(gobold.TTF); err != nil {
		panic(fmt.Sprintf("parse gobold: %v", err))
	}
}

// Filename derives the download name from a board title: lower-cased,
// spaces replaced with hyphens, "moodboard" when empty.
func Filename(title, ext string) string {
	name := strings.ToLower(strings.TrimSpace(title))
	name = strings.ReplaceAll(name, " ", "-")
	if name == "" {
		name = "moodboard"
	}
	return name + "." + ext
}

// Renderer rasterizes boards. The zero FetchImage falls back to plain
// HTTP gets against each item's source URL.
type Renderer struct {
	FetchImage func(ctx context.Context, url string) (image.Image, error)
	log        *logrus.Entry
}

func NewRenderer() *Renderer {
	return &Renderer{
		FetchImage: fetchHTTP,
		log:        logrus.WithField("component", "export"),
	}
}

func fetchHTTP(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return palette.Decode(resp.Body)
}

// RenderPNG paints the board into w: background first, then items in
// ascending paint order with their stored rotation. An unreachable image
// degrades to a placeholder instead of failing the export.
func (r *Renderer) RenderPNG(ctx context.Context, board core.Moodboard, w io.Writer) error {
	width, height := canvasExtent(board)
	dc := gg.NewContext(int(width), int(height))

	dc.SetHexColor(backgroundOr(board.BackgroundColor, core.DefaultBackground))
	dc.Clear()

	items := make([]core.Item, len(board.Items))
	copy(items, board.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Base().ZIndex < items[j].Base().ZIndex
	})

	for _, it := range items {
		base := it.Base()
		cx := base.Position.X + base.Size.Width/2
		cy := base.Position.Y + base.Size.Height/2

		dc.Push()
		dc.RotateAbout(gg.Radians(base.Rotation), cx, cy)

		switch item := it.(type) {
		case core.ImageItem:
			r.drawImage(ctx, dc, item)
		case core.TextItem:
			drawText(dc, item)
		}
		dc.Pop()
	}

	return dc.EncodePNG(w)
}

// RenderPDF wraps the rendered bitmap in a single PDF page of the same
// dimensions (points).
func (r *Renderer) RenderPDF(ctx context.Context, board core.Moodboard, w io.Writer) error {
	var png bytes.Buffer
	if err := r.RenderPNG(ctx, board, &png); err != nil {
		return err
	}

	width, height := canvasExtent(board)
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("board", opts, &png)
	pdf.ImageOptions("board", 0, 0, width, height, false, opts, 0, "")

	return pdf.Output(w)
}

func canvasExtent(board core.Moodboard) (float64, float64) {
	width, height := minCanvasWidth, minCanvasHeight
	for _, it := range board.Items {
		b := it.Base()
		if x := b.Position.X + b.Size.Width + canvasMargin; x > width {
			width = x
		}
		if y := b.Position.Y + b.Size.Height + canvasMargin; y > height {
			height = y
		}
	}
	return width, height
}

func backgroundOr(hex, fallback string) string {
	if core.ValidHexColor(hex) {
		return hex
	}
	return fallback
}

func (r *Renderer) drawImage(ctx context.Context, dc *gg.Context, item core.ImageItem) {
	base := item.Base()
	w := int(base.Size.Width)
	h := int(base.Size.Height)
	if w <= 0 || h <= 0 {
		return
	}

	src, err := r.FetchImage(ctx, item.Src)
	if err != nil {
		r.log.WithError(err).WithField("src", item.Src).Warn("Image unavailable, drawing placeholder")
		dc.SetHexColor("#cccccc")
		dc.DrawRectangle(base.Position.X, base.Position.Y, base.Size.Width, base.Size.Height)
		dc.Fill()
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	dc.DrawImage(scaled, int(base.Position.X), int(base.Position.Y))
}

func drawText(dc *gg.Context, item core.TextItem) {
	base := item.Base()
	style := item.Style

	if style.BackgroundColor != core.TransparentColor && core.ValidHexColor(style.BackgroundColor) {
		dc.SetHexColor(style.BackgroundColor)
		dc.DrawRectangle(base.Position.X, base.Position.Y, base.Size.Width, base.Size.Height)
		dc.Fill()
	}

	fnt := regularFont
	if style.FontWeight == "bold" {
		fnt = boldFont
	}
	size := style.FontSize
	if size <= 0 {
		size = 16
	}
	dc.SetFontFace(truetype.NewFace(fnt, &truetype.Options{Size: size}))

	color := style.Color
	if !core.ValidHexColor(color) {
		color = "#000000"
	}
	dc.SetHexColor(color)

	align := gg.AlignLeft
	switch style.TextAlign {
	case "center":
		align = gg.AlignCenter
	case "right":
		align = gg.AlignRight
	}

	dc.DrawStringWrapped(item.Content,
		base.Position.X, base.Position.Y,
		0, 0,
		base.Size.Width, 1.4, align)
}
