package eio

import (
	"fmt"
	"image"
	"math"
	"sort"
	"sync"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"

	"github.com/abworrall/hdr-bracket/pkg/bracket"
)

const (
	contactSheetMargin = 8
	contactSheetLabel  = 20 // height of the label strip under each thumbnail
)

type thumbnail struct {
	index int
	label string
	img   image.Image
}

// ContactSheet collects a thumbnail of each bracket step as it is delivered,
// and lays them out in a labelled grid. Add may be called from many
// goroutines.
type ContactSheet struct {
	ThumbSize uint // max width & height of each thumbnail

	mu     sync.Mutex
	thumbs []thumbnail
}

func NewContactSheet(thumbSize uint) *ContactSheet {
	return &ContactSheet{ThumbSize: thumbSize}
}

func (cs *ContactSheet) Add(index int, label string, pb *bracket.PixelBuffer) {
	img := resize.Thumbnail(cs.ThumbSize, cs.ThumbSize, ToNRGBA64(pb), resize.Lanczos3)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.thumbs = append(cs.thumbs, thumbnail{index: index, label: label, img: img})
}

func (cs *ContactSheet) Len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.thumbs)
}

// Render draws the thumbnails in index order, in a roughly square grid.
func (cs *ContactSheet) Render() (image.Image, error) {
	cs.mu.Lock()
	thumbs := append([]thumbnail{}, cs.thumbs...)
	cs.mu.Unlock()

	if len(thumbs) == 0 {
		return nil, fmt.Errorf("contact sheet: no thumbnails")
	}
	sort.Slice(thumbs, func(i, j int) bool { return thumbs[i].index < thumbs[j].index })

	cellW, cellH := 0, 0
	for _, t := range thumbs {
		if b := t.img.Bounds(); b.Dx() > cellW {
			cellW = b.Dx()
		}
		if b := t.img.Bounds(); b.Dy() > cellH {
			cellH = b.Dy()
		}
	}
	cellW += contactSheetMargin
	cellH += contactSheetMargin + contactSheetLabel

	cols := int(math.Ceil(math.Sqrt(float64(len(thumbs)))))
	rows := (len(thumbs) + cols - 1) / cols

	dc := gg.NewContext(cols*cellW+contactSheetMargin, rows*cellH+contactSheetMargin)
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.Clear()

	dc.SetRGB(1, 1, 1)
	for i, t := range thumbs {
		x := contactSheetMargin + (i%cols)*cellW
		y := contactSheetMargin + (i/cols)*cellH
		dc.DrawImage(t.img, x, y)
		dc.DrawStringAnchored(t.label, float64(x+cellW/2), float64(y+cellH-contactSheetLabel/2-contactSheetMargin), 0.5, 0.5)
	}

	return dc.Image(), nil
}

func (cs *ContactSheet) SavePNG(filename string) error {
	img, err := cs.Render()
	if err != nil {
		return err
	}
	return gg.SavePNG(filename, img)
}
