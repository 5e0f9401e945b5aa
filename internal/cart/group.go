// Package cart is the requisition cart view model: pending requests grouped
// by source, quantity edits, removal, bulk approval and the approved history.
package cart

import (
	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
)

// DefaultSource receives lines whose item has no recognised source tag.
const DefaultSource = catalog.SourceOPD

type Bucket struct {
	Source catalog.Source `json:"source"`
	Lines  []indent.Line  `json:"lines"`
	// Defaulted counts lines that landed here only because their item's
	// source was empty or unknown.
	Defaulted int `json:"defaulted"`
}

// Cart holds one bucket per known source, always in catalog.Sources order.
type Cart struct {
	Buckets []Bucket `json:"buckets"`
	Total   int      `json:"total"`
}

// Group buckets lines by their item's source. Every line ends up in exactly
// one bucket; order within a bucket follows lines.
func Group(lines []indent.Line) Cart {
	c := Cart{Buckets: make([]Bucket, len(catalog.Sources))}
	idx := map[catalog.Source]int{}
	for i, s := range catalog.Sources {
		c.Buckets[i] = Bucket{Source: s, Lines: []indent.Line{}}
		idx[s] = i
	}
	for _, l := range lines {
		src := l.Item.Source
		i, ok := idx[src]
		if !ok {
			i = idx[DefaultSource]
			c.Buckets[i].Defaulted++
		}
		c.Buckets[i].Lines = append(c.Buckets[i].Lines, l)
	}
	c.Total = len(lines)
	return c
}

// NonEmpty drops buckets without lines.
func (c Cart) NonEmpty() []Bucket {
	var out []Bucket
	for _, b := range c.Buckets {
		if len(b.Lines) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// Bucket returns the bucket for src, empty when src is unknown.
func (c Cart) Bucket(src catalog.Source) Bucket {
	for _, b := range c.Buckets {
		if b.Source == src {
			return b
		}
	}
	return Bucket{Source: src}
}

// Line finds a line by request id.
func (c Cart) Line(id int64) (indent.Line, bool) {
	for _, b := range c.Buckets {
		for _, l := range b.Lines {
			if l.ID == id {
				return l, true
			}
		}
	}
	return indent.Line{}, false
}

func (c Cart) Empty() bool { return c.Total == 0 }
