package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/viant/nnview/session"
)

type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) render(v session.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "query %d (%s) %s k=%d\n", v.Query.ID, v.Class, v.QueryImage, v.K)
	for i, n := range v.Result {
		fmt.Fprintf(p.w, "%3d. id=%d distance=%.6g %s\n", i+1, n.ID, n.Distance, v.Neighbors[i].ImageRef)
	}
	for _, row := range v.Gallery {
		fmt.Fprintf(p.w, "  | %s\n", strings.Join(row, " "))
	}
}
