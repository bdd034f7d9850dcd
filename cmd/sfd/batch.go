package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/geal-ai/sfddust"
)

// readPositions parses "l,b" records. Blank lines and lines starting with
// '#' are skipped, as is an "l,b" header row.
func readPositions(r io.Reader) (ls, bs []float64, err error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	for first := true; ; first = false {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return ls, bs, nil
		}
		if err != nil {
			return nil, nil, err
		}
		if first && strings.EqualFold(rec[0], "l") && strings.EqualFold(rec[1], "b") {
			continue
		}
		line, _ := cr.FieldPos(0)
		l, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: invalid l %q", line, rec[0])
		}
		b, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: invalid b %q", line, rec[1])
		}
		ls = append(ls, l)
		bs = append(bs, b)
	}
}

// runBatch queries every position read from r in one call.
func runBatch(r io.Reader, w io.Writer, f format, store *sfddust.Store, order int) error {
	ls, bs, err := readPositions(r)
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	res, err := store.Query(sfddust.Vector(ls...), sfddust.Vector(bs...), sfddust.WithOrder(order))
	if err != nil {
		return err
	}
	ebv := res.Data()

	if f != formatText {
		out := make([]result, len(ls))
		for i := range ls {
			out[i] = newResult(ls[i], bs[i], order, ebv[i])
		}
		return emit(w, f, out)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"l", "b", "ebv"}); err != nil {
		return err
	}
	for i := range ls {
		err := cw.Write([]string{
			strconv.FormatFloat(ls[i], 'g', -1, 64),
			strconv.FormatFloat(bs[i], 'g', -1, 64),
			strconv.FormatFloat(float64(ebv[i]), 'g', -1, 32),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
