package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/geal-ai/sfddust"
)

// fitsSignature is the first card keyword of every FITS file. Error pages
// served with status 200 fail this check.
const fitsSignature = "SIMPLE  ="

// Fetcher downloads map files over HTTP.
type Fetcher struct {
	HTTPClient *http.Client
	BaseURL    string
	MaxBytes   int64
	Logger     *slog.Logger
}

// FetchMissing downloads <base>_ngp.fits and <base>_sgp.fits into dir unless
// a map for that hemisphere is already present. Returns the paths written.
func (f *Fetcher) FetchMissing(ctx context.Context, dir, base string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	for _, pole := range []sfddust.Hemisphere{sfddust.North, sfddust.South} {
		if path, err := sfddust.MapPath(dir, base, pole); err == nil {
			f.Logger.Info("map already present", "hemisphere", pole, "path", path)
			continue
		} else if !errors.Is(err, sfddust.ErrMapNotFound) {
			return written, err
		}

		name := fmt.Sprintf("%s_%s.fits", base, pole.Suffix())
		url := strings.TrimRight(f.BaseURL, "/") + "/" + name
		dest := filepath.Join(dir, name)
		n, err := f.download(ctx, url, dest)
		if err != nil {
			return written, fmt.Errorf("%s map: %w", pole, err)
		}
		f.Logger.Info("downloaded map",
			"hemisphere", pole,
			"url", url,
			"path", dest,
			"size", humanize.IBytes(uint64(n)))
		written = append(written, dest)
	}
	return written, nil
}

// download streams url into dest through a temporary file in the same
// directory, so an interrupted transfer never leaves a partial map behind.
func (f *Fetcher) download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}
	if resp.ContentLength > f.MaxBytes {
		return 0, fmt.Errorf("%s is %s, limit %s", url,
			humanize.IBytes(uint64(resp.ContentLength)), humanize.IBytes(uint64(f.MaxBytes)))
	}

	br := bufio.NewReader(io.LimitReader(resp.Body, f.MaxBytes+1))
	head, _ := br.Peek(len(fitsSignature))
	if string(head) != fitsSignature {
		return 0, fmt.Errorf("%s is not a FITS file", url)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".sfd-download-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	n, err := io.Copy(tmp, br)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	if n > f.MaxBytes {
		return 0, fmt.Errorf("%s exceeds %s", url, humanize.IBytes(uint64(f.MaxBytes)))
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, err
	}
	return n, nil
}
