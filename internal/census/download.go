package census

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNotFound means the census publishes no file at the url. Per-state
// products skip FIPS codes that have no districts of the requested kind.
var ErrNotFound = eris.New("census: no data for this code")

// Downloader fetches TIGER archives into a local directory.
type Downloader struct {
	http *resty.Client
}

// NewDownloader returns a Downloader whose requests time out after timeout.
// The national zip code file is several hundred megabytes; allow minutes.
func NewDownloader(timeout time.Duration) *Downloader {
	return &Downloader{http: resty.New().SetTimeout(timeout)}
}

var defaultDownloader = NewDownloader(10 * time.Minute)

// Download fetches url into dir with the default downloader.
func Download(ctx context.Context, url, dir string) (string, error) {
	return defaultDownloader.Download(ctx, url, dir)
}

// Download fetches url into dir and returns the local archive path. An
// archive already present is reused, so an interrupted load restarts without
// fetching again.
func (d *Downloader) Download(ctx context.Context, url, dir string) (string, error) {
	log := zap.L().With(zap.String("component", "census.download"), zap.String("url", url))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "census: create data dir")
	}
	dest := filepath.Join(dir, path.Base(url))
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		log.Debug("archive already downloaded", zap.String("path", dest))
		return dest, nil
	}

	log.Info("downloading boundary file")
	resp, err := d.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return "", eris.Wrapf(err, "census: get %s", url)
	}
	body := resp.RawBody()
	defer body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return "", eris.Wrapf(ErrNotFound, "census: %s", url)
	case resp.IsError():
		return "", eris.Errorf("census: get %s: %s", url, resp.Status())
	}

	// Write beside the destination and rename, so a partial file is never
	// mistaken for a finished one.
	tmp, err := os.CreateTemp(dir, path.Base(url)+".*.part")
	if err != nil {
		return "", eris.Wrap(err, "census: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return "", eris.Wrapf(err, "census: write %s", dest)
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrapf(err, "census: close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", eris.Wrapf(err, "census: move %s", dest)
	}
	return dest, nil
}
