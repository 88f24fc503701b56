package headhunter

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	acceptHTML      = "text/html,application/xhtml+xml"
	contentEncoding = "gzip"
	// Upper bound for a single page body.
	maxBodySize = 8 << 20
)

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got response",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")),
	)

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", acceptHTML)
	// Setting the header disables transparent decompression, so gzip is handled in readBody.
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

// readBody returns the response body decoded to UTF-8.
func readBody(resp *http.Response) (string, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", err
		}
		defer gz.Close()
		reader = gz
	}

	raw, err := io.ReadAll(io.LimitReader(reader, maxBodySize+1))
	if err != nil {
		return "", err
	}
	if len(raw) > maxBodySize {
		return "", fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, maxBodySize)
	}

	if len(raw) == 0 {
		return "", nil
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
