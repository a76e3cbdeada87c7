package replicate

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// EditRequest describes an image-edit prediction.
type EditRequest struct {
	Model     string
	ImagePath string
	Prompt    string
}

// VideoRequest describes an image-to-video prediction.
type VideoRequest struct {
	Model      string
	ImagePath  string
	Prompt     string
	Frames     int
	FPS        int
	Resolution string
}

// EditImage runs an image-edit model and writes the first output image to dest.
func (c *Client) EditImage(ctx context.Context, req EditRequest, dest string) error {
	image, err := DataURI(req.ImagePath)
	if err != nil {
		return err
	}
	input := map[string]any{
		"image":          []string{image},
		"prompt":         strings.TrimSpace(req.Prompt),
		"go_fast":        true,
		"aspect_ratio":   "match_input_image",
		"output_format":  "png",
		"output_quality": 95,
	}
	pred, err := c.Run(ctx, req.Model, input)
	if err != nil {
		return err
	}
	return c.downloadFirst(ctx, pred, dest)
}

// AnimateImage runs an image-to-video model and writes the clip to dest.
func (c *Client) AnimateImage(ctx context.Context, req VideoRequest, dest string) error {
	image, err := DataURI(req.ImagePath)
	if err != nil {
		return err
	}
	input := map[string]any{
		"image":             image,
		"prompt":            strings.TrimSpace(req.Prompt),
		"num_frames":        req.Frames,
		"aspect_ratio":      "16:9",
		"resolution":        req.Resolution,
		"frames_per_second": req.FPS,
		"sample_shift":      5.0,
		"go_fast":           true,
	}
	pred, err := c.Run(ctx, req.Model, input)
	if err != nil {
		return err
	}
	return c.downloadFirst(ctx, pred, dest)
}

func (c *Client) downloadFirst(ctx context.Context, pred *Prediction, dest string) error {
	urls := pred.OutputURLs()
	if len(urls) == 0 {
		return fmt.Errorf("replicate prediction %s: no output", pred.ID)
	}
	return c.Download(ctx, urls[0], dest)
}

// Download streams url to dest through a temporary file in dest's directory.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("replicate download: new request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("replicate download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("replicate download: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("replicate download: temp file: %w", err)
	}
	tmpName := tmp.Name()
	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replicate download: write: %w", err)
	}
	if n == 0 {
		_ = os.Remove(tmpName)
		return errors.New("replicate download: empty output")
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replicate download: rename: %w", err)
	}
	return nil
}

// DataURI encodes the file at path as a base64 data URI.
func DataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input image: %w", err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
