package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const uploadPath = "/upload"

// UploadResult is the backend's record of a stored file.
type UploadResult struct {
	FileURL      string `json:"fileUrl"`
	OriginalName string `json:"originalName"`
}

// Upload sends one file as multipart form data and returns its
// server-assigned URL. The multipart writer picks the content type so the
// boundary is set correctly; the JSON envelope headers do not apply here.
// There is no retry and no partial-upload resume; envelope errors
// propagate unchanged.
func (c *Client) Upload(ctx context.Context, r io.Reader, filename, category string) (*UploadResult, error) {
	return c.UploadWithTimeout(ctx, r, filename, category, 0)
}

// UploadWithTimeout is Upload with an explicit deadline for large files.
func (c *Client) UploadWithTimeout(ctx context.Context, r io.Reader, filename, category string, timeout time.Duration) (*UploadResult, error) {
	if timeout == 0 {
		timeout = c.requestTimeout
	}
	if _, ok := ctx.Deadline(); !ok && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		part, err := form.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("failed to create form file: %w", err))
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(fmt.Errorf("failed to copy file contents: %w", err))
			return
		}
		if category != "" {
			if err := form.WriteField("category", category); err != nil {
				pw.CloseWithError(fmt.Errorf("failed to write category field: %w", err))
				return
			}
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("X-Request-ID", uuid.NewString())
	c.attachAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute upload: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Message: extractMessage(raw, resp.StatusCode)}
	}

	var result UploadResult
	if len(raw) > 0 {
		if err := DecodeInto(raw, &result); err != nil {
			return nil, err
		}
	}
	if result.FileURL == "" {
		return nil, fmt.Errorf("upload response contains no fileUrl")
	}
	return &result, nil
}
