package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"upload-ai/dto"
)

// APIError is a non-2xx answer from the upload-ai server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api responded %d: %s", e.StatusCode, e.Message)
}

// Client talks to the upload-ai HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UploadAudio posts the file as the multipart field "file".
func (c *Client) UploadAudio(ctx context.Context, audioPath string) (dto.VideoResponse, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return dto.VideoResponse{}, err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", pr)
	if err != nil {
		pr.Close()
		return dto.VideoResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out dto.UploadVideoResponse
	if err := c.do(req, &out); err != nil {
		return dto.VideoResponse{}, err
	}
	return out.Video, nil
}

func (c *Client) CreateTranscription(ctx context.Context, videoId string, prompt string) (string, error) {
	body, err := json.Marshal(dto.CreateTranscriptionRequest{Prompt: &prompt})
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/videos/%s/transcription", c.baseURL, url.PathEscape(videoId))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out dto.CreateTranscriptionResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.Transcription, nil
}

// Generate streams the completion for videoId into w as chunks arrive.
// A nil temperature lets the server pick its default.
func (c *Client) Generate(ctx context.Context, videoId, prompt string, temperature *float64, w io.Writer) error {
	body, err := json.Marshal(dto.GenerateCompletionRequest{
		VideoId:     videoId,
		Prompt:      &prompt,
		Temperature: temperature,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ai/generate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	// The stream may outlive the client timeout.
	streaming := *c.httpClient
	streaming.Timeout = 0
	resp, err := streaming.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}

	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return err
			}
			if f, ok := w.(interface{ Flush() error }); ok {
				if err := f.Flush(); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body dto.ErrorResponse
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
