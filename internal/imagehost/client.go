// Package imagehost is a thin client for a Cloudinary-style image API.
// It covers the three calls the application needs: signed multipart
// upload, asset destroy, and building delivery URLs for a fixed set of
// named transformations. Transformations are URL-addressed on the host
// side, so TransformURL performs no network call.
package imagehost

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxFileBytes is the upload size cap. Files above it are rejected before
// any network traffic happens.
const MaxFileBytes = 5 * 1024 * 1024 // 5 MiB

// ErrUnsupportedTransform is returned for a transformation name outside
// the fixed set. Handlers translate it into HTTP 400.
var ErrUnsupportedTransform = errors.New("unsupported transformation")

// ErrFileTooLarge is returned when an upload exceeds MaxFileBytes.
var ErrFileTooLarge = errors.New("file too large")

// ErrUpstream wraps any failure reported by the image host itself.
// Handlers translate it into HTTP 502 and never retry locally.
var ErrUpstream = errors.New("image host failure")

// transformations maps the client-facing names onto the host's URL
// transformation segments.
var transformations = map[string]string{
	"resize":    "c_scale,w_300,h_300",
	"crop":      "c_crop,w_200,h_200",
	"grayscale": "e_grayscale",
	"quality":   "q_auto",
}

// Client talks to one cloud on the image host. UploadBase and
// DeliveryBase are overridable for tests; the zero values point at the
// public API.
type Client struct {
	CloudName    string
	APIKey       string
	APISecret    string
	Folder       string // asset folder, e.g. "photoshare"
	UploadBase   string // default https://api.cloudinary.com/v1_1
	DeliveryBase string // default https://res.cloudinary.com
	HTTP         *http.Client
}

// New returns a Client for the given cloud credentials.
func New(cloudName, apiKey, apiSecret, folder string) *Client {
	return &Client{
		CloudName:    cloudName,
		APIKey:       apiKey,
		APISecret:    apiSecret,
		Folder:       folder,
		UploadBase:   "https://api.cloudinary.com/v1_1",
		DeliveryBase: "https://res.cloudinary.com",
		HTTP:         &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResp struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Upload pushes an image to the host and returns its delivery URL and
// public id. The file is read fully to enforce the size cap; anything
// over MaxFileBytes fails with ErrFileTooLarge.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileBytes+1))
	if err != nil {
		return "", "", err
	}
	if int64(len(data)) > MaxFileBytes {
		return "", "", ErrFileTooLarge
	}

	publicID := c.Folder + "/" + uuid.NewString()
	ts := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": ts,
	}

	var body strings.Builder
	w := multipart.NewWriter(&body)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	_ = w.WriteField("api_key", c.APIKey)
	_ = w.WriteField("signature", c.sign(params))
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", "", err
	}
	if err := w.Close(); err != nil {
		return "", "", err
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", c.UploadBase, c.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body.String()))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("%w: upload returned %d", ErrUpstream, resp.StatusCode)
	}

	var out uploadResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if out.PublicID == "" {
		out.PublicID = publicID
	}
	return out.SecureURL, out.PublicID, nil
}

// Destroy deletes an asset by public id. Failures come back wrapped in
// ErrUpstream; callers decide whether the failure is fatal (it usually is
// not, photo deletion proceeds best-effort).
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	ts := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": ts,
	}

	var body strings.Builder
	w := multipart.NewWriter(&body)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	_ = w.WriteField("api_key", c.APIKey)
	_ = w.WriteField("signature", c.sign(params))
	if err := w.Close(); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/image/destroy", c.UploadBase, c.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body.String()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: destroy returned %d", ErrUpstream, resp.StatusCode)
	}
	return nil
}

// TransformURL builds the delivery URL applying one of the named
// transformations to an already uploaded asset. The name must be one of
// resize, crop, grayscale or quality.
func (c *Client) TransformURL(publicID, transformation string) (string, error) {
	seg, ok := transformations[transformation]
	if !ok {
		return "", ErrUnsupportedTransform
	}
	return fmt.Sprintf("%s/%s/image/upload/%s/%s", c.DeliveryBase, c.CloudName, seg, publicID), nil
}

// sign produces the request signature: the parameters sorted by key,
// joined as key=value with &, concatenated with the API secret and
// digested with SHA-1.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.APISecret))
	return hex.EncodeToString(sum[:])
}
