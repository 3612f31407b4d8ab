package blockstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/billziss-gh/golib/retry"
)

// DefaultAPI is the IPFS HTTP API base URL original_source/utils/ipfs.py
// talks to.
const DefaultAPI = "http://localhost:5001/api/v0"

// IPFS is a Store backed by a local IPFS daemon's block/put and
// block/get HTTP API.
type IPFS struct {
	api    string
	client *http.Client
}

// NewIPFS builds an IPFS-backed Store against api (empty uses DefaultAPI).
func NewIPFS(api string) *IPFS {
	if api == "" {
		api = DefaultAPI
	}
	return &IPFS{
		api: api,
		client: &http.Client{
			Transport: &retryTransport{base: http.DefaultTransport},
		},
	}
}

// retryTransport retries transient failures against the local IPFS
// daemon, in the same spirit as the teacher's httputil.transport: a
// connection error or a 429, 503 or 509 status gets retried with
// backoff rather than surfaced straight to the caller; any other
// status is returned as is.
type retryTransport struct {
	base http.RoundTripper
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	var resp *http.Response
	var rtErr error

	retry.Retry(
		retry.Count(10),
		retry.Backoff(time.Second, 30*time.Second),
		func(i int) bool {
			if i > 0 && bodyBytes != nil {
				req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			}
			resp, rtErr = t.base.RoundTrip(req)
			if rtErr != nil {
				return true
			}
			switch resp.StatusCode {
			case http.StatusTooManyRequests, http.StatusServiceUnavailable, 509:
				resp.Body.Close()
				return true
			}
			return false
		},
	)

	return resp, rtErr
}

type blockPutResponse struct {
	Key string `json:"Key"`
}

// Put stores data as a new IPFS block and returns its CID.
func (s *IPFS) Put(ctx context.Context, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("data", "block")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.api+"/block/put", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("blockstore: put failed with status %d", resp.StatusCode)
	}

	var out blockPutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Key, nil
}

// Get fetches the block named by cid.
func (s *IPFS) Get(ctx context.Context, cid string) ([]byte, error) {
	url := s.api + "/block/get?arg=" + cid
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blockstore: get %s failed with status %d", cid, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
