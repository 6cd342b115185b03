package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tecnoter/ttsh/internal/ansi"
)

// MaxArtBytes caps a downloaded ANSI file.
const MaxArtBytes = 1 << 20

// Art downloads one .ans file and decodes it for a UTF-8 terminal.
func Art(ctx context.Context, client HTTPClient, url string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxArtBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	return ansi.DecodeArt(data), nil
}
