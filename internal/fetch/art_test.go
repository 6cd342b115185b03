package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestArt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logo.ans":
			w.Write([]byte("\x1B[1;36m\xB0\xB1\xB2 LOGO\r\n\x1A" + "SAUCE00 trailing record"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	testCases := []struct {
		name    string
		client  HTTPClient
		path    string
		want    string
		wantErr string
	}{
		{name: "decoded", client: srv.Client(), path: "/logo.ans", want: "\x1B[1;36m░▒▓ LOGO\x1B[0m"},
		{name: "missing", client: srv.Client(), path: "/gone.ans", wantErr: "404"},
		{name: "network", client: failingClient{}, path: "/logo.ans", wantErr: "connection refused"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Art(context.Background(), tc.client, srv.URL+tc.path)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("err = %v, want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Art: %v", err)
			}
			if got != tc.want {
				t.Errorf("Art = %q, want %q", got, tc.want)
			}
		})
	}
}
