//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tc "github.com/testcontainers/testcontainers-go/modules/compose"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	baseURL      string
	httpClient   *http.Client
	apiContainer testcontainers.Container
)

// Response types are defined locally to keep tests black-box.

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type productResponse struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

type cardResponse struct {
	Product  productResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Total    string          `json:"total"`
}

type lineResponse struct {
	ProductID string           `json:"productId"`
	Available bool             `json:"available"`
	Product   *productResponse `json:"product"`
	Quantity  int              `json:"quantity"`
	Total     string           `json:"total"`
}

type viewResponse struct {
	Grid    []cardResponse `json:"grid"`
	Cart    []lineResponse `json:"cart"`
	Counter struct {
		Total   int  `json:"total"`
		Visible bool `json:"visible"`
	} `json:"counter"`
	Matches int `json:"matches"`
}

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Coverage output directory for the instrumented binary.
	if err := os.MkdirAll("coverdir", 0o777); err != nil {
		log.Fatalf("create coverdir: %v", err)
	}

	dc, err := tc.NewDockerCompose("docker-compose.test.yml")
	if err != nil {
		log.Fatalf("compose init: %v", err)
	}

	// postgres and redis, then the one-shot catalog mirror, then the API.
	err = dc.
		WaitForService("api", wait.ForHTTP("/readyz").WithPort("8080/tcp")).
		Up(ctx, tc.Wait(true))
	if err != nil {
		log.Fatalf("compose up: %v", err)
	}

	apiContainer, err = dc.ServiceContainer(ctx, "api")
	if err != nil {
		log.Fatalf("api container: %v", err)
	}
	if err := resolveBaseURL(ctx); err != nil {
		log.Fatalf("resolve api address: %v", err)
	}
	httpClient = &http.Client{Timeout: 10 * time.Second}
	log.Printf("API available at %s", baseURL)

	result := m.Run()

	// Stop the API gracefully so the coverage-instrumented binary flushes
	// to GOCOVERDIR. app.Run shuts down on SIGINT, see stop_signal.
	stopTimeout := 30 * time.Second
	if err := apiContainer.Stop(ctx, &stopTimeout); err != nil {
		log.Printf("stop api container: %v", err)
	}
	if err := dc.Down(context.Background(), tc.RemoveOrphans(true)); err != nil {
		log.Printf("compose down: %v", err)
	}
	return result
}

func resolveBaseURL(ctx context.Context) error {
	host, err := apiContainer.Host(ctx)
	if err != nil {
		return err
	}
	mappedPort, err := apiContainer.MappedPort(ctx, "8080/tcp")
	if err != nil {
		return err
	}
	baseURL = fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
	return nil
}

// restartAPI restarts the API container and waits until it is ready again.
func restartAPI(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stopTimeout := 30 * time.Second
	require.NoError(t, apiContainer.Stop(ctx, &stopTimeout))
	require.NoError(t, apiContainer.Start(ctx))
	require.NoError(t, resolveBaseURL(ctx))

	require.Eventually(t, func() bool {
		resp, err := httpClient.Get(baseURL + "/readyz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 30*time.Second, 250*time.Millisecond)
}

// HTTP helpers.

func do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, baseURL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	require.NoError(t, err, "%s %s", method, path)
	return resp
}

func doGet(t *testing.T, path string) *http.Response {
	t.Helper()
	return do(t, http.MethodGet, path, nil)
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v), "decode response")
	return v
}

// expectView performs a request that answers with the view model.
func expectView(t *testing.T, method, path string, body any) viewResponse {
	t.Helper()

	resp := do(t, method, path, body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "%s %s", method, path)
	return decodeJSON[viewResponse](t, resp)
}
