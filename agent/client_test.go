package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curol/agentnet/header"
	"github.com/curol/agentnet/httpwire"
	"github.com/curol/agentnet/uri"
)

func TestClientOneShotRequest(t *testing.T) {
	srv := startServer(t, DefaultConfig(), func(resp *httpwire.Response, req *httpwire.Request, status httpwire.Status) {
		resp.Body.Write([]byte("pong"))
	})

	client := NewClient(ClientConfig{})
	defer client.Close()

	u := uri.Parse("http://" + srv.listener.Addr().String() + "/ping")
	req := &httpwire.Request{
		Method:   "GET",
		Uri:      u,
		Protocol: httpwire.HTTP11,
		Headers:  header.New(),
	}
	resp := &httpwire.Response{}

	status := client.Do(context.Background(), req, resp)
	require.Equal(t, httpwire.StatusOK, status)
	assert.Equal(t, uint16(200), resp.Status.Code)

	data, err := resp.InBody.ReadAll(false)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(data))
}

func TestClientFollowsRedirect(t *testing.T) {
	srv := startServer(t, DefaultConfig(), func(resp *httpwire.Response, req *httpwire.Request, status httpwire.Status) {
		if req.Uri.Path.Encoded() == "/old" {
			resp.Status = httpwire.StatusFound
			resp.Headers.Set("Location", "/new")
			return
		}
		resp.Body.Write([]byte("moved here"))
	})

	client := NewClient(ClientConfig{FollowRedirects: true})
	defer client.Close()

	u := uri.Parse("http://" + srv.listener.Addr().String() + "/old")
	req := &httpwire.Request{Method: "GET", Uri: u, Protocol: httpwire.HTTP11, Headers: header.New()}
	resp := &httpwire.Response{}

	status := client.Do(context.Background(), req, resp)
	require.Equal(t, httpwire.StatusOK, status)
	assert.Equal(t, uint16(200), resp.Status.Code)

	data, err := resp.InBody.ReadAll(false)
	require.NoError(t, err)
	assert.Equal(t, "moved here", string(data))
}

func TestConfigMergeNonZeroFieldWins(t *testing.T) {
	base := DefaultConfig()
	override := Config{MaxRequestBody: 42}

	merged := base.Merge(override)
	assert.Equal(t, int64(42), merged.MaxRequestBody)
	assert.Equal(t, base.Timeout, merged.Timeout)
}
