package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/alfagnish/mergington-activities/internal/catalog"
	"github.com/alfagnish/mergington-activities/internal/metrics"
	"github.com/alfagnish/mergington-activities/internal/rpc"
)

func newClient(t *testing.T) (*rpc.Client, *catalog.Catalog) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	cat := catalog.New(catalog.DefaultSeed())
	srv := rpc.NewServer(cat, metrics.New(prometheus.NewRegistry()), zap.NewNop())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := rpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, cat
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRunList(t *testing.T) {
	client, cat := newClient(t)
	var out bytes.Buffer

	require.NoError(t, run(testContext(t), client, []string{"list"}, &out))

	var activities map[string]catalog.Activity
	require.NoError(t, json.Unmarshal(out.Bytes(), &activities))
	assert.Len(t, activities, cat.Len())
	assert.Contains(t, activities, "Chess Club")
}

func TestRunSignupAndUnregister(t *testing.T) {
	client, cat := newClient(t)
	ctx := testContext(t)

	var out bytes.Buffer
	require.NoError(t, run(ctx, client, []string{"signup", "Art Club", "cli@mergington.edu"}, &out))
	assert.Equal(t, "Signed up cli@mergington.edu for Art Club\n", out.String())

	art, err := cat.Get("Art Club")
	require.NoError(t, err)
	assert.Contains(t, art.Participants, "cli@mergington.edu")

	err = run(ctx, client, []string{"signup", "Art Club", "cli@mergington.edu"}, &out)
	assert.ErrorIs(t, err, catalog.ErrAlreadySignedUp)

	out.Reset()
	require.NoError(t, run(ctx, client, []string{"unregister", "Art Club", "cli@mergington.edu"}, &out))
	assert.Equal(t, "Unregistered cli@mergington.edu from Art Club\n", out.String())

	err = run(ctx, client, []string{"unregister", "Nope", "cli@mergington.edu"}, &out)
	assert.ErrorIs(t, err, catalog.ErrActivityNotFound)
}

func TestRunUsage(t *testing.T) {
	client, _ := newClient(t)
	ctx := testContext(t)

	for _, args := range [][]string{nil, {"list", "extra"}, {"signup", "Art Club"}, {"enroll"}} {
		assert.ErrorIs(t, run(ctx, client, args, &bytes.Buffer{}), errUsage, "%v", args)
	}
}
