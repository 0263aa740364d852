package endpoint

import (
	"testing"

	"github.com/dkoosis/ctrlrpc/internal/jsonvalue"
	"github.com/dkoosis/ctrlrpc/internal/message"
	"github.com/dkoosis/ctrlrpc/internal/ringbuf"
	"github.com/dkoosis/ctrlrpc/internal/rpcerr"
	"github.com/dkoosis/ctrlrpc/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPair() (*Endpoint, *transport.PipeStream) {
	a, b := transport.NewPipe("ep", "peer")
	return Open(a, ringbuf.DefaultCapacity, nil), b
}

// newPairWithSelf additionally returns the PipeStream the Endpoint itself
// wraps, for tests (like partial-write draining) that need to constrain
// the endpoint's own outbound writes rather than its peer's.
func newPairWithSelf() (*Endpoint, *transport.PipeStream, *transport.PipeStream) {
	a, b := transport.NewPipe("ep", "peer")
	return Open(a, ringbuf.DefaultCapacity, nil), a, b
}

func TestSendDeliversBytesImmediately(t *testing.T) {
	ep, peer := newPair()

	req, _ := message.Request("sum", jsonvalue.Array(jsonvalue.Number(1), jsonvalue.Number(2)))
	status := ep.Send(req)
	require.Equal(t, rpcerr.StatusOK, status)
	assert.Equal(t, 0, ep.Backlog())

	buf := make([]byte, 256)
	n, err := peer.Recv(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), `"method":"sum"`)
}

func TestRecvReturnsWouldBlockWhenNoBytes(t *testing.T) {
	ep, _ := newPair()
	_, err := ep.Recv()
	assert.Equal(t, ErrWouldBlock, err)
}

func TestRecvDeliversCompleteMessage(t *testing.T) {
	ep, peer := newPair()
	_, _ = peer.Send([]byte(`{"method":"ping","params":[],"id":1}`))

	m, err := ep.Recv()
	require.NoError(t, err)
	assert.Equal(t, message.VariantRequest, m.Variant)
	assert.Equal(t, "ping", m.Method)
}

// TestReceiveFramingAcrossChunks grounds spec.md §8 law 6 and scenario S3's
// chunked-delivery setup: two concatenated messages split across several
// transport reads yield exactly two Messages.
func TestReceiveFramingAcrossChunks(t *testing.T) {
	ep, peer := newPair()

	_, _ = peer.Send([]byte(`{"method":"a","para`))
	_, err := ep.Recv()
	assert.Equal(t, ErrWouldBlock, err)

	_, _ = peer.Send([]byte(`ms":[],"id":1}{"method":"b","params":[],"id":2}`))

	m1, err := ep.Recv()
	require.NoError(t, err)
	assert.Equal(t, "a", m1.Method)

	m2, err := ep.Recv()
	require.NoError(t, err)
	assert.Equal(t, "b", m2.Method)

	_, err = ep.Recv()
	assert.Equal(t, ErrWouldBlock, err)
}

// TestScenarioS3TruncatedThenMalformedLatchesProtoErr grounds spec.md §8
// scenario S3 directly.
func TestScenarioS3TruncatedThenMalformedLatchesProtoErr(t *testing.T) {
	ep, peer := newPair()

	_, _ = peer.Send([]byte(`{"method":`))
	_, err := ep.Recv()
	assert.Equal(t, ErrWouldBlock, err)

	_, _ = peer.Send([]byte(`bad}`))
	_, err = ep.Recv()
	require.Error(t, err)
	assert.Equal(t, rpcerr.StatusProtoErr, ep.Status())
}

func TestEOFLatchesStatus(t *testing.T) {
	ep, peer := newPair()
	_ = peer.Close()

	_, err := ep.Recv()
	require.Error(t, err)
	assert.Equal(t, rpcerr.StatusEOF, ep.Status())
	assert.Equal(t, 0, ep.Backlog())
}

func TestDeadEndpointSendAndRecvAreNoOps(t *testing.T) {
	ep, peer := newPair()
	_ = peer.Close()
	_, _ = ep.Recv() // latches EOF

	status := ep.Send(message.Notify("x", jsonvalue.Array()))
	assert.Equal(t, rpcerr.StatusEOF, status)
	assert.Equal(t, 0, ep.Backlog())

	_, err := ep.Recv()
	require.Error(t, err)
}

func TestPartialWriteLeavesRemainderQueued(t *testing.T) {
	ep, self, peer := newPairWithSelf()
	self.SetMaxWrite(4)

	req := message.Notify("x", jsonvalue.Array())
	ep.Send(req)
	assert.Greater(t, ep.Backlog(), 0)

	for i := 0; i < 20 && ep.Backlog() > 0; i++ {
		ep.Run()
	}
	assert.Equal(t, 0, ep.Backlog())

	buf := make([]byte, 256)
	n, _ := peer.Recv(buf)
	assert.Contains(t, string(buf[:n]), `"method":"x"`)
}

func TestFailLatchesAndClearsBacklog(t *testing.T) {
	ep, _ := newPair()
	ep.Send(message.Notify("x", jsonvalue.Array()))
	ep.Fail(rpcerr.StatusTransport)

	assert.Equal(t, rpcerr.StatusTransport, ep.Status())
	assert.Equal(t, 0, ep.Backlog())
}

func TestStatsReflectActivity(t *testing.T) {
	ep, peer := newPair()
	ep.Send(message.Notify("x", jsonvalue.Array()))
	_, _ = peer.Send([]byte(`{"method":"y","params":[],"id":1}`))
	_, _ = ep.Recv()

	stats := ep.Stats()
	assert.Equal(t, uint64(1), stats.MessagesSent)
	assert.Equal(t, uint64(1), stats.MessagesRecvd)
	assert.Equal(t, "ep", stats.Name)
	assert.Equal(t, ep.ID(), stats.ID)
	assert.NotEmpty(t, stats.ID)
}

func TestIDIsStableAndDistinctPerEndpoint(t *testing.T) {
	epA, _ := newPair()
	epB, _ := newPair()

	assert.NotEmpty(t, epA.ID())
	assert.Equal(t, epA.ID(), epA.ID())
	assert.NotEqual(t, epA.ID(), epB.ID())
}
