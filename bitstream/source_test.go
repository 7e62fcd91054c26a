package bitstream

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemorySource_EnsureConsume(t *testing.T) {
	src := NewMemorySource([]byte{1, 2, 3, 4, 5})

	got, err := src.Ensure(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)

	src.Consume(2)
	got, err = src.Ensure(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, []byte{3, 4, 5}, got)

	src.Consume(3)
	_, err = src.Ensure(context.Background(), 1)
	require.ErrorIs(t, err, ErrEOF)
}

func TestFileSource_GrowsBufferAcrossReads(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 10)
	src := NewFileSource(bytes.NewReader(data), 3) // force several small reads

	got, err := src.Ensure(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 10)

	src.Consume(10)
	_, err = src.Ensure(context.Background(), 1)
	require.ErrorIs(t, err, ErrEOF)
}

// TestSocketSource_RandomChunking exercises the spec.md §8 scenario 4 shape:
// two cooperating processes exchange bytes over a socket pair in random
// chunk sizes, and the adapter reassembles them transparently.
func TestSocketSource_RandomChunking(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	payload := bytes.Repeat([]byte{0xAA, 0xBB, 0xCC, 0xDD}, 64) // 256 bytes
	go func() {
		chunkSizes := []int{1, 7, 13, 29, 1}
		offset := 0
		ci := 0
		for offset < len(payload) {
			n := chunkSizes[ci%len(chunkSizes)]
			ci++
			if offset+n > len(payload) {
				n = len(payload) - offset
			}
			server.Write(payload[offset : offset+n])
			offset += n
		}
		server.Close()
	}()

	src := NewSocketSource(client, 11, time.Second)
	out := make([]byte, 0, len(payload))
	for len(out) < len(payload) {
		want := 16
		if remaining := len(payload) - len(out); want > remaining {
			want = remaining
		}
		chunk, err := src.Ensure(context.Background(), want)
		require.NoError(t, err)
		out = append(out, chunk[:want]...)
		src.Consume(want)
	}
	require.Equal(t, payload, out)
}

func TestSocketSource_Timeout(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	src := NewSocketSource(client, 16, 20*time.Millisecond)
	_, err := src.Ensure(context.Background(), 1)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestSocketSource_ContextCancel(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := NewSocketSource(client, 16, 0)
	_, err := src.Ensure(ctx, 1)
	require.Error(t, err)
}
