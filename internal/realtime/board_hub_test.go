package realtime

import (
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 6455 section 1.3 sample handshake
func TestComputeAcceptKey(t *testing.T) {
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", computeAcceptKey("dGhlIHNhbXBsZSBub25jZQ=="))
}

func TestBoardHubFanout(t *testing.T) {
	hub := NewBoardHub()
	server, client := net.Pipe()
	defer client.Close()
	conn := &Conn{conn: server}
	hub.Register(7, conn)

	type frame struct {
		opcode  byte
		payload []byte
	}
	got := make(chan frame, 1)
	go func() {
		header := make([]byte, 2)
		if _, err := io.ReadFull(client, header); err != nil {
			return
		}
		payload := make([]byte, header[1]&0x7F)
		if _, err := io.ReadFull(client, payload); err != nil {
			return
		}
		got <- frame{header[0] & 0x0F, payload}
	}()

	hub.BoardChanged(7)

	select {
	case f := <-got:
		assert.Equal(t, byte(0x1), f.opcode, "expected a text frame")
		var ev boardEvent
		require.NoError(t, json.Unmarshal(f.payload, &ev))
		assert.Equal(t, "board_changed", ev.Type)
		assert.Equal(t, 7, ev.PipelineID)
	case <-time.After(time.Second):
		t.Fatal("no frame delivered to the registered viewer")
	}

	// a pipeline without viewers is a no-op
	hub.BoardChanged(8)
}

func TestBoardHubUnregister(t *testing.T) {
	hub := NewBoardHub()
	server, client := net.Pipe()
	go io.Copy(io.Discard, client) //nolint:errcheck
	conn := &Conn{conn: server}

	hub.Register(7, conn)
	hub.Unregister(7, conn)

	// the viewer set for the pipeline is gone; nothing to deliver to
	hub.BoardChanged(7)
	hub.mu.RLock()
	_, ok := hub.boards[7]
	hub.mu.RUnlock()
	assert.False(t, ok)
}
