package transport

import (
	"errors"
	"testing"

	"github.com/indigo-web/relay/config"
	"github.com/indigo-web/relay/transport/dummy"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	cfg := config.Default().NET
	cfg.ReadBufferSize = 4

	t.Run("read in pieces", func(t *testing.T) {
		client := NewClient(dummy.NewConn([]byte("Hello, world!")), cfg)
		var data []byte
		for {
			piece, err := client.Read()
			if err != nil {
				break
			}

			require.LessOrEqual(t, len(piece), 4)
			data = append(data, piece...)
		}

		require.Equal(t, "Hello, world!", string(data))
	})

	t.Run("pushback", func(t *testing.T) {
		client := NewClient(dummy.NewConn([]byte("abcd"), []byte("ef")), cfg)
		piece, err := client.Read()
		require.NoError(t, err)
		require.Equal(t, "abcd", string(piece))

		client.Pushback(piece[2:])
		piece, err = client.Read()
		require.NoError(t, err)
		require.Equal(t, "cd", string(piece))

		piece, err = client.Read()
		require.NoError(t, err)
		require.Equal(t, "ef", string(piece))
	})
}

func TestConn(t *testing.T) {
	cfg := config.Default().NET

	t.Run("send", func(t *testing.T) {
		raw := dummy.NewConn()
		conn := NewConn(NewClient(raw, cfg), ldlog.NewDisabledLoggers())
		conn.Send([]byte("Hello, "))
		conn.Send([]byte("world!"))
		require.Equal(t, "Hello, world!", string(raw.Data))
		require.False(t, conn.Closed())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		raw := dummy.NewConn()
		conn := NewConn(NewClient(raw, cfg), ldlog.NewDisabledLoggers())
		conn.Close()
		conn.Close()
		require.True(t, conn.Closed())
		require.True(t, raw.Closed())

		conn.Send([]byte("dropped"))
		require.Empty(t, raw.Data)
	})

	t.Run("write error closes", func(t *testing.T) {
		mockLog := ldlogtest.NewMockLog()
		defer mockLog.DumpIfTestFailed(t)

		raw := dummy.NewConn().FailWrites(errors.New("broken pipe"))
		conn := NewConn(NewClient(raw, cfg), mockLog.Loggers)
		conn.Send([]byte("Hello, world!"))
		require.True(t, conn.Closed())
		require.True(t, raw.Closed())
		mockLog.AssertMessageMatch(t, true, ldlog.Warn, "broken pipe")
	})
}
