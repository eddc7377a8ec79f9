package method

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, m := range []Method{GET, HEAD, POST, PUT, DELETE, CONNECT, OPTIONS, TRACE, PATCH} {
		require.Equal(t, m, Parse(m.String()))
	}

	require.Equal(t, Unknown, Parse("get"))
	require.Equal(t, Unknown, Parse("PROPFIND"))
	require.Equal(t, Unknown, Parse(""))
}
