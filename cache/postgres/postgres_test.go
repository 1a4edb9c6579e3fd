package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobToLike(t *testing.T) {
	cases := map[string]string{
		"allgood:*2024-06-01*": "allgood:%2024-06-01%",
		"allgood:rate:?":       "allgood:rate:_",
		"plain":                "plain",
		"100%":                 "100\\%",
		"a_b":                  "a\\_b",
		`c:\path`:              `c:\\path`,
	}
	for in, want := range cases {
		require.Equal(t, want, globToLike(in), "pattern %q", in)
	}
}
