package procutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePIDLines(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []int
	}{
		{name: "lsof", out: "1234\n5678\n", want: []int{1234, 5678}},
		{name: "duplicates", out: "1234\n1234\n", want: []int{1234}},
		{name: "fuser style", out: " 4321 8765", want: []int{4321, 8765}},
		{name: "fuser label", out: "8080/tcp: 99", want: []int{99}},
		{name: "garbage", out: "COMMAND\n-1\n0\n", want: nil},
		{name: "empty", out: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePIDLines(tt.out))
		})
	}
}

func TestParseNetstat(t *testing.T) {
	out := `
Active Connections

  Proto  Local Address          Foreign Address        State           PID
  TCP    0.0.0.0:8080           0.0.0.0:0              LISTENING       4120
  TCP    [::]:8080              [::]:0                 LISTENING       4120
  TCP    0.0.0.0:18080          0.0.0.0:0              LISTENING       77
  TCP    127.0.0.1:8080         127.0.0.1:50000        ESTABLISHED     4120
  TCP    127.0.0.1:9090         0.0.0.0:0              LISTENING       512
`
	assert.Equal(t, []int{4120}, parseNetstat(out, 8080))
	assert.Equal(t, []int{512}, parseNetstat(out, 9090))
	assert.Empty(t, parseNetstat(out, 1))
}

func TestAliveSelf(t *testing.T) {
	assert.True(t, Alive(os.Getpid()))
	assert.False(t, Alive(0))
	assert.False(t, Alive(-5))
}
