package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartCommandLine(t *testing.T) {
	line := startCommandLine(LaunchRequest{
		Name:    "api.release",
		Program: `C:\out\windows_amd64\release\api\api.exe`,
		Dir:     `C:\out\windows_amd64\release\api`,
		Args:    []string{"--port", "8080", "two words"},
	})
	assert.Equal(t,
		`cmd /c start "api.release" /D "C:\out\windows_amd64\release\api" "C:\out\windows_amd64\release\api\api.exe" "--port" "8080" "two words"`,
		line)
}

func TestStartCommandLineStripsQuotesFromTitle(t *testing.T) {
	line := startCommandLine(LaunchRequest{Name: `a"b`, Program: "p.exe", Dir: `C:\`})
	assert.Equal(t, `cmd /c start "ab" /D "C:\\" "p.exe"`, line)
}

func TestQuoteArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "api", want: `"api"`},
		{name: "empty", in: "", want: `""`},
		{name: "space", in: "two words", want: `"two words"`},
		{name: "embedded quote", in: `say "hi"`, want: `"say \"hi\""`},
		{name: "backslash before quote", in: `a\"b`, want: `"a\\\"b"`},
		{name: "trailing backslash", in: `C:\dir\`, want: `"C:\dir\\"`},
		{name: "inner backslashes kept", in: `C:\a\b`, want: `"C:\a\b"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quoteArg(tt.in))
		})
	}
}
