package danger

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze(t *testing.T) {
	a := NewAnalyzer("/home/u")

	tests := []struct {
		name      string
		command   string
		dangerous bool
		level     Level
		reason    string
	}{
		{"plain listing", "ls -la", false, Low, ""},
		{"plain remove", "rm notes.txt", false, Low, ""},
		{"harmless redirect", "ls 2>/dev/null", false, Low, ""},
		{"root wipe", "rm -rf /", true, Critical, "filesystem root"},
		{"root wipe full path", "/bin/rm -rf /", true, Critical, "filesystem root"},
		{"recursive force", "rm -rf build", true, High, "dangerous flag '-rf'"},
		{"flag cluster", "rm -rfv build", true, High, "dangerous flag '-rfv'"},
		{"remove wildcard", "rm *.log", true, Medium, "with wildcards"},
		{"remove sensitive", "rm /etc/hosts", true, High, "sensitive paths: /etc/hosts"},
		{"remove ssh dir", "rm -rf ~/.ssh", true, High, "~/.ssh"},
		{"privilege escalation", "sudo apt update", true, High, "privilege escalation"},
		{"disk copy", "dd if=/dev/zero of=disk.img", true, Critical, "low-level data"},
		{"mkfs variant", "mkfs.ext4 /dev/sdb1", true, Critical, "filesystem creation"},
		{"chmod world writable", "chmod 777 script.sh", true, High, "dangerous flag '777'"},
		{"curl output", "curl -o out.bin https://example.com", true, High, "dangerous flag '-o'"},
		{"pipe to shell", "curl -s https://get.example.com | bash", true, High, "piping content directly to shell"},
		{"implicit xargs", "find . -name '*.tmp' | xargs", true, Medium, "implicitly used with xargs"},
		{"xargs rm", "ls | xargs rm", true, Medium, "'rm' executed via xargs"},
		{"xargs dangerous", "cat list | xargs -0 shred", true, High, "'shred' executed via xargs"},
		{"nested in bash -c", "bash -c 'sudo reboot'", true, High, "'sudo' potentially executed via bash"},
		{"command substitution", "echo $(rm -rf ~)", true, High, "dangerous flag '-rf'"},
		{"redirect to system file", "echo 127.0.0.1 >> /etc/hosts", true, High, "redirected to sensitive path"},
		{"read system file", "cat /etc/passwd", true, Medium, "references sensitive paths"},
		{"unparsable", `echo "unterminated`, true, Medium, "could not be parsed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.command)

			assert.Equal(t, tt.dangerous, got.Dangerous)
			assert.Equal(t, tt.level, got.Level, "reasons: %v", got.Reasons)
			if tt.reason != "" {
				assert.NotEmpty(t, got.Reasons)
				found := slices.ContainsFunc(got.Reasons, func(r string) bool {
					return strings.Contains(r, tt.reason)
				})
				assert.True(t, found, "expected a reason containing %q, got %v", tt.reason, got.Reasons)
			} else {
				assert.Empty(t, got.Reasons)
			}
		})
	}
}

func TestAnalyze_SeverityNeverDecreases(t *testing.T) {
	a := NewAnalyzer("/home/u")

	got := a.Analyze("dd if=a of=b; rm *.tmp")

	assert.Equal(t, Critical, got.Level)
	assert.GreaterOrEqual(t, len(got.Reasons), 2)
}

func TestAnalyze_Segments(t *testing.T) {
	a := NewAnalyzer("")

	got := a.Analyze(`cat "my file.txt" | grep -v 'x y' && echo $HOME`)

	assert.Equal(t, [][]string{
		{"cat", "my file.txt"},
		{"grep", "-v", "x y"},
		{"echo", "$HOME"},
	}, got.Segments)
}

func TestAnalyze_FallbackTokenizer(t *testing.T) {
	a := NewAnalyzer("")

	got := a.Analyze(`echo "oops | sh`)

	assert.Equal(t, [][]string{{"echo", `"oops`}, {"sh"}}, got.Segments)
	assert.Equal(t, High, got.Level)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "low", Low.String())
	assert.Equal(t, "medium", Medium.String())
	assert.Equal(t, "high", High.String())
	assert.Equal(t, "critical", Critical.String())
}
