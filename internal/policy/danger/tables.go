package danger

// commandInfo describes a command known to be risky on its own.
type commandInfo struct {
	level       Level
	description string
}

var dangerousCommands = map[string]commandInfo{
	// secure deletion
	"shred": {High, "secure file deletion"},
	"srm":   {High, "secure file deletion"},
	"wipe":  {High, "secure file deletion"},

	// system modification
	"mkfs":   {Critical, "filesystem creation"},
	"dd":     {Critical, "low-level data operations"},
	"fdisk":  {Critical, "disk partitioning"},
	"parted": {Critical, "disk partitioning"},
	"chmod":  {Medium, "change file permissions"},
	"chown":  {Medium, "change file ownership"},

	// privilege escalation
	"sudo": {High, "privilege escalation"},
	"su":   {High, "user switching"},
	"doas": {High, "privilege escalation"},

	// network fetchers
	"curl": {Medium, "download content"},
	"wget": {Medium, "download content"},
}

// contextCommands are only dangerous with destructive flags or targets.
var contextCommands = map[string]commandInfo{
	"rm": {Medium, "file deletion"},
}

var dangerousFlags = map[string][]string{
	"rm":    {"-rf", "-fr", "--force", "--recursive", "--no-preserve-root"},
	"chmod": {"777", "a+rwx", "o+w"},
	"curl":  {"-o", "--output"},
	"wget":  {"-O", "--output-document"},
}

// wrapperCommands run other commands given as arguments or input.
var wrapperCommands = map[string]commandInfo{
	"xargs":  {Medium, "execute commands from input"},
	"eval":   {High, "execute string as command"},
	"exec":   {High, "replace current process with command"},
	"bash":   {Medium, "execute bash script/command"},
	"sh":     {Medium, "execute shell script/command"},
	"source": {Medium, "execute commands from file"},
	".":      {Medium, "execute commands from file"},
}

var shellInterpreters = map[string]bool{
	"sh":   true,
	"bash": true,
	"zsh":  true,
	"dash": true,
}

// sensitivePaths are system locations; a "/*" suffix covers everything below.
var sensitivePaths = []string{
	"/", "/*",
	"/etc", "/etc/*",
	"/var", "/var/*",
	"/usr", "/usr/*",
	"/bin", "/bin/*",
	"/sbin", "/sbin/*",
	"/boot", "/boot/*",
	"/dev", "/dev/*",
	"/proc", "/proc/*",
	"/sys", "/sys/*",
	"~/.ssh", "~/.ssh/*",
}

// rootTargets make a recursive forced delete catastrophic.
var rootTargets = map[string]bool{
	"/":  true,
	"/*": true,
}

// harmlessDevices are routine redirect targets under /dev.
var harmlessDevices = map[string]bool{
	"/dev/null":   true,
	"/dev/stdout": true,
	"/dev/stderr": true,
	"/dev/tty":    true,
}
