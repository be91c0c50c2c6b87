package deps

// PackageManager describes how to install packages on one platform.
type PackageManager struct {
	// Name is also the binary probed for.
	Name string
	// Prepare runs once before installing, e.g. to refresh package lists.
	Prepare [][]string
	// Install is the command prefix; the package id is appended.
	Install []string
	// Packages maps a tool to the manager's package id.
	Packages map[string]string
}

// Commands returns the command lines that install tools.
func (m PackageManager) Commands(tools []string) [][]string {
	var out [][]string
	out = append(out, m.Prepare...)
	for _, tool := range tools {
		pkg, ok := m.Packages[tool]
		if !ok {
			pkg = tool
		}
		args := append(append([]string{}, m.Install...), pkg)
		out = append(out, args)
	}
	return out
}

// managers lists the supported package managers per GOOS in priority order.
var managers = map[string][]PackageManager{
	"windows": {
		{
			Name:     "winget",
			Install:  []string{"winget", "install", "-e", "--source", "winget", "--accept-package-agreements", "--accept-source-agreements", "--id"},
			Packages: map[string]string{"git": "Git.Git", "git-lfs": "GitHub.GitLFS"},
		},
		{
			Name:    "choco",
			Install: []string{"choco", "install", "-y"},
		},
	},
	"darwin": {
		{
			Name:    "brew",
			Install: []string{"brew", "install"},
		},
	},
	"linux": {
		{
			Name:    "apt-get",
			Prepare: [][]string{{"sudo", "apt-get", "update"}},
			Install: []string{"sudo", "apt-get", "install", "-y"},
		},
		{
			Name:    "dnf",
			Install: []string{"sudo", "dnf", "install", "-y"},
		},
		{
			Name:    "pacman",
			Install: []string{"sudo", "pacman", "-S", "--noconfirm"},
		},
	},
}
