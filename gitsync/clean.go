package gitsync

// ManagedDirs are the instance directories whose content is owned by the
// upstream repository. Every sync restores their tracked files and deletes
// anything untracked that is not gitignored.
var ManagedDirs = []string{
	"mods",
	"kubejs",
	"configureddefaults",
	"resourcepacks",
	"patchouli_books",
	"datapacks",
}
