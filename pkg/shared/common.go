package shared

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-plugin"
	"github.com/spf13/pflag"
)

const (
	PluginTypeGenerator string = "generator"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "CODEMEDIC",
	MagicCookieValue: "4f1c2b0e9d7a41c88a3e6b5d2f9c0e17a6b3d8f2",
}

var PluginMap = map[string]plugin.Plugin{
	PluginTypeGenerator: &GeneratorPlugin{},
}

// GetCodemedicHome returns the tool home folder, CODEMEDIC_HOME or ~/.codemedic.
func GetCodemedicHome() string {
	if envHome := os.Getenv("CODEMEDIC_HOME"); envHome != "" {
		return envHome
	}
	home, err := os.UserHomeDir()
	if err != nil {
		panic("unable to get home folder")
	}
	return filepath.Join(home, ".codemedic")
}

// GetPluginsFolder returns CODEMEDIC_PLUGINS_FOLDER or <home>/plugins.
func GetPluginsFolder() string {
	if envPlugins := os.Getenv("CODEMEDIC_PLUGINS_FOLDER"); envPlugins != "" {
		return envPlugins
	}
	return filepath.Join(GetCodemedicHome(), "plugins")
}

// ResolvePluginPath turns a bare plugin name into a path inside the plugins folder.
// Paths containing a separator are returned unchanged.
func ResolvePluginPath(name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
		return name
	}
	return filepath.Join(GetPluginsFolder(), name)
}

// IsInList reports whether target is one of list, ignoring case.
func IsInList(target string, list []string) bool {
	for _, item := range list {
		if strings.EqualFold(item, target) {
			return true
		}
	}
	return false
}

// HasFlags reports whether any flag of the set was given on the command line.
func HasFlags(flags *pflag.FlagSet) bool {
	set := false
	flags.Visit(func(*pflag.Flag) {
		set = true
	})
	return set
}
