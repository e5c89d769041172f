package main

import (
	"fmt"
)

// Run executes the plugins command.
func (c *PluginsCmd) Run(deps *Dependencies) error {
	keys := deps.Extractors.Keys()
	if len(keys) == 0 {
		fmt.Fprintf(deps.Stdout, "No plugins found in %s.\n", deps.Config.PluginDir)
		return nil
	}

	for _, key := range keys {
		ext, err := deps.Extractors.Lookup(key)
		if err != nil {
			continue
		}
		id := ext.Identity()
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", key, id.SiteName, id.SiteURL)
	}
	return nil
}
