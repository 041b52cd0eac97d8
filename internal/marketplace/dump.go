package marketplace

import (
	"os"
	"path/filepath"

	"github.com/vsix-harvester/vsix-harvester/internal/branding"
	"github.com/vsix-harvester/vsix-harvester/internal/extension"
)

// DumpPath returns where the raw response for id is written inside dir.
func DumpPath(dir string, id extension.ID) string {
	return filepath.Join(dir, branding.DumpPrefix()+"_"+id.String()+".json")
}

// dump writes the raw body when a dump directory is configured. Failures are
// logged and otherwise ignored.
func (c *Client) dump(id extension.ID, body []byte) {
	if c.dumpDir == "" {
		return
	}
	if err := os.MkdirAll(c.dumpDir, 0o755); err != nil {
		c.logger.Warn("Could not create dump directory", "path", c.dumpDir, "err", err)
		return
	}
	path := DumpPath(c.dumpDir, id)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		c.logger.Warn("Could not save marketplace response", "path", path, "err", err)
		return
	}
	c.logger.Debug("Saved marketplace response", "extension", id, "path", path)
}
