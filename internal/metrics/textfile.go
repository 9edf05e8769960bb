package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/errors"
)

// WriteTextfile writes every metric of the registry in the text exposition
// format, for the node_exporter textfile collector. The file is replaced
// atomically.
func (m *Pipeline) WriteTextfile(path string) error {
	return WriteTextfile(path, m.registry)
}

// WriteTextfile writes the metrics gathered from g to path.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("mkdir", dir, err)
		}
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
