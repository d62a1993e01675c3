package crawler

import (
	"github.com/charmbracelet/log"

	"github.com/go-scripts/tplmirror/internal/extract"
	"github.com/go-scripts/tplmirror/internal/urlpath"
)

// StrictResolver resolves references with urlpath.ResolveStrict and logs the
// ones that climb above the site root before they are dropped.
func StrictResolver(logger *log.Logger) extract.Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return func(base, ref string) (string, error) {
		abs, err := urlpath.ResolveStrict(base, ref)
		if err != nil {
			logger.Warn("Skipping reference above the site root", "ref", ref, "base", base)
		}
		return abs, err
	}
}
