package python

import (
	"fmt"
	"strings"

	"github.com/sakif/chartlab/internal/workspace"
)

// artifactPrefix and artifactExt name the image files the epilogue writes.
// collectArtifacts matches the same pattern, so the two must stay in sync.
const (
	artifactPrefix = "artifact_"
	artifactExt    = ".png"
)

// scriptPrologue runs before the caller's fragment. It pins the Agg backend
// so the interpreter renders headless, then loads the dataset into `df`,
// the one variable name fragments are allowed to reference.
const scriptPrologue = `import matplotlib
matplotlib.use("Agg")
import matplotlib.pyplot as plt
import pandas as pd

df = pd.read_csv(%q)
`

// scriptEpilogue runs after the fragment. plt.get_fignums() returns figure
// numbers in ascending order, and matplotlib assigns numbers in creation
// order, so the artifact index reflects when each figure was created, not
// any filesystem listing order. Each figure is closed after saving to bound
// memory use. The final count line is diagnostic only; the number of files
// actually found on disk is the source of truth.
const scriptEpilogue = `
_fignums = plt.get_fignums()
for _idx, _num in enumerate(_fignums):
    _fig = plt.figure(_num)
    _fig.savefig(%q %% _idx)
    plt.close(_fig)
print("saved %%d chart artifact(s)" %% len(_fignums))
`

// Compose embeds the caller's fragment between the fixed prologue and
// epilogue. The fragment is included verbatim; datasetFile is the name of
// the dataset inside the workspace (the script runs with the workspace as
// its working directory).
func Compose(codeFragment, datasetFile string) string {
	var b strings.Builder
	fmt.Fprintf(&b, scriptPrologue, datasetFile)
	b.WriteString("\n")
	b.WriteString(codeFragment)
	b.WriteString("\n")
	fmt.Fprintf(&b, scriptEpilogue, artifactPrefix+"%d"+artifactExt)
	return b.String()
}

// composeForWorkspace is the production path: the dataset lives at the
// well-known name inside ws.
func composeForWorkspace(codeFragment string) string {
	return Compose(codeFragment, workspace.DatasetFileName)
}
