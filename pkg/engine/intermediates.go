package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/clipstream/engine/pkg/engine/model"
)

// dumpIntermediate persists one stage's raw output under dir and returns the
// written file's path. Buffers are written verbatim, referenced files are
// copied, structured values are pretty-printed, and list outputs are only
// counted.
func dumpIntermediate(dir string, res model.StageResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "unable to create directory %s", dir)
	}

	base := filepath.Join(dir, fmt.Sprintf("stage_%02d_%s", res.Index, res.OperationName))

	switch res.Output.Kind() {
	case model.KindBytes:
		buf, _ := res.Output.Bytes()
		name := base + ".bin"

		return name, errors.Wrapf(os.WriteFile(name, buf, 0o644), "unable to write %s", name)

	case model.KindPath:
		src, _ := res.Output.Path()
		name := base + filepath.Ext(src)

		return name, copyFile(src, name)

	case model.KindStructured:
		v, _ := res.Output.Structured()
		enc, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "unable to encode structured output")
		}
		name := base + ".json"

		return name, errors.Wrapf(os.WriteFile(name, enc, 0o644), "unable to write %s", name)

	case model.KindList:
		items, _ := res.Output.List()
		name := base + ".txt"
		summary := fmt.Sprintf("%d outputs\n", len(items))

		return name, errors.Wrapf(os.WriteFile(name, []byte(summary), 0o644), "unable to write %s", name)
	}

	return "", errors.Errorf("stage %d produced no output to persist", res.Index)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "unable to copy %s", src)
	}

	return nil
}
