package rotatefile

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

type rotatedFile struct {
	path       string
	compressed bool
	modTime    time.Time
}

// listRotated returns every rotated (non-current) file belonging to c,
// oldest first.
func (c Config) listRotated() ([]rotatedFile, error) {
	entries, err := os.ReadDir(c.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []rotatedFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if c.infixFromFilename(name) == "" || c.infixFromFilename(name) == currentInfix {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, rotatedFile{
			path:       filepath.Join(c.Directory, name),
			compressed: filepath.Ext(name) == ".gz",
			modTime:    info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].modTime.Before(out[j].modTime) })
	return out, nil
}

// runCleanup applies c.Cleanup to the files already on disk. It never
// touches the file currently being written to.
func (c Config) runCleanup() error {
	if !c.Cleanup.active() {
		return nil
	}
	files, err := c.listRotated()
	if err != nil {
		return err
	}

	switch c.Cleanup.Strategy {
	case CleanupKeepFiles:
		return deleteAllButNewest(files, c.Cleanup.Keep)
	case CleanupKeepDays:
		cutoff := time.Now().AddDate(0, 0, -c.Cleanup.Keep)
		var stale []rotatedFile
		for _, f := range files {
			if f.modTime.Before(cutoff) {
				stale = append(stale, f)
			}
		}
		return deleteFiles(stale)
	case CleanupKeepCompressed:
		if err := compressAllPlain(files); err != nil {
			return err
		}
		files, err = c.listRotated()
		if err != nil {
			return err
		}
		return deleteAllButNewest(files, c.Cleanup.Keep)
	case CleanupKeepPlainAndCompressed:
		return keepPlainAndCompressed(files, c.Cleanup.Keep, c.Cleanup.Keep2)
	}
	return nil
}

func deleteAllButNewest(files []rotatedFile, keep int) error {
	if keep < 0 {
		keep = 0
	}
	if len(files) <= keep {
		return nil
	}
	return deleteFiles(files[:len(files)-keep])
}

func deleteFiles(files []rotatedFile) error {
	var firstErr error
	for _, f := range files {
		if err := os.Remove(f.path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func compressAllPlain(files []rotatedFile) error {
	for _, f := range files {
		if f.compressed {
			continue
		}
		if err := gzipFile(f.path); err != nil {
			return err
		}
	}
	return nil
}

// keepPlainAndCompressed keeps the `plain` most recent files as plain
// text, compresses and keeps the following `compressed` files, and
// deletes the rest - spec §4.6's KeepLogAndCompressedFiles policy.
func keepPlainAndCompressed(files []rotatedFile, plain, compressed int) error {
	if plain < 0 {
		plain = 0
	}
	if compressed < 0 {
		compressed = 0
	}
	if len(files) <= plain {
		return nil
	}
	toCompress := files[:len(files)-plain]
	if len(toCompress) > compressed {
		toDelete := toCompress[:len(toCompress)-compressed]
		toCompress = toCompress[len(toCompress)-compressed:]
		if err := deleteFiles(toDelete); err != nil {
			return err
		}
	}
	return compressAllPlain(toCompress)
}

// gzipFile compresses path into path+".gz" and removes the original,
// the same one-shot compress-then-unlink sequence the rotatelogs
// reference performs for its own maxAge cleanup, generalized from
// delete-only to compress-then-delete.
func gzipFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		out.Close()
		os.Remove(path + ".gz")
		return err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// Carry the original mtime over so listRotated's oldest-first order
	// still reflects when the log was written, not when it was compressed.
	_ = os.Chtimes(path+".gz", info.ModTime(), info.ModTime())
	return os.Remove(path)
}
