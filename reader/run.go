// Package reader implements the CLI subcommands: it assembles input HTML
// files into a block document, lays it out into pages and writes them to the
// terminal, or dumps the extracted word stream.
package reader

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"lectern/archive"
	"lectern/config"
	"lectern/content"
	"lectern/layout"
	"lectern/normalize"
	"lectern/render"
	"lectern/state"
)

// Run renders the assembled document as pages on stdout.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("render")

	blocks, err := loadDocument(cmd.Args().Slice(), log)
	if err != nil {
		return err
	}

	size := viewport(env.Cfg, int(cmd.Int("width")), int(cmd.Int("height")))
	log.Debug("Laying out document", zap.Int("blocks", len(blocks)), zap.Int("width", size.Width), zap.Int("height", size.Height))

	start := time.Now()
	pg := layout.PaginateWithJustify(blocks, size, env.Cfg.Reader.Justify)

	color := !cmd.Bool("plain") && config.EnableColorOutput(os.Stdout)
	r := render.New(render.Options{Color: color, Images: color && env.Cfg.Reader.Images}, log)
	r.AddImages(blocks)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for i, page := range pg.Pages {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := r.WritePage(out, page); err != nil {
			return fmt.Errorf("unable to write page %d: %w", i+1, err)
		}
		fmt.Fprintf(out, "%s %d/%d\n", strings.Repeat("·", 3), i+1, len(pg.Pages))
	}

	log.Info("Rendering completed",
		zap.Int("pages", len(pg.Pages)),
		zap.Int("chapters", len(pg.ChapterStarts)),
		zap.Int("anchors", len(pg.Anchors)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Words dumps the word stream used by speed reading, one token per line:
// chapter index, the word, and its pause class if any.
func Words(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("words")

	blocks, err := loadDocument(cmd.Args().Slice(), log)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	words := layout.ExtractWords(blocks)
	for _, w := range words {
		mark := ""
		switch {
		case w.SentenceEnd:
			mark = "\t."
		case w.Comma:
			mark = "\t,"
		}
		fmt.Fprintf(out, "%d\t%s%s\n", w.Chapter, w.Text, mark)
	}

	log.Info("Word extraction completed", zap.Int("words", len(words)))
	return nil
}

// Dump prints the normalized block structure of the inputs. Mostly useful
// when diagnosing normalizer output.
func Dump(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("dump")

	blocks, err := loadDocument(cmd.Args().Slice(), log)
	if err != nil {
		return err
	}

	_, err = os.Stdout.WriteString(content.Dump(blocks))
	return err
}

// loadDocument normalizes every input file and joins them in natural order,
// separated by chapter breaks. Per-file failures are collected so one bad
// file does not hide the rest.
func loadDocument(args []string, log *zap.Logger) ([]content.Block, error) {
	files, err := gatherInputs(args)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no input source has been specified")
	}

	var (
		blocks []content.Block
		errs   error
	)
	for _, path := range files {
		var fileBlocks []content.Block
		if isArchive(path) {
			fileBlocks, err = loadArchive(path, log)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("unable to process archive %q: %w", path, err))
				continue
			}
		} else {
			data, err := os.ReadFile(path)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("unable to read %q: %w", path, err))
				continue
			}
			prefix := fileStem(path)
			fileBlocks = normalize.BlocksWithAssets(string(data), prefix,
				imageResolver(filepath.Dir(path), log), linkResolver(prefix))
		}
		log.Debug("Normalized input", zap.String("file", path), zap.Int("blocks", len(fileBlocks)))
		if len(fileBlocks) == 0 {
			continue
		}
		if len(blocks) > 0 {
			blocks = append(blocks, chapterBreak()...)
		}
		blocks = append(blocks, fileBlocks...)
	}
	if len(blocks) == 0 {
		if errs != nil {
			return nil, errs
		}
		return nil, errors.New("inputs contain no usable content")
	}
	if errs != nil {
		log.Warn("Some inputs were skipped", zap.Error(errs))
	}
	return blocks, nil
}

func chapterBreak() []content.Block {
	return []content.Block{
		content.Paragraph{},
		content.Paragraph{Text: "───"},
		content.Paragraph{},
	}
}

func gatherInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("unable to access input %q: %w", arg, err)
		}
		if !fi.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isHTML(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("unable to scan directory %q: %w", arg, err)
		}
	}
	sort.Sort(natural.StringSlice(files))
	return files, nil
}

// loadArchive normalizes every HTML entry of a zip bundle in natural order,
// resolving images against the other entries of the same archive.
func loadArchive(fname string, log *zap.Logger) ([]content.Block, error) {
	var names []string
	entries := make(map[string][]byte)
	err := archive.Walk(fname, nil, func(_ string, f *zip.File) error {
		data, err := archive.ReadEntry(f)
		if err != nil {
			return fmt.Errorf("unable to read zip entry %q: %w", f.Name, err)
		}
		entries[f.Name] = data
		if isHTML(f.Name) {
			names = append(names, f.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Sort(natural.StringSlice(names))

	var blocks []content.Block
	for _, name := range names {
		prefix := fileStem(name)
		fileBlocks := normalize.BlocksWithAssets(string(entries[name]), prefix,
			archiveImageResolver(entries, path.Dir(name), log), linkResolver(prefix))
		log.Debug("Normalized archive entry", zap.String("archive", fname), zap.String("entry", name), zap.Int("blocks", len(fileBlocks)))
		if len(fileBlocks) == 0 {
			continue
		}
		if len(blocks) > 0 {
			blocks = append(blocks, chapterBreak()...)
		}
		blocks = append(blocks, fileBlocks...)
	}
	return blocks, nil
}

func isHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

func isArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// imageResolver reads referenced images relative to the source file and
// derives stable slug IDs for them.
func imageResolver(dir string, log *zap.Logger) normalize.ImageResolver {
	return func(src string) (string, []byte, bool) {
		if strings.Contains(src, "://") {
			return "", nil, false
		}
		path := filepath.Join(dir, filepath.FromSlash(src))
		data, err := os.ReadFile(path)
		if err != nil {
			log.Debug("Unable to read referenced image", zap.String("src", src), zap.Error(err))
			return "", nil, false
		}
		id := slug.Make(strings.TrimSuffix(src, filepath.Ext(src)))
		if id == "" {
			id = uuid.NewString()
		}
		return id, data, true
	}
}

// archiveImageResolver resolves image references against entries of a zip
// bundle, relative to the directory of the referencing entry.
func archiveImageResolver(entries map[string][]byte, dir string, log *zap.Logger) normalize.ImageResolver {
	return func(src string) (string, []byte, bool) {
		if strings.Contains(src, "://") {
			return "", nil, false
		}
		name := path.Clean(path.Join(dir, src))
		data, ok := entries[name]
		if !ok {
			log.Debug("Referenced image is not in the archive", zap.String("src", src))
			return "", nil, false
		}
		id := slug.Make(strings.TrimSuffix(src, path.Ext(src)))
		if id == "" {
			id = uuid.NewString()
		}
		return id, data, true
	}
}

// linkResolver rewrites intra-document hrefs into the anchor namespace the
// paginator indexes: "file.html#id" becomes "file#id".
func linkResolver(prefix string) normalize.LinkResolver {
	return func(href string) (string, bool) {
		base, frag, _ := strings.Cut(href, "#")
		if base == "" {
			return prefix + "#" + frag, true
		}
		if !isHTML(base) {
			return "", false
		}
		stem := fileStem(base)
		if frag == "" {
			return stem, true
		}
		return stem + "#" + frag, true
	}
}

// viewport picks the page size: explicit flags win, then the config file,
// then the live terminal, then a conservative default.
func viewport(cfg *config.Config, flagW, flagH int) layout.Size {
	size := layout.Size{Width: cfg.Reader.Width, Height: cfg.Reader.Height}
	if flagW > 0 {
		size.Width = flagW
	}
	if flagH > 0 {
		size.Height = flagH
	}
	if size.Width <= 0 || size.Height <= 0 {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			if size.Width <= 0 {
				size.Width = w
			}
			if size.Height <= 0 {
				// leave room for the page footer
				size.Height = max(h-2, 1)
			}
		}
	}
	if size.Width <= 0 {
		size.Width = 80
	}
	if size.Height <= 0 {
		size.Height = 24
	}
	return size
}
