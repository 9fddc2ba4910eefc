package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"h2d/archive"
	"h2d/config"
	"h2d/docx"
	"h2d/markup"
	"h2d/misc"
	"h2d/state"
	"h2d/translate"
	"h2d/utils/images"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	// empty destination means "next to the source"
	dst := cmd.Args().Get(1)
	if len(dst) > 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite, env.FixHTML = cmd.Bool("nodirs"), cmd.Bool("overwrite"), cmd.Bool("fix-html")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if isDocxName(dst) {
				return fmt.Errorf("destination must be a directory when processing directory (%s)", dst)
			}
			if len(dst) == 0 {
				dst = head
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		if len(dst) == 0 {
			dst = filepath.Dir(head)
		}

		isArc, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArc {
			// we need to look inside to see if path makes sense
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if isDocxName(dst) && !isHTMLName(tail) {
				return fmt.Errorf("destination must be a directory when processing archive (%s)", dst)
			}
			if err := processArchive(ctx, head, tail, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		html, err := isHTMLFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if html && len(tail) == 0 {
			// document cannot have tail
			if err := processFile(ctx, head, filepath.Base(head), dst, log); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as HTML document (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding HTML files and archives and
// processes them.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() || isDocxName(path) {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		if isHTMLName(path) {
			count++
			if err := processFile(ctx, path, rel, dst, log); err != nil {
				log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		isArc, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !isArc {
			log.Debug("Skipping file, not recognized as HTML or archive", zap.String("file", path))
			return nil
		}
		count++
		if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
			log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds HTML files under
// "pathIn" and processes them. Relative images are looked up in the same
// archive first.
func processArchive(ctx context.Context, arcPath, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", arcPath))
		}
	}()

	env := state.EnvFromContext(ctx)
	loader := newLoader(env, filepath.Dir(arcPath), log)

	err = archive.Walk(arcPath, pathIn, func(arc string, f *zip.File, idx archive.Index) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !isHTMLInArchive(f) {
			log.Debug("Skipping file, not recognized as HTML", zap.String("archive", arc), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		data, err := archive.ReadFile(f, 0)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}

		pathInArchive := decodeEntryName(f, env, log)
		s := source{
			name:   filepath.Join(pathOut, filepath.FromSlash(pathInArchive)),
			report: path.Join(filepath.ToSlash(pathOut), filepath.Base(arc), pathInArchive),
			data:   data,
			fetcher: &archiveFetcher{
				idx:  idx,
				dir:  path.Dir(f.FileHeader.Name),
				next: loader,
				log:  log,
			},
		}
		if err := processDocument(ctx, s, dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// decodeEntryName returns archive entry name converting it from forced code
// page when necessary.
func decodeEntryName(f *zip.File, env *state.LocalEnv, log *zap.Logger) string {
	name := f.FileHeader.Name
	cp := env.CodePage
	if cp == nil || !f.FileHeader.NonUTF8 {
		return name
	}
	// forcing zip file name encoding
	n, err := cp.NewDecoder().String(name)
	if err != nil {
		csName, _ := ianaindex.IANA.Name(cp)
		log.Warn("Unable to convert archive name from specified encoding",
			zap.String("charset", csName), zap.String("path", name), zap.Error(err))
		return name
	}
	return n
}

// processFile reads HTML file from disk, relative images are resolved
// against its directory.
func processFile(ctx context.Context, file, rel, dst string, log *zap.Logger) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	s := source{
		name:    rel,
		report:  filepath.ToSlash(rel),
		data:    data,
		fetcher: newLoader(state.EnvFromContext(ctx), filepath.Dir(file), log),
	}
	return processDocument(ctx, s, dst, log)
}

func newLoader(env *state.LocalEnv, baseDir string, log *zap.Logger) *images.Loader {
	conf := &env.Cfg.Document.Images
	return images.NewLoader(log,
		images.WithBaseDir(baseDir),
		images.WithTimeout(time.Duration(conf.Timeout)*time.Second),
		images.WithBearerToken(conf.AuthToken.Value()),
	)
}

// source is a single HTML document to convert.
type source struct {
	// part of the source path (always including file name) relative to the
	// processed path, base file name when single file was requested
	name string
	// unique name to keep source and result under in debug report
	report  string
	data    []byte
	fetcher images.Fetcher
}

// processDocument converts single HTML document. "dst" is the destination
// directory where the converted file should be written or name of the
// output file.
func processDocument(ctx context.Context, src source, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Conversion starting", zap.String("from", src.name))
	defer func(start time.Time) {
		// NOTE: some of golang graphic processing libraries are not mature
		// enough if multiple documents are being processed we do not want to
		// stop.
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	env.Rpt.StoreData(path.Join("source", src.report), src.data)

	text, err := markup.Decode(src.data, "")
	if err != nil {
		return fmt.Errorf("unable to decode html source (%s): %w", src.name, err)
	}

	tc := env.Cfg.Document.Translation()
	if env.FixHTML {
		tc.Features.FixHTML = true
	}
	tr, err := translate.New(tc, log, translate.WithFetcher(src.fetcher))
	if err != nil {
		return fmt.Errorf("unable to prepare translation: %w", err)
	}

	doc := docx.New()
	doc.SetCreator(misc.GetAppName() + " " + misc.GetVersion())
	addCustomStyles(doc, env.Cfg.Document.Styles.Custom, log)

	if err := tr.AddHTMLToDocument(ctx, text, doc); err != nil {
		return fmt.Errorf("unable to translate html source (%s): %w", src.name, err)
	}

	// Determine output file name and path based on input and configuration.
	outputName = buildOutputPath(src.name, doc.Title(), dst, env)

	if err := prepareOutput(outputName, env.Overwrite, log); err != nil {
		return err
	}
	if err := doc.SaveFile(outputName, env.Cfg.Document.FixZip); err != nil {
		return fmt.Errorf("unable to save document: %w", err)
	}

	// Store conversion result for debugging, later documents may overwrite it
	if err := env.Rpt.StoreCopy(path.Join("result", src.report)+docxExt, outputName); err != nil {
		log.Warn("Unable to store result in debug report", zap.String("file", outputName), zap.Error(err))
	}
	return nil
}

// prepareOutput makes sure output file could be written.
func prepareOutput(name string, overwrite bool, log *zap.Logger) error {
	if _, err := os.Stat(name); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
		return os.Remove(name)
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

// addCustomStyles defines configured styles in the document, styles which
// cannot be added are reported and skipped.
func addCustomStyles(doc *docx.Document, styles []config.CustomStyle, log *zap.Logger) {
	for i := range styles {
		spec, err := styles[i].Spec()
		if err == nil {
			err = doc.AddStyle(spec)
		}
		if err != nil {
			log.Warn("Unable to add custom style", zap.String("style", styles[i].Name), zap.Error(err))
		}
	}
}
